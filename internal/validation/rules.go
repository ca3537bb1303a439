// Package validation holds the registration field rules. The same table backs
// the workflow check and the custom tags used when binding request bodies.
package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/mockskills/collabzone/internal/domain/registration"
)

// Rule is one field predicate with the message reported when it fails.
type Rule struct {
	Field   string
	Message string
	Valid   func(r registration.Registration) bool
}

var std = validator.New()

// Rules are consulted in order; the first failing rule wins.
var Rules = []Rule{
	{"name", registration.MsgNameMissing, func(r registration.Registration) bool {
		return strings.TrimSpace(r.Name) != ""
	}},
	{"email", registration.MsgEmailMissing, func(r registration.Registration) bool {
		return strings.TrimSpace(r.Email) != ""
	}},
	{"email", "Email must be a valid email address.", func(r registration.Registration) bool {
		return std.Var(strings.TrimSpace(r.Email), "email") == nil
	}},
	{"email", "Email must not exceed 255 characters.", func(r registration.Registration) bool {
		return utf8.RuneCountInString(r.Email) <= maxEmailLen
	}},
	{"name", "Name must start with a letter and only contain letters and spaces.", func(r registration.Registration) bool {
		return namePattern.MatchString(r.Name)
	}},
	{"name", "Name must not exceed 255 characters.", func(r registration.Registration) bool {
		return utf8.RuneCountInString(r.Name) <= maxNameLen
	}},
	{"location", "Location must follow the format 'City, Country' or 'City, State, Country'.", func(r registration.Registration) bool {
		return r.Location == "" || locationPattern.MatchString(r.Location)
	}},
	{"location", "Location must not exceed 255 characters.", func(r registration.Registration) bool {
		return utf8.RuneCountInString(r.Location) <= maxLocationLen
	}},
	{"bio", "Bio must not exceed 500 characters.", func(r registration.Registration) bool {
		return utf8.RuneCountInString(r.Bio) <= maxBioLen
	}},
	{"department", "Department is mandatory.", func(r registration.Registration) bool {
		return r.Department != ""
	}},
	{"department", "Department must be one of " + registration.DepartmentNames() + ".", func(r registration.Registration) bool {
		return r.Department.IsValid()
	}},
	{"profilePictureUrl", "Profile picture URL must be a valid URL.", func(r registration.Registration) bool {
		return webURLPattern.MatchString(r.ProfilePictureURL)
	}},
	{"portfolioUrl", "Portfolio URL must be a valid URL.", func(r registration.Registration) bool {
		return webURLPattern.MatchString(r.PortfolioURL)
	}},
	{"githubUrl", "GitHub URL must be a valid GitHub profile or repository URL.", func(r registration.Registration) bool {
		return githubPattern.MatchString(r.GithubURL)
	}},
	{"linkedinUrl", "LinkedIn URL must be a valid LinkedIn profile URL.", func(r registration.Registration) bool {
		return linkedinPattern.MatchString(r.LinkedinURL)
	}},
	{"skills", "Skills cannot be empty.", func(r registration.Registration) bool {
		return len(r.Skills) > 0
	}},
	{"skills", "Each skill must be between 1 and 50 characters.", func(r registration.Registration) bool {
		for _, s := range r.Skills {
			if n := utf8.RuneCountInString(s); n < 1 || n > maxSkillLen {
				return false
			}
		}
		return true
	}},
	{"skills", "Each skill must only contain letters, spaces, and periods.", func(r registration.Registration) bool {
		for _, s := range r.Skills {
			if !skillPattern.MatchString(s) {
				return false
			}
		}
		return true
	}},
}

// Check runs the rule table and returns the first failure as a rejection.
func Check(r registration.Registration) *registration.RejectionError {
	for _, rule := range Rules {
		if !rule.Valid(r) {
			return registration.Invalid(rule.Field, rule.Message)
		}
	}
	return nil
}
