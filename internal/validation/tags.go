package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mockskills/collabzone/internal/domain/registration"
)

var tagFuncs = map[string]validator.Func{
	"personname":  matchString(namePattern.MatchString),
	"location":    matchString(locationPattern.MatchString),
	"weburl":      matchString(webURLPattern.MatchString),
	"githuburl":   matchString(githubPattern.MatchString),
	"linkedinurl": matchString(linkedinPattern.MatchString),
	"skill":       matchString(skillPattern.MatchString),
	"department": func(fl validator.FieldLevel) bool {
		return registration.Department(fl.Field().String()).IsValid()
	},
}

var tagMessages = map[string]string{
	"personname":  "must start with a letter and only contain letters and spaces",
	"location":    "must follow the format 'City, Country' or 'City, State, Country'",
	"weburl":      "must be a valid URL",
	"githuburl":   "must be a valid GitHub profile or repository URL",
	"linkedinurl": "must be a valid LinkedIn profile URL",
	"skill":       "must only contain letters, spaces, and periods",
	"department":  "must be one of " + registration.DepartmentNames(),
}

func matchString(match func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return false
		}
		return match(fl.Field().String())
	}
}

// RegisterTags installs the registration tags on v and makes field errors
// report JSON names.
func RegisterTags(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)

	for tag, fn := range tagFuncs {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func jsonFieldName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// TagMessage returns the field message for a custom tag.
func TagMessage(tag string) (string, bool) {
	msg, ok := tagMessages[tag]
	return msg, ok
}
