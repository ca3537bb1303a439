package registration

import (
	"slices"
	"strings"
	"time"
)

type Department string

const (
	DepartmentTech        Department = "TECH"
	DepartmentFinance     Department = "FINANCE"
	DepartmentMarketing   Department = "MARKETING"
	DepartmentConsultancy Department = "CONSULTANCY"
)

// Departments lists the closed set in declaration order.
var Departments = []Department{
	DepartmentTech,
	DepartmentFinance,
	DepartmentMarketing,
	DepartmentConsultancy,
}

// IsValid matches d exactly; lower-case names are rejected.
func (d Department) IsValid() bool {
	return slices.Contains(Departments, d)
}

// DepartmentNames joins the closed set for error messages.
func DepartmentNames() string {
	names := make([]string, len(Departments))
	for i, d := range Departments {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}

// Registration is one community sign-up. ID and JoinDate are assigned by the
// store on first write; FormattedID is attached once afterwards.
type Registration struct {
	ID                int64      `json:"id"`
	FormattedID       string     `json:"formattedId"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	Location          string     `json:"location,omitempty"`
	Bio               string     `json:"bio,omitempty"`
	Department        Department `json:"department"`
	ProfilePictureURL string     `json:"profilePictureUrl,omitempty"`
	PortfolioURL      string     `json:"portfolioUrl,omitempty"`
	GithubURL         string     `json:"githubUrl,omitempty"`
	LinkedinURL       string     `json:"linkedinUrl,omitempty"`
	Skills            []string   `json:"skills"`
	JoinDate          time.Time  `json:"joinDate"`
}

// Identified reports whether both the store id and the formatted id exist.
func (r Registration) Identified() bool {
	return r.ID > 0 && r.FormattedID != ""
}

type CreateRegistrationRequest struct {
	Email             string     `json:"email" binding:"required,email,max=255"`
	Name              string     `json:"name" binding:"required,max=255,personname"`
	Location          string     `json:"location" binding:"omitempty,max=255,location"`
	Bio               string     `json:"bio" binding:"omitempty,max=500"`
	Department        Department `json:"department" binding:"required,department"`
	ProfilePictureURL string     `json:"profilePictureUrl" binding:"omitempty,weburl"`
	PortfolioURL      string     `json:"portfolioUrl" binding:"omitempty,weburl"`
	GithubURL         string     `json:"githubUrl" binding:"omitempty,githuburl"`
	LinkedinURL       string     `json:"linkedinUrl" binding:"omitempty,linkedinurl"`
	Skills            []string   `json:"skills" binding:"required,min=1,dive,min=1,max=50,skill"`
}

// NewFromCreateRequest builds an unsaved Registration from the incoming DTO.
func NewFromCreateRequest(req CreateRegistrationRequest) Registration {
	skills := make([]string, 0, len(req.Skills))
	for _, s := range req.Skills {
		skills = append(skills, strings.TrimSpace(s))
	}

	return Registration{
		Email:             req.Email,
		Name:              strings.TrimSpace(req.Name),
		Location:          strings.TrimSpace(req.Location),
		Bio:               req.Bio,
		Department:        req.Department,
		ProfilePictureURL: strings.TrimSpace(req.ProfilePictureURL),
		PortfolioURL:      strings.TrimSpace(req.PortfolioURL),
		GithubURL:         strings.TrimSpace(req.GithubURL),
		LinkedinURL:       strings.TrimSpace(req.LinkedinURL),
		Skills:            skills,
	}
}

// NormalizeEmail is the canonical form used for storage and uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
