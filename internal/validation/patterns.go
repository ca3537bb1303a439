package validation

import "regexp"

var (
	namePattern     = regexp.MustCompile(`^[A-Za-z][A-Za-z\s]*$`)
	locationPattern = regexp.MustCompile(`^[A-Za-z]+(?:[\s-][A-Za-z]+)*(?:,\s[A-Za-z]+(?:[\s-][A-Za-z]+)*)?(?:,\s[A-Za-z]+(?:[\s-][A-Za-z]+)*)?$`)
	webURLPattern   = regexp.MustCompile(`^(https?://[\w.-]+(?:\.[\w\.-]+)+[/\w\-.?%&=]*)?$`)
	githubPattern   = regexp.MustCompile(`^(https?://github\.com/\w+(/[\w.-]*)*)?$`)
	linkedinPattern = regexp.MustCompile(`^(https?://(www\.)?linkedin\.com/.*)?$`)
	skillPattern    = regexp.MustCompile(`^[A-Za-z\s\.]+$`)
)

const (
	maxNameLen     = 255
	maxEmailLen    = 255
	maxLocationLen = 255
	maxBioLen      = 500
	maxSkillLen    = 50
)
