package registration

import "fmt"

const (
	FormattedIDPrefix = "GENZ"
	formattedIDWidth  = 5
)

// FormatID derives the human-readable code for a store id. Ids wider than
// the pad width are written in full, never truncated.
func FormatID(id int64) string {
	return fmt.Sprintf("%s%0*d", FormattedIDPrefix, formattedIDWidth, id)
}
