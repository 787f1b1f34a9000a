package trial

import "strings"

// activelyRecruiting lists the site recruitment statuses that count as open.
var activelyRecruiting = map[string]struct{}{
	"active":                        {},
	"approved":                      {},
	"enrolling_by_invitation":       {},
	"in_review":                     {},
	"temporarily_closed_to_accrual": {},
}

// IsActivelyRecruiting reports whether a site recruitment status counts as open.
func IsActivelyRecruiting(status string) bool {
	_, ok := activelyRecruiting[strings.ToLower(strings.TrimSpace(status))]
	return ok
}
