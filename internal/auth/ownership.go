package auth

import "strings"

// IsOwner reports whether the acting identity owns the resource. Ids are
// compared after trimming and case-folding so differing representations of
// the same id cannot slip past the check. Callers translate a false result
// into Forbidden, never Unauthorized.
func IsOwner(actingID, resourceOwnerID string) bool {
	acting := strings.ToLower(strings.TrimSpace(actingID))
	owner := strings.ToLower(strings.TrimSpace(resourceOwnerID))
	if acting == "" || owner == "" {
		return false
	}
	return acting == owner
}
