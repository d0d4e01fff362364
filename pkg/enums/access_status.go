package enums

import "fmt"

// AccessStatus captures the lifecycle of a restaurant access record.
type AccessStatus string

const (
	AccessStatusPending   AccessStatus = "pending"
	AccessStatusApproved  AccessStatus = "approved"
	AccessStatusSuspended AccessStatus = "suspended"
	AccessStatusInactive  AccessStatus = "inactive"
)

var validAccessStatuses = []AccessStatus{
	AccessStatusPending,
	AccessStatusApproved,
	AccessStatusSuspended,
	AccessStatusInactive,
}

// ActiveAccessStatuses lists the statuses that count against the one
// live record per (user, restaurant) constraint.
var ActiveAccessStatuses = []AccessStatus{
	AccessStatusPending,
	AccessStatusApproved,
	AccessStatusSuspended,
}

// String implements fmt.Stringer.
func (a AccessStatus) String() string {
	return string(a)
}

// IsValid reports whether the value matches a known AccessStatus.
func (a AccessStatus) IsValid() bool {
	for _, candidate := range validAccessStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (a AccessStatus) IsTerminal() bool {
	return a == AccessStatusInactive
}

// ParseAccessStatus converts raw input into an AccessStatus.
func ParseAccessStatus(value string) (AccessStatus, error) {
	for _, candidate := range validAccessStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid access status %q", value)
}
