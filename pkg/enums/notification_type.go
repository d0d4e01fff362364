package enums

import "fmt"

// NotificationType identifies the event a notification reports.
type NotificationType string

const (
	NotificationTypeAccessRequest    NotificationType = "access_request"
	NotificationTypeAccessGranted    NotificationType = "access_granted"
	NotificationTypeAccessDenied     NotificationType = "access_denied"
	NotificationTypeAccessSuspended  NotificationType = "access_suspended"
	NotificationTypeRestaurantUpdate NotificationType = "restaurant_update"
	NotificationTypeSystem           NotificationType = "system"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeAccessRequest,
	NotificationTypeAccessGranted,
	NotificationTypeAccessDenied,
	NotificationTypeAccessSuspended,
	NotificationTypeRestaurantUpdate,
	NotificationTypeSystem,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
