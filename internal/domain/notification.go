package domain

// NotificationKind names the event change an attendee is told about.
type NotificationKind string

const (
	NotificationEventUpdated   NotificationKind = "event_updated"
	NotificationEventCancelled NotificationKind = "event_cancelled"
)

// EventNotification is one fan-out request: tell every recipient about a change to an event.
type EventNotification struct {
	Kind         NotificationKind
	EventID      string
	EventTitle   string
	RecipientIDs []string
}

// Notifier accepts notifications for delivery after the caller has moved on.
// Notify must not block on delivery and never reports delivery failures.
type Notifier interface {
	Notify(n EventNotification)
}
