package booking

type EventKind string

const (
	EventCreated     EventKind = "BookingCreated"
	EventApproved    EventKind = "BookingApproved"
	EventRejected    EventKind = "BookingRejected"
	EventCancelled   EventKind = "BookingCancelled"
	EventCompleted   EventKind = "BookingCompleted"
	EventMissed      EventKind = "BookingMissed"
	EventRescheduled EventKind = "BookingRescheduled"
	EventUpdated     EventKind = "BookingUpdated"
	EventDeleted     EventKind = "BookingDeleted"
	EventPromoted    EventKind = "BookingPromoted"
)

// EventFor maps a status-changing action to the event it emits.
func EventFor(action Action) (EventKind, bool) {
	switch action {
	case ActionApprove:
		return EventApproved, true
	case ActionReject:
		return EventRejected, true
	case ActionCancel:
		return EventCancelled, true
	case ActionComplete:
		return EventCompleted, true
	case ActionMiss:
		return EventMissed, true
	case ActionReschedule:
		return EventRescheduled, true
	case ActionUpdate:
		return EventUpdated, true
	case ActionDelete:
		return EventDeleted, true
	case ActionPromote:
		return EventPromoted, true
	}
	return "", false
}
