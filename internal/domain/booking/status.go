package booking

import (
	"fmt"
	"slices"

	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
)

// ===============================
// Booking Status
// ===============================

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusUpcoming  Status = "upcoming"
	StatusCompleted Status = "completed"
	StatusMissed    Status = "missed"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusPending,
	StatusApproved,
	StatusRejected,
	StatusUpcoming,
	StatusCompleted,
	StatusMissed,
	StatusCancelled,
}

// ActiveStatuses are the statuses that occupy a teacher's calendar.
var ActiveStatuses = []Status{StatusPending, StatusApproved, StatusUpcoming}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !slices.Contains(allStatuses, st) {
		return "", fmt.Errorf("unknown booking status %q", s)
	}
	return st, nil
}

func StatusOf(b *models.Booking) Status {
	return Status(b.Status)
}

func (s Status) IsActive() bool {
	return slices.Contains(ActiveStatuses, s)
}

func (s Status) String() string {
	return string(s)
}

// ===============================
// Actions
// ===============================

type Action string

const (
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionCancel     Action = "cancel"
	ActionComplete   Action = "complete"
	ActionMiss       Action = "miss"
	ActionDelete     Action = "delete"
	ActionReschedule Action = "reschedule"
	ActionUpdate     Action = "update"
	ActionView       Action = "view"

	actionCreate Action = "create"

	// ActionPromote is driven by the time-based promotion job and is not
	// available to any actor.
	ActionPromote Action = "promote"
)

// rule is one row of the transition table: the statuses an action may start
// from, who may trigger it and the status it produces. An empty target means
// the status is unchanged (update) or the row disappears (delete).
type rule struct {
	from   []Status
	roles  []Role
	target Status
}

var participants = []Role{RoleAdmin, RoleTeacher, RoleStudent, RoleGuardian}

var transitions = map[Action]rule{
	ActionApprove:    {from: []Status{StatusPending}, roles: []Role{RoleTeacher}, target: StatusApproved},
	ActionReject:     {from: []Status{StatusPending}, roles: []Role{RoleTeacher}, target: StatusRejected},
	ActionCancel:     {from: []Status{StatusPending, StatusApproved, StatusUpcoming}, roles: participants, target: StatusCancelled},
	ActionComplete:   {from: []Status{StatusUpcoming}, roles: []Role{RoleTeacher}, target: StatusCompleted},
	ActionMiss:       {from: []Status{StatusUpcoming}, roles: []Role{RoleTeacher}, target: StatusMissed},
	ActionDelete:     {from: []Status{StatusPending}, roles: participants},
	ActionReschedule: {from: []Status{StatusApproved, StatusUpcoming, StatusCancelled}, roles: participants, target: StatusPending},
	ActionUpdate:     {from: []Status{StatusPending, StatusUpcoming}, roles: participants},
	ActionView:       {from: allStatuses, roles: participants},
	ActionPromote:    {from: []Status{StatusApproved}, target: StatusUpcoming},
}

// CanTransition reports whether action may be applied to a booking in the
// current status, ignoring who asks.
func CanTransition(current Status, action Action) error {
	r, ok := transitions[action]
	if !ok || !slices.Contains(r.from, current) {
		return &TransitionError{Current: current, Action: action}
	}
	return nil
}

// Target is the status an action leaves the booking in. ok is false for
// actions that do not change the status.
func Target(action Action) (Status, bool) {
	r, ok := transitions[action]
	if !ok || r.target == "" {
		return "", false
	}
	return r.target, true
}

func InitialStatus() Status {
	return StatusPending
}
