package booking

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleTeacher  Role = "teacher"
	RoleStudent  Role = "student"
	RoleGuardian Role = "guardian"
)

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !slices.Contains(participants, r) {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Actor is the caller of a booking operation, as vouched for by the identity
// collaborator. Wards lists the students a guardian is responsible for.
type Actor struct {
	ID    uuid.UUID
	Role  Role
	Wards []uuid.UUID
}

// relatedTo reports whether the actor has any standing on the booking at all.
func (a Actor) relatedTo(b *models.Booking) bool {
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleTeacher:
		return a.ID == b.TeacherID
	case RoleStudent:
		return a.ID == b.StudentID
	case RoleGuardian:
		return slices.Contains(a.Wards, b.StudentID)
	}
	return false
}

// Authorize checks the actor against the role column of the transition
// table. Actors unrelated to the booking get ErrNotFound so they cannot
// probe for its existence.
func Authorize(a Actor, b *models.Booking, action Action) error {
	if !a.relatedTo(b) {
		return ErrNotFound
	}

	r, ok := transitions[action]
	if !ok || !slices.Contains(r.roles, a.Role) {
		return &UnauthorizedError{Role: a.Role, Action: action}
	}

	return nil
}

// Guard runs the full check for an actor-driven action: authorization
// first, then the current status.
func Guard(a Actor, b *models.Booking, action Action) error {
	if err := Authorize(a, b, action); err != nil {
		return err
	}
	return CanTransition(StatusOf(b), action)
}

// AuthorizeCreate decides who may request a booking: admins for anyone,
// teachers on their own calendar, students for themselves and guardians for
// their wards.
func AuthorizeCreate(a Actor, teacherID, studentID uuid.UUID) error {
	switch {
	case a.Role == RoleAdmin,
		a.Role == RoleTeacher && a.ID == teacherID,
		a.Role == RoleStudent && a.ID == studentID,
		a.Role == RoleGuardian && slices.Contains(a.Wards, studentID):
		return nil
	}
	return &UnauthorizedError{Role: a.Role, Action: actionCreate}
}

// IsSystem reports whether the actor is the zero value used for time-based
// jobs.
func (a Actor) IsSystem() bool {
	return a.ID == uuid.Nil && a.Role == ""
}
