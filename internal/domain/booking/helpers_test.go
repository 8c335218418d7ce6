package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
)

var (
	testToday = time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
	testNow   = time.Date(2025, 5, 20, 14, 30, 0, 0, time.UTC)
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

func win(start, end string) Window {
	return Window{Start: models.MustTimeOfDay(start), End: models.MustTimeOfDay(end)}
}

type fixture struct {
	teacher  Actor
	student  Actor
	guardian Actor
	admin    Actor
	stranger Actor
}

func newFixture() fixture {
	studentID := uuid.New()
	return fixture{
		teacher:  Actor{ID: uuid.New(), Role: RoleTeacher},
		student:  Actor{ID: studentID, Role: RoleStudent},
		guardian: Actor{ID: uuid.New(), Role: RoleGuardian, Wards: []uuid.UUID{studentID}},
		admin:    Actor{ID: uuid.New(), Role: RoleAdmin},
		stranger: Actor{ID: uuid.New(), Role: RoleStudent},
	}
}

func (f fixture) booking(t *testing.T, status Status, date, start, end string) *models.Booking {
	t.Helper()
	w := win(start, end)
	return &models.Booking{
		ID:        uuid.New(),
		Reference: "BK-250520-" + uuid.NewString()[:4],
		TeacherID: f.teacher.ID,
		StudentID: f.student.ID,
		SubjectID: uuid.New(),
		Date:      day(t, date),
		StartTime: w.Start,
		EndTime:   w.End,
		Duration:  w.Minutes(),
		Status:    string(status),
	}
}
