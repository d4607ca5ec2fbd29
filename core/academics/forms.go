package academics

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/onestop/core"
)

var errInvalidAmount = core.NewValidationMessage("Amount must be a positive number with at most 2 decimals.")

type (
	NewAttendance struct {
		StudentID int64  `form:"studentId" validate:"required,gt=0"`
		Course    string `form:"course" validate:"required"`
		Date      string `form:"date" validate:"required,datetime=2006-01-02"`
		Status    string `form:"status" validate:"required,oneof=Present Absent Late"`
	}

	NewGrade struct {
		StudentID int64  `form:"studentId" validate:"required,gt=0"`
		Course    string `form:"course" validate:"required"`
		Semester  string `form:"semester" validate:"required"`
		Grade     string `form:"grade" validate:"required,max=5"`
		Remarks   string `form:"remarks"`
	}

	NewLeave struct {
		Type      string `form:"leaveType" validate:"required,oneof=Medical Academic Personal"`
		StartDate string `form:"startDate" validate:"required,datetime=2006-01-02"`
		EndDate   string `form:"endDate" validate:"required,datetime=2006-01-02"`
		Reason    string `form:"reason" validate:"required"`
	}

	NewSlot struct {
		Day       string `form:"day" validate:"required,weekday"`
		StartTime string `form:"startTime" validate:"required,datetime=15:04"`
		EndTime   string `form:"endTime" validate:"required,datetime=15:04"`
		Subject   string `form:"subject" validate:"required"`
		Room      string `form:"room"`
		TeacherID int64  `form:"teacherId" validate:"omitempty,gt=0"`
	}

	NewAssignment struct {
		Title       string `form:"title" validate:"required"`
		Description string `form:"description"`
		Course      string `form:"course" validate:"required"`
		DueDate     string `form:"dueDate" validate:"required,datetime=2006-01-02"`
	}

	NewPayment struct {
		Amount      string `form:"amount" validate:"required"`
		Description string `form:"description" validate:"required"`
	}

	NewMessage struct {
		ReceiverID int64  `form:"receiverId" validate:"required,gt=0"`
		Content    string `form:"content" validate:"required,max=2000"`
	}

	NewEvent struct {
		Title       string `form:"title" validate:"required"`
		Description string `form:"description"`
		EventDate   string `form:"eventDate" validate:"required,datetime=2006-01-02"`
	}

	NewFeedback struct {
		Course   string `form:"course" validate:"required"`
		Rating   int    `form:"rating" validate:"required,min=1,max=5"`
		Comments string `form:"comments"`
	}
)

func (na *NewAttendance) Clean() {
	na.Course = core.CleanString(na.Course)
	na.Date = core.CleanString(na.Date)
	na.Status = capitalize(core.CleanString(na.Status, true /* lower */))
}

func (ng *NewGrade) Clean() {
	ng.Course = core.CleanString(ng.Course)
	ng.Semester = core.CleanString(ng.Semester)
	ng.Grade = strings.ToUpper(core.CleanString(ng.Grade))
	ng.Remarks = core.CleanString(ng.Remarks)
}

func (nl *NewLeave) Clean() {
	nl.Type = core.CleanString(nl.Type)
	nl.StartDate = core.CleanString(nl.StartDate)
	nl.EndDate = core.CleanString(nl.EndDate)
	nl.Reason = core.CleanString(nl.Reason)
}

func (ns *NewSlot) Clean() {
	ns.Day = core.CleanString(ns.Day)
	if day, ok := core.ParseWeekday(ns.Day); ok {
		ns.Day = day.String()
	}
	ns.StartTime = core.CleanString(ns.StartTime)
	ns.EndTime = core.CleanString(ns.EndTime)
	ns.Subject = core.CleanString(ns.Subject)
	ns.Room = core.CleanString(ns.Room)
}

func (na *NewAssignment) Clean() {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.Course = core.CleanString(na.Course)
	na.DueDate = core.CleanString(na.DueDate)
}

func (np *NewPayment) Clean() {
	np.Amount = core.CleanString(np.Amount)
	np.Description = core.CleanString(np.Description)
}

func (nm *NewMessage) Clean() {
	nm.Content = core.CleanString(nm.Content)
}

func (ne *NewEvent) Clean() {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	ne.EventDate = core.CleanString(ne.EventDate)
}

func (nf *NewFeedback) Clean() {
	nf.Course = core.CleanString(nf.Course)
	nf.Comments = core.CleanString(nf.Comments)
}

// ParseDate parses a form date (already validated against DateLayout) as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	return t, errors.Wrapf(err, "parsing date %q", s)
}

// ParseCents parses a positive decimal amount ("150", "150.5", "150.50") into cents.
func ParseCents(s string) (int64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, errInvalidAmount
	}
	if dot := strings.IndexByte(s, '.'); dot >= 0 && len(s)-dot-1 > 2 {
		return 0, errInvalidAmount
	}
	cents := int64(math.Round(f * 100))
	if cents <= 0 {
		return 0, errInvalidAmount
	}
	return cents, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
