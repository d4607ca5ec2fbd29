package academics

import (
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/onestop/core"
)

// DateLayout is the layout of every date field of the forms.
const DateLayout = "2006-01-02"

// Attendance statuses
const (
	AttendancePresent = "Present"
	AttendanceAbsent  = "Absent"
	AttendanceLate    = "Late"
)

// Leave statuses & types
const (
	LeavePending  = "Pending"
	LeaveApproved = "Approved"
	LeaveRejected = "Rejected"

	LeaveMedical  = "Medical"
	LeaveAcademic = "Academic"
	LeavePersonal = "Personal"
)

var (
	AttendanceStatuses = []string{AttendancePresent, AttendanceAbsent, AttendanceLate}
	LeaveTypes         = []string{LeaveMedical, LeaveAcademic, LeavePersonal}
	Weekdays           = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
)

type (
	Attendance struct {
		ID          int64      `db:"id" json:"id"`
		StudentID   int64      `db:"student_id" json:"student_id"`
		StudentName string     `db:"student_name" json:"student_name"`
		Course      string     `db:"course" json:"course"`
		Date        time.Time  `db:"date" json:"date"`
		Status      string     `db:"status" json:"status"`
		MarkedBy    null.Int64 `db:"marked_by" json:"marked_by"`
	}

	Grade struct {
		ID          int64       `db:"id" json:"id"`
		StudentID   int64       `db:"student_id" json:"student_id"`
		StudentName string      `db:"student_name" json:"student_name"`
		Course      string      `db:"course" json:"course"`
		Semester    string      `db:"semester" json:"semester"`
		Grade       string      `db:"grade" json:"grade"`
		Remarks     null.String `db:"remarks" json:"remarks"`
		GradedBy    null.Int64  `db:"graded_by" json:"graded_by"`
		CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	}

	Leave struct {
		ID         int64      `db:"id" json:"id"`
		UserID     int64      `db:"user_id" json:"user_id"`
		UserName   string     `db:"user_name" json:"user_name"`
		UserRole   string     `db:"user_role" json:"user_role"`
		Type       string     `db:"leave_type" json:"leave_type"`
		StartDate  time.Time  `db:"start_date" json:"start_date"`
		EndDate    time.Time  `db:"end_date" json:"end_date"`
		Reason     string     `db:"reason" json:"reason"`
		Status     string     `db:"status" json:"status"`
		ReviewedBy null.Int64 `db:"reviewed_by" json:"reviewed_by"`
		AppliedAt  time.Time  `db:"applied_at" json:"applied_at"`
	}

	TimetableSlot struct {
		ID          int64       `db:"id" json:"id"`
		Day         string      `db:"day" json:"day"`
		StartTime   string      `db:"start_time" json:"start_time"`
		EndTime     string      `db:"end_time" json:"end_time"`
		Subject     string      `db:"subject" json:"subject"`
		Room        null.String `db:"room" json:"room"`
		TeacherID   null.Int64  `db:"teacher_id" json:"teacher_id"`
		TeacherName null.String `db:"teacher_name" json:"teacher_name"`
	}

	Assignment struct {
		ID          int64       `db:"id" json:"id"`
		Title       string      `db:"title" json:"title"`
		Description null.String `db:"description" json:"description"`
		Course      string      `db:"course" json:"course"`
		DueDate     time.Time   `db:"due_date" json:"due_date"`
		CreatedBy   null.Int64  `db:"created_by" json:"created_by"`
		CreatorName null.String `db:"creator_name" json:"creator_name"`
		CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	}

	Payment struct {
		ID          int64     `db:"id" json:"id"`
		UserID      int64     `db:"user_id" json:"user_id"`
		UserName    string    `db:"user_name" json:"user_name"`
		AmountCents int64     `db:"amount_cents" json:"amount_cents"`
		Description string    `db:"description" json:"description"`
		PaidAt      time.Time `db:"paid_at" json:"paid_at"`
	}

	Message struct {
		ID           int64     `db:"id" json:"id"`
		SenderID     int64     `db:"sender_id" json:"sender_id"`
		SenderName   string    `db:"sender_name" json:"sender_name"`
		ReceiverID   int64     `db:"receiver_id" json:"receiver_id"`
		ReceiverName string    `db:"receiver_name" json:"receiver_name"`
		Content      string    `db:"content" json:"content"`
		SentAt       time.Time `db:"sent_at" json:"sent_at"`
	}

	Event struct {
		ID          int64       `db:"id" json:"id"`
		Title       string      `db:"title" json:"title"`
		Description null.String `db:"description" json:"description"`
		EventDate   time.Time   `db:"event_date" json:"event_date"`
		CreatedBy   null.Int64  `db:"created_by" json:"created_by"`
		CreatorName null.String `db:"creator_name" json:"creator_name"`
	}

	Feedback struct {
		ID          int64       `db:"id" json:"id"`
		UserID      int64       `db:"user_id" json:"user_id"`
		UserName    string      `db:"user_name" json:"user_name"`
		Course      string      `db:"course" json:"course"`
		Rating      int         `db:"rating" json:"rating"`
		Comments    null.String `db:"comments" json:"comments"`
		SubmittedAt time.Time   `db:"submitted_at" json:"submitted_at"`
	}

	// Stats are the admin dashboard counters.
	Stats struct {
		Students      int `db:"students"`
		Teachers      int `db:"teachers"`
		Admins        int `db:"admins"`
		PendingLeaves int `db:"pending_leaves"`
		Assignments   int `db:"assignments"`
		Events        int `db:"events"`
	}

	// Filter narrows list queries. Zero values match everything.
	// UserID matches the row's owner (student, applicant, payer, author...).
	Filter struct {
		UserID int64  `query:"userId"`
		Course string `query:"course"`
		Status string `query:"status"`
	}
)

// Amount formats AmountCents as a decimal amount.
func (p Payment) Amount() string {
	return FormatCents(p.AmountCents)
}

// FormatCents formats cents as "123.45".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Days reports the number of calendar days the leave spans, both ends included.
func (l Leave) Days() int {
	return int(l.EndDate.Sub(l.StartDate).Hours()/24) + 1
}

func (f *Filter) Clean() {
	f.Course = core.CleanString(f.Course)
	f.Status = core.CleanString(f.Status)
}

func optionalString(s string) null.String {
	return null.NewString(s, s != "")
}

func optionalID(id int64) null.Int64 {
	return null.NewInt64(id, id > 0)
}
