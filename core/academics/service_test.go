package academics_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/academics"
	"github.com/trezcool/onestop/core/user"
	inmemdb "github.com/trezcool/onestop/storage/database/inmem"
	"github.com/trezcool/onestop/tests"
)

type fixture struct {
	svc     *academics.Service
	repo    academics.Repository
	usrRepo user.Repository

	student user.Identity
	teacher user.Identity
	admin   user.Identity
}

func newFixture(t *testing.T) *fixture {
	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	repo := inmemdb.NewAcademicsRepository(db)
	validate, translator := testutil.NewValidator()

	return &fixture{
		svc:     academics.NewService(repo, usrRepo, validate, translator),
		repo:    repo,
		usrRepo: usrRepo,
		student: testutil.CreateUser(t, usrRepo, "alice", "alice@x.com", "", user.RoleStudent).Identity(),
		teacher: testutil.CreateUser(t, usrRepo, "bob", "bob@x.com", "", user.RoleTeacher).Identity(),
		admin:   testutil.CreateUser(t, usrRepo, "root", "root@x.com", "", user.RoleAdmin).Identity(),
	}
}

func validationMessage(t *testing.T, err error) string {
	t.Helper()
	verr, ok := core.IsValidationError(err)
	require.True(t, ok, "want a validation error, got %v", err)
	return verr.Error()
}

func TestService_leaveLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ApplyLeave(ctx, f.student, academics.NewLeave{Type: "Medical", StartDate: "2026-03-05", EndDate: "2026-03-01", Reason: "flu"})
	assert.Equal(t, "End date cannot be before start date.", validationMessage(t, err))

	_, err = f.svc.ApplyLeave(ctx, f.student, academics.NewLeave{Type: "Holiday", StartDate: "2026-03-01", EndDate: "2026-03-01", Reason: "x"})
	validationMessage(t, err)

	l, err := f.svc.ApplyLeave(ctx, f.student, academics.NewLeave{Type: "Medical", StartDate: "2026-03-01", EndDate: "2026-03-01", Reason: " flu "})
	require.NoError(t, err)
	assert.Equal(t, academics.LeavePending, l.Status)
	assert.Equal(t, "flu", l.Reason)
	assert.Equal(t, "student", l.UserRole)
	assert.Equal(t, 1, l.Days())

	t.Run("visibility", func(t *testing.T) {
		_, err := f.svc.Leave(ctx, f.student, l.ID)
		assert.NoError(t, err)
		_, err = f.svc.Leave(ctx, f.admin, l.ID)
		assert.NoError(t, err)
		_, err = f.svc.Leave(ctx, f.teacher, l.ID)
		assert.Equal(t, academics.ErrNotFound, errors.Cause(err))
	})

	reviewed, err := f.svc.ReviewLeave(ctx, f.admin, l.ID, false)
	require.NoError(t, err)
	assert.Equal(t, academics.LeaveRejected, reviewed.Status)
	assert.Equal(t, f.admin.ID, reviewed.ReviewedBy.Int64)

	_, err = f.svc.ReviewLeave(ctx, f.admin, l.ID, true)
	assert.Equal(t, academics.ErrAlreadyDecided, errors.Cause(err))

	_, err = f.svc.ReviewLeave(ctx, f.admin, 999, true)
	assert.Equal(t, academics.ErrNotFound, errors.Cause(err))

	pending, err := f.svc.Leaves(ctx, academics.Filter{Status: academics.LeavePending})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestService_attendanceAndGrades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MarkAttendance(ctx, f.teacher, academics.NewAttendance{StudentID: f.teacher.ID, Course: "Physics", Date: "2026-03-01", Status: "Present"})
	assert.Equal(t, "Please select a valid student.", validationMessage(t, err))

	_, err = f.svc.MarkAttendance(ctx, f.teacher, academics.NewAttendance{StudentID: 999, Course: "Physics", Date: "2026-03-01", Status: "Present"})
	assert.Equal(t, "Please select a valid student.", validationMessage(t, err))

	_, err = f.svc.MarkAttendance(ctx, f.teacher, academics.NewAttendance{StudentID: f.student.ID, Course: "Physics", Date: "03/01/2026", Status: "Present"})
	validationMessage(t, err)

	for _, status := range []string{"present", "Absent", "LATE", "Present"} {
		_, err = f.svc.MarkAttendance(ctx, f.teacher, academics.NewAttendance{StudentID: f.student.ID, Course: "Physics", Date: "2026-03-01", Status: status})
		require.NoError(t, err, status)
	}
	records, err := f.svc.Attendance(ctx, academics.Filter{UserID: f.student.ID})
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "alice", records[0].StudentName)
	assert.Equal(t, 75, academics.AttendanceRate(records))
	assert.Equal(t, 0, academics.AttendanceRate(nil))

	g, err := f.svc.AddGrade(ctx, f.teacher, academics.NewGrade{StudentID: f.student.ID, Course: "Physics", Semester: "S1", Grade: "b+"})
	require.NoError(t, err)
	assert.Equal(t, "B+", g.Grade)
	assert.Equal(t, f.teacher.ID, g.GradedBy.Int64)
	assert.False(t, g.Remarks.Valid)
}

func TestService_timetable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddSlot(ctx, academics.NewSlot{Day: "Monday", StartTime: "10:00", EndTime: "09:00", Subject: "Maths"})
	assert.Equal(t, "End time must be after start time.", validationMessage(t, err))

	_, err = f.svc.AddSlot(ctx, academics.NewSlot{Day: "Funday", StartTime: "09:00", EndTime: "10:00", Subject: "Maths"})
	validationMessage(t, err)

	_, err = f.svc.AddSlot(ctx, academics.NewSlot{Day: "Monday", StartTime: "09:00", EndTime: "10:00", Subject: "Maths", TeacherID: f.student.ID})
	assert.Equal(t, "Please select a valid teacher.", validationMessage(t, err))

	_, err = f.svc.AddSlot(ctx, academics.NewSlot{Day: "tuesday", StartTime: "09:00", EndTime: "10:00", Subject: "Physics", TeacherID: f.teacher.ID})
	require.NoError(t, err)
	_, err = f.svc.AddSlot(ctx, academics.NewSlot{Day: "Monday", StartTime: "11:00", EndTime: "12:00", Subject: "Maths"})
	require.NoError(t, err)

	all, err := f.svc.Timetable(ctx, academics.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Monday", all[0].Day)
	assert.Equal(t, "Tuesday", all[1].Day)
	assert.Equal(t, "bob", all[1].TeacherName.String)

	mine, err := f.svc.Timetable(ctx, academics.Filter{UserID: f.teacher.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Physics", mine[0].Subject)
}

func TestService_financeAndMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Pay(ctx, f.student, academics.NewPayment{Amount: "12.345", Description: "Fees"})
	assert.Equal(t, "Amount must be a positive number with at most 2 decimals.", validationMessage(t, err))

	for _, amount := range []string{"150.50", "49.5"} {
		_, err = f.svc.Pay(ctx, f.student, academics.NewPayment{Amount: amount, Description: "Fees"})
		require.NoError(t, err)
	}
	payments, err := f.svc.Payments(ctx, academics.Filter{UserID: f.student.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), academics.TotalCents(payments))

	_, err = f.svc.SendMessage(ctx, f.student, academics.NewMessage{ReceiverID: f.student.ID, Content: "me"})
	assert.Equal(t, "You cannot send a message to yourself.", validationMessage(t, err))
	_, err = f.svc.SendMessage(ctx, f.student, academics.NewMessage{ReceiverID: 999, Content: "hi"})
	assert.Equal(t, "Please select a valid recipient.", validationMessage(t, err))
	_, err = f.svc.SendMessage(ctx, f.student, academics.NewMessage{ReceiverID: f.teacher.ID, Content: "  "})
	validationMessage(t, err)

	m, err := f.svc.SendMessage(ctx, f.student, academics.NewMessage{ReceiverID: f.teacher.ID, Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "bob", m.ReceiverName)

	for _, id := range []int64{f.student.ID, f.teacher.ID} {
		msgs, err := f.svc.Messages(ctx, id)
		require.NoError(t, err)
		assert.Len(t, msgs, 1)
	}
	msgs, err := f.svc.Messages(ctx, f.admin.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestService_feedbackEventsAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitFeedback(ctx, f.student, academics.NewFeedback{Course: "Physics", Rating: 6})
	validationMessage(t, err)
	_, err = f.svc.SubmitFeedback(ctx, f.student, academics.NewFeedback{Course: "Physics", Rating: 4, Comments: "good"})
	require.NoError(t, err)

	_, err = f.svc.AddEvent(ctx, f.teacher, academics.NewEvent{Title: "Exams", EventDate: "2026-06-01"})
	require.NoError(t, err)
	_, err = f.svc.CreateAssignment(ctx, f.teacher, academics.NewAssignment{Title: "HW1", Course: "Physics", DueDate: "2026-04-01"})
	require.NoError(t, err)
	_, err = f.svc.ApplyLeave(ctx, f.teacher, academics.NewLeave{Type: "Personal", StartDate: "2026-03-01", EndDate: "2026-03-02", Reason: "x"})
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, academics.Stats{Students: 1, Teachers: 1, Admins: 1, PendingLeaves: 1, Assignments: 1, Events: 1}, stats)
}

func TestService_PurgeUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MarkAttendance(ctx, f.teacher, academics.NewAttendance{StudentID: f.student.ID, Course: "Physics", Date: "2026-03-01", Status: "Present"})
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, f.student, academics.NewMessage{ReceiverID: f.teacher.ID, Content: "hello"})
	require.NoError(t, err)
	a, err := f.svc.CreateAssignment(ctx, f.teacher, academics.NewAssignment{Title: "HW1", Course: "Physics", DueDate: "2026-04-01"})
	require.NoError(t, err)
	require.True(t, a.CreatedBy.Valid)

	// purging the teacher un-links what they authored, and drops their conversations
	require.NoError(t, f.svc.PurgeUser(ctx, f.teacher.ID))

	records, err := f.svc.Attendance(ctx, academics.Filter{UserID: f.student.ID})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].MarkedBy.Valid)

	assignments, err := f.svc.Assignments(ctx, academics.Filter{})
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.False(t, assignments[0].CreatedBy.Valid)

	msgs, err := f.svc.Messages(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	_, err = f.usrRepo.GetUserByID(ctx, f.teacher.ID)
	assert.Equal(t, user.ErrNotFound, errors.Cause(err), "the account goes with its rows")
}

func TestService_PurgeUser_missingUserKeepsRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Pay(ctx, f.student, academics.NewPayment{Amount: "20", Description: "Library fee"})
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, f.student, academics.NewMessage{ReceiverID: f.teacher.ID, Content: "hello"})
	require.NoError(t, err)

	// the account disappears before the purge runs
	require.NoError(t, f.usrRepo.DeleteUser(ctx, f.student.ID))

	err = f.svc.PurgeUser(ctx, f.student.ID)
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))

	payments, err := f.svc.Payments(ctx, academics.Filter{UserID: f.student.ID})
	require.NoError(t, err)
	assert.Len(t, payments, 1, "nothing is purged when the user cannot be deleted")

	msgs, err := f.svc.Messages(ctx, f.teacher.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}
