package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/academics"
	"github.com/trezcool/onestop/core/user"
)

type academicsRepository struct {
	db core.DB
}

var _ academics.Repository = (*academicsRepository)(nil)

func NewAcademicsRepository(db core.DB) academics.Repository {
	return &academicsRepository{db: db}
}

func (repo *academicsRepository) insert(ctx context.Context, what, q string, args ...interface{}) (int64, error) {
	var id int64
	if err := repo.db.QueryRowxContext(ctx, q+` RETURNING id`, args...).Scan(&id); err != nil {
		return 0, errors.Wrapf(err, "inserting %s", what)
	}
	return id, nil
}

func (repo *academicsRepository) selectAll(ctx context.Context, what string, dest interface{}, q string, args ...interface{}) error {
	return errors.Wrapf(repo.db.SelectContext(ctx, dest, q, args...), "selecting %s", what)
}

// Attendance

func (repo *academicsRepository) CreateAttendance(ctx context.Context, a academics.Attendance) (academics.Attendance, error) {
	var err error
	a.ID, err = repo.insert(ctx, "attendance",
		`INSERT INTO attendance (student_id, course, date, status, marked_by) VALUES ($1, $2, $3, $4, $5)`,
		a.StudentID, a.Course, a.Date, a.Status, a.MarkedBy)
	return a, err
}

func (repo *academicsRepository) QueryAttendance(ctx context.Context, f academics.Filter) ([]academics.Attendance, error) {
	c := filterConditions(f, "a.student_id", "a.course", "a.status")
	q := `SELECT a.id, a.student_id, u.name AS student_name, a.course, a.date, a.status, a.marked_by
		FROM attendance a JOIN users u ON u.id = a.student_id` + c.String() + ` ORDER BY a.date DESC, a.id DESC`
	res := make([]academics.Attendance, 0)
	return res, repo.selectAll(ctx, "attendance", &res, q, c.args...)
}

// Grades

func (repo *academicsRepository) CreateGrade(ctx context.Context, g academics.Grade) (academics.Grade, error) {
	var err error
	g.ID, err = repo.insert(ctx, "grade",
		`INSERT INTO grades (student_id, course, semester, grade, remarks, graded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		g.StudentID, g.Course, g.Semester, g.Grade, g.Remarks, g.GradedBy, g.CreatedAt)
	return g, err
}

func (repo *academicsRepository) QueryGrades(ctx context.Context, f academics.Filter) ([]academics.Grade, error) {
	c := filterConditions(f, "g.student_id", "g.course", "")
	q := `SELECT g.id, g.student_id, u.name AS student_name, g.course, g.semester, g.grade, g.remarks, g.graded_by, g.created_at
		FROM grades g JOIN users u ON u.id = g.student_id` + c.String() + ` ORDER BY g.semester DESC, g.course`
	res := make([]academics.Grade, 0)
	return res, repo.selectAll(ctx, "grades", &res, q, c.args...)
}

// Leave

const leaveSelect = `SELECT l.id, l.user_id, u.name AS user_name, u.role AS user_role, l.leave_type,
		l.start_date, l.end_date, l.reason, l.status, l.reviewed_by, l.applied_at
	FROM leave_applications l JOIN users u ON u.id = l.user_id`

func (repo *academicsRepository) CreateLeave(ctx context.Context, l academics.Leave) (academics.Leave, error) {
	var err error
	l.ID, err = repo.insert(ctx, "leave application",
		`INSERT INTO leave_applications (user_id, leave_type, start_date, end_date, reason, status, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.UserID, l.Type, l.StartDate, l.EndDate, l.Reason, l.Status, l.AppliedAt)
	return l, err
}

func (repo *academicsRepository) QueryLeaves(ctx context.Context, f academics.Filter) ([]academics.Leave, error) {
	c := filterConditions(f, "l.user_id", "", "l.status")
	res := make([]academics.Leave, 0)
	q := leaveSelect + c.String() + ` ORDER BY l.applied_at DESC, l.id DESC`
	return res, repo.selectAll(ctx, "leave applications", &res, q, c.args...)
}

func (repo *academicsRepository) GetLeave(ctx context.Context, id int64) (academics.Leave, error) {
	var l academics.Leave
	err := repo.db.GetContext(ctx, &l, leaveSelect+` WHERE l.id = $1`, id)
	return l, trapNoRowsErr(err, academics.ErrNotFound)
}

func (repo *academicsRepository) ReviewLeave(ctx context.Context, id int64, status string, reviewerID int64) (academics.Leave, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE leave_applications SET status = $2, reviewed_by = $3 WHERE id = $1 AND status = $4`,
		id, status, reviewerID, academics.LeavePending)
	if err != nil {
		return academics.Leave{}, errors.Wrap(err, "reviewing leave application")
	}
	l, err := repo.GetLeave(ctx, id)
	if err != nil {
		return academics.Leave{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return academics.Leave{}, academics.ErrAlreadyDecided
	}
	return l, nil
}

// Timetable

func (repo *academicsRepository) CreateSlot(ctx context.Context, s academics.TimetableSlot) (academics.TimetableSlot, error) {
	var err error
	s.ID, err = repo.insert(ctx, "timetable slot",
		`INSERT INTO timetables (day, start_time, end_time, subject, room, teacher_id) VALUES ($1, $2, $3, $4, $5, $6)`,
		s.Day, s.StartTime, s.EndTime, s.Subject, s.Room, s.TeacherID)
	return s, err
}

func (repo *academicsRepository) QuerySlots(ctx context.Context, f academics.Filter) ([]academics.TimetableSlot, error) {
	c := filterConditions(f, "t.teacher_id", "t.subject", "")
	q := `SELECT t.id, t.day, t.start_time, t.end_time, t.subject, t.room, t.teacher_id, u.name AS teacher_name
		FROM timetables t LEFT JOIN users u ON u.id = t.teacher_id` + c.String() + ` ORDER BY t.start_time`
	res := make([]academics.TimetableSlot, 0)
	return res, repo.selectAll(ctx, "timetable", &res, q, c.args...)
}

// Assignments

func (repo *academicsRepository) CreateAssignment(ctx context.Context, a academics.Assignment) (academics.Assignment, error) {
	var err error
	a.ID, err = repo.insert(ctx, "assignment",
		`INSERT INTO assignments (title, description, course, due_date, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.Title, a.Description, a.Course, a.DueDate, a.CreatedBy, a.CreatedAt)
	return a, err
}

func (repo *academicsRepository) QueryAssignments(ctx context.Context, f academics.Filter) ([]academics.Assignment, error) {
	c := filterConditions(f, "a.created_by", "a.course", "")
	q := `SELECT a.id, a.title, a.description, a.course, a.due_date, a.created_by, u.name AS creator_name, a.created_at
		FROM assignments a LEFT JOIN users u ON u.id = a.created_by` + c.String() + ` ORDER BY a.due_date, a.id`
	res := make([]academics.Assignment, 0)
	return res, repo.selectAll(ctx, "assignments", &res, q, c.args...)
}

// Finance

func (repo *academicsRepository) CreatePayment(ctx context.Context, p academics.Payment) (academics.Payment, error) {
	var err error
	p.ID, err = repo.insert(ctx, "payment",
		`INSERT INTO payments (user_id, amount_cents, description, paid_at) VALUES ($1, $2, $3, $4)`,
		p.UserID, p.AmountCents, p.Description, p.PaidAt)
	return p, err
}

func (repo *academicsRepository) QueryPayments(ctx context.Context, f academics.Filter) ([]academics.Payment, error) {
	c := filterConditions(f, "p.user_id", "", "")
	q := `SELECT p.id, p.user_id, u.name AS user_name, p.amount_cents, p.description, p.paid_at
		FROM payments p JOIN users u ON u.id = p.user_id` + c.String() + ` ORDER BY p.paid_at DESC, p.id DESC`
	res := make([]academics.Payment, 0)
	return res, repo.selectAll(ctx, "payments", &res, q, c.args...)
}

// Communication

func (repo *academicsRepository) CreateMessage(ctx context.Context, m academics.Message) (academics.Message, error) {
	var err error
	m.ID, err = repo.insert(ctx, "message",
		`INSERT INTO messages (sender_id, receiver_id, content, sent_at) VALUES ($1, $2, $3, $4)`,
		m.SenderID, m.ReceiverID, m.Content, m.SentAt)
	return m, err
}

func (repo *academicsRepository) QueryMessages(ctx context.Context, f academics.Filter) ([]academics.Message, error) {
	c := new(conditions)
	if f.UserID > 0 {
		c.add("(m.sender_id = ? OR m.receiver_id = ?)", f.UserID)
	}
	q := `SELECT m.id, m.sender_id, s.name AS sender_name, m.receiver_id, r.name AS receiver_name, m.content, m.sent_at
		FROM messages m
		JOIN users s ON s.id = m.sender_id
		JOIN users r ON r.id = m.receiver_id` + c.String() + ` ORDER BY m.sent_at DESC, m.id DESC`
	res := make([]academics.Message, 0)
	return res, repo.selectAll(ctx, "messages", &res, q, c.args...)
}

// Calendar

func (repo *academicsRepository) CreateEvent(ctx context.Context, e academics.Event) (academics.Event, error) {
	var err error
	e.ID, err = repo.insert(ctx, "event",
		`INSERT INTO events (title, description, event_date, created_by) VALUES ($1, $2, $3, $4)`,
		e.Title, e.Description, e.EventDate, e.CreatedBy)
	return e, err
}

func (repo *academicsRepository) QueryEvents(ctx context.Context, f academics.Filter) ([]academics.Event, error) {
	c := filterConditions(f, "e.created_by", "", "")
	q := `SELECT e.id, e.title, e.description, e.event_date, e.created_by, u.name AS creator_name
		FROM events e LEFT JOIN users u ON u.id = e.created_by` + c.String() + ` ORDER BY e.event_date, e.id`
	res := make([]academics.Event, 0)
	return res, repo.selectAll(ctx, "events", &res, q, c.args...)
}

// Feedback

func (repo *academicsRepository) CreateFeedback(ctx context.Context, fb academics.Feedback) (academics.Feedback, error) {
	var err error
	fb.ID, err = repo.insert(ctx, "feedback",
		`INSERT INTO feedback (user_id, course, rating, comments, submitted_at) VALUES ($1, $2, $3, $4, $5)`,
		fb.UserID, fb.Course, fb.Rating, fb.Comments, fb.SubmittedAt)
	return fb, err
}

func (repo *academicsRepository) QueryFeedback(ctx context.Context, f academics.Filter) ([]academics.Feedback, error) {
	c := filterConditions(f, "f.user_id", "f.course", "")
	q := `SELECT f.id, f.user_id, u.name AS user_name, f.course, f.rating, f.comments, f.submitted_at
		FROM feedback f JOIN users u ON u.id = f.user_id` + c.String() + ` ORDER BY f.submitted_at DESC, f.id DESC`
	res := make([]academics.Feedback, 0)
	return res, repo.selectAll(ctx, "feedback", &res, q, c.args...)
}

// Admin

// purgeStatements run in order; the owned rows go first, then authored rows are un-linked.
var purgeStatements = []string{
	`DELETE FROM attendance WHERE student_id = $1`,
	`DELETE FROM grades WHERE student_id = $1`,
	`DELETE FROM leave_applications WHERE user_id = $1`,
	`DELETE FROM payments WHERE user_id = $1`,
	`DELETE FROM messages WHERE sender_id = $1 OR receiver_id = $1`,
	`DELETE FROM feedback WHERE user_id = $1`,
	`UPDATE attendance SET marked_by = NULL WHERE marked_by = $1`,
	`UPDATE grades SET graded_by = NULL WHERE graded_by = $1`,
	`UPDATE leave_applications SET reviewed_by = NULL WHERE reviewed_by = $1`,
	`UPDATE timetables SET teacher_id = NULL WHERE teacher_id = $1`,
	`UPDATE assignments SET created_by = NULL WHERE created_by = $1`,
	`UPDATE events SET created_by = NULL WHERE created_by = $1`,
}

func (repo *academicsRepository) PurgeUser(ctx context.Context, userID int64) error {
	return core.RunInTx(ctx, repo.db, func(exec core.DBExecutor) error {
		for _, stmt := range purgeStatements {
			if _, err := exec.ExecContext(ctx, stmt, userID); err != nil {
				return errors.Wrapf(err, "purging user: %s", stmt)
			}
		}
		res, err := exec.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
		if err != nil {
			return errors.Wrap(err, "deleting user")
		}
		return mustAffect(res, user.ErrNotFound)
	})
}

func (repo *academicsRepository) Stats(ctx context.Context) (academics.Stats, error) {
	var stats academics.Stats
	q := `SELECT
		(SELECT COUNT(*) FROM users WHERE role = 'student') AS students,
		(SELECT COUNT(*) FROM users WHERE role = 'teacher') AS teachers,
		(SELECT COUNT(*) FROM users WHERE role = 'admin') AS admins,
		(SELECT COUNT(*) FROM leave_applications WHERE status = 'Pending') AS pending_leaves,
		(SELECT COUNT(*) FROM assignments) AS assignments,
		(SELECT COUNT(*) FROM events) AS events`
	return stats, errors.Wrap(repo.db.GetContext(ctx, &stats, q), "counting stats")
}
