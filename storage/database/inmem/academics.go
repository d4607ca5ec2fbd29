package inmemdb

import (
	"context"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/onestop/core/academics"
	"github.com/trezcool/onestop/core/user"
)

type academicsRepository struct {
	db *DB
}

var _ academics.Repository = (*academicsRepository)(nil)

func NewAcademicsRepository(db *DB) academics.Repository {
	return &academicsRepository{db: db}
}

func matches(f academics.Filter, userID int64, course, status string) bool {
	return (f.UserID == 0 || f.UserID == userID) &&
		(f.Course == "" || f.Course == course) &&
		(f.Status == "" || f.Status == status)
}

// Attendance

func (repo *academicsRepository) CreateAttendance(_ context.Context, a academics.Attendance) (academics.Attendance, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	a.ID = repo.db.nextID()
	repo.db.attendance = append(repo.db.attendance, a)
	return a, nil
}

func (repo *academicsRepository) QueryAttendance(_ context.Context, f academics.Filter) ([]academics.Attendance, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	res := make([]academics.Attendance, 0)
	for _, a := range repo.db.attendance {
		if matches(f, a.StudentID, a.Course, a.Status) {
			res = append(res, a)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Date.After(res[j].Date) })
	return res, nil
}

// Grades

func (repo *academicsRepository) CreateGrade(_ context.Context, g academics.Grade) (academics.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	g.ID = repo.db.nextID()
	repo.db.grades = append(repo.db.grades, g)
	return g, nil
}

func (repo *academicsRepository) QueryGrades(_ context.Context, f academics.Filter) ([]academics.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	res := make([]academics.Grade, 0)
	for _, g := range repo.db.grades {
		if matches(f, g.StudentID, g.Course, "") {
			res = append(res, g)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].Semester != res[j].Semester {
			return res[i].Semester > res[j].Semester
		}
		return res[i].Course < res[j].Course
	})
	return res, nil
}

// Leave

func (repo *academicsRepository) CreateLeave(_ context.Context, l academics.Leave) (academics.Leave, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	l.ID = repo.db.nextID()
	repo.db.leaves = append(repo.db.leaves, l)
	return l, nil
}

func (repo *academicsRepository) QueryLeaves(_ context.Context, f academics.Filter) ([]academics.Leave, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	res := make([]academics.Leave, 0)
	for _, l := range repo.db.leaves {
		if matches(f, l.UserID, "", l.Status) {
			res = append(res, l)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].AppliedAt.After(res[j].AppliedAt) })
	return res, nil
}

func (repo *academicsRepository) GetLeave(_ context.Context, id int64) (academics.Leave, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	for _, l := range repo.db.leaves {
		if l.ID == id {
			return l, nil
		}
	}
	return academics.Leave{}, academics.ErrNotFound
}

func (repo *academicsRepository) ReviewLeave(_ context.Context, id int64, status string, reviewerID int64) (academics.Leave, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for i, l := range repo.db.leaves {
		if l.ID != id {
			continue
		}
		if l.Status != academics.LeavePending {
			return academics.Leave{}, academics.ErrAlreadyDecided
		}
		l.Status = status
		l.ReviewedBy = null.Int64From(reviewerID)
		repo.db.leaves[i] = l
		return l, nil
	}
	return academics.Leave{}, academics.ErrNotFound
}

// Timetable

func (repo *academicsRepository) CreateSlot(_ context.Context, s academics.TimetableSlot) (academics.TimetableSlot, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	s.ID = repo.db.nextID()
	repo.db.slots = append(repo.db.slots, s)
	return s, nil
}

func (repo *academicsRepository) QuerySlots(_ context.Context, f academics.Filter) ([]academics.TimetableSlot, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	res := make([]academics.TimetableSlot, 0)
	for _, s := range repo.db.slots {
		if matches(f, s.TeacherID.Int64, s.Subject, "") {
			res = append(res, s)
		}
	}
	return res, nil
}

// Assignments

func (repo *academicsRepository) CreateAssignment(_ context.Context, a academics.Assignment) (academics.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	a.ID = repo.db.nextID()
	repo.db.assignments = append(repo.db.assignments, a)
	return a, nil
}

func (repo *academicsRepository) QueryAssignments(_ context.Context, f academics.Filter) ([]academics.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	res := make([]academics.Assignment, 0)
	for _, a := range repo.db.assignments {
		if matches(f, a.CreatedBy.Int64, a.Course, "") {
			res = append(res, a)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].DueDate.Before(res[j].DueDate) })
	return res, nil
}

// Finance

func (repo *academicsRepository) CreatePayment(_ context.Context, p academics.Payment) (academics.Payment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	p.ID = repo.db.nextID()
	repo.db.payments = append(repo.db.payments, p)
	return p, nil
}

func (repo *academicsRepository) QueryPayments(_ context.Context, f academics.Filter) ([]academics.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	res := make([]academics.Payment, 0)
	for _, p := range repo.db.payments {
		if matches(f, p.UserID, "", "") {
			res = append(res, p)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].PaidAt.After(res[j].PaidAt) })
	return res, nil
}

// Communication

func (repo *academicsRepository) CreateMessage(_ context.Context, m academics.Message) (academics.Message, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	m.ID = repo.db.nextID()
	repo.db.messages = append(repo.db.messages, m)
	return m, nil
}

func (repo *academicsRepository) QueryMessages(_ context.Context, f academics.Filter) ([]academics.Message, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	res := make([]academics.Message, 0)
	for _, m := range repo.db.messages {
		if f.UserID == 0 || m.SenderID == f.UserID || m.ReceiverID == f.UserID {
			res = append(res, m)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].SentAt.After(res[j].SentAt) })
	return res, nil
}

// Calendar

func (repo *academicsRepository) CreateEvent(_ context.Context, e academics.Event) (academics.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	e.ID = repo.db.nextID()
	repo.db.events = append(repo.db.events, e)
	return e, nil
}

func (repo *academicsRepository) QueryEvents(_ context.Context, f academics.Filter) ([]academics.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	res := make([]academics.Event, 0)
	for _, e := range repo.db.events {
		if matches(f, e.CreatedBy.Int64, "", "") {
			res = append(res, e)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].EventDate.Before(res[j].EventDate) })
	return res, nil
}

// Feedback

func (repo *academicsRepository) CreateFeedback(_ context.Context, fb academics.Feedback) (academics.Feedback, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	fb.ID = repo.db.nextID()
	repo.db.feedback = append(repo.db.feedback, fb)
	return fb, nil
}

func (repo *academicsRepository) QueryFeedback(_ context.Context, f academics.Filter) ([]academics.Feedback, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	res := make([]academics.Feedback, 0)
	for _, fb := range repo.db.feedback {
		if matches(f, fb.UserID, fb.Course, "") {
			res = append(res, fb)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].SubmittedAt.After(res[j].SubmittedAt) })
	return res, nil
}

// Admin

func (repo *academicsRepository) PurgeUser(_ context.Context, userID int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	db := repo.db
	if _, ok := db.users[userID]; !ok {
		return user.ErrNotFound
	}
	delete(db.users, userID)

	db.attendance = filterOut(db.attendance, func(a academics.Attendance) bool { return a.StudentID == userID })
	db.grades = filterOut(db.grades, func(g academics.Grade) bool { return g.StudentID == userID })
	db.leaves = filterOut(db.leaves, func(l academics.Leave) bool { return l.UserID == userID })
	db.payments = filterOut(db.payments, func(p academics.Payment) bool { return p.UserID == userID })
	db.messages = filterOut(db.messages, func(m academics.Message) bool {
		return m.SenderID == userID || m.ReceiverID == userID
	})
	db.feedback = filterOut(db.feedback, func(fb academics.Feedback) bool { return fb.UserID == userID })

	for i := range db.attendance {
		if db.attendance[i].MarkedBy.Int64 == userID {
			db.attendance[i].MarkedBy = null.Int64{}
		}
	}
	for i := range db.grades {
		if db.grades[i].GradedBy.Int64 == userID {
			db.grades[i].GradedBy = null.Int64{}
		}
	}
	for i := range db.leaves {
		if db.leaves[i].ReviewedBy.Int64 == userID {
			db.leaves[i].ReviewedBy = null.Int64{}
		}
	}
	for i := range db.slots {
		if db.slots[i].TeacherID.Int64 == userID {
			db.slots[i].TeacherID = null.Int64{}
		}
	}
	for i := range db.assignments {
		if db.assignments[i].CreatedBy.Int64 == userID {
			db.assignments[i].CreatedBy = null.Int64{}
		}
	}
	for i := range db.events {
		if db.events[i].CreatedBy.Int64 == userID {
			db.events[i].CreatedBy = null.Int64{}
		}
	}
	return nil
}

func (repo *academicsRepository) Stats(_ context.Context) (academics.Stats, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var stats academics.Stats
	for _, usr := range repo.db.users {
		switch usr.Role {
		case user.RoleStudent:
			stats.Students++
		case user.RoleTeacher:
			stats.Teachers++
		case user.RoleAdmin:
			stats.Admins++
		}
	}
	for _, l := range repo.db.leaves {
		if l.Status == academics.LeavePending {
			stats.PendingLeaves++
		}
	}
	stats.Assignments = len(repo.db.assignments)
	stats.Events = len(repo.db.events)
	return stats, nil
}

func filterOut[T any](rows []T, drop func(T) bool) []T {
	kept := rows[:0]
	for _, row := range rows {
		if !drop(row) {
			kept = append(kept, row)
		}
	}
	return kept
}
