package academics

import (
	"context"
	"sort"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/user"
)

var (
	// errors
	ErrNotFound       = errors.New("record not found")
	ErrAlreadyDecided = core.NewValidationMessage("This leave application has already been reviewed.")

	errLeaveDates    = core.NewValidationMessage("End date cannot be before start date.")
	errSlotTimes     = core.NewValidationMessage("End time must be after start time.")
	errNotAStudent   = core.NewValidationMessage("Please select a valid student.")
	errNotATeacher   = core.NewValidationMessage("Please select a valid teacher.")
	errUnknownTarget = core.NewValidationMessage("Please select a valid recipient.")
	errSelfMessage   = core.NewValidationMessage("You cannot send a message to yourself.")
)

type (
	Repository interface {
		CreateAttendance(ctx context.Context, a Attendance) (Attendance, error)
		QueryAttendance(ctx context.Context, filter Filter) ([]Attendance, error)

		CreateGrade(ctx context.Context, g Grade) (Grade, error)
		QueryGrades(ctx context.Context, filter Filter) ([]Grade, error)

		CreateLeave(ctx context.Context, l Leave) (Leave, error)
		QueryLeaves(ctx context.Context, filter Filter) ([]Leave, error)
		GetLeave(ctx context.Context, id int64) (Leave, error)
		// ReviewLeave moves a Pending leave to status; it returns ErrAlreadyDecided for any other leave.
		ReviewLeave(ctx context.Context, id int64, status string, reviewerID int64) (Leave, error)

		CreateSlot(ctx context.Context, s TimetableSlot) (TimetableSlot, error)
		QuerySlots(ctx context.Context, filter Filter) ([]TimetableSlot, error)

		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		QueryAssignments(ctx context.Context, filter Filter) ([]Assignment, error)

		CreatePayment(ctx context.Context, p Payment) (Payment, error)
		QueryPayments(ctx context.Context, filter Filter) ([]Payment, error)

		CreateMessage(ctx context.Context, m Message) (Message, error)
		// QueryMessages returns the messages sent or received by filter.UserID.
		QueryMessages(ctx context.Context, filter Filter) ([]Message, error)

		CreateEvent(ctx context.Context, e Event) (Event, error)
		QueryEvents(ctx context.Context, filter Filter) ([]Event, error)

		CreateFeedback(ctx context.Context, f Feedback) (Feedback, error)
		QueryFeedback(ctx context.Context, filter Filter) ([]Feedback, error)

		// PurgeUser deletes the user together with the rows it owns, and un-links the rows it authored.
		// It is all or nothing: it returns user.ErrNotFound when no such user exists, and nothing is removed.
		PurgeUser(ctx context.Context, userID int64) error
		Stats(ctx context.Context) (Stats, error)
	}

	// UserFinder is the slice of the credential store the academics service reads.
	UserFinder interface {
		GetUserByID(ctx context.Context, id int64) (user.User, error)
	}

	Service struct {
		repo       Repository
		users      UserFinder
		validate   *validator.Validate
		translator ut.Translator
		nowFunc    func() time.Time // mockable
	}
)

func NewService(repo Repository, users UserFinder, validate *validator.Validate, translator ut.Translator) *Service {
	return &Service{
		repo:       repo,
		users:      users,
		validate:   validate,
		translator: translator,
		nowFunc:    time.Now,
	}
}

func (svc *Service) now() time.Time { return svc.nowFunc().UTC() }

func (svc *Service) check(s interface{}) error {
	return core.ValidateStruct(svc.validate, svc.translator, s)
}

// userWithRole loads the user id and checks its role; a missing user yields invalidErr.
func (svc *Service) userWithRole(ctx context.Context, id int64, role user.Role, invalidErr error) (user.User, error) {
	usr, err := svc.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, invalidErr
		}
		return user.User{}, errors.Wrap(err, "finding user")
	}
	if role != "" && usr.Role != role {
		return user.User{}, invalidErr
	}
	return usr, nil
}

// Attendance

func (svc *Service) MarkAttendance(ctx context.Context, by user.Identity, na NewAttendance) (Attendance, error) {
	na.Clean()
	if err := svc.check(na); err != nil {
		return Attendance{}, err
	}
	student, err := svc.userWithRole(ctx, na.StudentID, user.RoleStudent, errNotAStudent)
	if err != nil {
		return Attendance{}, err
	}
	date, err := ParseDate(na.Date)
	if err != nil {
		return Attendance{}, err
	}
	a, err := svc.repo.CreateAttendance(ctx, Attendance{
		StudentID:   student.ID,
		StudentName: student.Name,
		Course:      na.Course,
		Date:        date,
		Status:      na.Status,
		MarkedBy:    optionalID(by.ID),
	})
	return a, errors.Wrap(err, "creating attendance")
}

func (svc *Service) Attendance(ctx context.Context, filter Filter) ([]Attendance, error) {
	filter.Clean()
	return svc.repo.QueryAttendance(ctx, filter)
}

// AttendanceRate is the share of Present (or Late) records, in percent.
func AttendanceRate(records []Attendance) int {
	if len(records) == 0 {
		return 0
	}
	var attended int
	for _, r := range records {
		if r.Status != AttendanceAbsent {
			attended++
		}
	}
	return attended * 100 / len(records)
}

// Grades

func (svc *Service) AddGrade(ctx context.Context, by user.Identity, ng NewGrade) (Grade, error) {
	ng.Clean()
	if err := svc.check(ng); err != nil {
		return Grade{}, err
	}
	student, err := svc.userWithRole(ctx, ng.StudentID, user.RoleStudent, errNotAStudent)
	if err != nil {
		return Grade{}, err
	}
	g, err := svc.repo.CreateGrade(ctx, Grade{
		StudentID:   student.ID,
		StudentName: student.Name,
		Course:      ng.Course,
		Semester:    ng.Semester,
		Grade:       ng.Grade,
		Remarks:     optionalString(ng.Remarks),
		GradedBy:    optionalID(by.ID),
		CreatedAt:   svc.now(),
	})
	return g, errors.Wrap(err, "creating grade")
}

func (svc *Service) Grades(ctx context.Context, filter Filter) ([]Grade, error) {
	filter.Clean()
	return svc.repo.QueryGrades(ctx, filter)
}

// Leave

func (svc *Service) ApplyLeave(ctx context.Context, applicant user.Identity, nl NewLeave) (Leave, error) {
	nl.Clean()
	if err := svc.check(nl); err != nil {
		return Leave{}, err
	}
	start, err := ParseDate(nl.StartDate)
	if err != nil {
		return Leave{}, err
	}
	end, err := ParseDate(nl.EndDate)
	if err != nil {
		return Leave{}, err
	}
	if end.Before(start) {
		return Leave{}, errLeaveDates
	}
	l, err := svc.repo.CreateLeave(ctx, Leave{
		UserID:    applicant.ID,
		UserName:  applicant.Name,
		UserRole:  applicant.Role.String(),
		Type:      nl.Type,
		StartDate: start,
		EndDate:   end,
		Reason:    nl.Reason,
		Status:    LeavePending,
		AppliedAt: svc.now(),
	})
	return l, errors.Wrap(err, "creating leave")
}

func (svc *Service) Leaves(ctx context.Context, filter Filter) ([]Leave, error) {
	filter.Clean()
	return svc.repo.QueryLeaves(ctx, filter)
}

// Leave returns the leave application id as seen by viewer: only its applicant and admins may see it.
func (svc *Service) Leave(ctx context.Context, viewer user.Identity, id int64) (Leave, error) {
	l, err := svc.repo.GetLeave(ctx, id)
	if err != nil {
		return Leave{}, err
	}
	if l.UserID != viewer.ID && viewer.Role != user.RoleAdmin {
		return Leave{}, ErrNotFound
	}
	return l, nil
}

// ReviewLeave approves or rejects a pending leave application.
func (svc *Service) ReviewLeave(ctx context.Context, reviewer user.Identity, id int64, approve bool) (Leave, error) {
	status := LeaveRejected
	if approve {
		status = LeaveApproved
	}
	return svc.repo.ReviewLeave(ctx, id, status, reviewer.ID)
}

// Timetable

func (svc *Service) AddSlot(ctx context.Context, ns NewSlot) (TimetableSlot, error) {
	ns.Clean()
	if err := svc.check(ns); err != nil {
		return TimetableSlot{}, err
	}
	if ns.EndTime <= ns.StartTime { // HH:MM compares lexically
		return TimetableSlot{}, errSlotTimes
	}
	slot := TimetableSlot{
		Day:       ns.Day,
		StartTime: ns.StartTime,
		EndTime:   ns.EndTime,
		Subject:   ns.Subject,
		Room:      optionalString(ns.Room),
	}
	if ns.TeacherID > 0 {
		teacher, err := svc.userWithRole(ctx, ns.TeacherID, user.RoleTeacher, errNotATeacher)
		if err != nil {
			return TimetableSlot{}, err
		}
		slot.TeacherID = optionalID(teacher.ID)
		slot.TeacherName = optionalString(teacher.Name)
	}
	s, err := svc.repo.CreateSlot(ctx, slot)
	return s, errors.Wrap(err, "creating timetable slot")
}

func (svc *Service) Timetable(ctx context.Context, filter Filter) ([]TimetableSlot, error) {
	filter.Clean()
	slots, err := svc.repo.QuerySlots(ctx, filter)
	if err != nil {
		return nil, err
	}
	SortSlots(slots)
	return slots, nil
}

// SortSlots orders slots Monday first, then by start time.
func SortSlots(slots []TimetableSlot) {
	dayIdx := func(day string) int {
		for i, d := range Weekdays {
			if d == day {
				return i
			}
		}
		return len(Weekdays)
	}
	sort.SliceStable(slots, func(i, j int) bool {
		di, dj := dayIdx(slots[i].Day), dayIdx(slots[j].Day)
		if di != dj {
			return di < dj
		}
		return slots[i].StartTime < slots[j].StartTime
	})
}

// Assignments

func (svc *Service) CreateAssignment(ctx context.Context, by user.Identity, na NewAssignment) (Assignment, error) {
	na.Clean()
	if err := svc.check(na); err != nil {
		return Assignment{}, err
	}
	due, err := ParseDate(na.DueDate)
	if err != nil {
		return Assignment{}, err
	}
	a, err := svc.repo.CreateAssignment(ctx, Assignment{
		Title:       na.Title,
		Description: optionalString(na.Description),
		Course:      na.Course,
		DueDate:     due,
		CreatedBy:   optionalID(by.ID),
		CreatorName: optionalString(by.Name),
		CreatedAt:   svc.now(),
	})
	return a, errors.Wrap(err, "creating assignment")
}

func (svc *Service) Assignments(ctx context.Context, filter Filter) ([]Assignment, error) {
	filter.Clean()
	return svc.repo.QueryAssignments(ctx, filter)
}

// Finance

func (svc *Service) Pay(ctx context.Context, payer user.Identity, np NewPayment) (Payment, error) {
	np.Clean()
	if err := svc.check(np); err != nil {
		return Payment{}, err
	}
	cents, err := ParseCents(np.Amount)
	if err != nil {
		return Payment{}, err
	}
	p, err := svc.repo.CreatePayment(ctx, Payment{
		UserID:      payer.ID,
		UserName:    payer.Name,
		AmountCents: cents,
		Description: np.Description,
		PaidAt:      svc.now(),
	})
	return p, errors.Wrap(err, "creating payment")
}

func (svc *Service) Payments(ctx context.Context, filter Filter) ([]Payment, error) {
	filter.Clean()
	return svc.repo.QueryPayments(ctx, filter)
}

// TotalCents sums the payments amounts.
func TotalCents(payments []Payment) int64 {
	var total int64
	for _, p := range payments {
		total += p.AmountCents
	}
	return total
}

// Communication

func (svc *Service) SendMessage(ctx context.Context, from user.Identity, nm NewMessage) (Message, error) {
	nm.Clean()
	if err := svc.check(nm); err != nil {
		return Message{}, err
	}
	if nm.ReceiverID == from.ID {
		return Message{}, errSelfMessage
	}
	receiver, err := svc.userWithRole(ctx, nm.ReceiverID, "", errUnknownTarget)
	if err != nil {
		return Message{}, err
	}
	m, err := svc.repo.CreateMessage(ctx, Message{
		SenderID:     from.ID,
		SenderName:   from.Name,
		ReceiverID:   receiver.ID,
		ReceiverName: receiver.Name,
		Content:      nm.Content,
		SentAt:       svc.now(),
	})
	return m, errors.Wrap(err, "creating message")
}

// Messages returns the conversation history of userID, newest first.
func (svc *Service) Messages(ctx context.Context, userID int64) ([]Message, error) {
	return svc.repo.QueryMessages(ctx, Filter{UserID: userID})
}

// Calendar

func (svc *Service) AddEvent(ctx context.Context, by user.Identity, ne NewEvent) (Event, error) {
	ne.Clean()
	if err := svc.check(ne); err != nil {
		return Event{}, err
	}
	date, err := ParseDate(ne.EventDate)
	if err != nil {
		return Event{}, err
	}
	e, err := svc.repo.CreateEvent(ctx, Event{
		Title:       ne.Title,
		Description: optionalString(ne.Description),
		EventDate:   date,
		CreatedBy:   optionalID(by.ID),
		CreatorName: optionalString(by.Name),
	})
	return e, errors.Wrap(err, "creating event")
}

func (svc *Service) Events(ctx context.Context) ([]Event, error) {
	return svc.repo.QueryEvents(ctx, Filter{})
}

// Feedback

func (svc *Service) SubmitFeedback(ctx context.Context, by user.Identity, nf NewFeedback) (Feedback, error) {
	nf.Clean()
	if err := svc.check(nf); err != nil {
		return Feedback{}, err
	}
	f, err := svc.repo.CreateFeedback(ctx, Feedback{
		UserID:      by.ID,
		UserName:    by.Name,
		Course:      nf.Course,
		Rating:      nf.Rating,
		Comments:    optionalString(nf.Comments),
		SubmittedAt: svc.now(),
	})
	return f, errors.Wrap(err, "creating feedback")
}

func (svc *Service) Feedback(ctx context.Context, filter Filter) ([]Feedback, error) {
	filter.Clean()
	return svc.repo.QueryFeedback(ctx, filter)
}

// Admin

// PurgeUser deletes a user account along with everything that depends on it.
func (svc *Service) PurgeUser(ctx context.Context, userID int64) error {
	return errors.Wrap(svc.repo.PurgeUser(ctx, userID), "purging user")
}

func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	return svc.repo.Stats(ctx)
}
