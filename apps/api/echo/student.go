package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/onestop/core/academics"
	"github.com/trezcool/onestop/core/user"
)

func registerStudentRoutes(s *Server) {
	g := s.app.Group("/student", s.requireRoles(user.RoleStudent))
	g.GET("/dashboard", s.studentDashboard)
	g.GET("/attendance", s.studentAttendance)
	g.GET("/grades", s.studentGrades)
	g.GET("/leave", s.studentLeaves)
	g.GET("/leave/apply", s.studentLeaveForm)
	g.POST("/leave/apply", s.studentApplyLeave)
	g.GET("/leave/:id", s.studentLeave)
	g.GET("/timetable", s.studentTimetable)
	g.GET("/assignments", s.studentAssignments)
	g.GET("/finance", s.studentFinance)
	g.GET("/finance/pay", s.studentPaymentForm)
	g.POST("/finance/pay", s.studentPay)
	g.GET("/communication", s.studentCommunication)
	g.POST("/communication/send", s.studentSendMessage)
	g.GET("/calendar", s.studentCalendar)
	g.GET("/feedback", s.studentFeedback)
	g.POST("/feedback/submit", s.studentSubmitFeedback)
}

func (s *Server) studentDashboard(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	me := mustIdentity(ctx)
	mine := academics.Filter{UserID: me.ID}

	attendance, err := s.academicsSvc.Attendance(rctx, mine)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	grades, err := s.academicsSvc.Grades(rctx, mine)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	pending, err := s.academicsSvc.Leaves(rctx, academics.Filter{UserID: me.ID, Status: academics.LeavePending})
	if err != nil {
		return errors.Wrap(err, "querying leaves")
	}
	assignments, err := s.academicsSvc.Assignments(rctx, academics.Filter{})
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}

	return s.render(ctx, http.StatusOK, viewPage, &view{
		Title: "Student Dashboard",
		Cards: []card{
			{Label: "Attendance", Value: strconv.Itoa(academics.AttendanceRate(attendance)) + "%", Href: "/student/attendance"},
			{Label: "Grades", Value: strconv.Itoa(len(grades)), Href: "/student/grades"},
			{Label: "Pending leave", Value: strconv.Itoa(len(pending)), Href: "/student/leave"},
			{Label: "Assignments", Value: strconv.Itoa(len(assignments)), Href: "/student/assignments"},
		},
		Links: []link{
			{Label: "Timetable", Href: "/student/timetable"},
			{Label: "Finance", Href: "/student/finance"},
			{Label: "Messages", Href: "/student/communication"},
			{Label: "Calendar", Href: "/student/calendar"},
			{Label: "Feedback", Href: "/student/feedback"},
		},
	})
}

func (s *Server) studentAttendance(ctx echo.Context) error {
	records, err := s.academicsSvc.Attendance(ctx.Request().Context(), academics.Filter{UserID: mustIdentity(ctx).ID})
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{
		Title: "My Attendance",
		Cards: []card{
			{Label: "Attendance rate", Value: strconv.Itoa(academics.AttendanceRate(records)) + "%"},
			{Label: "Records", Value: strconv.Itoa(len(records))},
		},
		Table: attendanceTable(records, false),
	})
}

func (s *Server) studentGrades(ctx echo.Context) error {
	grades, err := s.academicsSvc.Grades(ctx.Request().Context(), academics.Filter{UserID: mustIdentity(ctx).ID})
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{Title: "My Grades", Table: gradesTable(grades, false)})
}

func (s *Server) studentLeaves(ctx echo.Context) error {
	leaves, err := s.academicsSvc.Leaves(ctx.Request().Context(), academics.Filter{UserID: mustIdentity(ctx).ID})
	if err != nil {
		return errors.Wrap(err, "querying leaves")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{
		Title: "My Leave Applications",
		Links: []link{{Label: "Apply for leave", Href: "/student/leave/apply"}},
		Table: leaveTable(leaves, false, func(l academics.Leave) []action {
			return []action{{Label: "View", Href: "/student/leave/" + formatID(l.ID)}}
		}),
	})
}

func (s *Server) studentLeaveForm(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, viewPage, &view{Title: "Apply for Leave", Form: leaveForm("/student/leave/apply")})
}

func (s *Server) studentApplyLeave(ctx echo.Context) error {
	var data academics.NewLeave
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLeave")
	}
	page := func() (*view, error) {
		return &view{Title: "Apply for Leave", Form: leaveForm("/student/leave/apply")}, nil
	}
	return s.submit(ctx, "/student/leave", page, func() error {
		_, err := s.academicsSvc.ApplyLeave(ctx.Request().Context(), mustIdentity(ctx), data)
		return err
	})
}

func (s *Server) studentLeave(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	l, err := s.academicsSvc.Leave(ctx.Request().Context(), mustIdentity(ctx), id)
	if err != nil {
		return errors.Wrap(err, "finding leave")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{
		Title: "Leave Application",
		Links: []link{{Label: "Back to my leave", Href: "/student/leave"}},
		Details: []detail{
			{Label: "Type", Value: l.Type},
			{Label: "From", Value: formatDate(l.StartDate)},
			{Label: "To", Value: formatDate(l.EndDate)},
			{Label: "Days", Value: strconv.Itoa(l.Days())},
			{Label: "Reason", Value: l.Reason},
			{Label: "Status", Value: l.Status},
			{Label: "Applied", Value: formatDateTime(l.AppliedAt)},
		},
	})
}

func (s *Server) studentTimetable(ctx echo.Context) error {
	slots, err := s.academicsSvc.Timetable(ctx.Request().Context(), academics.Filter{})
	if err != nil {
		return errors.Wrap(err, "querying timetable")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{Title: "Timetable", Table: timetableTable(slots)})
}

func (s *Server) studentAssignments(ctx echo.Context) error {
	assignments, err := s.academicsSvc.Assignments(ctx.Request().Context(), academics.Filter{})
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{Title: "Assignments", Table: assignmentsTable(assignments)})
}

func (s *Server) studentFinance(ctx echo.Context) error {
	payments, err := s.academicsSvc.Payments(ctx.Request().Context(), academics.Filter{UserID: mustIdentity(ctx).ID})
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{
		Title: "My Finance",
		Links: []link{{Label: "Make a payment", Href: "/student/finance/pay"}},
		Cards: []card{{Label: "Total paid", Value: academics.FormatCents(academics.TotalCents(payments))}},
		Table: paymentsTable(payments, false),
	})
}

func (s *Server) studentPaymentForm(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, viewPage, &view{Title: "Make a Payment", Form: paymentForm("/student/finance/pay")})
}

func (s *Server) studentPay(ctx echo.Context) error {
	var data academics.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	page := func() (*view, error) {
		return &view{Title: "Make a Payment", Form: paymentForm("/student/finance/pay")}, nil
	}
	return s.submit(ctx, "/student/finance", page, func() error {
		_, err := s.academicsSvc.Pay(ctx.Request().Context(), mustIdentity(ctx), data)
		return err
	})
}

// communicationPage lists the conversation of the current user with an inline send form.
func (s *Server) communicationPage(ctx echo.Context, action string) (*view, error) {
	me := mustIdentity(ctx)
	messages, err := s.academicsSvc.Messages(ctx.Request().Context(), me.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}
	recipients, err := s.recipients(ctx, me.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying recipients")
	}
	return &view{Title: "Messages", Form: messageForm(action, recipients), Table: messagesTable(messages, me.ID)}, nil
}

func (s *Server) studentCommunication(ctx echo.Context) error {
	v, err := s.communicationPage(ctx, "/student/communication/send")
	if err != nil {
		return err
	}
	return s.render(ctx, http.StatusOK, viewPage, v)
}

func (s *Server) studentSendMessage(ctx echo.Context) error {
	var data academics.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	page := func() (*view, error) { return s.communicationPage(ctx, "/student/communication/send") }
	return s.submit(ctx, "/student/communication", page, func() error {
		_, err := s.academicsSvc.SendMessage(ctx.Request().Context(), mustIdentity(ctx), data)
		return err
	})
}

func (s *Server) studentCalendar(ctx echo.Context) error {
	events, err := s.academicsSvc.Events(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{Title: "Academic Calendar", Table: eventsTable(events)})
}

func (s *Server) studentFeedbackPage(ctx echo.Context) (*view, error) {
	feedback, err := s.academicsSvc.Feedback(ctx.Request().Context(), academics.Filter{UserID: mustIdentity(ctx).ID})
	if err != nil {
		return nil, errors.Wrap(err, "querying feedback")
	}
	return &view{Title: "Course Feedback", Form: feedbackForm("/student/feedback/submit"), Table: feedbackTable(feedback, false)}, nil
}

func (s *Server) studentFeedback(ctx echo.Context) error {
	v, err := s.studentFeedbackPage(ctx)
	if err != nil {
		return err
	}
	return s.render(ctx, http.StatusOK, viewPage, v)
}

func (s *Server) studentSubmitFeedback(ctx echo.Context) error {
	var data academics.NewFeedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeedback")
	}
	page := func() (*view, error) { return s.studentFeedbackPage(ctx) }
	return s.submit(ctx, "/student/feedback", page, func() error {
		_, err := s.academicsSvc.SubmitFeedback(ctx.Request().Context(), mustIdentity(ctx), data)
		return err
	})
}
