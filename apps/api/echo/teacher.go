package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/onestop/core/academics"
	"github.com/trezcool/onestop/core/user"
)

func registerTeacherRoutes(s *Server) {
	g := s.app.Group("/teacher", s.requireRoles(user.RoleTeacher))
	g.GET("/dashboard", s.teacherDashboard)
	g.GET("/attendance", s.teacherAttendance)
	g.GET("/attendance/mark", s.teacherAttendanceForm)
	g.POST("/attendance/mark", s.teacherMarkAttendance)
	g.GET("/grades", s.teacherGrades)
	g.GET("/grades/add", s.teacherGradeForm)
	g.POST("/grades/add", s.teacherAddGrade)
	g.GET("/timetable", s.teacherTimetable)
	g.GET("/assignments", s.teacherAssignments)
	g.GET("/assignments/create", s.teacherAssignmentForm)
	g.POST("/assignments/create", s.teacherCreateAssignment)
	g.GET("/communication", s.teacherCommunication)
	g.GET("/communication/send", s.teacherCommunication)
	g.POST("/communication/send", s.teacherSendMessage)
	g.GET("/calendar", s.teacherCalendar)
	g.GET("/calendar/add", s.teacherEventForm)
	g.POST("/calendar/add", s.teacherAddEvent)
	g.GET("/feedback", s.teacherFeedback)
	g.GET("/leave", s.teacherLeaves)
	g.GET("/leave/apply", s.teacherLeaveForm)
	g.POST("/leave/apply", s.teacherApplyLeave)
}

func (s *Server) teacherDashboard(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	me := mustIdentity(ctx)

	slots, err := s.academicsSvc.Timetable(rctx, academics.Filter{UserID: me.ID})
	if err != nil {
		return errors.Wrap(err, "querying timetable")
	}
	assignments, err := s.academicsSvc.Assignments(rctx, academics.Filter{UserID: me.ID})
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	students, err := s.usersWithRole(ctx, user.RoleStudent)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}

	return s.render(ctx, http.StatusOK, viewPage, &view{
		Title: "Teacher Dashboard",
		Cards: []card{
			{Label: "Students", Value: strconv.Itoa(len(students)), Href: "/teacher/attendance"},
			{Label: "My classes", Value: strconv.Itoa(len(slots)), Href: "/teacher/timetable"},
			{Label: "My assignments", Value: strconv.Itoa(len(assignments)), Href: "/teacher/assignments"},
		},
		Links: []link{
			{Label: "Mark attendance", Href: "/teacher/attendance/mark"},
			{Label: "Add grade", Href: "/teacher/grades/add"},
			{Label: "Messages", Href: "/teacher/communication"},
			{Label: "Calendar", Href: "/teacher/calendar"},
			{Label: "Feedback", Href: "/teacher/feedback"},
			{Label: "Leave", Href: "/teacher/leave"},
		},
	})
}

func (s *Server) teacherAttendance(ctx echo.Context) error {
	var filter academics.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to Filter")
	}
	records, err := s.academicsSvc.Attendance(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{
		Title: "Attendance",
		Links: []link{{Label: "Mark attendance", Href: "/teacher/attendance/mark"}},
		Table: attendanceTable(records, true),
	})
}

func (s *Server) attendanceFormPage(ctx echo.Context, action string) (*view, error) {
	students, err := s.usersWithRole(ctx, user.RoleStudent)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return &view{Title: "Mark Attendance", Form: attendanceForm(action, students)}, nil
}

func (s *Server) teacherAttendanceForm(ctx echo.Context) error {
	v, err := s.attendanceFormPage(ctx, "/teacher/attendance/mark")
	if err != nil {
		return err
	}
	return s.render(ctx, http.StatusOK, viewPage, v)
}

func (s *Server) teacherMarkAttendance(ctx echo.Context) error {
	var data academics.NewAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	page := func() (*view, error) { return s.attendanceFormPage(ctx, "/teacher/attendance/mark") }
	return s.submit(ctx, "/teacher/attendance", page, func() error {
		_, err := s.academicsSvc.MarkAttendance(ctx.Request().Context(), mustIdentity(ctx), data)
		return err
	})
}

func (s *Server) teacherGrades(ctx echo.Context) error {
	var filter academics.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to Filter")
	}
	grades, err := s.academicsSvc.Grades(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{
		Title: "Grades",
		Links: []link{{Label: "Add grade", Href: "/teacher/grades/add"}},
		Table: gradesTable(grades, true),
	})
}

func (s *Server) gradeFormPage(ctx echo.Context, action string) (*view, error) {
	students, err := s.usersWithRole(ctx, user.RoleStudent)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return &view{Title: "Add Grade", Form: gradeForm(action, students)}, nil
}

func (s *Server) teacherGradeForm(ctx echo.Context) error {
	v, err := s.gradeFormPage(ctx, "/teacher/grades/add")
	if err != nil {
		return err
	}
	return s.render(ctx, http.StatusOK, viewPage, v)
}

func (s *Server) teacherAddGrade(ctx echo.Context) error {
	var data academics.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	page := func() (*view, error) { return s.gradeFormPage(ctx, "/teacher/grades/add") }
	return s.submit(ctx, "/teacher/grades", page, func() error {
		_, err := s.academicsSvc.AddGrade(ctx.Request().Context(), mustIdentity(ctx), data)
		return err
	})
}

func (s *Server) teacherTimetable(ctx echo.Context) error {
	slots, err := s.academicsSvc.Timetable(ctx.Request().Context(), academics.Filter{UserID: mustIdentity(ctx).ID})
	if err != nil {
		return errors.Wrap(err, "querying timetable")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{Title: "My Timetable", Table: timetableTable(slots)})
}

func (s *Server) teacherAssignments(ctx echo.Context) error {
	assignments, err := s.academicsSvc.Assignments(ctx.Request().Context(), academics.Filter{UserID: mustIdentity(ctx).ID})
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{
		Title: "My Assignments",
		Links: []link{{Label: "Create assignment", Href: "/teacher/assignments/create"}},
		Table: assignmentsTable(assignments),
	})
}

func (s *Server) teacherAssignmentForm(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, viewPage, &view{Title: "Create Assignment", Form: assignmentForm("/teacher/assignments/create")})
}

func (s *Server) teacherCreateAssignment(ctx echo.Context) error {
	var data academics.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	page := func() (*view, error) {
		return &view{Title: "Create Assignment", Form: assignmentForm("/teacher/assignments/create")}, nil
	}
	return s.submit(ctx, "/teacher/assignments", page, func() error {
		_, err := s.academicsSvc.CreateAssignment(ctx.Request().Context(), mustIdentity(ctx), data)
		return err
	})
}

func (s *Server) teacherCommunication(ctx echo.Context) error {
	v, err := s.communicationPage(ctx, "/teacher/communication/send")
	if err != nil {
		return err
	}
	return s.render(ctx, http.StatusOK, viewPage, v)
}

func (s *Server) teacherSendMessage(ctx echo.Context) error {
	var data academics.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	page := func() (*view, error) { return s.communicationPage(ctx, "/teacher/communication/send") }
	return s.submit(ctx, "/teacher/communication", page, func() error {
		_, err := s.academicsSvc.SendMessage(ctx.Request().Context(), mustIdentity(ctx), data)
		return err
	})
}

func (s *Server) teacherCalendar(ctx echo.Context) error {
	events, err := s.academicsSvc.Events(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{
		Title: "Academic Calendar",
		Links: []link{{Label: "Add event", Href: "/teacher/calendar/add"}},
		Table: eventsTable(events),
	})
}

func (s *Server) teacherEventForm(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, viewPage, &view{Title: "Add Event", Form: eventForm("/teacher/calendar/add")})
}

func (s *Server) teacherAddEvent(ctx echo.Context) error {
	var data academics.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	page := func() (*view, error) {
		return &view{Title: "Add Event", Form: eventForm("/teacher/calendar/add")}, nil
	}
	return s.submit(ctx, "/teacher/calendar", page, func() error {
		_, err := s.academicsSvc.AddEvent(ctx.Request().Context(), mustIdentity(ctx), data)
		return err
	})
}

func (s *Server) teacherFeedback(ctx echo.Context) error {
	var filter academics.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to Filter")
	}
	filter.UserID = 0 // teachers see every student's feedback
	feedback, err := s.academicsSvc.Feedback(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying feedback")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{Title: "Course Feedback", Table: feedbackTable(feedback, true)})
}

func (s *Server) teacherLeaves(ctx echo.Context) error {
	leaves, err := s.academicsSvc.Leaves(ctx.Request().Context(), academics.Filter{UserID: mustIdentity(ctx).ID})
	if err != nil {
		return errors.Wrap(err, "querying leaves")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{
		Title: "My Leave Applications",
		Links: []link{{Label: "Apply for leave", Href: "/teacher/leave/apply"}},
		Table: leaveTable(leaves, false, nil),
	})
}

func (s *Server) teacherLeaveForm(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, viewPage, &view{Title: "Apply for Leave", Form: leaveForm("/teacher/leave/apply")})
}

func (s *Server) teacherApplyLeave(ctx echo.Context) error {
	var data academics.NewLeave
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLeave")
	}
	page := func() (*view, error) {
		return &view{Title: "Apply for Leave", Form: leaveForm("/teacher/leave/apply")}, nil
	}
	return s.submit(ctx, "/teacher/leave", page, func() error {
		_, err := s.academicsSvc.ApplyLeave(ctx.Request().Context(), mustIdentity(ctx), data)
		return err
	})
}
