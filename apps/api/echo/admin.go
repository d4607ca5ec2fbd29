package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/academics"
	"github.com/trezcool/onestop/core/user"
)

const msgCannotDeleteSelf = "You cannot delete your own account."

func registerAdminRoutes(s *Server) {
	g := s.app.Group("/admin", s.requireRoles(user.RoleAdmin))
	g.GET("/dashboard", s.adminDashboard)
	g.GET("/manageUsers", s.adminUsers)
	g.GET("/editUser/:id", s.adminEditUserForm)
	g.POST("/editUser/:id", s.adminEditUser)
	g.GET("/deleteUser/:id", s.adminDeleteUserForm)
	g.POST("/deleteUser/:id", s.adminDeleteUser)
	g.GET("/attendance", s.adminAttendance)
	g.GET("/grades", s.adminGrades)
	g.GET("/leave", s.adminLeaves)
	g.POST("/leave/approve/:id", s.adminReviewLeave(true))
	g.POST("/leave/reject/:id", s.adminReviewLeave(false))
	g.GET("/timetable", s.adminTimetable)
	g.GET("/timetable/add", s.adminSlotForm)
	g.POST("/timetable/add", s.adminAddSlot)
	g.GET("/assignments", s.adminAssignments)
	g.GET("/assignments/add", s.adminAssignmentForm)
	g.POST("/assignments/add", s.adminAddAssignment)
	g.GET("/finance", s.adminFinance)
	g.GET("/communication", s.adminCommunication)
	g.GET("/communication/send", s.adminCommunication)
	g.POST("/communication/send", s.adminSendMessage)
	g.GET("/calendar", s.adminCalendar)
	g.GET("/calendar/addEvent", s.adminEventForm)
	g.POST("/calendar/addEvent", s.adminAddEvent)
	g.GET("/feedback", s.adminFeedback)
}

func (s *Server) adminDashboard(ctx echo.Context) error {
	stats, err := s.academicsSvc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting stats")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{
		Title: "Admin Dashboard",
		Cards: []card{
			{Label: "Students", Value: strconv.Itoa(stats.Students), Href: "/admin/manageUsers?role=student"},
			{Label: "Teachers", Value: strconv.Itoa(stats.Teachers), Href: "/admin/manageUsers?role=teacher"},
			{Label: "Admins", Value: strconv.Itoa(stats.Admins), Href: "/admin/manageUsers?role=admin"},
			{Label: "Pending leave", Value: strconv.Itoa(stats.PendingLeaves), Href: "/admin/leave"},
			{Label: "Assignments", Value: strconv.Itoa(stats.Assignments), Href: "/admin/assignments"},
			{Label: "Events", Value: strconv.Itoa(stats.Events), Href: "/admin/calendar"},
		},
		Links: []link{
			{Label: "Attendance", Href: "/admin/attendance"},
			{Label: "Grades", Href: "/admin/grades"},
			{Label: "Timetable", Href: "/admin/timetable"},
			{Label: "Finance", Href: "/admin/finance"},
			{Label: "Messages", Href: "/admin/communication"},
			{Label: "Feedback", Href: "/admin/feedback"},
		},
	})
}

// Users

func (s *Server) adminUsers(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := s.usrSvc.Query(ctx.Request().Context(), *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{
		Title: "Manage Users",
		Links: []link{
			{Label: "All", Href: "/admin/manageUsers"},
			{Label: "Students", Href: "/admin/manageUsers?role=student"},
			{Label: "Teachers", Href: "/admin/manageUsers?role=teacher"},
			{Label: "Admins", Href: "/admin/manageUsers?role=admin"},
		},
		Table: usersTable(users, mustIdentity(ctx).ID),
	})
}

// paramUser loads the user named by the :id path param.
func (s *Server) paramUser(ctx echo.Context) (user.User, error) {
	id, err := paramID(ctx, "id")
	if err != nil {
		return user.User{}, err
	}
	usr, err := s.usrSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	return usr, nil
}

func editUserPage(usr user.User) *view {
	roleField := selectField("role", "Role", true, roleOptions()...)
	roleField.Value = usr.Role.String()
	return &view{
		Title: "Edit User",
		Form: &form{
			Action: "/admin/editUser/" + formatID(usr.ID),
			Submit: "Save",
			Fields: []field{
				textField("name", "Name", usr.Name, true),
				{Name: "email", Label: "Email", Type: "email", Value: usr.Email, Required: true},
				roleField,
				textField("department", "Department", usr.Department.String, false),
				textField("enrollmentNo", "Enrollment number", usr.EnrollmentNo.String, false),
				textField("employeeId", "Employee ID", usr.EmployeeID.String, false),
			},
		},
	}
}

func (s *Server) adminEditUserForm(ctx echo.Context) error {
	usr, err := s.paramUser(ctx)
	if err != nil {
		return err
	}
	return s.render(ctx, http.StatusOK, viewPage, editUserPage(usr))
}

func (s *Server) adminEditUser(ctx echo.Context) error {
	usr, err := s.paramUser(ctx)
	if err != nil {
		return err
	}
	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}

	_, err = s.usrSvc.Update(ctx.Request().Context(), usr.ID, data, true /* asAdmin */)
	if err != nil && errors.Cause(err) == user.ErrEmailExists {
		err = core.NewValidationMessage(user.ErrEmailExists.Error())
	}
	page := func() (*view, error) { return editUserPage(usr), nil }
	return s.submit(ctx, "/admin/manageUsers", page, func() error { return err })
}

func deleteUserPage(usr user.User) *view {
	return &view{
		Title: "Delete User",
		Details: []detail{
			{Label: "Name", Value: usr.Name},
			{Label: "Email", Value: usr.Email},
			{Label: "Role", Value: usr.Role.Title()},
		},
		Notice: "Deleting this user also deletes their attendance, grades, leave applications, payments, messages and feedback.",
		Form:   &form{Action: "/admin/deleteUser/" + formatID(usr.ID), Submit: "Delete"},
	}
}

func (s *Server) adminDeleteUserForm(ctx echo.Context) error {
	usr, err := s.paramUser(ctx)
	if err != nil {
		return err
	}
	return s.render(ctx, http.StatusOK, viewPage, deleteUserPage(usr))
}

func (s *Server) adminDeleteUser(ctx echo.Context) error {
	usr, err := s.paramUser(ctx)
	if err != nil {
		return err
	}

	page := func() (*view, error) { return deleteUserPage(usr), nil }
	return s.submit(ctx, "/admin/manageUsers", page, func() error {
		if usr.ID == mustIdentity(ctx).ID {
			return core.NewValidationMessage(msgCannotDeleteSelf)
		}
		return s.academicsSvc.PurgeUser(ctx.Request().Context(), usr.ID)
	})
}

// Academics

func (s *Server) adminAttendance(ctx echo.Context) error {
	var filter academics.Filter
	if studentID := ctx.QueryParam("studentId"); studentID != "" {
		id, err := strconv.ParseInt(studentID, 10, 64)
		if err != nil {
			return core.NewValidationMessage("Please select a valid student.")
		}
		filter.UserID = id
	}
	records, err := s.academicsSvc.Attendance(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{
		Title: "Attendance",
		Cards: []card{{Label: "Attendance rate", Value: strconv.Itoa(academics.AttendanceRate(records)) + "%"}},
		Table: attendanceTable(records, true),
	})
}

func (s *Server) adminGrades(ctx echo.Context) error {
	var filter academics.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to Filter")
	}
	grades, err := s.academicsSvc.Grades(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{Title: "Grades", Table: gradesTable(grades, true)})
}

func (s *Server) adminLeaves(ctx echo.Context) error {
	var filter academics.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to Filter")
	}
	leaves, err := s.academicsSvc.Leaves(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying leaves")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{
		Title: "Leave Applications",
		Links: []link{
			{Label: "All", Href: "/admin/leave"},
			{Label: "Pending", Href: "/admin/leave?status=" + academics.LeavePending},
		},
		Table: leaveTable(leaves, true, func(l academics.Leave) []action {
			if l.Status != academics.LeavePending {
				return nil
			}
			id := formatID(l.ID)
			return []action{
				{Label: "Approve", Href: "/admin/leave/approve/" + id, Method: http.MethodPost},
				{Label: "Reject", Href: "/admin/leave/reject/" + id, Method: http.MethodPost},
			}
		}),
	})
}

func (s *Server) adminReviewLeave(approve bool) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := paramID(ctx, "id")
		if err != nil {
			return err
		}
		if _, err = s.academicsSvc.ReviewLeave(ctx.Request().Context(), mustIdentity(ctx), id, approve); err != nil {
			return errors.Wrap(err, "reviewing leave")
		}
		return ctx.Redirect(http.StatusFound, "/admin/leave")
	}
}

func (s *Server) adminTimetable(ctx echo.Context) error {
	slots, err := s.academicsSvc.Timetable(ctx.Request().Context(), academics.Filter{})
	if err != nil {
		return errors.Wrap(err, "querying timetable")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{
		Title: "Timetable",
		Links: []link{{Label: "Add slot", Href: "/admin/timetable/add"}},
		Table: timetableTable(slots),
	})
}

func (s *Server) slotFormPage(ctx echo.Context) (*view, error) {
	teachers, err := s.usersWithRole(ctx, user.RoleTeacher)
	if err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	return &view{Title: "Add Timetable Slot", Form: slotForm("/admin/timetable/add", teachers)}, nil
}

func (s *Server) adminSlotForm(ctx echo.Context) error {
	v, err := s.slotFormPage(ctx)
	if err != nil {
		return err
	}
	return s.render(ctx, http.StatusOK, viewPage, v)
}

func (s *Server) adminAddSlot(ctx echo.Context) error {
	var data academics.NewSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSlot")
	}
	page := func() (*view, error) { return s.slotFormPage(ctx) }
	return s.submit(ctx, "/admin/timetable", page, func() error {
		_, err := s.academicsSvc.AddSlot(ctx.Request().Context(), data)
		return err
	})
}

func (s *Server) adminAssignments(ctx echo.Context) error {
	assignments, err := s.academicsSvc.Assignments(ctx.Request().Context(), academics.Filter{})
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{
		Title: "Assignments",
		Links: []link{{Label: "Add assignment", Href: "/admin/assignments/add"}},
		Table: assignmentsTable(assignments),
	})
}

func (s *Server) adminAssignmentForm(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, viewPage, &view{Title: "Add Assignment", Form: assignmentForm("/admin/assignments/add")})
}

func (s *Server) adminAddAssignment(ctx echo.Context) error {
	var data academics.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	page := func() (*view, error) {
		return &view{Title: "Add Assignment", Form: assignmentForm("/admin/assignments/add")}, nil
	}
	return s.submit(ctx, "/admin/assignments", page, func() error {
		_, err := s.academicsSvc.CreateAssignment(ctx.Request().Context(), mustIdentity(ctx), data)
		return err
	})
}

func (s *Server) adminFinance(ctx echo.Context) error {
	payments, err := s.academicsSvc.Payments(ctx.Request().Context(), academics.Filter{})
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{
		Title: "Finance",
		Cards: []card{{Label: "Total collected", Value: academics.FormatCents(academics.TotalCents(payments))}},
		Table: paymentsTable(payments, true),
	})
}

func (s *Server) adminCommunication(ctx echo.Context) error {
	v, err := s.communicationPage(ctx, "/admin/communication/send")
	if err != nil {
		return err
	}
	return s.render(ctx, http.StatusOK, viewPage, v)
}

func (s *Server) adminSendMessage(ctx echo.Context) error {
	var data academics.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	page := func() (*view, error) { return s.communicationPage(ctx, "/admin/communication/send") }
	return s.submit(ctx, "/admin/communication", page, func() error {
		_, err := s.academicsSvc.SendMessage(ctx.Request().Context(), mustIdentity(ctx), data)
		return err
	})
}

func (s *Server) adminCalendar(ctx echo.Context) error {
	events, err := s.academicsSvc.Events(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{
		Title: "Academic Calendar",
		Links: []link{{Label: "Add event", Href: "/admin/calendar/addEvent"}},
		Table: eventsTable(events),
	})
}

func (s *Server) adminEventForm(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, viewPage, &view{Title: "Add Event", Form: eventForm("/admin/calendar/addEvent")})
}

func (s *Server) adminAddEvent(ctx echo.Context) error {
	var data academics.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	page := func() (*view, error) {
		return &view{Title: "Add Event", Form: eventForm("/admin/calendar/addEvent")}, nil
	}
	return s.submit(ctx, "/admin/calendar", page, func() error {
		_, err := s.academicsSvc.AddEvent(ctx.Request().Context(), mustIdentity(ctx), data)
		return err
	})
}

func (s *Server) adminFeedback(ctx echo.Context) error {
	var filter academics.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to Filter")
	}
	feedback, err := s.academicsSvc.Feedback(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying feedback")
	}
	return s.render(ctx, http.StatusOK, viewPage, &view{Title: "Course Feedback", Table: feedbackTable(feedback, true)})
}
