package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/academics"
	"github.com/trezcool/onestop/core/user"
)

// submit runs save and redirects to next on success.
// Validation errors re-render the page built by page, carrying the message; other errors go to the error handler.
func (s *Server) submit(ctx echo.Context, next string, page func() (*view, error), save func() error) error {
	err := save()
	if err == nil {
		return ctx.Redirect(http.StatusFound, next)
	}
	verr, ok := core.IsValidationError(err)
	if !ok {
		return err
	}
	v, perr := page()
	if perr != nil {
		return perr
	}
	v.Error = verr.Error()
	return s.render(ctx, http.StatusBadRequest, viewPage, v)
}

// Tables

func attendanceTable(records []academics.Attendance, withStudent bool) *table {
	t := &table{Columns: []string{"Date", "Course", "Status"}, Empty: "No attendance records yet."}
	if withStudent {
		t.Columns = append([]string{"Student"}, t.Columns...)
	}
	for _, a := range records {
		cells := []string{formatDate(a.Date), a.Course, a.Status}
		if withStudent {
			cells = append([]string{a.StudentName}, cells...)
		}
		t.Rows = append(t.Rows, row{Cells: cells})
	}
	return t
}

func gradesTable(grades []academics.Grade, withStudent bool) *table {
	t := &table{Columns: []string{"Semester", "Course", "Grade", "Remarks"}, Empty: "No grades yet."}
	if withStudent {
		t.Columns = append([]string{"Student"}, t.Columns...)
	}
	for _, g := range grades {
		cells := []string{g.Semester, g.Course, g.Grade, g.Remarks.String}
		if withStudent {
			cells = append([]string{g.StudentName}, cells...)
		}
		t.Rows = append(t.Rows, row{Cells: cells})
	}
	return t
}

// leaveTable renders leaves; actions returns the row actions of each leave (may be nil).
func leaveTable(leaves []academics.Leave, withApplicant bool, actions func(academics.Leave) []action) *table {
	t := &table{Columns: []string{"Type", "From", "To", "Days", "Status"}, Empty: "No leave applications."}
	if withApplicant {
		t.Columns = append([]string{"Applicant", "Role"}, t.Columns...)
	}
	for _, l := range leaves {
		cells := []string{l.Type, formatDate(l.StartDate), formatDate(l.EndDate), strconv.Itoa(l.Days()), l.Status}
		if withApplicant {
			cells = append([]string{l.UserName, l.UserRole}, cells...)
		}
		r := row{Cells: cells}
		if actions != nil {
			r.Actions = actions(l)
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

func timetableTable(slots []academics.TimetableSlot) *table {
	t := &table{Columns: []string{"Day", "Start", "End", "Subject", "Room", "Teacher"}, Empty: "No classes scheduled."}
	for _, sl := range slots {
		t.Rows = append(t.Rows, row{Cells: []string{sl.Day, sl.StartTime, sl.EndTime, sl.Subject, sl.Room.String, sl.TeacherName.String}})
	}
	return t
}

func assignmentsTable(assignments []academics.Assignment) *table {
	t := &table{Columns: []string{"Title", "Course", "Due", "Description", "Posted by"}, Empty: "No assignments."}
	for _, a := range assignments {
		t.Rows = append(t.Rows, row{Cells: []string{a.Title, a.Course, formatDate(a.DueDate), a.Description.String, a.CreatorName.String}})
	}
	return t
}

func paymentsTable(payments []academics.Payment, withPayer bool) *table {
	t := &table{Columns: []string{"Date", "Description", "Amount"}, Empty: "No payments recorded."}
	if withPayer {
		t.Columns = append([]string{"Payer"}, t.Columns...)
	}
	for _, p := range payments {
		cells := []string{formatDateTime(p.PaidAt), p.Description, p.Amount()}
		if withPayer {
			cells = append([]string{p.UserName}, cells...)
		}
		t.Rows = append(t.Rows, row{Cells: cells})
	}
	return t
}

// messagesTable shows the conversation of me: the other party and the direction of each message.
func messagesTable(messages []academics.Message, me int64) *table {
	t := &table{Columns: []string{"Sent", "With", "Direction", "Message"}, Empty: "No messages yet."}
	for _, m := range messages {
		with, direction := m.SenderName, "Received"
		if m.SenderID == me {
			with, direction = m.ReceiverName, "Sent"
		}
		t.Rows = append(t.Rows, row{Cells: []string{formatDateTime(m.SentAt), with, direction, m.Content}})
	}
	return t
}

func eventsTable(events []academics.Event) *table {
	t := &table{Columns: []string{"Date", "Event", "Description"}, Empty: "No upcoming events."}
	for _, e := range events {
		t.Rows = append(t.Rows, row{Cells: []string{formatDate(e.EventDate), e.Title, e.Description.String}})
	}
	return t
}

func feedbackTable(feedback []academics.Feedback, withAuthor bool) *table {
	t := &table{Columns: []string{"Submitted", "Course", "Rating", "Comments"}, Empty: "No feedback yet."}
	if withAuthor {
		t.Columns = append([]string{"From"}, t.Columns...)
	}
	for _, f := range feedback {
		cells := []string{formatDate(f.SubmittedAt), f.Course, strconv.Itoa(f.Rating) + "/5", f.Comments.String}
		if withAuthor {
			cells = append([]string{f.UserName}, cells...)
		}
		t.Rows = append(t.Rows, row{Cells: cells})
	}
	return t
}

func usersTable(users []user.User, me int64) *table {
	t := &table{Columns: []string{"Name", "Email", "Role", "Department", "Joined"}, Empty: "No users found."}
	for _, usr := range users {
		r := row{
			Cells:   []string{usr.Name, usr.Email, usr.Role.Title(), usr.Department.String, formatDate(usr.CreatedAt)},
			Actions: []action{{Label: "Edit", Href: "/admin/editUser/" + formatID(usr.ID)}},
		}
		if usr.ID != me {
			r.Actions = append(r.Actions, action{Label: "Delete", Href: "/admin/deleteUser/" + formatID(usr.ID)})
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

// Forms

func leaveForm(action string) *form {
	return &form{
		Action: action,
		Submit: "Apply",
		Fields: []field{
			selectField("leaveType", "Leave type", true, stringOptions(academics.LeaveTypes...)...),
			typedField("date", "startDate", "Start date", true),
			typedField("date", "endDate", "End date", true),
			typedField("textarea", "reason", "Reason", true),
		},
	}
}

func attendanceForm(action string, students []user.User) *form {
	return &form{
		Action: action,
		Submit: "Mark attendance",
		Fields: []field{
			selectField("studentId", "Student", true, userOptions(students)...),
			textField("course", "Course", "", true),
			typedField("date", "date", "Date", true),
			selectField("status", "Status", true, stringOptions(academics.AttendanceStatuses...)...),
		},
	}
}

func gradeForm(action string, students []user.User) *form {
	return &form{
		Action: action,
		Submit: "Add grade",
		Fields: []field{
			selectField("studentId", "Student", true, userOptions(students)...),
			textField("course", "Course", "", true),
			textField("semester", "Semester", "", true),
			textField("grade", "Grade", "", true),
			typedField("textarea", "remarks", "Remarks", false),
		},
	}
}

func slotForm(action string, teachers []user.User) *form {
	return &form{
		Action: action,
		Submit: "Add slot",
		Fields: []field{
			selectField("day", "Day", true, stringOptions(academics.Weekdays...)...),
			typedField("time", "startTime", "Start time", true),
			typedField("time", "endTime", "End time", true),
			textField("subject", "Subject", "", true),
			textField("room", "Room", "", false),
			selectField("teacherId", "Teacher", false, userOptions(teachers)...),
		},
	}
}

func assignmentForm(action string) *form {
	return &form{
		Action: action,
		Submit: "Post assignment",
		Fields: []field{
			textField("title", "Title", "", true),
			textField("course", "Course", "", true),
			typedField("date", "dueDate", "Due date", true),
			typedField("textarea", "description", "Description", false),
		},
	}
}

func paymentForm(action string) *form {
	return &form{
		Action: action,
		Submit: "Pay",
		Fields: []field{
			typedField("number", "amount", "Amount", true),
			textField("description", "Description", "", true),
		},
	}
}

func messageForm(action string, recipients []user.User) *form {
	return &form{
		Action: action,
		Submit: "Send",
		Fields: []field{
			selectField("receiverId", "To", true, userOptions(recipients)...),
			typedField("textarea", "content", "Message", true),
		},
	}
}

func eventForm(action string) *form {
	return &form{
		Action: action,
		Submit: "Add event",
		Fields: []field{
			textField("title", "Title", "", true),
			typedField("date", "eventDate", "Date", true),
			typedField("textarea", "description", "Description", false),
		},
	}
}

func feedbackForm(action string) *form {
	return &form{
		Action: action,
		Submit: "Submit feedback",
		Fields: []field{
			textField("course", "Course", "", true),
			selectField("rating", "Rating", true, stringOptions("1", "2", "3", "4", "5")...),
			typedField("textarea", "comments", "Comments", false),
		},
	}
}

// Shared lookups

func (s *Server) usersWithRole(ctx echo.Context, role user.Role) ([]user.User, error) {
	return s.usrSvc.Query(ctx.Request().Context(), user.QueryFilter{Role: role.String()}, core.DBOrdering{Field: "name", Ascending: true})
}

// recipients lists every user but me, by name.
func (s *Server) recipients(ctx echo.Context, me int64) ([]user.User, error) {
	users, err := s.usrSvc.Query(ctx.Request().Context(), user.QueryFilter{}, core.DBOrdering{Field: "name", Ascending: true})
	if err != nil {
		return nil, err
	}
	others := users[:0]
	for _, usr := range users {
		if usr.ID != me {
			others = append(others, usr)
		}
	}
	return others, nil
}
