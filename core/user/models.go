package user

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/onestop/core"
)

// Role is one of the closed set of roles a user can hold.
type Role string

// Roles
const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

var AllRoles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

// ParseRole returns the Role named by s, and false when s is not a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(core.CleanString(s, true /* lower */))
	return r, r.IsValid()
}

func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Title is the display name of the role.
func (r Role) Title() string {
	switch r {
	case RoleStudent:
		return "Student"
	case RoleTeacher:
		return "Teacher"
	case RoleAdmin:
		return "Admin"
	}
	return string(r)
}

// LandingPath is where a freshly logged-in user of this role is sent.
func (r Role) LandingPath() string {
	switch r {
	case RoleStudent:
		return "/student/dashboard"
	case RoleTeacher:
		return "/teacher/dashboard"
	case RoleAdmin:
		return "/admin/dashboard"
	}
	return "/"
}

// Identity is the authenticated principal of one request.
// It is rebuilt from the stored User on every request and never cached across requests.
type Identity struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Role         Role        `json:"role"`
	Department   null.String `json:"department"`
	EnrollmentNo null.String `json:"enrollment_no"`
	EmployeeID   null.String `json:"employee_id"`
	CreatedAt    time.Time   `json:"created_at"`
}

func (id Identity) IsZero() bool { return id.ID == 0 }

// User is the stored credential record.
type User struct {
	ID           int64       `db:"id"`
	Name         string      `db:"name"`
	Email        string      `db:"email"` // unique, lower-cased
	PasswordHash []byte      `db:"password"`
	Role         Role        `db:"role"`
	Department   null.String `db:"department"`
	EnrollmentNo null.String `db:"enrollment_no"`
	EmployeeID   null.String `db:"employee_id"`
	CreatedAt    time.Time   `db:"created_at"` // UTC
}

// Identity returns the public view of the record. The password hash never leaves User.
func (u User) Identity() Identity {
	return Identity{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		Department:   u.Department,
		EnrollmentNo: u.EnrollmentNo,
		EmployeeID:   u.EmployeeID,
		CreatedAt:    u.CreatedAt,
	}
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Name         string `form:"name" validate:"required"`
	Email        string `form:"email" validate:"required,email"`
	Password     string `form:"password" validate:"required"`
	Role         string `form:"role" validate:"required,role"`
	Department   string `form:"department"`
	EnrollmentNo string `form:"enrollmentNo"`
	EmployeeID   string `form:"employeeId"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.Department = core.CleanString(nu.Department)
	nu.EnrollmentNo = core.CleanString(nu.EnrollmentNo)
	nu.EmployeeID = core.CleanString(nu.EmployeeID)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Role is only honoured when an admin edits someone; empty fields are cleared.
type UpdateUser struct {
	Name         string `form:"name" validate:"required"`
	Email        string `form:"email" validate:"omitempty,email"`
	Role         string `form:"role" validate:"omitempty,role"`
	Department   string `form:"department"`
	EnrollmentNo string `form:"enrollmentNo"`
	EmployeeID   string `form:"employeeId"`
}

func (uu *UpdateUser) Clean() {
	uu.Name = core.CleanString(uu.Name)
	uu.Email = core.CleanString(uu.Email, true /* lower */)
	uu.Role = core.CleanString(uu.Role, true /* lower */)
	uu.Department = core.CleanString(uu.Department)
	uu.EnrollmentNo = core.CleanString(uu.EnrollmentNo)
	uu.EmployeeID = core.CleanString(uu.EmployeeID)
}

// Credentials is what a login form carries.
type Credentials struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func (c *Credentials) Clean() {
	c.Email = core.CleanString(c.Email, true /* lower */)
}

type QueryFilter struct {
	Search string `query:"search"`
	Role   string `query:"role"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}

func optionalString(s string) null.String {
	return null.NewString(s, s != "")
}
