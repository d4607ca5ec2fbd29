package echoapi

import (
	"embed"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/onestop/core/academics"
	"github.com/trezcool/onestop/core/user"
)

//go:embed templates
var templateFS embed.FS

// view names, mapped to their template files
const (
	viewLogin    = "auth/login"
	viewRegister = "auth/register"
	viewProfile  = "auth/profile"
	viewError    = "error"
	viewPage     = "page"
)

var viewFiles = map[string]string{
	viewLogin:    "templates/auth/login.html",
	viewRegister: "templates/auth/register.html",
	viewProfile:  "templates/auth/profile.html",
	viewError:    "templates/error.html",
	viewPage:     "templates/page.html",
}

type (
	// view is the data every template receives. Pages fill the sections they need.
	view struct {
		AppName string
		Title   string
		User    user.Identity
		Error   string
		Notice  string
		Status  int

		Links   []link
		Cards   []card
		Details []detail
		Table   *table
		Form    *form
		Values  map[string]string // previously submitted values of the auth forms
		Roles   []user.Role
	}

	link struct {
		Label string
		Href  string
	}

	card struct {
		Label string
		Value string
		Href  string
	}

	detail struct {
		Label string
		Value string
	}

	table struct {
		Caption string
		Columns []string
		Rows    []row
		Empty   string
	}

	row struct {
		Cells   []string
		Actions []action
	}

	// action is a per-row button; POST actions render as a small form.
	action struct {
		Label  string
		Href   string
		Method string
	}

	form struct {
		Action string
		Submit string
		Fields []field
	}

	field struct {
		Name     string
		Label    string
		Type     string // text, email, password, date, time, number, textarea, select
		Value    string
		Required bool
		Options  []option
	}

	option struct {
		Value string
		Label string
	}
)

func (v *view) IsAuthenticated() bool { return !v.User.IsZero() }

// templateRenderer implements echo.Renderer over the embedded templates.
type templateRenderer struct {
	templates map[string]*template.Template
}

var _ echo.Renderer = (*templateRenderer)(nil)

var templateFuncs = template.FuncMap{
	"upper": strings.ToUpper,
	"year":  func() int { return time.Now().Year() },
}

func newTemplateRenderer() (*templateRenderer, error) {
	tr := &templateRenderer{templates: make(map[string]*template.Template, len(viewFiles))}
	for name, file := range viewFiles {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", file)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing template %q", name)
		}
		tr.templates[name] = tmpl
	}
	return tr, nil
}

func (tr *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := tr.templates[name]
	if !ok {
		return errors.Errorf("unknown template %q", name)
	}
	return errors.Wrapf(tmpl.ExecuteTemplate(w, "layout", data), "rendering %q", name)
}

// form helpers

func textField(name, label, value string, required bool) field {
	return field{Name: name, Label: label, Type: "text", Value: value, Required: required}
}

func typedField(typ, name, label string, required bool) field {
	return field{Name: name, Label: label, Type: typ, Required: required}
}

func selectField(name, label string, required bool, opts ...option) field {
	return field{Name: name, Label: label, Type: "select", Required: required, Options: opts}
}

func stringOptions(values ...string) []option {
	opts := make([]option, 0, len(values))
	for _, v := range values {
		opts = append(opts, option{Value: v, Label: v})
	}
	return opts
}

func roleOptions() []option {
	opts := make([]option, 0, len(user.AllRoles))
	for _, r := range user.AllRoles {
		opts = append(opts, option{Value: r.String(), Label: r.Title()})
	}
	return opts
}

// userOptions lists users as "Name (email)" options keyed by id.
func userOptions(users []user.User) []option {
	opts := make([]option, 0, len(users))
	for _, usr := range users {
		opts = append(opts, option{Value: formatID(usr.ID), Label: usr.Name + " (" + usr.Email + ")"})
	}
	return opts
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(academics.DateLayout)
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
