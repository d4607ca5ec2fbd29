package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/auth"
	"github.com/trezcool/onestop/core/user"
)

const (
	contextIdentityKey = "identity"
	loginPath          = "/auth/login"

	msgRegistrationFailed = "Registration failed. Try again."
	msgLoginFailed        = "Login failed. Please try again."
	msgProfileUpdated     = "Profile updated."
)

// requireRoles authenticates the request, then checks the identity against roles.
// With no roles, any authenticated user passes.
func (s *Server) requireRoles(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			dec, err := s.gate.Authenticate(ctx.Request().Context(), ctx.Request())
			if err != nil {
				return errors.Wrap(err, "authenticating request")
			}
			if !dec.OK() {
				return dec.Err()
			}
			ctx.Set(contextIdentityKey, dec.Identity)

			if len(roles) > 0 {
				if dec = auth.Authorize(dec.Client, dec.Identity, roles); !dec.OK() {
					return dec.Err()
				}
			}
			return next(ctx)
		}
	}
}

func getContextIdentity(ctx echo.Context) (user.Identity, bool) {
	id, ok := ctx.Get(contextIdentityKey).(user.Identity)
	return id, ok && !id.IsZero()
}

// mustIdentity returns the identity set by requireRoles. Handlers behind it can rely on it.
func mustIdentity(ctx echo.Context) user.Identity {
	id, _ := getContextIdentity(ctx)
	return id
}

func registerAuthRoutes(s *Server) {
	g := s.app.Group("/auth")
	g.GET("/login", s.loginPage)
	g.POST("/login", s.login)
	g.GET("/register", s.registerPage)
	g.POST("/register", s.register)
	g.GET("/logout", s.logout)
	g.POST("/logout", s.logout)
	g.GET("/profile", s.profilePage, s.requireRoles())
	g.POST("/profile", s.updateProfile, s.requireRoles())
}

// Handlers

func (s *Server) loginPage(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, viewLogin, &view{Title: "Login"})
}

func (s *Server) login(ctx echo.Context) error {
	var creds user.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}

	loginFailed := func(code int, msg string) error {
		return s.render(ctx, code, viewLogin, &view{
			Title:  "Login",
			Error:  msg,
			Values: map[string]string{"email": creds.Email},
		})
	}

	usr, err := s.usrSvc.Authenticate(ctx.Request().Context(), creds)
	if err != nil {
		if verr, ok := core.IsValidationError(err); ok {
			return loginFailed(http.StatusBadRequest, verr.Error())
		}
		if errors.Cause(err) == user.ErrInvalidCredentials {
			return loginFailed(http.StatusUnauthorized, user.ErrInvalidCredentials.Error())
		}
		s.logger.Error(msgLoginFailed, errors.Wrap(err, "authenticating"))
		return loginFailed(http.StatusInternalServerError, msgLoginFailed)
	}

	token, err := s.codec.Issue(auth.NewClaims(usr.Identity()), 0)
	if err != nil {
		s.logger.Error(msgLoginFailed, errors.Wrap(err, "issuing token"), usr.Identity())
		return loginFailed(http.StatusInternalServerError, msgLoginFailed)
	}
	s.carrier.Attach(ctx.Response(), token, s.nowFunc())
	return ctx.Redirect(http.StatusFound, usr.Role.LandingPath())
}

func (s *Server) registerPage(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, viewRegister, &view{Title: "Register", Roles: user.AllRoles})
}

func (s *Server) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	registrationFailed := func(code int, msg string) error {
		return s.render(ctx, code, viewRegister, &view{
			Title: "Register",
			Error: msg,
			Roles: user.AllRoles,
			Values: map[string]string{
				"name":         data.Name,
				"email":        data.Email,
				"role":         data.Role,
				"department":   data.Department,
				"enrollmentNo": data.EnrollmentNo,
				"employeeId":   data.EmployeeID,
			},
		})
	}

	if _, err := s.usrSvc.Register(ctx.Request().Context(), data); err != nil {
		if verr, ok := core.IsValidationError(err); ok {
			return registrationFailed(http.StatusBadRequest, verr.Error())
		}
		if errors.Cause(err) == user.ErrEmailExists {
			return registrationFailed(http.StatusConflict, user.ErrEmailExists.Error())
		}
		s.logger.Error(msgRegistrationFailed, errors.Wrap(err, "registering user"))
		return registrationFailed(http.StatusInternalServerError, msgRegistrationFailed)
	}
	return ctx.Redirect(http.StatusFound, loginPath)
}

func (s *Server) logout(ctx echo.Context) error {
	s.carrier.Clear(ctx.Response())
	return ctx.Redirect(http.StatusFound, loginPath)
}

func (s *Server) profilePage(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, viewProfile, &view{Title: "My Profile"})
}

func (s *Server) updateProfile(ctx echo.Context) error {
	id := mustIdentity(ctx)

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	usr, err := s.usrSvc.Update(ctx.Request().Context(), id.ID, data, false /* asAdmin */)
	if err != nil {
		if verr, ok := core.IsValidationError(err); ok {
			return s.render(ctx, http.StatusBadRequest, viewProfile, &view{Title: "My Profile", Error: verr.Error()})
		}
		return errors.Wrap(err, "updating profile")
	}

	ctx.Set(contextIdentityKey, usr.Identity())
	return s.render(ctx, http.StatusOK, viewProfile, &view{Title: "My Profile", Notice: msgProfileUpdated})
}

// paramID parses the `name` path param as a record id; malformed ids are not found.
func paramID(ctx echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
