package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/onestop/core/user"
)

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func registerAPIRoutes(s *Server) {
	g := s.app.Group(strings.TrimSuffix(s.conf.Server.APIPrefix, "/"))
	g.GET("/health", s.health)
	g.GET("/me", s.me, s.requireRoles())
	g.GET("/users", s.queryUsers, s.requireRoles(user.RoleAdmin))
}

func (s *Server) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, healthResponse{
		Status:  "OK",
		Message: "Academic OneStop backend is running.",
	})
}

func (s *Server) me(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, mustIdentity(ctx))
}

func (s *Server) queryUsers(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.Identity{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := s.usrSvc.Query(ctx.Request().Context(), *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	identities := make([]user.Identity, 0, len(users))
	for _, usr := range users {
		identities = append(identities, usr.Identity())
	}
	return ctx.JSON(http.StatusOK, identities)
}
