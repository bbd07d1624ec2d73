package echoapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/access"
	"github.com/mahmoud01140/onlineEdu/core/group"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

type userApi struct {
	svc      *user.Service
	groupSvc *group.Service
}

type groupMembership struct {
	GroupID string `json:"groupId"`
}

// registerUserAPI mounts the user management endpoints. g is restricted to admins.
func registerUserAPI(g *echo.Group, svc *user.Service, groupSvc *group.Service) {
	api := userApi{svc: svc, groupSvc: groupSvc}

	g.GET("", api.query)
	g.POST("", api.create)
	g.GET("/stats", api.stats)
	g.GET("/search", api.query)
	g.GET("/without-groups", api.withoutGroups)

	// detail endpoints
	g.GET("/:id", api.retrieve)
	g.PATCH("/:id", api.update)
	g.DELETE("/:id", api.destroy)
	g.PATCH("/:id/toggle-status", api.toggleStatus)
	g.PATCH("/:id/level", api.updateLevel)
	g.PATCH("/:id/role", api.updateRole)
	g.PATCH("/:id/live-exam", api.markLiveExamPassed)
	g.GET("/:id/groups", api.groups)
	g.POST("/:id/add-to-group", api.addToGroup)
	g.POST("/:id/remove-from-group", api.removeFromGroup)
}

// bindUserFilter reads the users list filter from the query string.
func bindUserFilter(ctx echo.Context) (*user.QueryFilter, error) {
	filter := &user.QueryFilter{
		Search: ctx.QueryParam("search"),
		Role:   ctx.QueryParam("role"),
		Level:  ctx.QueryParam("level"),
	}
	if v := ctx.QueryParam("isActive"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return nil, core.NewValidationError(errors.New("invalid filter"),
				core.FieldError{Field: "isActive", Error: "isActive must be true or false"})
		}
		filter.IsActive = &active
	}
	filter.Clean()
	return filter, nil
}

func (api *userApi) query(ctx echo.Context) error {
	filter, err := bindUserFilter(ctx)
	if err != nil {
		return err
	}
	ordering := core.ParseOrdering(ctx.QueryParam("ordering"), user.UserOrderings...)

	users, err := api.svc.Query(ctx.Request().Context(), filter, ordering...)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return respond(ctx, http.StatusOK, "users", users)
}

func (api *userApi) withoutGroups(ctx echo.Context) error {
	users, err := api.svc.Query(ctx.Request().Context(), &user.QueryFilter{Role: user.RoleStudent, WithoutGrp: true})
	if err != nil {
		return errors.Wrap(err, "querying users without groups")
	}
	if users == nil {
		users = []user.User{}
	}
	return respond(ctx, http.StatusOK, "users", users)
}

func (api *userApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing user stats")
	}
	return respond(ctx, http.StatusOK, "stats", stats)
}

// create registers a user of any role. The role is read from the payload.
func (api *userApi) create(ctx echo.Context) error {
	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading body")
	}
	var head struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	reg, err := user.NewRegistration(core.CleanString(head.Role, true /* lower */))
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "role", Error: "role must be one of: student, teacher, elder, admin"})
	}
	if err := json.Unmarshal(body, reg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}

	usr, err := api.svc.Register(ctx.Request().Context(), reg)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusCreated, "user", usr)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "user", usr)
}

func (api *userApi) update(ctx echo.Context) error {
	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	return api.apply(ctx, data)
}

func (api *userApi) apply(ctx echo.Context, data user.UpdateUser) error {
	usr, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "user", usr)
}

func (api *userApi) updateLevel(ctx echo.Context) error {
	var data struct {
		Level string `json:"level"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding level")
	}
	return api.apply(ctx, user.UpdateUser{Level: &data.Level})
}

func (api *userApi) updateRole(ctx echo.Context) error {
	var data struct {
		Role string `json:"role"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding role")
	}
	return api.apply(ctx, user.UpdateUser{Role: &data.Role})
}

func (api *userApi) toggleStatus(ctx echo.Context) error {
	usr, err := api.svc.ToggleActive(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "user", usr)
}

func (api *userApi) markLiveExamPassed(ctx echo.Context) error {
	usr, err := api.svc.MarkLiveExamPassed(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "user", usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	// admins cannot delete themselves
	if ctxUsr.ID == ctx.Param("id") {
		return access.ErrForbidden
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return respondMessage(ctx, http.StatusOK, "User deleted")
}

func (api *userApi) groups(ctx echo.Context) error {
	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	groups := make([]group.Group, 0, len(usr.Groups))
	for _, id := range usr.Groups {
		g, err := api.groupSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			if errors.Cause(err) == group.ErrNotFound {
				continue
			}
			return errors.Wrap(err, "getting group")
		}
		groups = append(groups, g)
	}
	return respond(ctx, http.StatusOK, "groups", groups)
}

func (api *userApi) addToGroup(ctx echo.Context) error {
	var data groupMembership
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to groupMembership")
	}
	g, err := api.groupSvc.AddStudent(ctx.Request().Context(), data.GroupID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "group", g)
}

func (api *userApi) removeFromGroup(ctx echo.Context) error {
	var data groupMembership
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to groupMembership")
	}
	g, err := api.groupSvc.RemoveStudent(ctx.Request().Context(), data.GroupID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "group", g)
}
