package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/auth"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

const (
	contextUserKey = "user"
	logoutExpiry   = 10 * time.Second
)

var errUsrNotFoundInCtx = errors.New("user object not found in echo.Context")

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authApi struct {
	conf    *core.Config
	authSvc *auth.Service
	userSvc *user.Service
}

func registerAuthAPI(g *echo.Group, authed echo.MiddlewareFunc, deps *Deps) {
	api := authApi{conf: deps.Conf, authSvc: deps.AuthSvc, userSvc: deps.UserSvc}

	ag := g.Group("/auth")
	ag.POST("/register/:role", api.register)
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout)
	ag.GET("/check", api.check, authed)
	ag.GET("/profile", api.profile, authed)
}

// authMiddleware resolves the actor from the bearer header or the session cookie and stores it in the context.
func authMiddleware(svc *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			var cookie string
			if c, err := ctx.Cookie(auth.CookieName); err == nil {
				cookie = c.Value
			}
			token := auth.ExtractToken(ctx.Request().Header.Get(echo.HeaderAuthorization), cookie)

			usr, err := svc.ResolveActor(ctx.Request().Context(), token)
			if err != nil {
				return err
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUsrNotFoundInCtx
}

func (api *authApi) setSessionCookie(ctx echo.Context, value string, expires time.Time) {
	ctx.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   !(api.conf.Debug || api.conf.TestMode),
		SameSite: http.SameSiteLaxMode,
	})
}

// sendSession issues a session for usr, sets the cookie and writes the token with the user.
func (api *authApi) sendSession(ctx echo.Context, code int, usr user.User) error {
	sess, err := api.authSvc.IssueSession(usr)
	if err != nil {
		return errors.Wrap(err, "issuing session")
	}
	api.setSessionCookie(ctx, sess.Token, time.Now().Add(api.conf.CookieExpiry()))
	return ctx.JSON(code, echo.Map{
		"status": statusSuccess,
		"token":  sess.Token,
		"data":   echo.Map{"user": usr},
	})
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if data.Email == "" || data.Password == "" {
		return core.NewValidationError(errors.New("Please provide email and password!"))
	}

	usr, err := api.authSvc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return err
	}
	return api.sendSession(ctx, http.StatusOK, usr)
}

func (api *authApi) logout(ctx echo.Context) error {
	api.setSessionCookie(ctx, auth.LoggedOutValue, time.Now().Add(logoutExpiry))
	return ctx.JSON(http.StatusOK, echo.Map{"status": statusSuccess})
}

// register creates a student, teacher or elder account and opens its session.
func (api *authApi) register(ctx echo.Context) error {
	role := ctx.Param("role")
	if role == user.RoleAdmin {
		return errHttpNotFound
	}
	reg, err := user.NewRegistration(role)
	if err != nil {
		return errHttpNotFound
	}
	if err := ctx.Bind(reg); err != nil {
		return errors.Wrap(err, "binding to registration")
	}

	usr, err := api.userSvc.Register(ctx.Request().Context(), reg)
	if err != nil {
		return err
	}
	return api.sendSession(ctx, http.StatusCreated, usr)
}

func (api *authApi) check(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": statusSuccess, "user": usr})
}

func (api *authApi) profile(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": statusSuccess, "data": usr})
}
