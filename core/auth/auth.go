package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

const (
	// CookieName is the name of the cookie carrying the session token.
	CookieName = "jwt"
	// LoggedOutValue replaces the token when a session is closed.
	LoggedOutValue = "loggedout"

	bearerPrefix = "bearer "
)

var (
	ErrInvalidCredentials = core.NewAuthError("invalid_credentials", "Incorrect email or password")
	ErrUnauthenticated    = core.NewAuthError("unauthenticated", "You are not logged in! Please log in to get access.")
	ErrAccountDisabled    = core.NewAuthError("account_disabled", "Your account has been disabled. Please contact the administration.")

	signingMethod = jwt.SigningMethodHS256
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Session is a signed token and its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// UserFinder is the part of the identity store needed to resolve actors.
type UserFinder interface {
	GetUser(ctx context.Context, filter user.GetFilter) (user.User, error)
}

type Service struct {
	conf  *core.Config
	users UserFinder
	now   func() time.Time // mockable
}

func NewService(conf *core.Config, users UserFinder) *Service {
	return &Service{conf: conf, users: users, now: time.Now}
}

// Authenticate checks email and password. Unknown emails and wrong passwords fail the same way.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (user.User, error) {
	usr, err := svc.users.GetUser(ctx, user.GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, ErrInvalidCredentials
		}
		return user.User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return user.User{}, ErrAccountDisabled
	}
	return usr, nil
}

// IssueSession signs a token for usr valid for the configured JWT lifetime.
func (svc *Service) IssueSession(usr user.User) (Session, error) {
	now := svc.now()
	exp := now.Add(svc.conf.JWTExpirationDelta)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    svc.conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: usr.Email,
		Role:  usr.Role,
	}

	ss, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(svc.conf.SecretKey))
	if err != nil {
		return Session{}, errors.Wrap(err, "signing token")
	}
	return Session{Token: ss, ExpiresAt: exp}, nil
}

// ParseToken verifies the token signature and expiry.
func (svc *Service) ParseToken(token string) (*Claims, error) {
	if token == "" || token == LoggedOutValue {
		return nil, ErrUnauthenticated
	}
	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(
		token, claims,
		func(*jwt.Token) (interface{}, error) { return []byte(svc.conf.SecretKey), nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(svc.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

// ResolveActor returns the User the token was issued to.
// Disabled users fail with ErrAccountDisabled, every other failure with ErrUnauthenticated.
func (svc *Service) ResolveActor(ctx context.Context, token string) (user.User, error) {
	claims, err := svc.ParseToken(token)
	if err != nil {
		return user.User{}, err
	}
	usr, err := svc.users.GetUser(ctx, user.GetFilter{ID: claims.Subject})
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, ErrUnauthenticated
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return user.User{}, ErrAccountDisabled
	}
	return usr, nil
}

// ExtractToken picks the session token from an Authorization header value or the session cookie value.
// The bearer header wins when both are present.
func ExtractToken(authHeader, cookie string) string {
	if len(authHeader) > len(bearerPrefix) && strings.ToLower(authHeader[:len(bearerPrefix)]) == bearerPrefix {
		if token := strings.TrimSpace(authHeader[len(bearerPrefix):]); token != "" {
			return token
		}
	}
	if cookie == LoggedOutValue {
		return ""
	}
	return cookie
}
