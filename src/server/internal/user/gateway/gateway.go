package usergateway

import (
	_ "embed"
	"net/http"

	"github.com/apex/log"
	"github.com/labstack/echo/v4"
	"github.com/stemremover/stem-remover-be/src/server/internal/errors/api"
	"github.com/stemremover/stem-remover-be/src/server/internal/errors/auth"
	"github.com/stemremover/stem-remover-be/src/server/internal/errors/gateway"
	"github.com/stemremover/stem-remover-be/src/server/internal/lib/request"
	"github.com/stemremover/stem-remover-be/src/server/internal/session"
	"github.com/stemremover/stem-remover-be/src/server/internal/user/entity"
	usererrors "github.com/stemremover/stem-remover-be/src/server/internal/user/errors"
	userusecase "github.com/stemremover/stem-remover-be/src/server/internal/user/usecase"
)

// UserContextKey is where RequireUser stores the resolved user on the echo
// context for downstream handlers.
const UserContextKey = "current-user"

var (
	//go:embed pages/signup.html
	signupPage string
	//go:embed pages/login.html
	loginPage string
	//go:embed pages/home.html
	homePage string
)

var errorFragments = map[api.ErrorCode]string{
	usererrors.InvalidEmailCode:   `<h3>Invalid email. <a href='/signup'>Try again</a>.</h3>`,
	usererrors.DuplicateEmailCode: `<h3>Email already registered. <a href='/login'>Log in</a>.</h3>`,
	auth.InvalidCredentialsCode:   `<h3>Invalid credentials. <a href='/login'>Try again</a>.</h3>`,
}

type Gateway struct {
	usecase userusecase.Usecase
}

func NewGateway(usecase userusecase.Usecase) Gateway {
	return Gateway{
		usecase: usecase,
	}
}

// SignupPage serves the signup form, or bounces an authenticated visitor home.
func (g Gateway) SignupPage(c echo.Context) error {
	if g.isAuthenticated(c) {
		return c.Redirect(http.StatusFound, "/")
	}

	return c.HTML(http.StatusOK, signupPage)
}

func (g Gateway) Signup(c echo.Context) error {
	ctx := request.Context(c)

	email := c.FormValue("email")
	plainPassword := c.FormValue("password")
	fullName := c.FormValue("full_name")
	subscribe := c.FormValue("subscribe") == "yes"

	_, token, apiErr := g.usecase.Signup(ctx, email, plainPassword, fullName, subscribe)
	if apiErr != nil {
		return errorFragmentResponse(c, apiErr)
	}

	session.SetCookie(c, token)
	return c.Redirect(http.StatusFound, "/")
}

func (g Gateway) LoginPage(c echo.Context) error {
	if g.isAuthenticated(c) {
		return c.Redirect(http.StatusFound, "/")
	}

	return c.HTML(http.StatusOK, loginPage)
}

func (g Gateway) Login(c echo.Context) error {
	ctx := request.Context(c)

	email := c.FormValue("email")
	plainPassword := c.FormValue("password")
	// remember_me is accepted but inert - every session lasts the full year

	_, token, apiErr := g.usecase.Login(ctx, email, plainPassword)
	if apiErr != nil {
		return errorFragmentResponse(c, apiErr)
	}

	session.SetCookie(c, token)
	return c.Redirect(http.StatusFound, "/")
}

func (g Gateway) Logout(c echo.Context) error {
	session.ClearCookie(c)
	return c.Redirect(http.StatusFound, "/login")
}

// Home serves the main page for authenticated users and redirects everyone
// else to the login form.
func (g Gateway) Home(c echo.Context) error {
	if !g.isAuthenticated(c) {
		return c.Redirect(http.StatusFound, "/login")
	}

	return c.HTML(http.StatusOK, homePage)
}

// RequireUser guards API endpoints. Unauthenticated requests get a 401 JSON
// response before the handler runs.
func (g Gateway) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, apiErr := g.currentUser(c)
		if apiErr != nil {
			apiErr = api.WrapError(apiErr, "Request requires an authenticated user")
			return gateway.ErrorResponse(c, apiErr)
		}

		c.Set(UserContextKey, user)
		return next(c)
	}
}

func (g Gateway) currentUser(c echo.Context) (userentity.User, *api.Error) {
	token := session.ReadCookie(c)
	return g.usecase.ResolveSessionUser(request.Context(c), token)
}

func (g Gateway) isAuthenticated(c echo.Context) bool {
	_, apiErr := g.currentUser(c)
	return apiErr == nil
}

// browser-facing routes answer with small HTML fragments like the rest of
// the site, not the JSON error envelope
func errorFragmentResponse(c echo.Context, apiErr *api.Error) error {
	fragment, ok := errorFragments[apiErr.ErrorCode]
	if !ok {
		log.WithError(apiErr).
			WithField("code", string(apiErr.ErrorCode)).
			Error("Unhandled error on a browser route")

		return c.HTML(http.StatusInternalServerError,
			`<h3>Something went wrong. Please try again later.</h3>`)
	}

	return c.HTML(http.StatusBadRequest, fragment)
}
