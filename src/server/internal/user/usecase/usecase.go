package userusecase

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/stemremover/stem-remover-be/src/server/internal/errors/api"
	"github.com/stemremover/stem-remover-be/src/server/internal/errors/auth"
	"github.com/stemremover/stem-remover-be/src/server/internal/session"
	"github.com/stemremover/stem-remover-be/src/server/internal/subscription"
	"github.com/stemremover/stem-remover-be/src/server/internal/user/entity"
	usererrors "github.com/stemremover/stem-remover-be/src/server/internal/user/errors"
	"github.com/stemremover/stem-remover-be/src/server/internal/user/password"
	"github.com/stemremover/stem-remover-be/src/server/internal/user/storage"
)

type Usecase struct {
	db            userstorage.DB
	sessions      session.Layer
	subscriptions subscription.Publisher
}

func NewUsecase(db userstorage.DB, sessions session.Layer, subscriptions subscription.Publisher) Usecase {
	return Usecase{
		db:            db,
		sessions:      sessions,
		subscriptions: subscriptions,
	}
}

// Signup registers a new account and returns the user with a freshly issued
// session token. Duplicate detection is owned by the store's uniqueness
// constraint, so a racing second writer still gets the duplicate error here.
func (u Usecase) Signup(ctx context.Context, email string, plainPassword string, fullName string, subscribe bool) (userentity.User, string, *api.Error) {
	normalizedEmail, apiErr := validateEmail(email)
	if apiErr != nil {
		return userentity.User{}, "", api.WrapError(apiErr, "Failed to validate the signup email")
	}

	hashedPassword, err := password.Hash(plainPassword)
	if err != nil {
		err = errors.Wrap(err, "Failed to hash the signup password")
		return userentity.User{}, "", api.CommitError(err,
			api.DefaultErrorCode,
			"Something went wrong while creating your account")
	}

	newUser, err := u.db.CreateUser(ctx, normalizedEmail, hashedPassword, strings.TrimSpace(fullName))
	if err != nil {
		err = errors.Wrap(err, "Failed to create the user")
		switch {
		case markers.Is(err, userstorage.DuplicateEmailMark):
			return userentity.User{}, "", api.CommitError(err,
				usererrors.DuplicateEmailCode,
				"Email already registered")

		case markers.Is(err, userstorage.DefaultErrorMark):
			fallthrough
		default:
			return userentity.User{}, "", api.CommitError(err,
				api.DefaultErrorCode,
				"Something went wrong while creating your account")
		}
	}

	if subscribe {
		// long term async work for the mailing list consumer, don't block signup on it
		go func() {
			err := u.subscriptions.Publish(subscription.Event{
				Email:       newUser.Email,
				FullName:    newUser.FullName,
				RequestedAt: time.Now().UTC(),
			})
			if err != nil {
				log.WithError(err).
					WithField("email", newUser.Email).
					Error("Failed to publish the mailing list subscription")
			}
		}()
	}

	token, apiErr := u.issueSession(newUser)
	if apiErr != nil {
		return userentity.User{}, "", api.WrapError(apiErr, "Failed to issue a session for the new user")
	}

	return newUser, token, nil
}

// Login deliberately collapses unknown email and wrong password into the
// same generic error so accounts can't be enumerated.
func (u Usecase) Login(ctx context.Context, email string, plainPassword string) (userentity.User, string, *api.Error) {
	normalizedEmail := normalizeEmail(email)

	user, err := u.db.GetUserByEmail(ctx, normalizedEmail)
	if err != nil {
		err = errors.Wrap(err, "Failed to look up the user by email")
		switch {
		case markers.Is(err, userstorage.UserNotFoundMark):
			return userentity.User{}, "", api.CommitError(err,
				auth.InvalidCredentialsCode,
				"Invalid credentials")

		case markers.Is(err, userstorage.DefaultErrorMark):
			fallthrough
		default:
			return userentity.User{}, "", api.CommitError(err,
				api.DefaultErrorCode,
				"Something went wrong while logging in")
		}
	}

	if !password.Verify(plainPassword, user.HashedPassword) {
		err := errors.New("Password verification failed")
		return userentity.User{}, "", api.CommitError(err,
			auth.InvalidCredentialsCode,
			"Invalid credentials")
	}

	token, apiErr := u.issueSession(user)
	if apiErr != nil {
		return userentity.User{}, "", api.WrapError(apiErr, "Failed to issue a session for the user")
	}

	return user, token, nil
}

// ResolveSessionUser maps a session token back to an active user.
func (u Usecase) ResolveSessionUser(ctx context.Context, token string) (userentity.User, *api.Error) {
	userID, err := u.sessions.Resolve(token)
	if err != nil {
		err = errors.Wrap(err, "Failed to resolve the session token")
		return userentity.User{}, api.CommitError(err,
			auth.NotAuthenticatedCode,
			"Not authenticated")
	}

	user, err := u.db.GetActiveUserByID(ctx, userID)
	if err != nil {
		err = errors.Wrap(err, "Failed to fetch the session's user")
		switch {
		case markers.Is(err, userstorage.UserNotFoundMark):
			return userentity.User{}, api.CommitError(err,
				auth.InvalidUserCode,
				"Invalid user")

		case markers.Is(err, userstorage.DefaultErrorMark):
			fallthrough
		default:
			return userentity.User{}, api.CommitError(err,
				api.DefaultErrorCode,
				"Something went wrong while resolving your session")
		}
	}

	return user, nil
}

func (u Usecase) issueSession(user userentity.User) (string, *api.Error) {
	token, err := u.sessions.Issue(user.ID)
	if err != nil {
		err = errors.Wrap(err, "Failed to sign the session token")
		return "", api.CommitError(err,
			api.DefaultErrorCode,
			"Something went wrong while starting your session")
	}

	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) (string, *api.Error) {
	normalized := normalizeEmail(email)

	invalidEmail := func(err error) *api.Error {
		return api.CommitError(err, usererrors.InvalidEmailCode, "Invalid email")
	}

	parsed, err := mail.ParseAddress(normalized)
	if err != nil {
		return "", invalidEmail(errors.Wrap(err, "Email failed to parse"))
	}

	// reject display name forms like "Jane <jane@example.com>"
	if parsed.Address != normalized {
		return "", invalidEmail(errors.New("Email contains more than a bare address"))
	}

	// addresses without a dotted domain parse fine but aren't deliverable
	domain := normalized[strings.LastIndex(normalized, "@")+1:]
	if !strings.Contains(domain, ".") {
		return "", invalidEmail(errors.New("Email domain is not fully qualified"))
	}

	return normalized, nil
}
