package userstorage

import "github.com/cockroachdb/errors"

var (
	UserNotFoundMark   = errors.New("User is not found")
	DuplicateEmailMark = errors.New("Email is already registered")
	DefaultErrorMark   = errors.New("User storage failed")
)
