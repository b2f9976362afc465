package usererrors

import (
	"github.com/stemremover/stem-remover-be/src/server/internal/errors/api"
)

const (
	InvalidEmailCode   = api.ErrorCode("invalid_email")
	DuplicateEmailCode = api.ErrorCode("duplicate_email")
)
