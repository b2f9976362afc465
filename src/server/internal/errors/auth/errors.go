package auth

import (
	"github.com/stemremover/stem-remover-be/src/server/internal/errors/api"
)

const (
	NotAuthenticatedCode   = api.ErrorCode("not_authenticated")
	InvalidUserCode        = api.ErrorCode("invalid_user")
	InvalidCredentialsCode = api.ErrorCode("invalid_credentials")
)
