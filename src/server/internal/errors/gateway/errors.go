package gateway

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stemremover/stem-remover-be/src/server/api_error"
	"github.com/stemremover/stem-remover-be/src/server/internal/errors/api"
	"github.com/stemremover/stem-remover-be/src/server/internal/errors/auth"
	isolationerrors "github.com/stemremover/stem-remover-be/src/server/internal/isolation/errors"
	usererrors "github.com/stemremover/stem-remover-be/src/server/internal/user/errors"
)

var httpStatusCodeMap = map[api.ErrorCode]int{
	api.DefaultErrorCode:                  http.StatusInternalServerError,
	auth.NotAuthenticatedCode:             http.StatusUnauthorized,
	auth.InvalidUserCode:                  http.StatusUnauthorized,
	auth.InvalidCredentialsCode:           http.StatusBadRequest,
	usererrors.InvalidEmailCode:           http.StatusBadRequest,
	usererrors.DuplicateEmailCode:         http.StatusBadRequest,
	isolationerrors.UnsupportedFormatCode: http.StatusBadRequest,
	isolationerrors.InvalidStemCode:       http.StatusBadRequest,
	isolationerrors.MalformedUploadCode:   http.StatusBadRequest,
}

func ErrorResponse(c echo.Context, err *api.Error) error {
	statusCode, ok := httpStatusCodeMap[err.ErrorCode]
	if !ok {
		msg := fmt.Sprintf("Error code %s has no HTTP status code mapping", err.ErrorCode)
		panic(msg)
	}

	return c.JSON(statusCode, api_error.JSONAPIError{
		Status:  string(err.ErrorCode),
		Message: err.UserMessage,
		Details: err.Error(),
	})
}
