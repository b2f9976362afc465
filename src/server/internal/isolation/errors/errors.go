package isolationerrors

import (
	"github.com/stemremover/stem-remover-be/src/server/internal/errors/api"
)

const (
	UnsupportedFormatCode = api.ErrorCode("unsupported_format")
	InvalidStemCode       = api.ErrorCode("invalid_stem")
	MalformedUploadCode   = api.ErrorCode("malformed_upload")
)
