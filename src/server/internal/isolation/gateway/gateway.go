package isolationgateway

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stemremover/stem-remover-be/src/server/internal/errors/api"
	"github.com/stemremover/stem-remover-be/src/server/internal/errors/gateway"
	isolationerrors "github.com/stemremover/stem-remover-be/src/server/internal/isolation/errors"
	isolationusecase "github.com/stemremover/stem-remover-be/src/server/internal/isolation/usecase"
	"github.com/stemremover/stem-remover-be/src/server/internal/lib/request"
)

type Gateway struct {
	usecase    isolationusecase.Usecase
	scratchDir string
}

func NewGateway(usecase isolationusecase.Usecase, scratchDir string) Gateway {
	return Gateway{
		usecase:    usecase,
		scratchDir: scratchDir,
	}
}

func (g Gateway) Isolate(c echo.Context) error {
	ctx := request.Context(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		err = errors.Wrap(err, "Failed to read the file part of the upload")
		apiErr := api.CommitError(err,
			isolationerrors.MalformedUploadCode,
			"The upload is missing an audio file")
		return gateway.ErrorResponse(c, apiErr)
	}

	stem := c.FormValue("stem")

	scratchName := fmt.Sprintf("%s_%s", randomPrefix(), filepath.Base(fileHeader.Filename))
	scratchPath := filepath.Join(g.scratchDir, scratchName)

	if err := saveUpload(fileHeader, scratchPath); err != nil {
		err = errors.Wrap(err, "Failed to write the upload to scratch storage")
		apiErr := api.CommitError(err,
			api.DefaultErrorCode,
			"An error occurred during audio processing.")
		return gateway.ErrorResponse(c, apiErr)
	}

	result, apiErr := g.usecase.Isolate(ctx, scratchPath, stem)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to isolate the requested stem")
		return gateway.ErrorResponse(c, apiErr)
	}

	downloadName := fmt.Sprintf("%s (%s isolated).wav", baseName(scratchName), result.Stem)
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, downloadName, url.PathEscape(downloadName)))

	return c.Stream(http.StatusOK, "audio/wav", result.Buffer)
}

// an 8 hex char prefix keeps concurrent uploads of the same file from colliding
func randomPrefix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func saveUpload(fileHeader *multipart.FileHeader, scratchPath string) error {
	src, err := fileHeader.Open()
	if err != nil {
		return errors.Wrap(err, "Failed to open the uploaded file")
	}
	defer src.Close()

	dst, err := os.Create(scratchPath)
	if err != nil {
		return errors.Wrap(err, "Failed to create the scratch file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		// don't leave partial scratch files behind
		_ = os.Remove(scratchPath)
		return errors.Wrap(err, "Failed to copy the upload to the scratch file")
	}

	return nil
}

func baseName(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}
