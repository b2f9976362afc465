package isolationusecase

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/stemremover/stem-remover-be/src/server/internal/errors/api"
	"github.com/stemremover/stem-remover-be/src/server/internal/isolation/audio"
	isolationerrors "github.com/stemremover/stem-remover-be/src/server/internal/isolation/errors"
	"github.com/stemremover/stem-remover-be/src/server/internal/isolation/model"
)

var allowedExtensions = []string{".mp3", ".wav", ".aiff", ".flac", ".m4a"}

// IsolatedStem is the in-memory WAV render of one separated source.
// Ownership passes to the caller - nothing is persisted.
type IsolatedStem struct {
	Buffer *bytes.Buffer
	Stem   string
}

type Usecase struct {
	model            model.Model
	decoder          audio.Decoder
	inferenceTimeout time.Duration
}

func NewUsecase(model model.Model, decoder audio.Decoder, inferenceTimeout time.Duration) Usecase {
	return Usecase{
		model:            model,
		decoder:          decoder,
		inferenceTimeout: inferenceTimeout,
	}
}

// Isolate runs the whole upload-validate-infer sequence for one scratch file.
// The scratch file is deleted on every exit path, success or failure.
func (u Usecase) Isolate(ctx context.Context, filePath string, stem string) (IsolatedStem, *api.Error) {
	defer cleanupScratchFile(filePath)

	ext := strings.ToLower(filepath.Ext(filePath))
	if !isAllowedExtension(ext) {
		err := errors.Newf("File extension %s is not in the allow list", ext)
		return IsolatedStem{}, api.CommitError(err,
			isolationerrors.UnsupportedFormatCode,
			fmt.Sprintf("Unsupported file type: %s", ext))
	}

	stemIndex := indexOfStem(u.model.Sources(), stem)
	if stemIndex < 0 {
		err := errors.Newf("Stem %s is not produced by the loaded model", stem)
		return IsolatedStem{}, api.CommitError(err,
			isolationerrors.InvalidStemCode,
			fmt.Sprintf("Invalid stem: %s. Choose from: %v", stem, u.model.Sources()))
	}

	mix, err := u.decoder.Decode(ctx, filePath, u.model.SampleRate())
	if err != nil {
		err = errors.Wrap(err, "Failed to decode the audio file")
		switch {
		case markers.Is(err, audio.TooManyChannelsMark):
			return IsolatedStem{}, api.CommitError(err,
				isolationerrors.UnsupportedFormatCode,
				"Only mono and stereo audio is supported")
		default:
			return IsolatedStem{}, api.CommitError(err,
				api.DefaultErrorCode,
				"An error occurred during audio processing.")
		}
	}

	mix, err = audio.EnsureStereo(mix)
	if err != nil {
		err = errors.Wrap(err, "Failed to normalize the channel count")
		return IsolatedStem{}, api.CommitError(err,
			api.DefaultErrorCode,
			"An error occurred during audio processing.")
	}

	separated, err := u.separateWithinBudget(ctx, mix)
	if err != nil {
		err = errors.Wrap(err, "Failed to run separation inference")
		return IsolatedStem{}, api.CommitError(err,
			api.DefaultErrorCode,
			"An error occurred during audio processing.")
	}

	if stemIndex >= len(separated) {
		err := errors.Newf("Model produced %d sources, expected %d", len(separated), len(u.model.Sources()))
		return IsolatedStem{}, api.CommitError(err,
			api.DefaultErrorCode,
			"An error occurred during audio processing.")
	}

	selected := separated[stemIndex]
	if selected.NumChannels() == 0 || selected.NumSamples() == 0 {
		err := errors.Newf("Model returned an empty %s stem", stem)
		return IsolatedStem{}, api.CommitError(err,
			api.DefaultErrorCode,
			"An error occurred during audio processing.")
	}

	buffer, err := audio.EncodeWAV(selected, u.model.SampleRate())
	if err != nil {
		err = errors.Wrap(err, "Failed to encode the isolated stem")
		return IsolatedStem{}, api.CommitError(err,
			api.DefaultErrorCode,
			"An error occurred during audio processing.")
	}

	return IsolatedStem{
		Buffer: buffer,
		Stem:   stem,
	}, nil
}

// the whole file goes through inference in one call, so a hung engine would
// otherwise pin this request forever
func (u Usecase) separateWithinBudget(ctx context.Context, mix audio.Waveform) ([]audio.Waveform, error) {
	if u.inferenceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.inferenceTimeout)
		defer cancel()
	}

	return u.model.Separate(ctx, mix)
}

func isAllowedExtension(ext string) bool {
	for _, allowed := range allowedExtensions {
		if ext == allowed {
			return true
		}
	}

	return false
}

func indexOfStem(sources []string, stem string) int {
	for i, source := range sources {
		if source == stem {
			return i
		}
	}

	return -1
}

func cleanupScratchFile(filePath string) {
	err := os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		log.WithError(err).
			WithField("filePath", filePath).
			Error("Failed to delete the scratch file")
		return
	}

	log.WithField("filePath", filePath).Info("Deleted scratch file")
}
