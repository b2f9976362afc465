package audio

import (
	"context"
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/stemremover/stem-remover-be/src/server/internal/lib/executor"
	"github.com/stemremover/stem-remover-be/src/shared/lib/errors/mark"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

var TooManyChannelsMark = errors.New("Audio has more than two channels")

//counterfeiter:generate . Decoder
type Decoder interface {
	// Decode reads the whole file into memory, resampled to sampleRate,
	// indexed [channel][sample]. The source channel count is preserved.
	Decode(ctx context.Context, filePath string, sampleRate int) (Waveform, error)
}

var _ Decoder = FFmpegDecoder{}

func NewFFmpegDecoder(ffmpegBinPath string, ffprobeBinPath string, executor executor.Executor) FFmpegDecoder {
	return FFmpegDecoder{
		ffmpegBinPath:  ffmpegBinPath,
		ffprobeBinPath: ffprobeBinPath,
		executor:       executor,
	}
}

type FFmpegDecoder struct {
	ffmpegBinPath  string
	ffprobeBinPath string
	executor       executor.Executor
}

func (f FFmpegDecoder) Decode(ctx context.Context, filePath string, sampleRate int) (Waveform, error) {
	numChannels, err := f.probeChannels(ctx, filePath)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to probe the channel count")
	}

	if numChannels > 2 {
		return nil, mark.Message(TooManyChannelsMark, "Only mono and stereo sources are supported")
	}

	logger := log.WithFields(log.Fields{
		"filePath":    filePath,
		"numChannels": numChannels,
		"sampleRate":  sampleRate,
	})

	logger.Info("Decoding audio file")

	args := []string{
		"-v", "error",
		"-i", filePath,
		"-map", "0:a:0",
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ac", strconv.Itoa(numChannels),
		"-ar", strconv.Itoa(sampleRate),
		"pipe:1",
	}

	cmd := f.executor.Command(ctx, f.ffmpegBinPath, args...)
	rawPCM, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrap(err, "Error occurred while running ffmpeg")
	}

	waveform, err := parseF32LE(rawPCM, numChannels)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to parse decoded PCM stream")
	}

	logger.Info("Finished decoding audio file")

	return waveform, nil
}

func (f FFmpegDecoder) probeChannels(ctx context.Context, filePath string) (int, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=channels",
		"-of", "csv=p=0",
		filePath,
	}

	cmd := f.executor.Command(ctx, f.ffprobeBinPath, args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, errors.Wrap(err, "Error occurred while running ffprobe")
	}

	numChannels, err := strconv.Atoi(strings.TrimSpace(string(output)))
	if err != nil {
		return 0, errors.Wrapf(err, "Unexpected ffprobe output: %q", string(output))
	}

	if numChannels < 1 {
		return 0, errors.New("Audio file has no channels")
	}

	return numChannels, nil
}

func parseF32LE(rawPCM []byte, numChannels int) (Waveform, error) {
	const bytesPerSample = 4

	frameSize := bytesPerSample * numChannels
	if len(rawPCM)%frameSize != 0 {
		return nil, errors.Newf("PCM stream length %d is not frame aligned", len(rawPCM))
	}

	numSamples := len(rawPCM) / frameSize
	w := make(Waveform, numChannels)
	for ch := range w {
		w[ch] = make([]float32, numSamples)
	}

	for i := 0; i < numSamples; i++ {
		for ch := 0; ch < numChannels; ch++ {
			offset := (i*numChannels + ch) * bytesPerSample
			bits := binary.LittleEndian.Uint32(rawPCM[offset : offset+bytesPerSample])
			w[ch][i] = math.Float32frombits(bits)
		}
	}

	return w, nil
}
