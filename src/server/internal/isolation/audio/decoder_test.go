package audio_test

import (
	"context"
	"encoding/binary"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stemremover/stem-remover-be/src/server/internal/isolation/audio"
	testlib "github.com/stemremover/stem-remover-be/src/server/internal/testing"
)

const (
	ffmpegBin  = "/usr/bin/ffmpeg"
	ffprobeBin = "/usr/bin/ffprobe"
)

// packF32LE interleaves a waveform into the little endian float stream
// ffmpeg emits for pcm_f32le.
func packF32LE(w audio.Waveform) []byte {
	data := make([]byte, 0, w.NumChannels()*w.NumSamples()*4)
	for i := 0; i < w.NumSamples(); i++ {
		for ch := 0; ch < w.NumChannels(); ch++ {
			data = binary.LittleEndian.AppendUint32(data, math.Float32bits(w[ch][i]))
		}
	}

	return data
}

var _ = Describe("FFmpegDecoder", func() {
	var (
		fakeExecutor *testlib.FakeExecutor
		decoder      audio.FFmpegDecoder
	)

	respondWith := func(channels string, pcm []byte) func(name string, arg ...string) ([]byte, error) {
		return func(name string, arg ...string) ([]byte, error) {
			switch name {
			case ffprobeBin:
				return []byte(channels + "\n"), nil
			case ffmpegBin:
				return pcm, nil
			default:
				return nil, errors.Newf("Unexpected binary %s", name)
			}
		}
	}

	BeforeEach(func() {
		fakeExecutor = &testlib.FakeExecutor{}
		decoder = audio.NewFFmpegDecoder(ffmpegBin, ffprobeBin, fakeExecutor)
	})

	argAfter := func(args []string, flag string) string {
		for i, arg := range args {
			if arg == flag && i+1 < len(args) {
				return args[i+1]
			}
		}

		return ""
	}

	It("decodes a stereo stream into two channels", func() {
		original := testlib.StereoWaveform(50)
		fakeExecutor.Respond = respondWith("2", packF32LE(original))

		decoded, err := decoder.Decode(context.Background(), "/tmp/song.mp3", 44100)
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded).To(Equal(original))
	})

	It("preserves a mono source as one channel", func() {
		original := testlib.MonoWaveform(50)
		fakeExecutor.Respond = respondWith("1", packF32LE(original))

		decoded, err := decoder.Decode(context.Background(), "/tmp/song.mp3", 44100)
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded).To(Equal(original))
	})

	It("asks ffmpeg for raw floats at the requested rate", func() {
		fakeExecutor.Respond = respondWith("2", packF32LE(testlib.StereoWaveform(8)))

		_, err := decoder.Decode(context.Background(), "/tmp/song.mp3", 22050)
		Expect(err).NotTo(HaveOccurred())

		calls := fakeExecutor.Calls()
		Expect(calls).To(HaveLen(2))
		Expect(calls[0].Name).To(Equal(ffprobeBin))
		Expect(calls[1].Name).To(Equal(ffmpegBin))

		ffmpegArgs := calls[1].Args
		Expect(argAfter(ffmpegArgs, "-f")).To(Equal("f32le"))
		Expect(argAfter(ffmpegArgs, "-ac")).To(Equal("2"))
		Expect(argAfter(ffmpegArgs, "-ar")).To(Equal("22050"))
		Expect(argAfter(ffmpegArgs, "-i")).To(Equal("/tmp/song.mp3"))
		Expect(ffmpegArgs[len(ffmpegArgs)-1]).To(Equal("pipe:1"))
	})

	It("rejects audio with more than two channels before decoding", func() {
		fakeExecutor.Respond = respondWith("6", nil)

		_, err := decoder.Decode(context.Background(), "/tmp/surround.flac", 44100)
		Expect(err).To(HaveOccurred())
		Expect(markers.Is(err, audio.TooManyChannelsMark)).To(BeTrue())

		for _, call := range fakeExecutor.Calls() {
			Expect(call.Name).NotTo(Equal(ffmpegBin))
		}
	})

	It("errors on unparseable ffprobe output", func() {
		fakeExecutor.Respond = respondWith("gibberish", nil)

		_, err := decoder.Decode(context.Background(), "/tmp/song.mp3", 44100)
		Expect(err).To(HaveOccurred())
	})

	It("errors when ffprobe fails", func() {
		fakeExecutor.Respond = func(name string, arg ...string) ([]byte, error) {
			if strings.Contains(name, "ffprobe") {
				return nil, errors.New("exit status 1")
			}

			return nil, nil
		}

		_, err := decoder.Decode(context.Background(), "/tmp/missing.mp3", 44100)
		Expect(err).To(HaveOccurred())
	})

	It("errors on a frame misaligned PCM stream", func() {
		original := packF32LE(testlib.StereoWaveform(8))
		fakeExecutor.Respond = respondWith("2", original[:len(original)-3])

		_, err := decoder.Decode(context.Background(), "/tmp/song.mp3", 44100)
		Expect(err).To(HaveOccurred())
	})
})
