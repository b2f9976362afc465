package audio_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stemremover/stem-remover-be/src/server/internal/isolation/audio"
	testlib "github.com/stemremover/stem-remover-be/src/server/internal/testing"
)

var _ = Describe("WAV", func() {
	Describe("EncodeWAV", func() {
		It("produces a RIFF/WAVE stream", func() {
			buf, err := audio.EncodeWAV(testlib.StereoWaveform(64), 44100)
			Expect(err).NotTo(HaveOccurred())

			data := buf.Bytes()
			Expect(len(data)).To(BeNumerically(">", 44))
			Expect(string(data[0:4])).To(Equal("RIFF"))
			Expect(string(data[8:12])).To(Equal("WAVE"))
		})

		It("rejects an empty waveform", func() {
			_, err := audio.EncodeWAV(audio.Waveform{}, 44100)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("round trip through a file", func() {
		It("preserves the samples within 16 bit precision", func() {
			dir, err := os.MkdirTemp("", "wav-test-")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(os.RemoveAll, dir)

			original := testlib.StereoWaveform(200)
			path := filepath.Join(dir, "roundtrip.wav")

			err = audio.WriteWAVFile(path, original, 44100)
			Expect(err).NotTo(HaveOccurred())

			decoded, sampleRate, err := audio.DecodeWAVFile(path)
			Expect(err).NotTo(HaveOccurred())

			Expect(sampleRate).To(Equal(44100))
			Expect(decoded.NumChannels()).To(Equal(2))
			Expect(decoded.NumSamples()).To(Equal(200))

			for ch := 0; ch < 2; ch++ {
				for i := 0; i < 200; i++ {
					Expect(decoded[ch][i]).To(BeNumerically("~", original[ch][i], 0.001))
				}
			}
		})
	})

	Describe("DecodeWAVFile", func() {
		It("rejects a file that is not a WAV stream", func() {
			dir, err := os.MkdirTemp("", "wav-test-")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(os.RemoveAll, dir)

			path := filepath.Join(dir, "not-audio.wav")
			err = os.WriteFile(path, []byte("definitely not audio"), 0644)
			Expect(err).NotTo(HaveOccurred())

			_, _, err = audio.DecodeWAVFile(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
