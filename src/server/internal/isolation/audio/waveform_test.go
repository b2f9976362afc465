package audio_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stemremover/stem-remover-be/src/server/internal/isolation/audio"
	testlib "github.com/stemremover/stem-remover-be/src/server/internal/testing"
)

var _ = Describe("Waveform", func() {
	Describe("NumChannels and NumSamples", func() {
		It("reports the dimensions of the sample data", func() {
			w := testlib.StereoWaveform(42)

			Expect(w.NumChannels()).To(Equal(2))
			Expect(w.NumSamples()).To(Equal(42))
		})

		It("reports zero for an empty waveform", func() {
			w := audio.Waveform{}

			Expect(w.NumChannels()).To(Equal(0))
			Expect(w.NumSamples()).To(Equal(0))
		})
	})

	Describe("EnsureStereo", func() {
		It("duplicates mono into both channels", func() {
			mono := testlib.MonoWaveform(16)

			stereo, err := audio.EnsureStereo(mono)
			Expect(err).NotTo(HaveOccurred())

			Expect(stereo.NumChannels()).To(Equal(2))
			Expect(stereo[0]).To(Equal(mono[0]))
			Expect(stereo[1]).To(Equal(mono[0]))
		})

		It("passes stereo through unchanged", func() {
			original := testlib.StereoWaveform(16)

			stereo, err := audio.EnsureStereo(original)
			Expect(err).NotTo(HaveOccurred())
			Expect(stereo).To(Equal(original))
		})

		It("rejects anything beyond two channels", func() {
			surround := audio.Waveform{
				make([]float32, 16),
				make([]float32, 16),
				make([]float32, 16),
			}

			_, err := audio.EnsureStereo(surround)
			Expect(err).To(HaveOccurred())
		})
	})
})
