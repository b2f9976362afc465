package demucs_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stemremover/stem-remover-be/src/server/internal/isolation/audio"
	"github.com/stemremover/stem-remover-be/src/server/internal/isolation/model/demucs"
	testlib "github.com/stemremover/stem-remover-be/src/server/internal/testing"
)

var _ = Describe("Model", func() {
	var (
		workingDir   string
		fakeExecutor *testlib.FakeExecutor
		subject      demucs.Model
	)

	// finds the value following a flag in a CLI arg list
	argAfter := func(args []string, flag string) string {
		for i, arg := range args {
			if arg == flag && i+1 < len(args) {
				return args[i+1]
			}
		}

		return ""
	}

	writeStems := func(outputDir string, mix audio.Waveform, stems []string) {
		stemDir := filepath.Join(outputDir, "htdemucs", "mix")
		err := os.MkdirAll(stemDir, 0755)
		Expect(err).NotTo(HaveOccurred())

		for i, stem := range stems {
			stemWaveform := testlib.StemWaveform(i, mix.NumChannels(), mix.NumSamples())
			err := audio.WriteWAVFile(filepath.Join(stemDir, stem+".wav"), stemWaveform, 44100)
			Expect(err).NotTo(HaveOccurred())
		}
	}

	BeforeEach(func() {
		var err error
		workingDir, err = os.MkdirTemp("", "demucs-test-")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, workingDir)

		fakeExecutor = &testlib.FakeExecutor{
			Respond: func(name string, arg ...string) ([]byte, error) {
				outputDir := argAfter(arg, "-o")
				mixPath := arg[len(arg)-1]

				mix, _, err := audio.DecodeWAVFile(mixPath)
				Expect(err).NotTo(HaveOccurred())

				writeStems(outputDir, mix, subject.Sources())
				return []byte("separated tracks"), nil
			},
		}

		subject, err = demucs.New("/usr/local/bin/demucs", workingDir, fakeExecutor)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Sources", func() {
		It("lists the four htdemucs sources in checkpoint order", func() {
			Expect(subject.Sources()).To(Equal([]string{"drums", "bass", "other", "vocals"}))
		})
	})

	Describe("SampleRate", func() {
		It("matches the htdemucs training rate", func() {
			Expect(subject.SampleRate()).To(Equal(44100))
		})
	})

	Describe("Separate", func() {
		It("returns one waveform per source in source order", func() {
			mix := testlib.StereoWaveform(128)

			separated, err := subject.Separate(context.Background(), mix)
			Expect(err).NotTo(HaveOccurred())
			Expect(separated).To(HaveLen(4))

			for i, stemWaveform := range separated {
				Expect(stemWaveform.NumChannels()).To(Equal(2))
				Expect(stemWaveform.NumSamples()).To(Equal(128))

				expected := float32(i+1) / 100
				Expect(stemWaveform[0][0]).To(BeNumerically("~", expected, 0.001))
			}
		})

		It("invokes the binary with the expected CLI shape", func() {
			_, err := subject.Separate(context.Background(), testlib.StereoWaveform(32))
			Expect(err).NotTo(HaveOccurred())

			calls := fakeExecutor.Calls()
			Expect(calls).To(HaveLen(1))

			call := calls[0]
			Expect(call.Name).To(Equal("/usr/local/bin/demucs"))
			Expect(call.Dir).To(Equal(workingDir))
			Expect(argAfter(call.Args, "-n")).To(Equal("htdemucs"))
			Expect(argAfter(call.Args, "-d")).To(Equal("cpu"))
			Expect(argAfter(call.Args, "--filename")).To(Equal("{stem}.{ext}"))
			Expect(call.Args[len(call.Args)-1]).To(HaveSuffix("mix.wav"))
		})

		It("cleans up its scratch directory", func() {
			_, err := subject.Separate(context.Background(), testlib.StereoWaveform(32))
			Expect(err).NotTo(HaveOccurred())

			entries, err := os.ReadDir(workingDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("surfaces the command output when the binary fails", func() {
			fakeExecutor.Respond = func(name string, arg ...string) ([]byte, error) {
				return []byte("CUDA out of memory"), errors.New("exit status 1")
			}

			_, err := subject.Separate(context.Background(), testlib.StereoWaveform(32))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("CUDA out of memory"))
		})

		It("errors when a source is missing from the output", func() {
			fakeExecutor.Respond = func(name string, arg ...string) ([]byte, error) {
				outputDir := argAfter(arg, "-o")
				mixPath := arg[len(arg)-1]

				mix, _, err := audio.DecodeWAVFile(mixPath)
				Expect(err).NotTo(HaveOccurred())

				writeStems(outputDir, mix, []string{"drums", "bass", "other"})
				return []byte("separated tracks"), nil
			}

			_, err := subject.Separate(context.Background(), testlib.StereoWaveform(32))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("vocals"))
		})

		It("errors when the binary produces nothing", func() {
			fakeExecutor.Respond = func(name string, arg ...string) ([]byte, error) {
				return []byte(""), nil
			}

			_, err := subject.Separate(context.Background(), testlib.StereoWaveform(32))
			Expect(err).To(HaveOccurred())
		})
	})
})
