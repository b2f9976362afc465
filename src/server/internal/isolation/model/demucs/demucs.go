package demucs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/stemremover/stem-remover-be/src/server/internal/isolation/audio"
	"github.com/stemremover/stem-remover-be/src/server/internal/isolation/model"
	"github.com/stemremover/stem-remover-be/src/server/internal/lib/executor"
)

const (
	modelName  = "htdemucs"
	sampleRate = 44100
)

// source order of the htdemucs checkpoint
var sources = []string{"drums", "bass", "other", "vocals"}

var _ model.Model = Model{}

func New(binPath string, workingDirStr string, executor executor.Executor) (Model, error) {
	workingDir, err := filepath.Abs(workingDirStr)
	if err != nil {
		return Model{}, errors.Wrap(err, "Failed to convert working dir to absolute format")
	}

	return Model{
		binPath:    binPath,
		workingDir: workingDir,
		executor:   executor,
	}, nil
}

// Model drives a demucs installation through its CLI. Each separation writes
// the mix out as WAV, runs the binary and reads the produced stems back in.
type Model struct {
	binPath    string
	workingDir string
	executor   executor.Executor
}

func (m Model) Sources() []string {
	return sources
}

func (m Model) SampleRate() int {
	return sampleRate
}

func (m Model) Separate(ctx context.Context, mix audio.Waveform) ([]audio.Waveform, error) {
	scratchDir, err := os.MkdirTemp(m.workingDir, "separate-")
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create separation scratch dir")
	}
	defer os.RemoveAll(scratchDir)

	mixPath := filepath.Join(scratchDir, "mix.wav")
	if err := audio.WriteWAVFile(mixPath, mix, sampleRate); err != nil {
		return nil, errors.Wrap(err, "Failed to write the mix to disk")
	}

	outputDir := filepath.Join(scratchDir, "out")
	if err := m.runDemucs(ctx, mixPath, outputDir); err != nil {
		return nil, errors.Wrap(err, "Failed to execute demucs")
	}

	stemPaths, err := collectStemFilePaths(outputDir)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to collect produced stem files")
	}

	separated := make([]audio.Waveform, 0, len(sources))
	for _, source := range sources {
		stemPath, ok := stemPaths[source]
		if !ok {
			return nil, errors.Newf("Demucs did not produce the %s stem", source)
		}

		stemWaveform, _, err := audio.DecodeWAVFile(stemPath)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to decode the %s stem", source)
		}

		separated = append(separated, stemWaveform)
	}

	return separated, nil
}

func (m Model) runDemucs(ctx context.Context, mixPath string, outputDir string) error {
	logger := log.WithFields(log.Fields{
		"mixPath":    mixPath,
		"outputDir":  outputDir,
		"workingDir": m.workingDir,
	})

	logger.Info("Running demucs command")

	args := []string{"-n", modelName, "-o", outputDir, "-d", "cpu", "--filename", "{stem}.{ext}", mixPath}

	cmd := m.executor.Command(ctx, m.binPath, args...)
	cmd.SetDir(m.workingDir)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("Error occurred while running demucs: %s", string(output)))
	}

	logger.Debug(string(output))
	logger.Info("Finished demucs command")

	return nil
}

// demucs nests its outputs under <out>/<model>/<track>/, so walk the tree
// instead of reading a single directory
func collectStemFilePaths(dir string) (map[string]string, error) {
	outputs := map[string]string{}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		fileName := d.Name()
		stemName := strings.TrimSuffix(fileName, filepath.Ext(fileName))
		outputs[stemName] = path
		return nil
	})

	if err != nil {
		return nil, errors.Wrap(err, "Error reading output directory")
	}

	if len(outputs) == 0 {
		return nil, errors.New("No files in output directory")
	}

	return outputs, nil
}
