package testing

import (
	"context"
	"sync"

	"github.com/stemremover/stem-remover-be/src/server/internal/isolation/audio"
	"github.com/stemremover/stem-remover-be/src/server/internal/isolation/model"
	"github.com/stemremover/stem-remover-be/src/server/internal/subscription"
)

const FakeSampleRate = 44100

var FakeSources = []string{"drums", "bass", "other", "vocals"}

var _ model.Model = &FakeModel{}

// FakeModel records what it was invoked with and hands back deterministic
// waveforms so tests can assert stem selection by content.
type FakeModel struct {
	SeparateErr error
	LastMix     audio.Waveform
	CallCount   int
}

func (f *FakeModel) Sources() []string {
	return FakeSources
}

func (f *FakeModel) SampleRate() int {
	return FakeSampleRate
}

func (f *FakeModel) Separate(ctx context.Context, mix audio.Waveform) ([]audio.Waveform, error) {
	f.CallCount++
	f.LastMix = mix

	if f.SeparateErr != nil {
		return nil, f.SeparateErr
	}

	separated := make([]audio.Waveform, len(FakeSources))
	for i := range FakeSources {
		separated[i] = StemWaveform(i, mix.NumChannels(), mix.NumSamples())
	}

	return separated, nil
}

// StemWaveform builds the waveform FakeModel returns for one source index:
// every sample is a small constant derived from that index.
func StemWaveform(sourceIndex int, numChannels int, numSamples int) audio.Waveform {
	w := make(audio.Waveform, numChannels)
	for ch := range w {
		w[ch] = make([]float32, numSamples)
		for i := range w[ch] {
			w[ch][i] = float32(sourceIndex+1) / 100
		}
	}

	return w
}

var _ audio.Decoder = &FakeDecoder{}

type FakeDecoder struct {
	Waveform  audio.Waveform
	DecodeErr error
	LastPath  string
	LastRate  int
	CallCount int
}

func (f *FakeDecoder) Decode(ctx context.Context, filePath string, sampleRate int) (audio.Waveform, error) {
	f.CallCount++
	f.LastPath = filePath
	f.LastRate = sampleRate

	if f.DecodeErr != nil {
		return nil, f.DecodeErr
	}

	return f.Waveform, nil
}

// MonoWaveform returns a single channel ramp of the given length.
func MonoWaveform(numSamples int) audio.Waveform {
	samples := make([]float32, numSamples)
	for i := range samples {
		samples[i] = float32(i%100) / 100
	}

	return audio.Waveform{samples}
}

func StereoWaveform(numSamples int) audio.Waveform {
	mono := MonoWaveform(numSamples)
	right := make([]float32, numSamples)
	for i := range right {
		right[i] = -mono[0][i]
	}

	return audio.Waveform{mono[0], right}
}

var _ subscription.Publisher = &FakePublisher{}

type FakePublisher struct {
	mutex      sync.Mutex
	events     []subscription.Event
	PublishErr error
}

func (f *FakePublisher) Publish(event subscription.Event) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.PublishErr != nil {
		return f.PublishErr
	}

	f.events = append(f.events, event)
	return nil
}

func (f *FakePublisher) Events() []subscription.Event {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return append([]subscription.Event{}, f.events...)
}
