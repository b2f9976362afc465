package model

import (
	"context"
	"sync"

	"github.com/stemremover/stem-remover-be/src/server/internal/isolation/audio"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// Model is a loaded source separation model. Implementations decompose a
// mixed waveform into one waveform per source, index-aligned with Sources().
//
//counterfeiter:generate . Model
type Model interface {
	Sources() []string
	SampleRate() int
	Separate(ctx context.Context, mix audio.Waveform) ([]audio.Waveform, error)
}

// Serialize wraps a model so that only one separation runs at a time.
// Nothing guarantees the underlying engine tolerates concurrent invocations,
// so contended requests queue up on the mutex instead.
func Serialize(inner Model) Model {
	return &serializedModel{inner: inner}
}

type serializedModel struct {
	mutex sync.Mutex
	inner Model
}

func (s *serializedModel) Sources() []string {
	return s.inner.Sources()
}

func (s *serializedModel) SampleRate() int {
	return s.inner.SampleRate()
}

func (s *serializedModel) Separate(ctx context.Context, mix audio.Waveform) ([]audio.Waveform, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.inner.Separate(ctx, mix)
}
