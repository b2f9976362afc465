package audio

import "github.com/cockroachdb/errors"

// Waveform is uncompressed audio indexed [channel][sample].
type Waveform [][]float32

func (w Waveform) NumChannels() int {
	return len(w)
}

func (w Waveform) NumSamples() int {
	if len(w) == 0 {
		return 0
	}

	return len(w[0])
}

// EnsureStereo normalizes the channel count to exactly 2. Mono input is
// duplicated into both channels, stereo passes through unchanged.
func EnsureStereo(w Waveform) (Waveform, error) {
	switch w.NumChannels() {
	case 1:
		return Waveform{w[0], w[0]}, nil
	case 2:
		return w, nil
	default:
		return nil, errors.Newf("Cannot normalize %d channels to stereo", w.NumChannels())
	}
}

func interleave(w Waveform) []int {
	numChannels := w.NumChannels()
	numSamples := w.NumSamples()

	data := make([]int, 0, numChannels*numSamples)
	for i := 0; i < numSamples; i++ {
		for ch := 0; ch < numChannels; ch++ {
			data = append(data, floatToInt16(w[ch][i]))
		}
	}

	return data
}

func deinterleave(data []int, numChannels int) Waveform {
	if numChannels <= 0 {
		return Waveform{}
	}

	numSamples := len(data) / numChannels
	w := make(Waveform, numChannels)
	for ch := range w {
		w[ch] = make([]float32, numSamples)
	}

	for i := 0; i < numSamples; i++ {
		for ch := 0; ch < numChannels; ch++ {
			w[ch][i] = int16ToFloat(data[i*numChannels+ch])
		}
	}

	return w
}

func floatToInt16(sample float32) int {
	clamped := sample
	if clamped > 1 {
		clamped = 1
	}
	if clamped < -1 {
		clamped = -1
	}

	return int(clamped * 32767)
}

func int16ToFloat(sample int) float32 {
	return float32(sample) / 32768
}
