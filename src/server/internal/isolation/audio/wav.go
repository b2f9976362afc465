package audio

import (
	"bytes"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavBitDepth = 16

// EncodeWAV renders the waveform as a 16-bit PCM WAV stream in memory,
// with the read position reset to the start.
func EncodeWAV(w Waveform, sampleRate int) (*bytes.Buffer, error) {
	if w.NumChannels() == 0 || w.NumSamples() == 0 {
		return nil, errors.New("Cannot encode an empty waveform")
	}

	seekBuf := &seekableBuffer{}
	encoder := wav.NewEncoder(seekBuf, sampleRate, wavBitDepth, w.NumChannels(), 1)

	pcmBuf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: w.NumChannels(),
			SampleRate:  sampleRate,
		},
		Data:           interleave(w),
		SourceBitDepth: wavBitDepth,
	}

	if err := encoder.Write(pcmBuf); err != nil {
		return nil, errors.Wrap(err, "Failed to write WAV samples")
	}

	if err := encoder.Close(); err != nil {
		return nil, errors.Wrap(err, "Failed to finalize WAV stream")
	}

	return bytes.NewBuffer(seekBuf.data), nil
}

func DecodeWAVFile(path string) (Waveform, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.Wrap(err, "Failed to open WAV file")
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, 0, errors.Newf("File %s is not a valid WAV file", path)
	}

	pcmBuf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, errors.Wrap(err, "Failed to read WAV samples")
	}

	w := deinterleave(pcmBuf.Data, pcmBuf.Format.NumChannels)
	return w, pcmBuf.Format.SampleRate, nil
}

func WriteWAVFile(path string, w Waveform, sampleRate int) error {
	buf, err := EncodeWAV(w, sampleRate)
	if err != nil {
		return errors.Wrap(err, "Failed to encode WAV stream")
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrap(err, "Failed to write WAV file")
	}

	return nil
}

// the wav encoder wants an io.WriteSeeker to backfill RIFF sizes on Close,
// which bytes.Buffer can't provide
type seekableBuffer struct {
	data []byte
	pos  int
}

var _ io.WriteSeeker = &seekableBuffer{}

func (b *seekableBuffer) Write(p []byte) (int, error) {
	if newEnd := b.pos + len(p); newEnd > len(b.data) {
		grown := make([]byte, newEnd)
		copy(grown, b.data)
		b.data = grown
	}

	copy(b.data[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int
	switch whence {
	case io.SeekStart:
		newPos = int(offset)
	case io.SeekCurrent:
		newPos = b.pos + int(offset)
	case io.SeekEnd:
		newPos = len(b.data) + int(offset)
	default:
		return 0, errors.New("Unsupported seek whence")
	}

	if newPos < 0 {
		return 0, errors.New("Cannot seek before the start of the buffer")
	}

	b.pos = newPos
	return int64(newPos), nil
}
