// Package wavpcm implements the speech.Codec contract with PCM16 WAV
// container framing. It is the audio-codec collaborator consumed by the
// transport layer and the providers; the orchestration core itself never
// touches sample content.
package wavpcm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/fernvoice/fernando/speech"
)

const (
	headerSize    = 44
	fmtChunkSize  = 16
	pcmFormat     = 1
	bitsPerSample = 16
)

// Codec frames single-channel float32 audio as 16-bit PCM WAV.
type Codec struct{}

// New creates a Codec.
func New() *Codec { return &Codec{} }

// EncodeWAV frames a single-channel buffer as a PCM16 WAV payload.
func (c *Codec) EncodeWAV(buf speech.AudioBuffer) ([]byte, error) {
	if !buf.Valid() {
		return nil, fmt.Errorf("cannot encode audio with %d channels, %d samples", buf.Channels(), buf.SampleCount())
	}

	samples := buf.Samples[0]
	dataSize := len(samples) * 2
	byteRate := buf.SampleRate * 2

	out := bytes.NewBuffer(make([]byte, 0, headerSize+dataSize))
	out.WriteString("RIFF")
	binary.Write(out, binary.LittleEndian, uint32(36+dataSize))
	out.WriteString("WAVE")
	out.WriteString("fmt ")
	binary.Write(out, binary.LittleEndian, uint32(fmtChunkSize))
	binary.Write(out, binary.LittleEndian, uint16(pcmFormat))
	binary.Write(out, binary.LittleEndian, uint16(1)) // mono
	binary.Write(out, binary.LittleEndian, uint32(buf.SampleRate))
	binary.Write(out, binary.LittleEndian, uint32(byteRate))
	binary.Write(out, binary.LittleEndian, uint16(2)) // block align
	binary.Write(out, binary.LittleEndian, uint16(bitsPerSample))
	out.WriteString("data")
	binary.Write(out, binary.LittleEndian, uint32(dataSize))

	for _, s := range samples {
		binary.Write(out, binary.LittleEndian, floatToPCM16(s))
	}
	return out.Bytes(), nil
}

// DecodeWAV parses a PCM16 WAV payload into a single-channel buffer.
// Multi-channel payloads are downmixed to mono by averaging.
func (c *Codec) DecodeWAV(data []byte) (speech.AudioBuffer, error) {
	if len(data) < headerSize || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return speech.AudioBuffer{}, fmt.Errorf("not a RIFF/WAVE payload")
	}

	var (
		sampleRate int
		channels   int
		bits       int
		pcm        []byte
	)

	// Walk the chunk list; fmt and data may be separated by other chunks.
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			size = len(data) - body
		}
		switch id {
		case "fmt ":
			if size < fmtChunkSize {
				return speech.AudioBuffer{}, fmt.Errorf("truncated fmt chunk")
			}
			format := int(binary.LittleEndian.Uint16(data[body : body+2]))
			if format != pcmFormat {
				return speech.AudioBuffer{}, fmt.Errorf("unsupported wav format %d", format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			pcm = data[body : body+size]
		}
		// chunks are word-aligned
		off = body + size + (size & 1)
	}

	if sampleRate == 0 || channels == 0 {
		return speech.AudioBuffer{}, fmt.Errorf("missing fmt chunk")
	}
	if bits != bitsPerSample {
		return speech.AudioBuffer{}, fmt.Errorf("unsupported bit depth %d", bits)
	}
	if pcm == nil {
		return speech.AudioBuffer{}, fmt.Errorf("missing data chunk")
	}

	frameSize := channels * 2
	frames := len(pcm) / frameSize
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			raw := int16(binary.LittleEndian.Uint16(pcm[i*frameSize+ch*2:]))
			sum += pcm16ToFloat(raw)
		}
		samples[i] = sum / float32(channels)
	}

	return speech.AudioBuffer{
		SampleRate: sampleRate,
		Samples:    [][]float32{samples},
	}, nil
}

// DecodePCM16 interprets raw little-endian PCM16 bytes at the given sample
// rate. A trailing odd byte is dropped.
func (c *Codec) DecodePCM16(data []byte, sampleRate int) (speech.AudioBuffer, error) {
	if sampleRate <= 0 {
		return speech.AudioBuffer{}, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	n := len(data) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		samples[i] = pcm16ToFloat(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}
	return speech.AudioBuffer{
		SampleRate: sampleRate,
		Samples:    [][]float32{samples},
	}, nil
}

func floatToPCM16(s float32) int16 {
	v := float64(s) * math.MaxInt16
	if v > math.MaxInt16 {
		v = math.MaxInt16
	}
	if v < math.MinInt16 {
		v = math.MinInt16
	}
	return int16(v)
}

func pcm16ToFloat(s int16) float32 {
	return float32(s) / math.MaxInt16
}
