package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/foxseedlab/speakscore/internal/audio"
)

const (
	bitsPerSample  = 16
	wavFormatPCM   = 1
	wavHeaderBytes = 44
)

var ErrInvalidWAV = errors.New("invalid wav data")

// DecodeWAV extracts 16-bit PCM from a RIFF/WAVE container. Chunks other than
// "fmt " and "data" are skipped.
func DecodeWAV(b []byte) (audio.PCM, error) {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return audio.PCM{}, fmt.Errorf("%w: missing RIFF/WAVE header", ErrInvalidWAV)
	}
	var (
		pcm     audio.PCM
		haveFmt bool
	)
	off := 12
	for off+8 <= len(b) {
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		body := off + 8
		end := body + size
		if size < 0 || end > len(b) {
			// Streamed WAVs may carry a bogus data size; take what is there.
			if id != "data" {
				return audio.PCM{}, fmt.Errorf("%w: chunk %q overruns file", ErrInvalidWAV, id)
			}
			end = len(b)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return audio.PCM{}, fmt.Errorf("%w: short fmt chunk", ErrInvalidWAV)
			}
			format := binary.LittleEndian.Uint16(b[body : body+2])
			pcm.Channels = int(binary.LittleEndian.Uint16(b[body+2 : body+4]))
			pcm.SampleRate = int(binary.LittleEndian.Uint32(b[body+4 : body+8]))
			bits := binary.LittleEndian.Uint16(b[body+14 : body+16])
			if format != wavFormatPCM || bits != bitsPerSample {
				return audio.PCM{}, fmt.Errorf("%w: want 16-bit PCM, got format %d with %d bits", ErrInvalidWAV, format, bits)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return audio.PCM{}, fmt.Errorf("%w: data before fmt chunk", ErrInvalidWAV)
			}
			pcm.Data = b[body:end]
			return pcm, nil
		}
		// Chunks are word aligned.
		off = end + end%2
	}
	return audio.PCM{}, fmt.Errorf("%w: no data chunk", ErrInvalidWAV)
}

// EncodeWAV wraps PCM in a canonical 44-byte-header RIFF/WAVE container.
func EncodeWAV(pcm audio.PCM) []byte {
	byteRate := pcm.SampleRate * pcm.Channels * bitsPerSample / 8
	blockAlign := pcm.Channels * bitsPerSample / 8
	dataSize := len(pcm.Data)

	buf := make([]byte, wavHeaderBytes+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(pcm.Channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(pcm.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], pcm.Data)
	return buf
}

// RMS is the root-mean-square sample energy, 0 to 32767.
func RMS(pcm audio.PCM) float64 {
	n := len(pcm.Data) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := range n {
		v := float64(int16(binary.LittleEndian.Uint16(pcm.Data[i*2:])))
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

// Float32Mono converts PCM to mono float samples in [-1, 1], averaging channels.
func Float32Mono(pcm audio.PCM) []float32 {
	channels := max(pcm.Channels, 1)
	frames := len(pcm.Data) / (2 * channels)
	out := make([]float32, frames)
	for f := range frames {
		var sum float32
		for c := range channels {
			i := (f*channels + c) * 2
			sum += float32(int16(binary.LittleEndian.Uint16(pcm.Data[i:]))) / 32768
		}
		out[f] = sum / float32(channels)
	}
	return out
}
