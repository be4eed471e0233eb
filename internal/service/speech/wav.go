package speech

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"mime"
	"strconv"
	"strings"
	"time"
)

// pcmFormat describes raw little-endian PCM as returned by the TTS model.
type pcmFormat struct {
	sampleRate    int
	channels      int
	bitsPerSample int
}

var defaultPCM = pcmFormat{sampleRate: 24000, channels: 1, bitsPerSample: 16}

// parsePCMFormat reads "audio/L16;codec=pcm;rate=24000" style MIME types.
// An empty type means the model default.
func parsePCMFormat(mimeType string) (pcmFormat, error) {
	f := defaultPCM
	if strings.TrimSpace(mimeType) == "" {
		return f, nil
	}
	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return f, fmt.Errorf("parse audio mime type %q: %w", mimeType, err)
	}
	switch strings.ToLower(mediaType) {
	case "audio/l16", "audio/pcm":
	default:
		return f, fmt.Errorf("unsupported audio mime type %q", mimeType)
	}
	if rate, ok := params["rate"]; ok {
		n, err := strconv.Atoi(rate)
		if err != nil || n <= 0 {
			return f, fmt.Errorf("invalid sample rate %q", rate)
		}
		f.sampleRate = n
	}
	if ch, ok := params["channels"]; ok {
		n, err := strconv.Atoi(ch)
		if err != nil || n <= 0 {
			return f, fmt.Errorf("invalid channel count %q", ch)
		}
		f.channels = n
	}
	return f, nil
}

func (f pcmFormat) byteRate() int {
	return f.sampleRate * f.channels * f.bitsPerSample / 8
}

func (f pcmFormat) duration(n int) time.Duration {
	if f.byteRate() == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(f.byteRate())
}

// wav prepends a 44-byte RIFF header to pcm.
func (f pcmFormat) wav(pcm []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	blockAlign := f.channels * f.bitsPerSample / 8
	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(36 + len(pcm)),
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16),
		uint16(1), // PCM
		uint16(f.channels),
		uint32(f.sampleRate),
		uint32(f.byteRate()),
		uint16(blockAlign),
		uint16(f.bitsPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		uint32(len(pcm)),
	}
	for _, v := range header {
		// writes to a bytes.Buffer cannot fail
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.Write(pcm)
	return buf.Bytes()
}
