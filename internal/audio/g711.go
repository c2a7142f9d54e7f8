package audio

import (
	"errors"
	"fmt"

	"github.com/zaf/g711"
)

// DefaultSampleRate is the PCM16 rate the realtime transport expects.
const DefaultSampleRate = 24000

// Wire formats accepted by the realtime session for input audio.
const (
	FormatPCM16 = "audio/pcm"
	FormatPCMU  = "audio/pcmu"
	FormatPCMA  = "audio/pcma"
)

var ErrOddPCMLength = errors.New("PCM byte slice length must be even (16-bit samples)")

// EncodeForWire converts PCM16LE mono audio to the given realtime input format.
func EncodeForWire(pcm []byte, format string) ([]byte, error) {
	if len(pcm)%2 != 0 {
		return nil, ErrOddPCMLength
	}
	switch format {
	case "", FormatPCM16:
		return pcm, nil
	case FormatPCMU:
		return g711.EncodeUlaw(pcm), nil
	case FormatPCMA:
		return g711.EncodeAlaw(pcm), nil
	default:
		return nil, fmt.Errorf("unsupported wire format %q", format)
	}
}

// DecodeFromWire converts realtime output audio back to PCM16LE mono.
func DecodeFromWire(data []byte, format string) ([]byte, error) {
	switch format {
	case "", FormatPCM16:
		return data, nil
	case FormatPCMU:
		return g711.DecodeUlaw(data), nil
	case FormatPCMA:
		return g711.DecodeAlaw(data), nil
	default:
		return nil, fmt.Errorf("unsupported wire format %q", format)
	}
}

// WireSampleRate is the sample rate implied by a realtime audio format.
func WireSampleRate(format string) int {
	switch format {
	case FormatPCMU, FormatPCMA:
		return 8000
	default:
		return DefaultSampleRate
	}
}
