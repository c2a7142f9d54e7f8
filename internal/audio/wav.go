package audio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// EncodeWAVPCM16LE wraps raw PCM16LE mono audio bytes in a WAV container.
func EncodeWAVPCM16LE(pcm []byte, sampleRate int) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteWAVPCM16LETo(&buf, pcm, sampleRate); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteWAVPCM16LEFile writes raw PCM16LE mono audio bytes as a WAV file.
func WriteWAVPCM16LEFile(path string, pcm []byte, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWAVPCM16LETo(f, pcm, sampleRate); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteWAVPCM16LETo writes raw PCM16LE mono audio bytes to out as a WAV stream.
func WriteWAVPCM16LETo(out io.Writer, pcm []byte, sampleRate int) error {
	const (
		numChannels   = 1
		bitsPerSample = 16
		formatPCM     = 1
	)
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	dataSize := uint32(len(pcm))
	header := struct {
		Riff          [4]byte
		ChunkSize     uint32
		Wave          [4]byte
		Fmt           [4]byte
		FmtSize       uint32
		AudioFormat   uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		Data          [4]byte
		DataSize      uint32
	}{
		Riff:          [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Wave:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   formatPCM,
		Channels:      numChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * numChannels * bitsPerSample / 8),
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      dataSize,
	}

	w := bufio.NewWriter(out)
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}
	if _, err := w.Write(pcm); err != nil {
		return err
	}
	return w.Flush()
}

// DecodeWAVPCM16 extracts mono PCM16LE samples from a WAV file, averaging
// channels when the source is multi-channel.
func DecodeWAVPCM16(data []byte) ([]byte, int, error) {
	if len(data) < 12 {
		return nil, 0, fmt.Errorf("wav too short")
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("unsupported wav header")
	}

	var (
		haveFmt     bool
		audioFormat uint16
		channels    uint16
		sampleRate  int
		bitsPerSamp uint16
		pcmData     []byte
	)
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		off += 8
		if size < 0 || off+size > len(data) {
			return nil, 0, fmt.Errorf("invalid wav chunk size")
		}
		chunk := data[off : off+size]
		switch id {
		case "fmt ":
			if len(chunk) < 16 {
				return nil, 0, fmt.Errorf("invalid wav fmt chunk")
			}
			audioFormat = binary.LittleEndian.Uint16(chunk[0:2])
			channels = binary.LittleEndian.Uint16(chunk[2:4])
			sampleRate = int(binary.LittleEndian.Uint32(chunk[4:8]))
			bitsPerSamp = binary.LittleEndian.Uint16(chunk[14:16])
			haveFmt = true
		case "data":
			pcmData = append(pcmData[:0], chunk...)
		}
		off += size + size%2
	}
	switch {
	case !haveFmt:
		return nil, 0, fmt.Errorf("wav fmt chunk missing")
	case len(pcmData) == 0:
		return nil, 0, fmt.Errorf("wav data chunk missing")
	case audioFormat != 1:
		return nil, 0, fmt.Errorf("unsupported wav audio format %d", audioFormat)
	case bitsPerSamp != 16:
		return nil, 0, fmt.Errorf("unsupported wav bits_per_sample %d", bitsPerSamp)
	case channels == 0:
		return nil, 0, fmt.Errorf("invalid wav channels=0")
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	if channels == 1 {
		return pcmData[:len(pcmData)&^1], sampleRate, nil
	}

	frameBytes := int(channels) * 2
	frameCount := len(pcmData) / frameBytes
	mono := make([]byte, frameCount*2)
	for i := 0; i < frameCount; i++ {
		base := i * frameBytes
		sum := 0
		for ch := 0; ch < int(channels); ch++ {
			sum += int(int16(binary.LittleEndian.Uint16(pcmData[base+ch*2:])))
		}
		binary.LittleEndian.PutUint16(mono[i*2:], uint16(int16(sum/int(channels))))
	}
	return mono, sampleRate, nil
}
