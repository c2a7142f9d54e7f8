package audio

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"os"
	"testing"
)

func TestEncodeDecodeWAVMono(t *testing.T) {
	pcm := []byte{
		0x00, 0x00,
		0xE8, 0x03, // 1000
		0x18, 0xFC, // -1000
	}
	wav, err := EncodeWAVPCM16LE(pcm, 16000)
	if err != nil {
		t.Fatalf("EncodeWAVPCM16LE() error = %v", err)
	}
	if len(wav) != 44+len(pcm) {
		t.Fatalf("len(wav) = %d, want %d", len(wav), 44+len(pcm))
	}
	gotPCM, gotSR, err := DecodeWAVPCM16(wav)
	if err != nil {
		t.Fatalf("DecodeWAVPCM16() error = %v", err)
	}
	if gotSR != 16000 {
		t.Fatalf("sampleRate = %d, want 16000", gotSR)
	}
	if !bytes.Equal(gotPCM, pcm) {
		t.Fatalf("pcm mismatch: got=%v want=%v", gotPCM, pcm)
	}
}

func TestDecodeWAVStereoDownmix(t *testing.T) {
	// Frame 1: L=1000, R=-1000 => 0; frame 2: L=3000, R=1000 => 2000.
	stereo := []byte{
		0xE8, 0x03, 0x18, 0xFC,
		0xB8, 0x0B, 0xE8, 0x03,
	}
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(stereo)))
	buf.WriteString("WAVEfmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(24000))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(24000*4))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(4))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(stereo)))
	buf.Write(stereo)

	gotPCM, gotSR, err := DecodeWAVPCM16(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeWAVPCM16() error = %v", err)
	}
	if gotSR != 24000 {
		t.Fatalf("sampleRate = %d, want 24000", gotSR)
	}
	want := []byte{0x00, 0x00, 0xD0, 0x07}
	if !bytes.Equal(gotPCM, want) {
		t.Fatalf("pcm = %v, want %v", gotPCM, want)
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeWAVPCM16([]byte("not a wav file at all")); err == nil {
		t.Fatalf("DecodeWAVPCM16() expected error")
	}
}

func TestWriteWAVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	if err := WriteWAVPCM16LEFile(path, []byte{1, 0, 2, 0}, 0); err != nil {
		t.Fatalf("WriteWAVPCM16LEFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	_, sr, err := DecodeWAVPCM16(data)
	if err != nil {
		t.Fatalf("DecodeWAVPCM16() error = %v", err)
	}
	if sr != DefaultSampleRate {
		t.Fatalf("sampleRate = %d, want %d", sr, DefaultSampleRate)
	}
}

func TestEncodeForWire(t *testing.T) {
	pcm := []byte{0x00, 0x00, 0xE8, 0x03, 0x18, 0xFC, 0x10, 0x27}

	same, err := EncodeForWire(pcm, FormatPCM16)
	if err != nil || !bytes.Equal(same, pcm) {
		t.Fatalf("EncodeForWire(pcm16) = %v, %v", same, err)
	}

	ulaw, err := EncodeForWire(pcm, FormatPCMU)
	if err != nil {
		t.Fatalf("EncodeForWire(pcmu) error = %v", err)
	}
	if len(ulaw) != len(pcm)/2 {
		t.Fatalf("len(ulaw) = %d, want %d", len(ulaw), len(pcm)/2)
	}
	back, err := DecodeFromWire(ulaw, FormatPCMU)
	if err != nil {
		t.Fatalf("DecodeFromWire(pcmu) error = %v", err)
	}
	if len(back) != len(pcm) {
		t.Fatalf("len(back) = %d, want %d", len(back), len(pcm))
	}

	if _, err := EncodeForWire([]byte{1}, FormatPCMU); err != ErrOddPCMLength {
		t.Fatalf("odd length error = %v, want ErrOddPCMLength", err)
	}
	if _, err := EncodeForWire(pcm, "audio/opus"); err == nil {
		t.Fatalf("EncodeForWire(opus) expected error")
	}
	if WireSampleRate(FormatPCMU) != 8000 || WireSampleRate(FormatPCM16) != 24000 {
		t.Fatalf("unexpected wire sample rates")
	}
}

func TestExtensionFor(t *testing.T) {
	cases := []struct {
		mime, filename, want string
	}{
		{"audio/webm;codecs=opus", "recording.webm", "webm"},
		{"audio/mp4", "recording.mp4", "mp4"},
		{"audio/wav", "", "wav"},
		{"audio/x-wav", "", "wav"},
		{"audio/mpeg", "voice.bin", "mp3"},
		{"application/octet-stream", "note.m4a", "m4a"},
		{"", "", "webm"},
		{"", "archive.zip", "webm"},
	}
	for _, tc := range cases {
		if got := ExtensionFor(tc.mime, tc.filename); got != tc.want {
			t.Fatalf("ExtensionFor(%q, %q) = %q, want %q", tc.mime, tc.filename, got, tc.want)
		}
	}
}
