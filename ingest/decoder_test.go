package ingest

import (
	"encoding/binary"
	"math"
	"testing"
)

// buildWAV assembles a minimal RIFF/WAVE file around the given PCM16 frames.
func buildWAV(sampleRate, channels int, pcm []int16) []byte {
	dataSize := len(pcm) * 2
	buf := make([]byte, 0, 44+dataSize)

	appendU32 := func(b []byte, v uint32) []byte {
		return binary.LittleEndian.AppendUint32(b, v)
	}
	appendU16 := func(b []byte, v uint16) []byte {
		return binary.LittleEndian.AppendUint16(b, v)
	}

	buf = append(buf, "RIFF"...)
	buf = appendU32(buf, uint32(36+dataSize))
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	buf = appendU32(buf, 16)
	buf = appendU16(buf, 1) // PCM
	buf = appendU16(buf, uint16(channels))
	buf = appendU32(buf, uint32(sampleRate))
	buf = appendU32(buf, uint32(sampleRate*channels*2))
	buf = appendU16(buf, uint16(channels*2))
	buf = appendU16(buf, 16)

	buf = append(buf, "data"...)
	buf = appendU32(buf, uint32(dataSize))
	for _, s := range pcm {
		buf = appendU16(buf, uint16(s))
	}

	return buf
}

func TestDecodeWAVMono(t *testing.T) {
	t.Parallel()

	pcm := []int16{0, 16384, -16384, 32767}
	data := buildWAV(8000, 1, pcm)

	audio, err := NewDecoder(nil).DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes error = %v", err)
	}

	if audio.SampleRate != 8000 {
		t.Errorf("SampleRate = %d, want 8000", audio.SampleRate)
	}
	if audio.Channels != 1 {
		t.Errorf("Channels = %d, want 1", audio.Channels)
	}
	if len(audio.PCM) != len(pcm) {
		t.Fatalf("decoded %d samples, want %d", len(audio.PCM), len(pcm))
	}
	if math.Abs(audio.PCM[1]-0.5) > 1e-4 {
		t.Errorf("PCM[1] = %v, want ~0.5", audio.PCM[1])
	}
	if math.Abs(audio.PCM[2]+0.5) > 1e-4 {
		t.Errorf("PCM[2] = %v, want ~-0.5", audio.PCM[2])
	}
	for _, s := range audio.PCM {
		if s < -1 || s > 1 {
			t.Errorf("sample %v outside [-1, 1]", s)
		}
	}
}

func TestDecodeWAVStereoDownmix(t *testing.T) {
	t.Parallel()

	// Left 0.5, right -0.5 averages to silence
	pcm := []int16{16384, -16384, 16384, -16384}
	data := buildWAV(16000, 2, pcm)

	audio, err := NewDecoder(nil).DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes error = %v", err)
	}

	if len(audio.PCM) != 2 {
		t.Fatalf("downmixed to %d frames, want 2", len(audio.PCM))
	}
	for i, s := range audio.PCM {
		if math.Abs(s) > 1e-4 {
			t.Errorf("frame %d = %v, want ~0 after downmix", i, s)
		}
	}
}

func TestDecodeRawPCMFallback(t *testing.T) {
	t.Parallel()

	raw := make([]byte, 8)
	binary.LittleEndian.PutUint16(raw[0:], uint16(int16(16384)))
	negSample := int16(-32768)
	binary.LittleEndian.PutUint16(raw[2:], uint16(negSample))

	audio, err := NewDecoder(&DecoderConfig{DefaultSampleRate: 8000}).DecodeBytes(raw)
	if err != nil {
		t.Fatalf("DecodeBytes error = %v", err)
	}

	if audio.SampleRate != 8000 {
		t.Errorf("SampleRate = %d, want configured default 8000", audio.SampleRate)
	}
	if math.Abs(audio.PCM[0]-0.5) > 1e-4 {
		t.Errorf("PCM[0] = %v, want ~0.5", audio.PCM[0])
	}
	if audio.PCM[1] != -1.0 {
		t.Errorf("PCM[1] = %v, want -1.0", audio.PCM[1])
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	t.Parallel()

	decoder := NewDecoder(nil)

	if _, err := decoder.DecodeBytes(nil); err == nil {
		t.Error("empty payload decoded without error")
	}

	// WAV header with an unsupported bit depth
	data := buildWAV(8000, 1, []int16{0, 0})
	binary.LittleEndian.PutUint16(data[34:36], 8)
	if _, err := decoder.DecodeBytes(data); err == nil {
		t.Error("8-bit WAV decoded without error")
	}
}
