// Package ingest fetches call recordings and decodes them into the
// normalized mono float64 buffers the biomarker extractor consumes.
package ingest

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/heartvoice/voicebio/logging"
)

// AudioData represents one decoded recording.
type AudioData struct {
	PCM        []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"` // channels in the source; PCM is already downmixed to mono
	Duration   time.Duration `json:"duration"`
	Timestamp  time.Time     `json:"timestamp"`
}

// DecoderConfig holds decoder configuration.
type DecoderConfig struct {
	// DefaultSampleRate is assumed for headerless raw PCM payloads. Telephony
	// recordings arrive as 16-bit PCM at 8 or 16 kHz.
	DefaultSampleRate int `json:"default_sample_rate"`
}

// DefaultDecoderConfig returns default decoder configuration.
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		DefaultSampleRate: 16000,
	}
}

// Decoder converts WAV or raw PCM16 payloads into normalized samples.
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// NewDecoder creates an audio decoder.
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{"component": "audio_decoder"}),
	}
}

// DecodeBytes decodes an audio payload. A RIFF/WAVE header is honored when
// present; anything else is treated as headerless little-endian PCM16 at the
// configured default sample rate. Samples are normalized to [-1, 1] and
// multi-channel audio is downmixed to mono by averaging.
func (d *Decoder) DecodeBytes(data []byte) (*AudioData, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio payload")
	}

	if isWAV(data) {
		return d.decodeWAV(data)
	}

	d.logger.Debug("no RIFF header, decoding as raw PCM16", logging.Fields{
		"bytes":       len(data),
		"sample_rate": d.config.DefaultSampleRate,
	})

	samples := pcm16ToFloat64(data)
	if len(samples) == 0 {
		return nil, fmt.Errorf("payload too short for PCM16: %d bytes", len(data))
	}

	return &AudioData{
		PCM:        samples,
		SampleRate: d.config.DefaultSampleRate,
		Channels:   1,
		Duration:   sampleDuration(len(samples), d.config.DefaultSampleRate),
		Timestamp:  time.Now(),
	}, nil
}

func isWAV(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WAVE"
}

// decodeWAV walks the RIFF chunks for fmt and data. Only uncompressed PCM16
// is supported; telephony recorders emit nothing else.
func (d *Decoder) decodeWAV(data []byte) (*AudioData, error) {
	var (
		sampleRate    int
		channels      int
		bitsPerSample int
		pcmBytes      []byte
	)

	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, fmt.Errorf("malformed fmt chunk: %d bytes", chunkSize)
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 {
				return nil, fmt.Errorf("unsupported WAV format code %d, want PCM", format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			pcmBytes = data[body : body+chunkSize]
		}

		// Chunks are word-aligned
		offset = body + chunkSize + (chunkSize & 1)
	}

	if sampleRate == 0 || channels == 0 {
		return nil, fmt.Errorf("WAV missing fmt chunk")
	}
	if bitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported bit depth %d, want 16", bitsPerSample)
	}
	if len(pcmBytes) == 0 {
		return nil, fmt.Errorf("WAV missing data chunk")
	}
	if channels < 1 || channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}

	samples := pcm16ToFloat64(pcmBytes)
	if channels > 1 {
		samples = downmixMono(samples, channels)
	}

	d.logger.Debug("WAV decoded", logging.Fields{
		"sample_rate": sampleRate,
		"channels":    channels,
		"samples":     len(samples),
	})

	return &AudioData{
		PCM:        samples,
		SampleRate: sampleRate,
		Channels:   channels,
		Duration:   sampleDuration(len(samples), sampleRate),
		Timestamp:  time.Now(),
	}, nil
}

// pcm16ToFloat64 converts little-endian signed 16-bit samples to [-1, 1].
func pcm16ToFloat64(data []byte) []float64 {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}

	sampleCount := len(data) / 2
	samples := make([]float64, sampleCount)
	for i := 0; i < sampleCount; i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		samples[i] = float64(v) / 32768.0
	}
	return samples
}

// downmixMono averages interleaved channels into one.
func downmixMono(samples []float64, channels int) []float64 {
	frames := len(samples) / channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

func sampleDuration(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
