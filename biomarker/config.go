package biomarker

// ExtractorConfig holds configuration for biomarker extraction.
type ExtractorConfig struct {
	SampleRate int `json:"sample_rate" yaml:"sample_rate"`

	// IncludeContour controls whether the full per-frame pitch contour is
	// carried on the record. Disable for compact JSON payloads.
	IncludeContour bool `json:"include_contour" yaml:"include_contour"`
}

// DefaultExtractorConfig returns the configuration for telephony recordings:
// 16 kHz mono PCM, full contour attached.
func DefaultExtractorConfig() *ExtractorConfig {
	return &ExtractorConfig{
		SampleRate:     16000,
		IncludeContour: true,
	}
}
