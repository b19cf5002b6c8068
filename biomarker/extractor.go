package biomarker

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/heartvoice/voicebio/algorithms/common"
	"github.com/heartvoice/voicebio/algorithms/perturbation"
	"github.com/heartvoice/voicebio/algorithms/prosody"
	"github.com/heartvoice/voicebio/algorithms/quality"
	"github.com/heartvoice/voicebio/algorithms/signal"
	"github.com/heartvoice/voicebio/logging"
)

// Extractor runs every analyzer over one audio buffer and assembles the
// VoiceBiomarkers record. Analyzers are pure functions over the shared
// read-only buffer, so they fan out concurrently and each writes only its
// own output slot.
type Extractor struct {
	config *ExtractorConfig

	pitchTracker     *signal.PitchTracker
	jitterAnalyzer   *perturbation.JitterAnalyzer
	shimmerAnalyzer  *perturbation.ShimmerAnalyzer
	hnrAnalyzer      *quality.HNRAnalyzer
	spectralAnalyzer *quality.SpectralAnalyzer
	formantAnalyzer  *quality.FormantAnalyzer
	prosodyAnalyzer  *prosody.ProsodyAnalyzer
	respAnalyzer     *prosody.RespiratoryAnalyzer

	logger logging.Logger
}

// NewExtractor creates a biomarker extractor.
func NewExtractor(config *ExtractorConfig) *Extractor {
	if config == nil {
		config = DefaultExtractorConfig()
	}

	return &Extractor{
		config:           config,
		pitchTracker:     signal.NewPitchTracker(config.SampleRate),
		jitterAnalyzer:   perturbation.NewJitterAnalyzer(),
		shimmerAnalyzer:  perturbation.NewShimmerAnalyzer(),
		hnrAnalyzer:      quality.NewHNRAnalyzer(config.SampleRate),
		spectralAnalyzer: quality.NewSpectralAnalyzer(config.SampleRate),
		formantAnalyzer:  quality.NewFormantAnalyzer(config.SampleRate),
		prosodyAnalyzer:  prosody.NewProsodyAnalyzer(config.SampleRate),
		respAnalyzer:     prosody.NewRespiratoryAnalyzer(config.SampleRate),
		logger: logging.WithFields(logging.Fields{
			"component":   "biomarker_extractor",
			"sample_rate": config.SampleRate,
		}),
	}
}

// Extract analyzes one normalized mono PCM buffer and returns a fresh
// VoiceBiomarkers record. Empty input returns the zero sentinel and an
// error; every other degradation fails soft inside the analyzers, so one
// bad frame never aborts the pipeline.
func (e *Extractor) Extract(ctx context.Context, samples []float64) (*VoiceBiomarkers, error) {
	if len(samples) == 0 {
		return ZeroBiomarkers(), fmt.Errorf("empty audio buffer")
	}

	logger := e.logger.WithFields(logging.Fields{
		"samples":  len(samples),
		"duration": float64(len(samples)) / float64(e.config.SampleRate),
	})
	logger.Debug("extracting voice biomarkers")

	// The pitch contour and amplitude series feed multiple analyzers, so
	// compute them up front.
	contour := e.pitchTracker.Track(samples)
	amplitudes := signal.FrameRMS(samples, e.config.SampleRate/40)

	b := &VoiceBiomarkers{}

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		voiced := contour.Voiced()
		b.F0 = F0Stats{
			Mean:  common.Mean(voiced),
			Std:   common.StandardDeviation(voiced),
			Range: common.Range(voiced),
		}
		if e.config.IncludeContour {
			b.F0.Contour = contour
		}
		return nil
	})

	g.Go(func() error {
		b.Jitter = *e.jitterAnalyzer.Analyze(contour)
		return nil
	})

	g.Go(func() error {
		b.Shimmer = *e.shimmerAnalyzer.Analyze(amplitudes)
		return nil
	})

	g.Go(func() error {
		b.HNR = *e.hnrAnalyzer.Analyze(samples, contour)
		return nil
	})

	g.Go(func() error {
		b.Spectral = *e.spectralAnalyzer.Analyze(samples)
		return nil
	})

	g.Go(func() error {
		b.Formants = *e.formantAnalyzer.Analyze(samples, contour)
		return nil
	})

	g.Go(func() error {
		pros := e.prosodyAnalyzer.Analyze(samples)
		b.Prosody = *pros
		b.Respiratory = *e.respAnalyzer.Analyze(samples, pros)
		return nil
	})

	g.Go(func() error {
		b.Energy = EnergyStats{
			RMS:          signal.RMS(samples),
			ZCR:          signal.ZCR(samples),
			DynamicRange: signal.DynamicRange(amplitudes),
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return ZeroBiomarkers(), err
	}

	logger.Debug("biomarker extraction completed", logging.Fields{
		"f0_mean":      b.F0.Mean,
		"jitter_local": b.Jitter.Local,
		"hnr_mean":     b.HNR.Mean,
		"voiced_ratio": b.Prosody.VoicedRatio,
	})

	return b, nil
}
