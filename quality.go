package lumen

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// PerformanceSettings is the live render-quality record. It is created once
// at startup (DetectPerformanceSettings), mutated only by the
// AdaptiveQualityController or an explicit user override, and read each
// frame by the uniform binding layer.
type PerformanceSettings struct {
	QualityTier         QualityTier
	ResolutionScale     float64
	MaxLights           int
	EnableShadows       bool
	EnableAO            bool
	EnableNormalMapping bool
	EnableLightMasks    bool
	FPSTarget           float64
}

// tierPresets encodes the fixed degradation priority: stepping down first
// drops AO, then shadows, then light masks, then normal mapping, while
// resolution scale and the light cap shrink alongside.
var tierPresets = map[QualityTier]PerformanceSettings{
	QualityHigh: {
		QualityTier:         QualityHigh,
		ResolutionScale:     1.0,
		MaxLights:           64,
		EnableShadows:       true,
		EnableAO:            true,
		EnableNormalMapping: true,
		EnableLightMasks:    true,
	},
	QualityMedium: {
		QualityTier:         QualityMedium,
		ResolutionScale:     0.85,
		MaxLights:           32,
		EnableShadows:       true,
		EnableAO:            false,
		EnableNormalMapping: true,
		EnableLightMasks:    true,
	},
	QualityLow: {
		QualityTier:         QualityLow,
		ResolutionScale:     0.6,
		MaxLights:           10,
		EnableShadows:       false,
		EnableAO:            false,
		EnableNormalMapping: false,
		EnableLightMasks:    false,
	},
}

// DetectPerformanceSettings probes the device and returns startup settings.
// The probe is deliberately coarse: high-DPI desktop displays start at high,
// everything else at medium.
func DetectPerformanceSettings() *PerformanceSettings {
	tier := QualityMedium
	if ebiten.DeviceScaleFactor() >= 1 {
		tier = QualityHigh
	}
	return NewPerformanceSettings(tier)
}

// NewPerformanceSettings returns the preset for a tier with the default
// 60 FPS target.
func NewPerformanceSettings(tier QualityTier) *PerformanceSettings {
	p := tierPresets[tier]
	p.FPSTarget = 60
	return &p
}

// applyTier overwrites the feature toggles, cap, and scale from the tier
// preset while preserving the FPS target.
func (p *PerformanceSettings) applyTier(tier QualityTier) {
	target := p.FPSTarget
	*p = tierPresets[tier]
	p.FPSTarget = target
}

// effectiveResolutionScale clamps the scale to a sane render range.
// A zero value (uninitialized settings) renders at full resolution.
func (p *PerformanceSettings) effectiveResolutionScale() float64 {
	if p == nil || p.ResolutionScale == 0 {
		return 1
	}
	if p.ResolutionScale < 0.25 {
		return 0.25
	}
	if p.ResolutionScale > 1 {
		return 1
	}
	return p.ResolutionScale
}

// Telemetry is the per-tick performance snapshot emitted to the status
// callback surface.
type Telemetry struct {
	FPSCurrent  float64
	FPSAverage  float64
	QualityTier QualityTier
}

// defaultSustainWindow is how many consecutive qualifying samples are needed
// before the controller steps a tier in either direction.
const defaultSustainWindow = 5

// AdaptiveQualityController samples frame rate and steps the quality tier to
// hold a target. The thresholds compare the windowed average of recent
// samples, not the instantaneous rate, so a single mid-band spike cannot
// mask a sustained slump. Downward steps trigger after a sustained run of
// windowed averages below FPSTarget*0.7; upward steps require an equally
// sustained run above FPSTarget*0.9. The gap between the thresholds is the
// hysteresis that prevents oscillation, and at most one tier moves per
// sustained window.
//
// A manual tier override pins the tier: the controller keeps reporting
// telemetry but stops fighting the user's choice.
type AdaptiveQualityController struct {
	settings *PerformanceSettings

	// SustainWindow is the consecutive-sample count for a step. Zero means
	// defaultSustainWindow.
	SustainWindow int

	belowCount int
	aboveCount int
	overridden bool

	samples   []float64 // rolling fps window for the reported average
	sampleCap int

	scaleTween *gween.Tween

	onTelemetry func(Telemetry)
}

// NewAdaptiveQualityController wraps the given settings. The settings struct
// is shared with the compositor; the controller is its only automatic writer.
func NewAdaptiveQualityController(settings *PerformanceSettings) *AdaptiveQualityController {
	return &AdaptiveQualityController{
		settings:  settings,
		sampleCap: 60,
	}
}

// SetTelemetryFunc registers the telemetry callback, invoked once per sample.
func (c *AdaptiveQualityController) SetTelemetryFunc(fn func(Telemetry)) {
	c.onTelemetry = fn
}

// Settings returns the controlled settings record.
func (c *AdaptiveQualityController) Settings() *PerformanceSettings {
	return c.settings
}

// OverrideTier applies an explicit user tier choice and pins it: automatic
// stepping stops until ClearOverride.
func (c *AdaptiveQualityController) OverrideTier(tier QualityTier) {
	c.overridden = true
	c.stepTo(tier)
}

// ClearOverride re-enables automatic tier stepping.
func (c *AdaptiveQualityController) ClearOverride() {
	c.overridden = false
	c.belowCount = 0
	c.aboveCount = 0
}

// Overridden reports whether a manual tier choice is pinned.
func (c *AdaptiveQualityController) Overridden() bool {
	return c.overridden
}

// AddSample feeds one frame's instantaneous FPS and runs the step logic.
// Call once per tick; dt is the real time covered by the sample, used to
// advance the resolution-scale tween.
func (c *AdaptiveQualityController) AddSample(fps float64, dt float64) Telemetry {
	c.samples = append(c.samples, fps)
	if len(c.samples) > c.sampleCap {
		c.samples = c.samples[1:]
	}

	if c.scaleTween != nil {
		v, done := c.scaleTween.Update(float32(dt))
		c.settings.ResolutionScale = float64(v)
		if done {
			c.scaleTween = nil
		}
	}

	avg := c.average()
	window := c.SustainWindow
	if window <= 0 {
		window = defaultSustainWindow
	}

	if !c.overridden {
		target := c.settings.FPSTarget
		recent := c.recentAverage(window)
		switch {
		case recent < target*0.7:
			c.belowCount++
			c.aboveCount = 0
		case recent > target*0.9:
			c.aboveCount++
			c.belowCount = 0
		default:
			c.belowCount = 0
			c.aboveCount = 0
		}

		if c.belowCount >= window && c.settings.QualityTier > QualityLow {
			c.stepTo(c.settings.QualityTier - 1)
			c.belowCount = 0
			c.aboveCount = 0
		} else if c.aboveCount >= window && c.settings.QualityTier < QualityHigh {
			c.stepTo(c.settings.QualityTier + 1)
			c.belowCount = 0
			c.aboveCount = 0
		}
	}

	t := Telemetry{
		FPSCurrent:  fps,
		FPSAverage:  avg,
		QualityTier: c.settings.QualityTier,
	}
	if c.onTelemetry != nil {
		c.onTelemetry(t)
	}
	return t
}

// stepTo applies a tier preset, easing the resolution scale to its new value
// instead of snapping (a visible pop otherwise).
func (c *AdaptiveQualityController) stepTo(tier QualityTier) {
	from := c.settings.effectiveResolutionScale()
	c.settings.applyTier(tier)
	to := c.settings.ResolutionScale
	if from != to {
		c.scaleTween = gween.New(float32(from), float32(to), 0.5, ease.OutQuad)
		c.settings.ResolutionScale = from
	}
}

// recentAverage returns the mean of the last n samples, the value the step
// thresholds compare against.
func (c *AdaptiveQualityController) recentAverage(n int) float64 {
	if len(c.samples) == 0 {
		return 0
	}
	if n > len(c.samples) {
		n = len(c.samples)
	}
	sum := 0.0
	for _, s := range c.samples[len(c.samples)-n:] {
		sum += s
	}
	return sum / float64(n)
}

// average returns the rolling FPS average over the sample window.
func (c *AdaptiveQualityController) average() float64 {
	if len(c.samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range c.samples {
		sum += s
	}
	return sum / float64(len(c.samples))
}
