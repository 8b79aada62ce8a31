package lumen

import (
	"math"

	"github.com/google/uuid"
)

// LightMask projects a texture region as a cookie over a light, shaping its
// footprint (window frames, foliage, grates). The region is sampled from the
// mask atlas page bound for the frame.
type LightMask struct {
	Region   TextureRegion
	OffsetX  float64
	OffsetY  float64
	Rotation float64 // radians
	Scale    float64 // zero is treated as 1
}

// IsZero reports whether no mask is set.
func (m LightMask) IsZero() bool {
	return m.Region.IsZero()
}

// Light is a single light source. Lights are externally owned and passed by
// reference each frame; the compositor never mutates them.
//
// Disabling a light does not remove it from its uniform slot: the renderer
// expresses Enabled=false as intensity 0 so slot assignment stays stable
// across toggles and no light-index swap flicker occurs.
type Light struct {
	// ID uniquely identifies the light across frames.
	// Assigned by the New*Light constructors if empty.
	ID string
	// Kind selects point, directional, or spot behavior.
	Kind LightKind
	// Enabled gates the light's contribution. Disabled lights stay
	// slot-resident with intensity 0.
	Enabled bool
	// X and Y position the light in canvas space (point and spot).
	X, Y float64
	// DirX and DirY give the light direction (directional and spot).
	// Normalized on use; a zero vector falls back to straight down.
	DirX, DirY float64
	// Color components are in [0, 1].
	Color Color
	// Intensity scales brightness; >= 0, typically [0, 1].
	Intensity float64
	// Radius is the falloff distance in pixels (point and spot).
	Radius float64
	// ConeAngleDeg is the full cone angle in degrees (spot).
	ConeAngleDeg float64
	// Softness feathers the cone edge in [0, 1] (spot).
	Softness float64
	// CastsShadows enables occluder-map shadowing for this light.
	CastsShadows bool
	// Mask optionally shapes the light's footprint.
	Mask LightMask
}

// NewPointLight creates an enabled point light with a fresh ID.
func NewPointLight(x, y, radius float64) *Light {
	return &Light{
		ID:        uuid.NewString(),
		Kind:      LightPoint,
		Enabled:   true,
		X:         x,
		Y:         y,
		Radius:    radius,
		Color:     ColorWhite,
		Intensity: 1,
	}
}

// NewSpotLight creates an enabled spotlight with a fresh ID.
func NewSpotLight(x, y, dirX, dirY, radius, coneAngleDeg float64) *Light {
	return &Light{
		ID:           uuid.NewString(),
		Kind:         LightSpot,
		Enabled:      true,
		X:            x,
		Y:            y,
		DirX:         dirX,
		DirY:         dirY,
		Radius:       radius,
		ConeAngleDeg: coneAngleDeg,
		Softness:     0.2,
		Color:        ColorWhite,
		Intensity:    1,
	}
}

// NewDirectionalLight creates an enabled directional light with a fresh ID.
// Directional lights are always slot-resident, matching ambient light's
// always-on semantics.
func NewDirectionalLight(dirX, dirY float64) *Light {
	return &Light{
		ID:        uuid.NewString(),
		Kind:      LightDirectional,
		Enabled:   true,
		DirX:      dirX,
		DirY:      dirY,
		Color:     ColorWhite,
		Intensity: 1,
	}
}

// effectiveIntensity is the intensity actually bound to the shader slot:
// zero when disabled, never a slot removal.
func (l *Light) effectiveIntensity() float64 {
	if !l.Enabled {
		return 0
	}
	if l.Intensity < 0 {
		return 0
	}
	return l.Intensity
}

// direction returns the normalized direction, defaulting to straight down
// for a zero vector.
func (l *Light) direction() (float64, float64) {
	dx, dy := l.DirX, l.DirY
	lenSq := dx*dx + dy*dy
	if lenSq < 1e-12 {
		return 0, 1
	}
	inv := 1 / math.Sqrt(lenSq)
	return dx * inv, dy * inv
}

// Ambient is the scene-wide base light applied in the base pass.
type Ambient struct {
	Color     Color
	Intensity float64
}

// ShadowConfig controls occluder-map shadowing.
type ShadowConfig struct {
	Enabled bool
	// Strength is the darkening applied in shadowed regions, [0, 1].
	Strength float64
	// MaxLength caps the shadow reach in pixels.
	MaxLength float64
	// Bias offsets the occlusion ray start to avoid surface acne.
	Bias float64
	// Height fakes caster height: taller casters throw longer shadows.
	Height float64
}

// AOConfig controls screen-space ambient occlusion.
type AOConfig struct {
	Enabled bool
	// Strength is the maximum darkening applied, [0, 1].
	Strength float64
	// Radius is the sampling ring radius in pixels.
	Radius float64
	// Samples is the tap count (clamped to the shader's fixed budget).
	Samples int
	// Bias is the occlusion threshold offset.
	Bias float64
}
