package lumen

import "math"

// UniformBinder translates light batches and frame configuration into the
// lighting shader's uniform contract. All array uniforms live in persistent
// float32 buffers whose slice headers are stored in the uniform map once, so
// per-frame binding writes in place and allocates nothing.
//
// Binding is deterministic: identical inputs produce bit-identical buffer
// contents, which keeps disabled->re-enabled lights byte-stable.
type UniformBinder struct {
	m map[string]any

	pointPos       [PointSlots * 2]float32
	pointColor     [PointSlots * 3]float32
	pointIntensity [PointSlots]float32
	pointRadius    [PointSlots]float32
	pointShadow    [PointSlots]float32
	pointMaskRect  [PointSlots * 4]float32
	pointMaskXform [PointSlots * 4]float32

	spotPos       [SpotSlots * 2]float32
	spotDir       [SpotSlots * 2]float32
	spotColor     [SpotSlots * 3]float32
	spotIntensity [SpotSlots]float32
	spotRadius    [SpotSlots]float32
	spotCos       [SpotSlots]float32
	spotSoftness  [SpotSlots]float32
	spotShadow    [SpotSlots]float32
	spotMaskRect  [SpotSlots * 4]float32
	spotMaskXform [SpotSlots * 4]float32

	dirDir       [DirectionalSlots * 2]float32
	dirColor     [DirectionalSlots * 3]float32
	dirIntensity [DirectionalSlots]float32
	dirShadow    [DirectionalSlots]float32
}

// NewUniformBinder creates a binder with every array uniform registered.
func NewUniformBinder() *UniformBinder {
	u := &UniformBinder{m: make(map[string]any, 32)}

	u.m["PointPos"] = u.pointPos[:]
	u.m["PointColor"] = u.pointColor[:]
	u.m["PointIntensity"] = u.pointIntensity[:]
	u.m["PointRadius"] = u.pointRadius[:]
	u.m["PointShadow"] = u.pointShadow[:]
	u.m["PointMaskRect"] = u.pointMaskRect[:]
	u.m["PointMaskXform"] = u.pointMaskXform[:]

	u.m["SpotPos"] = u.spotPos[:]
	u.m["SpotDir"] = u.spotDir[:]
	u.m["SpotColor"] = u.spotColor[:]
	u.m["SpotIntensity"] = u.spotIntensity[:]
	u.m["SpotRadius"] = u.spotRadius[:]
	u.m["SpotCos"] = u.spotCos[:]
	u.m["SpotSoftness"] = u.spotSoftness[:]
	u.m["SpotShadow"] = u.spotShadow[:]
	u.m["SpotMaskRect"] = u.spotMaskRect[:]
	u.m["SpotMaskXform"] = u.spotMaskXform[:]

	u.m["DirDir"] = u.dirDir[:]
	u.m["DirColor"] = u.dirColor[:]
	u.m["DirIntensity"] = u.dirIntensity[:]
	u.m["DirShadow"] = u.dirShadow[:]

	// Scalar/vector uniforms get real values in BindFrame/BindPassMode.
	u.m["CanvasSize"] = []float32{0, 0}
	u.m["PassMode"] = float32(0)
	u.m["AmbientColor"] = []float32{0, 0, 0}
	u.m["AmbientIntensity"] = float32(0)
	u.m["ShadowParams"] = []float32{0, 0, 0, 0}
	u.m["AOParams"] = []float32{0, 0, 0, 0}
	u.m["AOSamples"] = float32(0)
	u.m["OccluderOffset"] = []float32{0, 0}
	u.m["OccluderSize"] = []float32{1, 1}
	u.m["LightHeight"] = float32(defaultLightHeight)
	u.m["MasksEnabled"] = float32(0)
	u.m["NormalsEnabled"] = float32(0)
	u.m["ResolutionScale"] = float32(1)
	u.m["HasNormal"] = float32(0)
	u.m["SpriteRotation"] = float32(0)
	u.m["SpriteTint"] = []float32{1, 1, 1, 1}
	u.m["SpriteZ"] = float32(0)
	return u
}

// defaultLightHeight is the assumed light elevation above the sprite plane,
// in pixels, for the normal-mapping response.
const defaultLightHeight = 60.0

// Uniforms returns the uniform map to hand to the shader draw. The map and
// its slices are reused across binds; callers must not retain them past the
// draw they were bound for.
func (u *UniformBinder) Uniforms() map[string]any {
	return u.m
}

// BindFrame writes the per-frame constants shared by every pass.
// masksAvailable reports whether a mask atlas page is bound for the frame;
// without one, per-light masks are disabled regardless of settings.
func (u *UniformBinder) BindFrame(canvasW, canvasH int, ambient Ambient, shadow ShadowConfig, ao AOConfig, occluderOffset Vec2, occluderW, occluderH int, perf *PerformanceSettings, masksAvailable bool) {
	u.m["CanvasSize"].([]float32)[0] = float32(canvasW)
	u.m["CanvasSize"].([]float32)[1] = float32(canvasH)

	ac := u.m["AmbientColor"].([]float32)
	ac[0] = float32(ambient.Color.R)
	ac[1] = float32(ambient.Color.G)
	ac[2] = float32(ambient.Color.B)
	u.m["AmbientIntensity"] = float32(ambient.Intensity)

	shadowOn := shadow.Enabled && perf.EnableShadows
	sp := u.m["ShadowParams"].([]float32)
	sp[0] = boolUniform(shadowOn)
	sp[1] = float32(clamp01(shadow.Strength))
	sp[2] = float32(shadow.Bias)
	sp[3] = float32(shadow.MaxLength)

	aoOn := ao.Enabled && perf.EnableAO
	ap := u.m["AOParams"].([]float32)
	ap[0] = boolUniform(aoOn)
	ap[1] = float32(clamp01(ao.Strength))
	ap[2] = float32(ao.Radius)
	ap[3] = float32(ao.Bias)
	u.m["AOSamples"] = float32(clampInt(ao.Samples, 1, maxAOSamples))

	oo := u.m["OccluderOffset"].([]float32)
	oo[0] = float32(occluderOffset.X)
	oo[1] = float32(occluderOffset.Y)
	os := u.m["OccluderSize"].([]float32)
	os[0] = float32(maxInt(occluderW, 1))
	os[1] = float32(maxInt(occluderH, 1))

	u.m["MasksEnabled"] = boolUniform(perf.EnableLightMasks && masksAvailable)
	u.m["NormalsEnabled"] = boolUniform(perf.EnableNormalMapping)
	u.m["ResolutionScale"] = float32(perf.effectiveResolutionScale())
}

// BindSprite writes the per-draw uniforms for one sprite. SpriteZ is the
// sprite's encoded layer for the shader's occluder hierarchy test.
func (u *UniformBinder) BindSprite(s *Sprite) {
	u.m["HasNormal"] = boolUniform(s.NormalImage != nil)
	u.m["SpriteRotation"] = float32(s.Rotation)
	u.m["SpriteZ"] = float32(encodeZ(s.ZOrder))
	tint := u.m["SpriteTint"].([]float32)
	c := s.Color
	if c == (Color{}) {
		c = ColorWhite
	}
	tint[0] = float32(c.R)
	tint[1] = float32(c.G)
	tint[2] = float32(c.B)
	tint[3] = float32(c.A)
}

// BindPassMode selects base (ambient-only) or lighting shading.
func (u *UniformBinder) BindPassMode(mode PassMode) {
	if mode == PassLighting {
		u.m["PassMode"] = float32(1)
	} else {
		u.m["PassMode"] = float32(0)
	}
}

// BindBatch writes one pass's light slots. Empty slots are zeroed so stale
// values from a previous pass can never leak through.
func (u *UniformBinder) BindBatch(b *LightBatch) {
	for i := 0; i < PointSlots; i++ {
		u.bindPoint(i, b.Point[i])
	}
	for i := 0; i < SpotSlots; i++ {
		u.bindSpot(i, b.Spot[i])
	}
	for i := 0; i < DirectionalSlots; i++ {
		u.bindDirectional(i, b.Directional[i])
	}
}

func (u *UniformBinder) bindPoint(i int, l *Light) {
	if l == nil {
		zeroRange(u.pointPos[i*2 : i*2+2])
		zeroRange(u.pointColor[i*3 : i*3+3])
		u.pointIntensity[i] = 0
		u.pointRadius[i] = 0
		u.pointShadow[i] = 0
		zeroRange(u.pointMaskRect[i*4 : i*4+4])
		zeroRange(u.pointMaskXform[i*4 : i*4+4])
		return
	}
	u.pointPos[i*2] = float32(l.X)
	u.pointPos[i*2+1] = float32(l.Y)
	u.pointColor[i*3] = float32(l.Color.R)
	u.pointColor[i*3+1] = float32(l.Color.G)
	u.pointColor[i*3+2] = float32(l.Color.B)
	u.pointIntensity[i] = float32(l.effectiveIntensity())
	u.pointRadius[i] = float32(l.Radius)
	u.pointShadow[i] = boolUniform(l.CastsShadows)
	bindMask(u.pointMaskRect[i*4:i*4+4], u.pointMaskXform[i*4:i*4+4], l.Mask)
}

func (u *UniformBinder) bindSpot(i int, l *Light) {
	if l == nil {
		zeroRange(u.spotPos[i*2 : i*2+2])
		zeroRange(u.spotDir[i*2 : i*2+2])
		zeroRange(u.spotColor[i*3 : i*3+3])
		u.spotIntensity[i] = 0
		u.spotRadius[i] = 0
		u.spotCos[i] = 0
		u.spotSoftness[i] = 0
		u.spotShadow[i] = 0
		zeroRange(u.spotMaskRect[i*4 : i*4+4])
		zeroRange(u.spotMaskXform[i*4 : i*4+4])
		return
	}
	dx, dy := l.direction()
	u.spotPos[i*2] = float32(l.X)
	u.spotPos[i*2+1] = float32(l.Y)
	u.spotDir[i*2] = float32(dx)
	u.spotDir[i*2+1] = float32(dy)
	u.spotColor[i*3] = float32(l.Color.R)
	u.spotColor[i*3+1] = float32(l.Color.G)
	u.spotColor[i*3+2] = float32(l.Color.B)
	u.spotIntensity[i] = float32(l.effectiveIntensity())
	u.spotRadius[i] = float32(l.Radius)
	u.spotCos[i] = float32(math.Cos(l.ConeAngleDeg * math.Pi / 360)) // half-angle
	u.spotSoftness[i] = float32(clamp01(l.Softness))
	u.spotShadow[i] = boolUniform(l.CastsShadows)
	bindMask(u.spotMaskRect[i*4:i*4+4], u.spotMaskXform[i*4:i*4+4], l.Mask)
}

func (u *UniformBinder) bindDirectional(i int, l *Light) {
	if l == nil {
		zeroRange(u.dirDir[i*2 : i*2+2])
		zeroRange(u.dirColor[i*3 : i*3+3])
		u.dirIntensity[i] = 0
		u.dirShadow[i] = 0
		return
	}
	dx, dy := l.direction()
	u.dirDir[i*2] = float32(dx)
	u.dirDir[i*2+1] = float32(dy)
	u.dirColor[i*3] = float32(l.Color.R)
	u.dirColor[i*3+1] = float32(l.Color.G)
	u.dirColor[i*3+2] = float32(l.Color.B)
	u.dirIntensity[i] = float32(l.effectiveIntensity())
	u.dirShadow[i] = boolUniform(l.CastsShadows)
}

// bindMask writes a light's mask rect and transform. A zero mask writes
// rect width 0, which the shader reads as "no mask".
func bindMask(rect, xform []float32, m LightMask) {
	if m.IsZero() {
		zeroRange(rect)
		zeroRange(xform)
		return
	}
	rect[0] = float32(m.Region.X)
	rect[1] = float32(m.Region.Y)
	rect[2] = float32(m.Region.Width)
	rect[3] = float32(m.Region.Height)
	xform[0] = float32(m.OffsetX)
	xform[1] = float32(m.OffsetY)
	xform[2] = float32(m.Rotation)
	scale := m.Scale
	if scale == 0 {
		scale = 1
	}
	xform[3] = float32(scale)
}

func zeroRange(s []float32) {
	for i := range s {
		s[i] = 0
	}
}

func boolUniform(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
