package lumen

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/colorm"
)

// OccluderFilter narrows which casters participate in a rebuild.
type OccluderFilter struct {
	// ExcludeID removes one caster from the map, preventing a receiver from
	// occluding itself when the map is built for that receiver.
	ExcludeID string
	// MinZ, when ZFilter is set, keeps only casters whose ZOrder is at least
	// MinZ — the shadow hierarchy rule from the receiver's point of view.
	MinZ    int
	ZFilter bool
}

// admits reports whether the caster passes the filter.
func (f OccluderFilter) admits(c *ShadowCaster) bool {
	if !c.CastsShadows {
		return false
	}
	if f.ExcludeID != "" && c.ID == f.ExcludeID {
		return false
	}
	if f.ZFilter && c.ZOrder < f.MinZ {
		return false
	}
	return true
}

// OccluderMapBuilder renders shadow-caster silhouettes into a margin-padded
// offscreen buffer so the lighting shader can sample occlusion at any screen
// point without per-light-per-caster geometry. The margin keeps casters and
// lights that sit just off-canvas contributing to on-canvas shadows.
//
// The map is dirty-tracked: a rebuild happens only when the caster set
// (identity, transform, or z-order) changes, never per-frame.
type OccluderMapBuilder struct {
	rt      *RenderTexture
	canvasW int
	canvasH int
	margin  int

	dirty      bool
	lastSigs   []casterSignature
	lastFilter OccluderFilter

	rebuilds int // total rebuild count, exposed for telemetry and tests

	imgOp colorm.DrawImageOptions
}

// blendMax keeps the highest encoded caster z where silhouettes overlap, so
// the shader always compares against the topmost occluder at a texel.
var blendMax = ebiten.Blend{
	BlendFactorSourceRGB:        ebiten.BlendFactorOne,
	BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
	BlendFactorDestinationRGB:   ebiten.BlendFactorOne,
	BlendFactorDestinationAlpha: ebiten.BlendFactorOne,
	BlendOperationRGB:           ebiten.BlendOperationMax,
	BlendOperationAlpha:         ebiten.BlendOperationMax,
}

// NewOccluderMapBuilder creates a builder for the given canvas size. The
// underlying buffer is canvas + 2*margin on each axis.
func NewOccluderMapBuilder(canvasW, canvasH, margin int) *OccluderMapBuilder {
	if margin < 0 {
		margin = 0
	}
	return &OccluderMapBuilder{
		rt:      NewRenderTexture(canvasW+2*margin, canvasH+2*margin),
		canvasW: canvasW,
		canvasH: canvasH,
		margin:  margin,
		dirty:   true,
	}
}

// Margin returns the spatial buffer margin in pixels.
func (b *OccluderMapBuilder) Margin() int {
	return b.margin
}

// Offset returns the translation from canvas space to occluder-map space,
// bound as a shader uniform alongside the map texture.
func (b *OccluderMapBuilder) Offset() Vec2 {
	return Vec2{X: float64(b.margin), Y: float64(b.margin)}
}

// Map returns the current occluder texture without rebuilding.
// Valid (possibly stale or empty) even before the first Rebuild.
func (b *OccluderMapBuilder) Map() *ebiten.Image {
	return b.rt.Image()
}

// Rebuilds returns how many times the buffer has been redrawn.
func (b *OccluderMapBuilder) Rebuilds() int {
	return b.rebuilds
}

// MarkDirty forces a rebuild on the next Sync.
func (b *OccluderMapBuilder) MarkDirty() {
	b.dirty = true
}

// Resize adjusts the canvas size and margin, reallocating the buffer.
// Marks the map dirty.
func (b *OccluderMapBuilder) Resize(canvasW, canvasH, margin int) {
	if margin < 0 {
		margin = 0
	}
	b.canvasW = canvasW
	b.canvasH = canvasH
	b.margin = margin
	b.rt.Resize(canvasW+2*margin, canvasH+2*margin)
	b.dirty = true
}

// Sync rebuilds the map if and only if the filtered caster set differs from
// the one the map was last built from. Returns the map texture and whether a
// rebuild happened. This is the per-frame entry point: calling it every
// frame costs a signature comparison, not a redraw.
func (b *OccluderMapBuilder) Sync(casters []ShadowCaster, filter OccluderFilter) (*ebiten.Image, bool) {
	if !b.dirty && filter == b.lastFilter && !b.castersChanged(casters, filter) {
		return b.rt.Image(), false
	}
	return b.Rebuild(casters, filter), true
}

// castersChanged compares the admitted casters' signatures to those of the
// last rebuild.
func (b *OccluderMapBuilder) castersChanged(casters []ShadowCaster, filter OccluderFilter) bool {
	n := 0
	for i := range casters {
		if !filter.admits(&casters[i]) {
			continue
		}
		if n >= len(b.lastSigs) || casters[i].signature() != b.lastSigs[n] {
			return true
		}
		n++
	}
	return n != len(b.lastSigs)
}

// Rebuild unconditionally redraws every admitted caster's silhouette into
// the margin-offset buffer and returns the texture. Zero admitted casters
// yield a valid, fully transparent texture.
//
// Each silhouette takes its shape from the caster sprite's texture alpha;
// rotation is applied through the draw transform so the quad geometry is
// reused as-is per caster. The red channel carries the caster's encoded
// z-order (max-blended across overlaps) for the shader's hierarchy test.
func (b *OccluderMapBuilder) Rebuild(casters []ShadowCaster, filter OccluderFilter) *ebiten.Image {
	b.rt.Clear()
	b.lastSigs = b.lastSigs[:0]
	b.lastFilter = filter

	for i := range casters {
		c := &casters[i]
		if !filter.admits(c) {
			continue
		}
		b.drawSilhouette(c)
		b.lastSigs = append(b.lastSigs, c.signature())
	}

	b.dirty = false
	b.rebuilds++
	return b.rt.Image()
}

// drawSilhouette draws one caster's sprite into the buffer with the margin
// offset applied. A caster whose sprite texture has not loaded renders as a
// solid white quad placeholder of the same footprint.
func (b *OccluderMapBuilder) drawSilhouette(c *ShadowCaster) {
	s := c.sprite
	if s == nil {
		return
	}

	img := s.drawImage()
	ib := img.Bounds()
	w, h := s.size()

	op := &b.imgOp
	op.GeoM.Reset()

	// Texture space -> quad space -> caster transform -> margin offset.
	op.GeoM.Scale(w/float64(ib.Dx()), h/float64(ib.Dy()))
	op.GeoM.Translate(-s.PivotX, -s.PivotY)
	sx, sy := s.ScaleX, s.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	op.GeoM.Scale(sx, sy)
	if s.Rotation != 0 {
		op.GeoM.Rotate(s.Rotation)
	}
	op.GeoM.Translate(s.X+float64(b.margin), s.Y+float64(b.margin))
	op.Blend = blendMax

	// Alpha carries coverage; red carries the caster's encoded z-order so
	// receivers above this caster can reject its occlusion in the shader.
	var cm colorm.ColorM
	cm.Scale(0, 0, 0, 1)
	cm.SetElement(0, 3, encodeZ(c.ZOrder))
	colorm.DrawImage(b.rt.Image(), img, cm, op)
}

// Dispose releases the offscreen buffer.
func (b *OccluderMapBuilder) Dispose() {
	if b.rt != nil {
		b.rt.Dispose()
		b.rt = nil
	}
	b.lastSigs = nil
}
