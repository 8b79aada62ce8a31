package lumen

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// StatusKind classifies a status signal from the compositor.
type StatusKind uint8

const (
	// StatusRecoverable marks a degraded frame (skipped pass, placeholder
	// texture, missing target). The compositor continues.
	StatusRecoverable StatusKind = iota
	// StatusTerminal marks an unrecoverable backend failure. The compositor
	// renders placeholder frames from then on.
	StatusTerminal
)

// StatusEvent is delivered to the status callback when the compositor
// absorbs a failure.
type StatusEvent struct {
	Kind    StatusKind
	Message string
}

// FrameReport is the per-frame telemetry record: which strategy ran, the
// exact pass sequence, and what the change tracker saw.
type FrameReport struct {
	// Mode is the resolved strategy (RenderSinglePass or RenderMultiPass).
	Mode RenderMode
	// Passes is the executed pass sequence in order.
	Passes []PassMode
	// LightsPerPass holds the active light count of each lighting pass, in
	// pass order.
	LightsPerPass []int
	// OccluderRebuilt reports whether the occluder map was redrawn.
	OccluderRebuilt bool
	// Dirty is the change bitmask the frame consumed.
	Dirty DirtyFlags
	// Skipped is set when the frame no-opped (missing target).
	Skipped bool
}

// defaultOccluderMargin is the spatial buffer around the canvas so casters
// and lights just off-screen still occlude on-screen pixels.
const defaultOccluderMargin = 128

// Compositor owns the accumulation render target and the occluder map and
// executes the per-frame pass state machine:
//
//	Idle -> BasePass -> LightingPass(0..N-1) -> Display -> Idle
//
// The base pass clears the accumulation target and renders every sprite
// ambient-only with normal blending. Each lighting pass rebinds one light
// batch and renders the sprites additively into the same target without
// clearing. Display blits the accumulated result to the screen. When the
// whole light list fits one batch, the round-trip is skipped and the passes
// render directly to the screen (identical output modulo floating-point
// accumulation order).
type Compositor struct {
	canvasW int
	canvasH int

	accum    *RenderTexture
	pool     renderTexturePool
	occluder *OccluderMapBuilder
	binder   *UniformBinder

	prev    stateSnapshot
	casters []ShadowCaster
	sorted  []*Sprite

	report   FrameReport
	onStatus func(StatusEvent)
	terminal bool

	debug bool

	shaderOp ebiten.DrawTrianglesShaderOptions
	quad     [4]ebiten.Vertex
	imgOp    ebiten.DrawImageOptions
}

// quadIndices is the fixed index list for a sprite quad.
var quadIndices = [6]uint16{0, 1, 2, 0, 2, 3}

// NewCompositor creates a compositor for the given canvas size.
func NewCompositor(canvasW, canvasH int) *Compositor {
	return &Compositor{
		canvasW:  canvasW,
		canvasH:  canvasH,
		accum:    NewRenderTexture(canvasW, canvasH),
		occluder: NewOccluderMapBuilder(canvasW, canvasH, defaultOccluderMargin),
		binder:   NewUniformBinder(),
	}
}

// SetStatusFunc registers the observability callback for absorbed failures.
func (c *Compositor) SetStatusFunc(fn func(StatusEvent)) {
	c.onStatus = fn
}

// SetDebugMode enables per-frame timing stats on stderr.
func (c *Compositor) SetDebugMode(enabled bool) {
	c.debug = enabled
}

// Occluder exposes the occluder map builder (read-only use: offset, map,
// rebuild count). The compositor remains its only writer.
func (c *Compositor) Occluder() *OccluderMapBuilder {
	return c.occluder
}

// Report returns the last frame's telemetry.
func (c *Compositor) Report() FrameReport {
	return c.report
}

// Resize adjusts the canvas size; render targets are reallocated and the
// occluder map marked dirty.
func (c *Compositor) Resize(canvasW, canvasH int) {
	c.canvasW = canvasW
	c.canvasH = canvasH
	if c.accum != nil {
		c.accum.Resize(canvasW, canvasH)
	}
	c.occluder.Resize(canvasW, canvasH, c.occluder.Margin())
	c.prev.valid = false
}

// signal reports an absorbed failure to the status callback.
func (c *Compositor) signal(kind StatusKind, msg string) {
	if kind == StatusTerminal {
		c.terminal = true
	}
	if c.onStatus != nil {
		c.onStatus(StatusEvent{Kind: kind, Message: msg})
	}
}

// Frame runs one full frame: drain the command queue, diff inputs, rebuild
// the occluder map if the caster set changed, and execute the pass sequence
// onto screen. A nil screen executes everything except the display blit
// (headless operation).
func (c *Compositor) Frame(rs *RenderState, screen *ebiten.Image) FrameReport {
	var t0 time.Time
	if c.debug {
		t0 = time.Now()
	}

	c.report = FrameReport{}

	if c.terminal {
		c.report.Skipped = true
		if screen != nil {
			screen.Fill(colorRGBA{A: 255})
		}
		return c.report
	}

	rs.ApplyCommands()

	// Derive shadow casters from the sprite list. Invisible sprites still
	// occlude; only the CastsShadows flag gates participation.
	c.casters = c.casters[:0]
	for _, s := range rs.Sprites {
		if s != nil && s.CastsShadows {
			c.casters = append(c.casters, DeriveCaster(s))
		}
	}

	dirty := diffState(&c.prev, rs, c.casters, c.canvasW, c.canvasH)
	c.report.Dirty = dirty

	perf := rs.Perf
	if perf == nil {
		perf = NewPerformanceSettings(QualityHigh)
	}

	batches := AllocateSlots(rs.Lights, perf.MaxLights)

	// Occluder rebuild, if needed, must precede every pass that samples the
	// map: the lighting passes ray-march it for shadows and the base pass
	// ring-samples it for AO, so either effect being on keeps it current.
	//
	// One shared map serves every receiver: the silhouette's red channel
	// carries each caster's encoded z-order and the shader compares it
	// against the receiver sprite's z per draw, so the hierarchy rule holds
	// without per-receiver rebuilds. Self-occlusion is absorbed by the
	// shadow ray's start bias rather than an ExcludeID rebuild per sprite.
	occluderMap := c.occluder.Map()
	needShadows := perf.EnableShadows && rs.Shadow.Enabled
	needAO := perf.EnableAO && rs.AO.Enabled
	if needShadows || needAO {
		if dirty.Has(DirtyCasters) || dirty.Has(DirtyCanvas) {
			c.occluder.MarkDirty()
		}
		var rebuilt bool
		occluderMap, rebuilt = c.occluder.Sync(c.casters, OccluderFilter{})
		c.report.OccluderRebuilt = rebuilt
	}

	c.binder.BindFrame(c.canvasW, c.canvasH, rs.Ambient, rs.Shadow, rs.AO,
		c.occluder.Offset(), occluderMap.Bounds().Dx(), occluderMap.Bounds().Dy(), perf,
		rs.MaskPage != nil)

	mode := rs.Mode
	if mode == RenderAuto {
		if fitsSinglePass(batches, rs.Lights) {
			mode = RenderSinglePass
		} else {
			mode = RenderMultiPass
		}
	}
	c.report.Mode = mode

	// Forced single-pass means one lighting pass: surplus batches are
	// truncated, not accumulated.
	if mode == RenderSinglePass && len(batches) > 1 {
		batches = batches[:1]
	}

	c.sortSprites(rs.Sprites)

	switch mode {
	case RenderSinglePass:
		c.runSinglePass(rs, batches, occluderMap, perf, screen)
	default:
		c.runMultiPass(rs, batches, occluderMap, perf, screen)
	}

	// Flags are consumed exactly once per actual change: snapshot now so the
	// next diff starts clean.
	c.prev.capture(rs, c.casters, c.canvasW, c.canvasH)

	if c.debug {
		c.debugLogFrame(time.Since(t0))
	}
	return c.report
}

// sortSprites rebuilds the z-ordered draw list. Stable insertion sort:
// zero allocations after warmup and O(n) for the nearly sorted common case.
func (c *Compositor) sortSprites(sprites []*Sprite) {
	c.sorted = c.sorted[:0]
	for _, s := range sprites {
		if s != nil && s.Visible {
			c.sorted = append(c.sorted, s)
		}
	}
	for i := 1; i < len(c.sorted); i++ {
		key := c.sorted[i]
		j := i - 1
		for j >= 0 && c.sorted[j].ZOrder > key.ZOrder {
			c.sorted[j+1] = c.sorted[j]
			j--
		}
		c.sorted[j+1] = key
	}
}

// runMultiPass executes base + N lighting passes into the accumulation
// target, then displays it.
func (c *Compositor) runMultiPass(rs *RenderState, batches []LightBatch, occluderMap *ebiten.Image, perf *PerformanceSettings, screen *ebiten.Image) {
	if c.accum == nil || c.accum.Image() == nil {
		// ResourceNotReady: skip the whole frame rather than erroring.
		c.report.Skipped = true
		c.signal(StatusRecoverable, "accumulation target unavailable, frame skipped")
		return
	}

	scale := perf.effectiveResolutionScale()
	tw := scaledDim(c.canvasW, scale)
	th := scaledDim(c.canvasH, scale)
	c.accum.Resize(tw, th)
	target := c.accum.Image()

	c.executePasses(rs, batches, occluderMap, perf, target, scale)

	if screen != nil {
		c.report.Passes = append(c.report.Passes, PassDisplay)
		op := &c.imgOp
		op.GeoM.Reset()
		op.ColorScale.Reset()
		if scale != 1 {
			op.GeoM.Scale(1/scale, 1/scale)
		}
		op.Blend = BlendNormal.EbitenBlend()
		screen.DrawImage(target, op)
	}
}

// runSinglePass renders base + at most one lighting pass directly to the
// screen, skipping the accumulation round-trip. Output matches multi-pass
// modulo floating-point accumulation order.
func (c *Compositor) runSinglePass(rs *RenderState, batches []LightBatch, occluderMap *ebiten.Image, perf *PerformanceSettings, screen *ebiten.Image) {
	scale := perf.effectiveResolutionScale()

	if screen == nil {
		// Headless: nothing to composite onto.
		c.report.Skipped = true
		return
	}

	if scale == 1 {
		c.executePasses(rs, batches, occluderMap, perf, screen, 1)
		return
	}

	// Reduced resolution still needs one scratch target, but it comes from
	// the pool rather than the persistent accumulation texture.
	tw := scaledDim(c.canvasW, scale)
	th := scaledDim(c.canvasH, scale)
	scratch := c.pool.Acquire(tw, th)
	c.executePasses(rs, batches, occluderMap, perf, scratch, scale)

	c.report.Passes = append(c.report.Passes, PassDisplay)
	op := &c.imgOp
	op.GeoM.Reset()
	op.ColorScale.Reset()
	op.GeoM.Scale(1/scale, 1/scale)
	op.Blend = BlendNormal.EbitenBlend()
	screen.DrawImage(scratch, op)
	c.pool.Release(scratch)
}

// executePasses runs the base pass and every non-empty lighting pass onto
// the target. Only the base pass clears; additive passes never do.
func (c *Compositor) executePasses(rs *RenderState, batches []LightBatch, occluderMap *ebiten.Image, perf *PerformanceSettings, target *ebiten.Image, scale float64) {
	// BasePass: clear, ambient-only, normal blending.
	target.Clear()
	c.report.Passes = append(c.report.Passes, PassBase)
	c.binder.BindPassMode(PassBase)
	for _, s := range c.sorted {
		c.drawSprite(target, s, rs, occluderMap, scale)
	}

	// Geometric fallback: when the occluder-map path is off but shadows are
	// wanted, project analytic volumes from the primary light after the
	// base pass.
	if rs.Shadow.Enabled && !perf.EnableShadows {
		c.drawFallbackShadows(target, rs, scale)
	}

	// LightingPass(i): additive, never clears.
	for bi := range batches {
		b := &batches[bi]
		active := activeLightCount(b)
		if active == 0 {
			// Zero active lights: skip the pass entirely.
			continue
		}
		c.report.Passes = append(c.report.Passes, PassLighting)
		c.report.LightsPerPass = append(c.report.LightsPerPass, active)
		c.binder.BindPassMode(PassLighting)
		c.binder.BindBatch(b)
		for _, s := range c.sorted {
			c.drawSpriteAdditive(target, s, rs, occluderMap, scale)
		}
	}
}

// activeLightCount counts slots contributing non-zero light.
func activeLightCount(b *LightBatch) int {
	n := 0
	for _, l := range b.Point {
		if l != nil && l.effectiveIntensity() > 0 {
			n++
		}
	}
	for _, l := range b.Spot {
		if l != nil && l.effectiveIntensity() > 0 {
			n++
		}
	}
	for _, l := range b.Directional {
		if l != nil && l.effectiveIntensity() > 0 {
			n++
		}
	}
	return n
}

// drawFallbackShadows renders analytic shadow volumes for the strongest
// enabled positional light.
func (c *Compositor) drawFallbackShadows(target *ebiten.Image, rs *RenderState, scale float64) {
	var primary *Light
	for _, l := range rs.Lights {
		if l == nil || !l.Enabled || l.Kind == LightDirectional {
			continue
		}
		if primary == nil || l.effectiveIntensity() > primary.effectiveIntensity() {
			primary = l
		}
	}
	if primary == nil || !primary.CastsShadows {
		return
	}
	length := rs.Shadow.MaxLength
	if length <= 0 {
		length = float64(maxInt(c.canvasW, c.canvasH))
	}
	shadeLevel := 1 - clamp01(rs.Shadow.Strength)
	shade := Color{R: shadeLevel, G: shadeLevel, B: shadeLevel, A: 1}
	for i := range c.casters {
		caster := scaleCasterCorners(c.casters[i], scale)
		DrawShadowVolume(target, &caster, primary.X*scale, primary.Y*scale, length*scale, shade)
	}
}

// scaleCasterCorners maps a caster's silhouette into the scaled target's
// coordinate space. Sprite draws apply the resolution scale through their
// transform; volumes must land on the same pixels.
func scaleCasterCorners(c ShadowCaster, scale float64) ShadowCaster {
	if scale == 1 {
		return c
	}
	for i := range c.WorldCorners {
		c.WorldCorners[i] = c.WorldCorners[i].Mul(scale)
	}
	return c
}

// drawSprite renders one sprite through the lighting shader with normal
// blending (base pass).
func (c *Compositor) drawSprite(target *ebiten.Image, s *Sprite, rs *RenderState, occluderMap *ebiten.Image, scale float64) {
	c.drawSpriteBlend(target, s, rs, occluderMap, scale, BlendNormal)
}

// drawSpriteAdditive renders one sprite through the lighting shader with
// additive blending (lighting pass).
func (c *Compositor) drawSpriteAdditive(target *ebiten.Image, s *Sprite, rs *RenderState, occluderMap *ebiten.Image, scale float64) {
	c.drawSpriteBlend(target, s, rs, occluderMap, scale, BlendAdd)
}

// drawSpriteBlend submits one sprite quad through the lighting shader.
// DrawTrianglesShader rather than DrawRectShader: the four source images
// (diffuse, normal, occluder map, mask page) are different sizes, which the
// rect variant rejects.
func (c *Compositor) drawSpriteBlend(target *ebiten.Image, s *Sprite, rs *RenderState, occluderMap *ebiten.Image, scale float64, blend BlendMode) {
	img := s.drawImage()
	ib := img.Bounds()
	w, h := s.size()

	c.binder.BindSprite(s)

	var g ebiten.GeoM
	g.Scale(w/float64(ib.Dx()), h/float64(ib.Dy()))
	g.Translate(-s.PivotX, -s.PivotY)
	sx, sy := s.ScaleX, s.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	g.Scale(sx, sy)
	if s.Rotation != 0 {
		g.Rotate(s.Rotation)
	}
	g.Translate(s.X, s.Y)
	if scale != 1 {
		g.Scale(scale, scale)
	}

	// Quad corners in source texel space, pushed through the transform.
	tw, th := float64(ib.Dx()), float64(ib.Dy())
	corners := [4][2]float64{{0, 0}, {tw, 0}, {tw, th}, {0, th}}
	for i, p := range corners {
		dx, dy := g.Apply(p[0], p[1])
		c.quad[i] = ebiten.Vertex{
			DstX: float32(dx), DstY: float32(dy),
			SrcX: float32(ib.Min.X) + float32(p[0]),
			SrcY: float32(ib.Min.Y) + float32(p[1]),
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		}
	}

	maskPage := rs.MaskPage
	if maskPage == nil {
		maskPage = ensureWhitePixel()
	}

	op := &c.shaderOp
	op.Images[0] = img
	op.Images[1] = s.normalImage()
	op.Images[2] = occluderMap
	op.Images[3] = maskPage
	op.Uniforms = c.binder.Uniforms()
	op.Blend = blend.EbitenBlend()

	target.DrawTrianglesShader(c.quad[:], quadIndices[:], ensureLightingShader(), op)
}

// scaledDim applies the resolution scale to a canvas dimension, with a
// 1-pixel floor.
func scaledDim(dim int, scale float64) int {
	d := int(float64(dim) * scale)
	if d < 1 {
		return 1
	}
	return d
}

// Dispose releases the compositor's render targets.
func (c *Compositor) Dispose() {
	if c.accum != nil {
		c.accum.Dispose()
		c.accum = nil
	}
	if c.occluder != nil {
		c.occluder.Dispose()
	}
}
