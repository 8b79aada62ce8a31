package lumen

import "github.com/hajimehoshi/ebiten/v2"

// RenderState is the explicit per-frame input record: everything the
// compositor consumes, owned by the caller and passed by reference into
// Frame. Mutations from UI or gameplay code go through the command queue
// rather than cross-cutting writes mid-frame.
type RenderState struct {
	// Sprites is the scene's draw list. Order is the base draw order within
	// equal ZOrder.
	Sprites []*Sprite
	// Lights is the full light list, enabled or not.
	Lights []*Light
	// Ambient is the base-pass light.
	Ambient Ambient
	// Shadow and AO configure the occlusion effects.
	Shadow ShadowConfig
	// AO configures screen-space ambient occlusion.
	AO AOConfig
	// Perf is the live quality record (see AdaptiveQualityController).
	Perf *PerformanceSettings
	// MaskPage is the atlas page sampled for light masks. Nil disables masks
	// for the frame regardless of per-light settings.
	MaskPage *ebiten.Image
	// Mode selects the compositing strategy (default RenderAuto).
	Mode RenderMode

	queue []Command
}

// Command is a deferred mutation of the render state, applied at the start
// of the next frame. Routing edits through commands keeps mid-frame state
// immutable and makes live parameter edits deterministic.
type Command interface {
	apply(*RenderState)
}

// Enqueue appends a command for the next frame.
func (rs *RenderState) Enqueue(cmd Command) {
	rs.queue = append(rs.queue, cmd)
}

// ApplyCommands drains the queue in order. The compositor calls this at
// frame start; tests may call it directly.
func (rs *RenderState) ApplyCommands() {
	for _, cmd := range rs.queue {
		cmd.apply(rs)
	}
	rs.queue = rs.queue[:0]
}

// findLight returns the light with the given ID, or nil.
func (rs *RenderState) findLight(id string) *Light {
	for _, l := range rs.Lights {
		if l != nil && l.ID == id {
			return l
		}
	}
	return nil
}

// findSprite returns the sprite with the given ID, or nil.
func (rs *RenderState) findSprite(id string) *Sprite {
	for _, s := range rs.Sprites {
		if s != nil && s.ID == id {
			return s
		}
	}
	return nil
}

// SetLightIntensity sets a light's intensity by ID.
type SetLightIntensity struct {
	ID        string
	Intensity float64
}

func (c SetLightIntensity) apply(rs *RenderState) {
	if l := rs.findLight(c.ID); l != nil {
		l.Intensity = c.Intensity
	}
}

// SetLightEnabled toggles a light by ID. The light stays slot-resident; only
// its effective intensity changes.
type SetLightEnabled struct {
	ID      string
	Enabled bool
}

func (c SetLightEnabled) apply(rs *RenderState) {
	if l := rs.findLight(c.ID); l != nil {
		l.Enabled = c.Enabled
	}
}

// MoveLight repositions a light by ID.
type MoveLight struct {
	ID   string
	X, Y float64
}

func (c MoveLight) apply(rs *RenderState) {
	if l := rs.findLight(c.ID); l != nil {
		l.X = c.X
		l.Y = c.Y
	}
}

// MoveSprite repositions a sprite by ID.
type MoveSprite struct {
	ID   string
	X, Y float64
}

func (c MoveSprite) apply(rs *RenderState) {
	if s := rs.findSprite(c.ID); s != nil {
		s.X = c.X
		s.Y = c.Y
	}
}

// SetAmbient replaces the ambient light.
type SetAmbient struct {
	Ambient Ambient
}

func (c SetAmbient) apply(rs *RenderState) {
	rs.Ambient = c.Ambient
}

// --- Change tracking ---

// DirtyFlags is the change-tracking bitmask computed by diffing this frame's
// input against the previous frame's snapshot.
type DirtyFlags uint16

const (
	DirtyLights DirtyFlags = 1 << iota
	DirtyCasters
	DirtySprites
	DirtyAmbient
	DirtyShadowConfig
	DirtyAOConfig
	DirtyPerformance
	DirtyCanvas
)

// Has reports whether all the given flags are set.
func (d DirtyFlags) Has(f DirtyFlags) bool {
	return d&f == f
}

// stateSnapshot caches the comparable projection of one frame's input.
type stateSnapshot struct {
	lights  []Light
	casters []casterSignature
	sprites []spriteSnapshot
	ambient Ambient
	shadow  ShadowConfig
	ao      AOConfig
	perf    PerformanceSettings
	canvasW int
	canvasH int
	valid   bool
}

// spriteSnapshot captures the draw-relevant sprite fields. Texture pointers
// are included so an image arriving after a placeholder frame (async load)
// registers as a change.
type spriteSnapshot struct {
	id       string
	x, y     float64
	rotation float64
	sx, sy   float64
	px, py   float64
	w, h     float64
	zOrder   int
	visible  bool
	color    Color
	img      *ebiten.Image
	normal   *ebiten.Image
}

func snapshotSprite(s *Sprite) spriteSnapshot {
	return spriteSnapshot{
		id: s.ID, x: s.X, y: s.Y, rotation: s.Rotation,
		sx: s.ScaleX, sy: s.ScaleY, px: s.PivotX, py: s.PivotY,
		w: s.Width, h: s.Height, zOrder: s.ZOrder,
		visible: s.Visible, color: s.Color,
		img: s.Image, normal: s.NormalImage,
	}
}

// capture overwrites the snapshot in place from current inputs.
func (snap *stateSnapshot) capture(rs *RenderState, casters []ShadowCaster, canvasW, canvasH int) {
	snap.lights = snap.lights[:0]
	for _, l := range rs.Lights {
		if l != nil {
			snap.lights = append(snap.lights, *l)
		}
	}
	snap.casters = snap.casters[:0]
	for i := range casters {
		snap.casters = append(snap.casters, casters[i].signature())
	}
	snap.sprites = snap.sprites[:0]
	for _, s := range rs.Sprites {
		if s != nil {
			snap.sprites = append(snap.sprites, snapshotSprite(s))
		}
	}
	snap.ambient = rs.Ambient
	snap.shadow = rs.Shadow
	snap.ao = rs.AO
	if rs.Perf != nil {
		snap.perf = *rs.Perf
	} else {
		snap.perf = PerformanceSettings{}
	}
	snap.canvasW = canvasW
	snap.canvasH = canvasH
	snap.valid = true
}

// diffState compares the previous snapshot against this frame's inputs and
// returns the dirty bitmask. Pure: no state is mutated. An invalid (first
// frame) snapshot reports everything dirty.
func diffState(prev *stateSnapshot, rs *RenderState, casters []ShadowCaster, canvasW, canvasH int) DirtyFlags {
	if prev == nil || !prev.valid {
		return DirtyLights | DirtyCasters | DirtySprites | DirtyAmbient |
			DirtyShadowConfig | DirtyAOConfig | DirtyPerformance | DirtyCanvas
	}

	var d DirtyFlags

	n := 0
	for _, l := range rs.Lights {
		if l == nil {
			continue
		}
		if n >= len(prev.lights) || *l != prev.lights[n] {
			d |= DirtyLights
			break
		}
		n++
	}
	if d&DirtyLights == 0 && n != len(prev.lights) {
		d |= DirtyLights
	}

	if len(casters) != len(prev.casters) {
		d |= DirtyCasters
	} else {
		for i := range casters {
			if casters[i].signature() != prev.casters[i] {
				d |= DirtyCasters
				break
			}
		}
	}

	n = 0
	for _, s := range rs.Sprites {
		if s == nil {
			continue
		}
		if n >= len(prev.sprites) || snapshotSprite(s) != prev.sprites[n] {
			d |= DirtySprites
			break
		}
		n++
	}
	if d&DirtySprites == 0 && n != len(prev.sprites) {
		d |= DirtySprites
	}

	if rs.Ambient != prev.ambient {
		d |= DirtyAmbient
	}
	if rs.Shadow != prev.shadow {
		d |= DirtyShadowConfig
	}
	if rs.AO != prev.ao {
		d |= DirtyAOConfig
	}
	perf := PerformanceSettings{}
	if rs.Perf != nil {
		perf = *rs.Perf
	}
	if perf != prev.perf {
		d |= DirtyPerformance
	}
	if canvasW != prev.canvasW || canvasH != prev.canvasH {
		d |= DirtyCanvas
	}
	return d
}
