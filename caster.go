package lumen

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// ShadowCaster is the canonical per-sprite occluder model: the sprite's
// silhouette quad in canvas space plus the fields the shadow hierarchy
// needs. Derived from a Sprite once per frame (or on change) by DeriveCaster.
type ShadowCaster struct {
	// ID matches the source sprite's ID. Used for self-exclusion.
	ID string
	// WorldCorners are the silhouette quad corners in canvas space, in
	// top-left, top-right, bottom-right, bottom-left order.
	WorldCorners [4]mgl64.Vec2
	// ZOrder is the shadow-hierarchy layer. A caster occludes a receiver
	// only when receiver.ZOrder <= caster.ZOrder.
	ZOrder int
	// CastsShadows gates participation in the occluder map.
	CastsShadows bool

	sprite *Sprite // source sprite, for silhouette rendering
}

// DeriveCaster builds the shadow-caster model for a sprite.
// The silhouette quad is the sprite's untransformed rect pushed through its
// full transform, so rotation, scale, and pivot all shape the shadow.
func DeriveCaster(s *Sprite) ShadowCaster {
	w, h := s.size()
	m := s.transform()

	var c ShadowCaster
	c.ID = s.ID
	c.ZOrder = s.ZOrder
	c.CastsShadows = s.CastsShadows
	c.sprite = s

	corners := [4][2]float64{{0, 0}, {w, 0}, {w, h}, {0, h}}
	for i, p := range corners {
		x, y := transformPoint(m, p[0], p[1])
		c.WorldCorners[i] = mgl64.Vec2{x, y}
	}
	return c
}

// Occludes reports whether this caster may shadow a receiver at the given
// z-order under the shadow hierarchy rule.
func (c *ShadowCaster) Occludes(receiverZ int) bool {
	return c.CastsShadows && receiverZ <= c.ZOrder
}

// Bounds returns the axis-aligned bounding rect of the silhouette quad.
func (c *ShadowCaster) Bounds() Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range c.WorldCorners {
		minX = math.Min(minX, p.X())
		minY = math.Min(minY, p.Y())
		maxX = math.Max(maxX, p.X())
		maxY = math.Max(maxY, p.Y())
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Centroid returns the silhouette quad center, used by the shadow volume
// fallback to orient projection.
func (c *ShadowCaster) Centroid() mgl64.Vec2 {
	var sum mgl64.Vec2
	for _, p := range c.WorldCorners {
		sum = sum.Add(p)
	}
	return sum.Mul(0.25)
}

// signature folds the fields that affect occlusion into a comparable value.
// Two casters with equal signatures produce identical occluder-map output,
// which is what drives the rebuild-on-change dirty flag. Texture identity is
// part of the signature: a sprite whose image arrives after its first frame
// (async load, placeholder until then) must re-render its silhouette.
type casterSignature struct {
	id           string
	corners      [4]mgl64.Vec2
	zOrder       int
	castsShadows bool
	image        *ebiten.Image
}

func (c ShadowCaster) signature() casterSignature {
	sig := casterSignature{
		id:           c.ID,
		corners:      c.WorldCorners,
		zOrder:       c.ZOrder,
		castsShadows: c.CastsShadows,
	}
	if c.sprite != nil {
		sig.image = c.sprite.Image
	}
	return sig
}

// encodeZ maps a z-order onto the occluder map's red channel so the shader
// can compare caster and receiver layers per fragment. Comparisons are exact
// for z in [-128, 127]; values outside that range clamp.
func encodeZ(z int) float64 {
	return float64(clampInt(z+128, 0, 255)) / 255
}
