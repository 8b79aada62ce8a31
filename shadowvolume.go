package lumen

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// degenerateEpsilon is the minimum light-to-corner distance for projection.
// Below it the corner is reused unmodified, preventing NaN when a light sits
// exactly on a caster corner.
const degenerateEpsilon = 1e-6

// ShadowVolume is the quad geometry formed by projecting a caster's
// silhouette corners away from a light. Four side quads (eight triangles)
// connect each original edge to its projected counterpart.
type ShadowVolume struct {
	// Near holds the original silhouette corners.
	Near [4]mgl64.Vec2
	// Far holds the corners projected away from the light.
	Far [4]mgl64.Vec2
}

// ProjectShadowVolume projects the caster corners away from the light
// position by shadowLength pixels.
//
// For each corner the projection direction is (corner - light), normalized.
// A corner closer to the light than degenerateEpsilon is kept unmodified
// rather than projected.
func ProjectShadowVolume(corners [4]mgl64.Vec2, light mgl64.Vec2, shadowLength float64) ShadowVolume {
	v := ShadowVolume{Near: corners}
	for i, c := range corners {
		d := c.Sub(light)
		dist := d.Len()
		if dist < degenerateEpsilon {
			v.Far[i] = c
			continue
		}
		v.Far[i] = c.Add(d.Mul(shadowLength / dist))
	}
	return v
}

// Mesh converts the volume into an ebiten triangle list: one quad per
// silhouette edge, near edge to far edge, 8 triangles total. The vertices
// reference the 1x1 white pixel so the mesh renders as a solid tint.
func (v *ShadowVolume) Mesh(shade Color) ([]ebiten.Vertex, []uint16) {
	// Vertex layout: 0..3 near corners, 4..7 far corners.
	verts := make([]ebiten.Vertex, 8)
	cr := float32(shade.R * shade.A)
	cg := float32(shade.G * shade.A)
	cb := float32(shade.B * shade.A)
	ca := float32(shade.A)
	for i := 0; i < 4; i++ {
		verts[i] = ebiten.Vertex{
			DstX: float32(v.Near[i].X()), DstY: float32(v.Near[i].Y()),
			SrcX: 0.5, SrcY: 0.5,
			ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca,
		}
		verts[i+4] = ebiten.Vertex{
			DstX: float32(v.Far[i].X()), DstY: float32(v.Far[i].Y()),
			SrcX: 0.5, SrcY: 0.5,
			ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca,
		}
	}

	// Each edge (i, j) forms the quad (near_i, near_j, far_j, far_i).
	indices := make([]uint16, 0, 24)
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		ni, nj := uint16(i), uint16(j)
		fi, fj := uint16(i+4), uint16(j+4)
		indices = append(indices, ni, nj, fj, ni, fj, fi)
	}
	return verts, indices
}

// DrawShadowVolume renders a caster's projected shadow directly onto the
// target. This is the geometric fallback path used when the occluder-map
// shadow mode is unavailable (low quality tier).
func DrawShadowVolume(target *ebiten.Image, caster *ShadowCaster, lightX, lightY, shadowLength float64, shade Color) {
	if caster == nil || !caster.CastsShadows || shadowLength <= 0 {
		return
	}
	vol := ProjectShadowVolume(caster.WorldCorners, mgl64.Vec2{lightX, lightY}, shadowLength)
	verts, indices := vol.Mesh(shade)

	op := &ebiten.DrawTrianglesOptions{}
	op.Blend = BlendMultiply.EbitenBlend()
	target.DrawTriangles(verts, indices, ensureWhitePixel(), op)
}
