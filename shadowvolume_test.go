package lumen

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func unitSquare(x, y, size float64) [4]mgl64.Vec2 {
	return [4]mgl64.Vec2{
		{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size},
	}
}

func TestProjectShadowVolumeDirection(t *testing.T) {
	// Light left of the square: far corners move right.
	corners := unitSquare(100, 100, 10)
	v := ProjectShadowVolume(corners, mgl64.Vec2{50, 105}, 200)

	for i := range corners {
		if v.Near[i] != corners[i] {
			t.Fatalf("near corner %d modified by projection", i)
		}
		d := v.Far[i].Sub(v.Near[i])
		if d.X() <= 0 {
			t.Errorf("corner %d projected toward the light (dx = %v)", i, d.X())
		}
		if math.Abs(d.Len()-200) > 1e-9 {
			t.Errorf("corner %d projection length = %v, want 200", i, d.Len())
		}
	}
}

func TestProjectShadowVolumeDegenerateCorner(t *testing.T) {
	// Light exactly on a corner: that corner is reused unmodified and no
	// component may go NaN.
	corners := unitSquare(0, 0, 10)
	v := ProjectShadowVolume(corners, mgl64.Vec2{0, 0}, 500)

	if v.Far[0] != corners[0] {
		t.Errorf("degenerate corner = %v, want unmodified %v", v.Far[0], corners[0])
	}
	for i := range v.Far {
		if math.IsNaN(v.Far[i].X()) || math.IsNaN(v.Far[i].Y()) {
			t.Fatalf("corner %d projected to NaN", i)
		}
	}
	// The remaining corners still project.
	if v.Far[2] == corners[2] {
		t.Error("non-degenerate corners must still be projected")
	}
}

func TestShadowVolumeMeshShape(t *testing.T) {
	corners := unitSquare(0, 0, 8)
	v := ProjectShadowVolume(corners, mgl64.Vec2{-20, 4}, 100)
	verts, indices := v.Mesh(Color{0, 0, 0, 0.5})

	if len(verts) != 8 {
		t.Fatalf("vertices = %d, want 8", len(verts))
	}
	if len(indices) != 24 {
		t.Fatalf("indices = %d, want 24 (4 quads, 8 triangles)", len(indices))
	}
	for _, idx := range indices {
		if int(idx) >= len(verts) {
			t.Fatalf("index %d out of range", idx)
		}
	}
	// Premultiplied shade: color channels carry alpha.
	if verts[0].ColorA != 0.5 || verts[0].ColorR != 0 {
		t.Errorf("vertex color = (%v, %v), want premultiplied (0, 0.5)",
			verts[0].ColorR, verts[0].ColorA)
	}
}

func TestShadowVolumeMeshNearFarLayout(t *testing.T) {
	corners := unitSquare(10, 10, 4)
	v := ProjectShadowVolume(corners, mgl64.Vec2{0, 0}, 50)
	verts, _ := v.Mesh(ColorWhite)

	for i := 0; i < 4; i++ {
		if verts[i].DstX != float32(v.Near[i].X()) {
			t.Errorf("vertex %d is not the near corner", i)
		}
		if verts[i+4].DstX != float32(v.Far[i].X()) {
			t.Errorf("vertex %d is not the far corner", i+4)
		}
	}
}

func BenchmarkProjectShadowVolume(b *testing.B) {
	corners := unitSquare(100, 100, 32)
	light := mgl64.Vec2{50, 50}
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ProjectShadowVolume(corners, light, 300)
	}
}
