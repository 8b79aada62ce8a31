package lumen

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestTextureRegionIsZero(t *testing.T) {
	var r TextureRegion
	if !r.IsZero() {
		t.Error("zero-value region must be zero")
	}
	r = TextureRegion{Page: 0, X: 0, Y: 0, Width: 16, Height: 16}
	if r.IsZero() {
		t.Error("sized region must not be zero")
	}
}

func TestEnsurePlaceholders(t *testing.T) {
	// Placeholders are 1x1 singletons, allocated once.
	w1 := ensureWhitePixel()
	w2 := ensureWhitePixel()
	if w1 != w2 {
		t.Error("white pixel must be a singleton")
	}
	if w1.Bounds().Dx() != 1 || w1.Bounds().Dy() != 1 {
		t.Error("white pixel must be 1x1")
	}

	n := ensureFlatNormal()
	if n == nil || n != ensureFlatNormal() {
		t.Error("flat normal must be a singleton")
	}
	m := ensureMagentaImage()
	if m == nil || m != ensureMagentaImage() {
		t.Error("magenta placeholder must be a singleton")
	}
}

func TestResolvePageImage(t *testing.T) {
	pages := []*ebiten.Image{ebiten.NewImage(64, 64)}

	r := TextureRegion{Page: 0, Width: 16, Height: 16}
	if resolvePageImage(r, pages) != pages[0] {
		t.Error("in-range page must resolve to its atlas image")
	}

	r.Page = 3
	if resolvePageImage(r, pages) != nil {
		t.Error("out-of-range page must resolve to nil")
	}

	r.Page = magentaPlaceholderPage
	if resolvePageImage(r, pages) != ensureMagentaImage() {
		t.Error("sentinel page must resolve to the magenta placeholder")
	}
}

func TestSubImageForRegion(t *testing.T) {
	pages := []*ebiten.Image{ebiten.NewImage(64, 64)}

	r := TextureRegion{Page: 0, X: 8, Y: 8, Width: 16, Height: 24}
	sub := subImageForRegion(r, pages)
	if sub == nil {
		t.Fatal("region on a present page must slice a sub-image")
	}
	if sub.Bounds().Dx() != 16 || sub.Bounds().Dy() != 24 {
		t.Errorf("sub-image = %dx%d, want 16x24", sub.Bounds().Dx(), sub.Bounds().Dy())
	}

	// Rotated regions swap the stored rect's axes.
	r.Rotated = true
	sub = subImageForRegion(r, pages)
	if sub.Bounds().Dx() != 24 || sub.Bounds().Dy() != 16 {
		t.Errorf("rotated sub-image = %dx%d, want 24x16", sub.Bounds().Dx(), sub.Bounds().Dy())
	}

	r.Page = 9
	if subImageForRegion(r, pages) != nil {
		t.Error("missing page must yield nil for placeholder substitution")
	}
}
