package lumen

import (
	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
)

// Sprite is the per-frame scene input record: a textured quad with a full
// 2D transform. Sprites are externally owned; the compositor reads them by
// reference each frame and never mutates them.
type Sprite struct {
	// ID uniquely identifies the sprite across frames. Used for shadow
	// self-exclusion and change tracking. Assigned by NewSprite if empty.
	ID string
	// Image is the diffuse texture. May be nil while loading; the compositor
	// substitutes a neutral white placeholder without stalling the frame.
	Image *ebiten.Image
	// NormalImage is the optional normal map. Nil means a flat normal is
	// bound and the sprite receives distance-only lighting.
	NormalImage *ebiten.Image
	// X and Y are the sprite position in canvas space.
	X, Y float64
	// Rotation is in radians, clockwise.
	Rotation float64
	// ScaleX and ScaleY are scale factors. Zero is treated as 1.
	ScaleX, ScaleY float64
	// PivotX and PivotY are the transform origin in texture space.
	PivotX, PivotY float64
	// Width and Height are the untransformed quad size in pixels. When zero,
	// the Image bounds are used.
	Width, Height float64
	// ZOrder is the draw and shadow-hierarchy layer. Higher draws later.
	ZOrder int
	// CastsShadows marks the sprite as an occluder.
	CastsShadows bool
	// Visible suppresses drawing (but not occlusion) when false.
	Visible bool
	// Color is a multiplicative tint. Zero value means white.
	Color Color
}

// NewSprite creates a visible sprite with unit scale and a fresh ID.
func NewSprite(img *ebiten.Image) *Sprite {
	return &Sprite{
		ID:      uuid.NewString(),
		Image:   img,
		ScaleX:  1,
		ScaleY:  1,
		Visible: true,
		Color:   ColorWhite,
	}
}

// size returns the effective quad dimensions, falling back to image bounds
// and then to the 1x1 placeholder size.
func (s *Sprite) size() (w, h float64) {
	if s.Width > 0 && s.Height > 0 {
		return s.Width, s.Height
	}
	if s.Image != nil {
		b := s.Image.Bounds()
		return float64(b.Dx()), float64(b.Dy())
	}
	return 1, 1
}

// transform returns the sprite's local->canvas affine matrix.
func (s *Sprite) transform() [6]float64 {
	sx, sy := s.ScaleX, s.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return composeTransform(s.X, s.Y, s.Rotation, sx, sy, s.PivotX, s.PivotY)
}

// drawImage returns the image to draw, substituting the white placeholder
// when the texture has not loaded yet.
func (s *Sprite) drawImage() *ebiten.Image {
	if s.Image != nil {
		return s.Image
	}
	return ensureWhitePixel()
}

// normalImage returns the normal map to bind, substituting the flat normal
// when none is set or it has not loaded yet.
func (s *Sprite) normalImage() *ebiten.Image {
	if s.NormalImage != nil {
		return s.NormalImage
	}
	return ensureFlatNormal()
}
