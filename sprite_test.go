package lumen

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestSpriteSizeFallbacks(t *testing.T) {
	s := &Sprite{Width: 24, Height: 12}
	if w, h := s.size(); w != 24 || h != 12 {
		t.Errorf("explicit size = %vx%v, want 24x12", w, h)
	}

	s = &Sprite{Image: ebiten.NewImage(32, 48)}
	if w, h := s.size(); w != 32 || h != 48 {
		t.Errorf("image size = %vx%v, want 32x48", w, h)
	}

	s = &Sprite{}
	if w, h := s.size(); w != 1 || h != 1 {
		t.Errorf("fallback size = %vx%v, want 1x1", w, h)
	}
}

func TestSpritePlaceholderSubstitution(t *testing.T) {
	s := &Sprite{}
	if s.drawImage() != ensureWhitePixel() {
		t.Error("nil diffuse must substitute the white placeholder")
	}
	if s.normalImage() != ensureFlatNormal() {
		t.Error("nil normal map must substitute the flat normal")
	}

	img := ebiten.NewImage(4, 4)
	s.Image = img
	s.NormalImage = img
	if s.drawImage() != img || s.normalImage() != img {
		t.Error("set images must be used directly")
	}
}

func TestNewSpriteDefaults(t *testing.T) {
	s := NewSprite(nil)
	if s.ID == "" {
		t.Error("new sprites must get an ID")
	}
	if s.ScaleX != 1 || s.ScaleY != 1 || !s.Visible || s.Color != ColorWhite {
		t.Error("new sprites must be visible with unit scale and white tint")
	}
	if NewSprite(nil).ID == s.ID {
		t.Error("sprite IDs must be unique")
	}
}
