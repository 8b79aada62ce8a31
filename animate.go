package lumen

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// LightTween animates a light's intensity over time. Create one via
// PulseLight or FadeLight and call Update(dt) each frame.
//
// There is no global animation manager — callers drive Update themselves.
type LightTween struct {
	tween  *gween.Tween
	light  *Light
	loop   bool
	from   float32
	to     float32
	dur    float32
	fn     ease.TweenFunc
	rising bool
	Done   bool
}

// FadeLight animates a light's intensity to the target value once.
func FadeLight(l *Light, to float64, duration float32, fn ease.TweenFunc) *LightTween {
	return &LightTween{
		tween: gween.New(float32(l.Intensity), float32(to), duration, fn),
		light: l,
	}
}

// PulseLight oscillates a light's intensity between lo and hi forever,
// taking duration seconds per half cycle. Useful for torches and alarms.
func PulseLight(l *Light, lo, hi float64, duration float32, fn ease.TweenFunc) *LightTween {
	return &LightTween{
		tween:  gween.New(float32(lo), float32(hi), duration, fn),
		light:  l,
		loop:   true,
		from:   float32(lo),
		to:     float32(hi),
		dur:    duration,
		fn:     fn,
		rising: true,
	}
}

// Update advances the tween by dt seconds and writes the intensity.
func (t *LightTween) Update(dt float32) {
	if t.Done || t.light == nil {
		return
	}
	v, finished := t.tween.Update(dt)
	t.light.Intensity = float64(v)
	if !finished {
		return
	}
	if !t.loop {
		t.Done = true
		return
	}
	// Reverse direction for the next half cycle.
	if t.rising {
		t.tween = gween.New(t.to, t.from, t.dur, t.fn)
	} else {
		t.tween = gween.New(t.from, t.to, t.dur, t.fn)
	}
	t.rising = !t.rising
}
