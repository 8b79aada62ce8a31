package lumen

import (
	"testing"

	"github.com/tanema/gween/ease"
)

func TestFadeLightCompletes(t *testing.T) {
	l := NewPointLight(0, 0, 100)
	l.Intensity = 1

	f := FadeLight(l, 0, 1.0, ease.Linear)
	f.Update(0.5)
	if l.Intensity <= 0 || l.Intensity >= 1 {
		t.Errorf("intensity = %v mid-fade, want in (0, 1)", l.Intensity)
	}
	f.Update(0.6)
	if l.Intensity != 0 {
		t.Errorf("intensity = %v after fade, want 0", l.Intensity)
	}
	if !f.Done {
		t.Error("fade must mark itself done")
	}

	// Updates after completion are no-ops.
	l.Intensity = 0.7
	f.Update(1)
	if l.Intensity != 0.7 {
		t.Error("finished fade must not write the light")
	}
}

func TestPulseLightLoops(t *testing.T) {
	l := NewPointLight(0, 0, 100)
	p := PulseLight(l, 0.2, 1.0, 0.5, ease.Linear)

	// End of the rising half cycle.
	p.Update(0.5)
	if l.Intensity != 1.0 {
		t.Fatalf("intensity = %v at half cycle, want 1.0", l.Intensity)
	}

	// Falling half cycle brings it back down.
	p.Update(0.25)
	if l.Intensity >= 1.0 || l.Intensity <= 0.2 {
		t.Errorf("intensity = %v mid-fall, want in (0.2, 1.0)", l.Intensity)
	}
	p.Update(0.25)
	if l.Intensity != 0.2 {
		t.Errorf("intensity = %v at full cycle, want 0.2", l.Intensity)
	}
	if p.Done {
		t.Error("pulse must loop forever")
	}
}
