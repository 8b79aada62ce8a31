package lumen

import "testing"

func TestLoadScenarioRejectsBadInput(t *testing.T) {
	if _, err := LoadScenario([]byte("{not json")); err == nil {
		t.Error("malformed JSON must error")
	}
	if _, err := LoadScenario([]byte(`{"steps": []}`)); err == nil {
		t.Error("empty step list must error")
	}
}

func TestScenarioStepsDriveCommands(t *testing.T) {
	script := `{
		"steps": [
			{"action": "set-intensity", "id": "lamp", "value": 0.25},
			{"action": "wait", "frames": 2},
			{"action": "move-light", "id": "lamp", "x": 40, "y": 50},
			{"action": "toggle", "id": "lamp", "on": false},
			{"action": "set-ambient", "r": 0.1, "g": 0.2, "b": 0.3, "value": 0.5}
		]
	}`
	sc, err := LoadScenario([]byte(script))
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}

	lamp := NewPointLight(0, 0, 100)
	lamp.ID = "lamp"
	rs := &RenderState{Lights: []*Light{lamp}}

	// Frame 1: set-intensity.
	sc.Step(rs)
	rs.ApplyCommands()
	if lamp.Intensity != 0.25 {
		t.Fatalf("intensity = %v after frame 1, want 0.25", lamp.Intensity)
	}

	// Frames 2-3: waiting, nothing enqueued.
	sc.Step(rs)
	sc.Step(rs)
	rs.ApplyCommands()
	if lamp.X != 0 {
		t.Fatal("wait frames must not advance past the wait")
	}

	// Frame 4: move-light.
	sc.Step(rs)
	rs.ApplyCommands()
	if lamp.X != 40 || lamp.Y != 50 {
		t.Fatalf("position = (%v, %v) after move, want (40, 50)", lamp.X, lamp.Y)
	}

	// Frames 5-6: toggle then ambient.
	sc.Step(rs)
	sc.Step(rs)
	rs.ApplyCommands()
	if lamp.Enabled {
		t.Error("toggle step must disable the light")
	}
	if rs.Ambient.Intensity != 0.5 || rs.Ambient.Color.R != 0.1 {
		t.Errorf("ambient = %+v, want scripted values", rs.Ambient)
	}
	if !sc.Done() {
		t.Error("scenario must report done after the last step")
	}

	// Further steps are no-ops.
	sc.Step(rs)
	rs.ApplyCommands()
	if !sc.Done() {
		t.Error("finished scenario must stay done")
	}
}
