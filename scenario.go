package lumen

import (
	"encoding/json"
	"fmt"
)

// scenarioStep represents a single action in a scenario script.
type scenarioStep struct {
	Action string  `json:"action"`
	ID     string  `json:"id,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Value  float64 `json:"value,omitempty"`
	On     bool    `json:"on,omitempty"`
	R      float64 `json:"r,omitempty"`
	G      float64 `json:"g,omitempty"`
	B      float64 `json:"b,omitempty"`
	Frames int     `json:"frames,omitempty"`
}

// scenarioScript is the top-level JSON structure for a scenario.
type scenarioScript struct {
	Steps []scenarioStep `json:"steps"`
}

// Scenario sequences scripted light and sprite edits across frames through
// the render state's command queue, for deterministic demos and automated
// visual tests.
type Scenario struct {
	steps     []scenarioStep
	cursor    int
	waitCount int
	done      bool
}

// LoadScenario parses a JSON scenario script.
func LoadScenario(jsonData []byte) (*Scenario, error) {
	var script scenarioScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse scenario: no steps")
	}
	return &Scenario{steps: script.Steps}, nil
}

// Done reports whether all steps have been executed.
func (sc *Scenario) Done() bool {
	return sc.done
}

// Step advances the scenario by one frame, enqueueing at most one command
// onto the render state. Call once per tick before Compositor.Frame.
func (sc *Scenario) Step(rs *RenderState) {
	if sc.done {
		return
	}
	if sc.waitCount > 0 {
		sc.waitCount--
		return
	}
	if sc.cursor >= len(sc.steps) {
		sc.done = true
		return
	}

	st := sc.steps[sc.cursor]
	sc.cursor++

	switch st.Action {
	case "set-intensity":
		rs.Enqueue(SetLightIntensity{ID: st.ID, Intensity: st.Value})
	case "toggle":
		rs.Enqueue(SetLightEnabled{ID: st.ID, Enabled: st.On})
	case "move-light":
		rs.Enqueue(MoveLight{ID: st.ID, X: st.X, Y: st.Y})
	case "move-sprite":
		rs.Enqueue(MoveSprite{ID: st.ID, X: st.X, Y: st.Y})
	case "set-ambient":
		rs.Enqueue(SetAmbient{Ambient: Ambient{
			Color:     Color{R: st.R, G: st.G, B: st.B, A: 1},
			Intensity: st.Value,
		}})
	case "wait":
		if st.Frames > 0 {
			sc.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	if sc.cursor >= len(sc.steps) && sc.waitCount == 0 {
		sc.done = true
	}
}
