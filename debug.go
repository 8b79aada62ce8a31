package lumen

import (
	"fmt"
	"os"
	"time"
)

// debugLogFrame prints one frame's pass breakdown and timing to stderr.
// Only called when the compositor's debug mode is on.
func (c *Compositor) debugLogFrame(elapsed time.Duration) {
	r := &c.report
	_, _ = fmt.Fprintf(os.Stderr,
		"[lumen] mode: %s | passes: %d | lighting: %v | occluder rebuilt: %v | dirty: %08b | %v\n",
		renderModeName(r.Mode), len(r.Passes), r.LightsPerPass, r.OccluderRebuilt, uint16(r.Dirty), elapsed)
}

func renderModeName(m RenderMode) string {
	switch m {
	case RenderSinglePass:
		return "single"
	case RenderMultiPass:
		return "multi"
	default:
		return "auto"
	}
}
