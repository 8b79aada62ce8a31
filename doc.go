// Package lumen is a 2D lighting and shadow compositor for [Ebitengine].
//
// Lumen renders a scene of textured sprites lit by any number of point,
// directional, and spot lights, with occluder-map soft shadows, screen-space
// ambient occlusion, per-light cookie masks, and an adaptive quality
// controller that trades fidelity for frame rate.
//
// # Quick start
//
// Build a [RenderState], hand it to a [Compositor] every frame, and feed
// frame times to an [AdaptiveQualityController]:
//
//	comp := lumen.NewCompositor(640, 480)
//	perf := lumen.DetectPerformanceSettings()
//	state := &lumen.RenderState{
//		Sprites: sprites,
//		Lights:  []*lumen.Light{lumen.NewPointLight(320, 240, 200)},
//		Ambient: lumen.Ambient{Color: lumen.ColorWhite, Intensity: 0.25},
//		Shadow:  lumen.ShadowConfig{Enabled: true, Strength: 0.8, MaxLength: 400},
//		Perf:    perf,
//	}
//
//	// inside ebiten.Game.Draw:
//	comp.Frame(state, screen)
//
// # Passes and slots
//
// An unbounded light list is packed onto fixed shader-uniform slots
// (4 point + 4 spot + 2 directional per pass) by [AllocateSlots]. When the
// list exceeds one batch, the compositor accumulates one additive lighting
// pass per batch on top of an ambient base pass. Disabled lights stay
// slot-resident at intensity zero so toggling never reshuffles slots.
//
// # Shadows
//
// Shadow-casting sprites are composited once into a margin-padded occluder
// map ([OccluderMapBuilder]); the lighting shader ray-marches that map, so
// shadow cost is independent of the caster count. The map is rebuilt only
// when a caster actually changes. A geometric fallback
// ([ProjectShadowVolume]) covers configurations where the occluder-map path
// is disabled.
//
// # Live edits
//
// Mutations are routed through the render state's command queue
// ([RenderState.Enqueue]) and applied at frame start, so mid-frame state is
// immutable and every edit takes effect atomically on the next frame.
//
// [Ebitengine]: https://ebitengine.org
package lumen
