package lumen

// Per-pass uniform slot capacities. These mirror the lighting shader's fixed
// array sizes and cannot change without editing the shader source.
const (
	PointSlots       = 4
	SpotSlots        = 4
	DirectionalSlots = 2
)

// singlePassLightLimit is the largest enabled-light count that still fits a
// direct render without the accumulation buffer round-trip.
const singlePassLightLimit = PointSlots + SpotSlots

// LightBatch is one render pass worth of lights, each list at most its slot
// capacity. Slot index within a list equals uniform index within the shader
// array. Nil entries are unused slots.
type LightBatch struct {
	Point       [PointSlots]*Light
	Spot        [SpotSlots]*Light
	Directional [DirectionalSlots]*Light
}

// Empty reports whether no slot in the batch holds a light.
func (b *LightBatch) Empty() bool {
	for _, l := range b.Point {
		if l != nil {
			return false
		}
	}
	for _, l := range b.Spot {
		if l != nil {
			return false
		}
	}
	for _, l := range b.Directional {
		if l != nil {
			return false
		}
	}
	return true
}

// LightCount returns the number of occupied slots in the batch.
func (b *LightBatch) LightCount() int {
	n := 0
	for _, l := range b.Point {
		if l != nil {
			n++
		}
	}
	for _, l := range b.Spot {
		if l != nil {
			n++
		}
	}
	for _, l := range b.Directional {
		if l != nil {
			n++
		}
	}
	return n
}

// AllocateSlots partitions a light list into per-pass uniform slot batches.
//
// Lights are partitioned by kind in input-list order; reordering would break
// the slot-stability invariant (a light's slot index relative to other lights
// of its kind must not change when a light is toggled, because disabled
// lights stay slot-resident at intensity 0). maxLights > 0 truncates the
// list to the first maxLights entries in stable order — over-capacity input
// degrades silently, never errors.
//
// The pass count is max(ceil(point/4), ceil(spot/4), ceil(dir/2)); passes
// where every slot of every kind is empty are dropped.
func AllocateSlots(lights []*Light, maxLights int) []LightBatch {
	var point, spot, dir []*Light
	taken := 0
	for _, l := range lights {
		if l == nil {
			continue
		}
		if maxLights > 0 && taken >= maxLights {
			break
		}
		taken++
		switch l.Kind {
		case LightPoint:
			point = append(point, l)
		case LightSpot:
			spot = append(spot, l)
		case LightDirectional:
			dir = append(dir, l)
		}
	}

	passCount := maxInt(
		ceilDiv(len(point), PointSlots),
		maxInt(ceilDiv(len(spot), SpotSlots), ceilDiv(len(dir), DirectionalSlots)),
	)

	batches := make([]LightBatch, 0, passCount)
	for p := 0; p < passCount; p++ {
		var b LightBatch
		fillSlots(b.Point[:], point, p*PointSlots)
		fillSlots(b.Spot[:], spot, p*SpotSlots)
		fillSlots(b.Directional[:], dir, p*DirectionalSlots)
		if b.Empty() {
			continue
		}
		batches = append(batches, b)
	}
	return batches
}

// fillSlots copies lights[offset:offset+len(slots)] into slots, leaving any
// remainder nil.
func fillSlots(slots []*Light, lights []*Light, offset int) {
	for i := range slots {
		idx := offset + i
		if idx >= len(lights) {
			return
		}
		slots[i] = lights[idx]
	}
}

// EnabledLightCount counts lights contributing non-zero illumination.
// Disabled lights are excluded even though they remain slot-resident.
func EnabledLightCount(lights []*Light) int {
	n := 0
	for _, l := range lights {
		if l != nil && l.Enabled {
			n++
		}
	}
	return n
}

// fitsSinglePass reports whether the light list qualifies for the
// single-pass direct-render optimization: every light (enabled or not) must
// fit the first batch's slots so slot residency is preserved, and the
// enabled count must not exceed the direct-render limit.
func fitsSinglePass(batches []LightBatch, lights []*Light) bool {
	if len(batches) > 1 {
		return false
	}
	return EnabledLightCount(lights) <= singlePassLightLimit
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
