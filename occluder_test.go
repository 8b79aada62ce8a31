package lumen

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func testCaster(id string, x, y float64, z int) ShadowCaster {
	s := &Sprite{ID: id, X: x, Y: y, Width: 16, Height: 16, CastsShadows: true, ZOrder: z, Visible: true}
	return DeriveCaster(s)
}

func TestOccluderMapSizeIncludesMargin(t *testing.T) {
	b := NewOccluderMapBuilder(320, 240, 128)
	defer b.Dispose()

	m := b.Map()
	if w := m.Bounds().Dx(); w != 320+2*128 {
		t.Errorf("map width = %d, want %d", w, 320+2*128)
	}
	if h := m.Bounds().Dy(); h != 240+2*128 {
		t.Errorf("map height = %d, want %d", h, 240+2*128)
	}
	if off := b.Offset(); off.X != 128 || off.Y != 128 {
		t.Errorf("offset = %v, want (128, 128)", off)
	}
}

func TestOccluderNegativeMarginClamped(t *testing.T) {
	b := NewOccluderMapBuilder(100, 100, -5)
	defer b.Dispose()
	if b.Margin() != 0 {
		t.Errorf("margin = %d, want 0", b.Margin())
	}
}

func TestOccluderZeroCastersValidMap(t *testing.T) {
	b := NewOccluderMapBuilder(64, 64, 8)
	defer b.Dispose()

	img := b.Rebuild(nil, OccluderFilter{})
	if img == nil {
		t.Fatal("zero casters must still yield a valid texture")
	}
	if b.Rebuilds() != 1 {
		t.Errorf("rebuilds = %d, want 1", b.Rebuilds())
	}
}

func TestOccluderFilterExcludesSelf(t *testing.T) {
	f := OccluderFilter{ExcludeID: "hero"}
	hero := testCaster("hero", 0, 0, 1)
	crate := testCaster("crate", 20, 0, 1)

	if f.admits(&hero) {
		t.Error("filter must exclude the receiver's own caster")
	}
	if !f.admits(&crate) {
		t.Error("filter must admit other casters")
	}
}

func TestOccluderFilterZOrder(t *testing.T) {
	// Caster at z=5: a receiver at z=10 filters it out (min z 10), a
	// receiver at z=3 keeps it (min z 3).
	c := testCaster("wall", 0, 0, 5)

	high := OccluderFilter{MinZ: 10, ZFilter: true}
	if high.admits(&c) {
		t.Error("receiver above the caster layer must not be occluded by it")
	}
	low := OccluderFilter{MinZ: 3, ZFilter: true}
	if !low.admits(&c) {
		t.Error("receiver below the caster layer must be occluded by it")
	}
}

func TestOccluderFilterRejectsNonCasters(t *testing.T) {
	s := &Sprite{ID: "decal", Width: 8, Height: 8, CastsShadows: false}
	c := DeriveCaster(s)
	if (OccluderFilter{}).admits(&c) {
		t.Error("sprites with CastsShadows false must never enter the map")
	}
}

func TestOccluderSyncRebuildsOnlyOnChange(t *testing.T) {
	b := NewOccluderMapBuilder(64, 64, 8)
	defer b.Dispose()

	s := &Sprite{ID: "crate", X: 10, Y: 10, Width: 16, Height: 16, CastsShadows: true}
	casters := []ShadowCaster{DeriveCaster(s)}

	// First sync: dirty by construction.
	_, rebuilt := b.Sync(casters, OccluderFilter{})
	if !rebuilt {
		t.Fatal("first sync must rebuild")
	}

	// Unchanged casters: signature comparison only.
	for i := 0; i < 3; i++ {
		if _, rebuilt := b.Sync(casters, OccluderFilter{}); rebuilt {
			t.Fatal("sync with unchanged casters must not rebuild")
		}
	}
	if b.Rebuilds() != 1 {
		t.Fatalf("rebuilds = %d, want 1", b.Rebuilds())
	}

	// Moving the caster invalidates the map.
	s.X = 30
	casters[0] = DeriveCaster(s)
	if _, rebuilt := b.Sync(casters, OccluderFilter{}); !rebuilt {
		t.Fatal("moved caster must trigger a rebuild")
	}
	if b.Rebuilds() != 2 {
		t.Fatalf("rebuilds = %d, want 2", b.Rebuilds())
	}
}

func TestOccluderSyncRebuildsOnTextureLoad(t *testing.T) {
	b := NewOccluderMapBuilder(64, 64, 8)
	defer b.Dispose()

	// Caster starts textureless (placeholder silhouette).
	s := &Sprite{ID: "crate", X: 10, Y: 10, Width: 16, Height: 16, CastsShadows: true}
	casters := []ShadowCaster{DeriveCaster(s)}
	b.Sync(casters, OccluderFilter{})

	// The image arriving later must replace the placeholder silhouette.
	s.Image = ebiten.NewImage(16, 16)
	casters[0] = DeriveCaster(s)
	if _, rebuilt := b.Sync(casters, OccluderFilter{}); !rebuilt {
		t.Fatal("texture arrival must trigger a rebuild")
	}

	// Same texture on the next sync: stable.
	casters[0] = DeriveCaster(s)
	if _, rebuilt := b.Sync(casters, OccluderFilter{}); rebuilt {
		t.Error("unchanged texture must not trigger another rebuild")
	}
}

func TestOccluderSyncRebuildsOnFilterChange(t *testing.T) {
	b := NewOccluderMapBuilder(64, 64, 8)
	defer b.Dispose()

	casters := []ShadowCaster{testCaster("a", 0, 0, 1), testCaster("b", 20, 0, 2)}
	b.Sync(casters, OccluderFilter{})

	if _, rebuilt := b.Sync(casters, OccluderFilter{ExcludeID: "a"}); !rebuilt {
		t.Error("changing the filter must trigger a rebuild")
	}
}

func TestOccluderSyncRebuildsOnCasterCountChange(t *testing.T) {
	b := NewOccluderMapBuilder(64, 64, 8)
	defer b.Dispose()

	casters := []ShadowCaster{testCaster("a", 0, 0, 1), testCaster("b", 20, 0, 1)}
	b.Sync(casters, OccluderFilter{})

	if _, rebuilt := b.Sync(casters[:1], OccluderFilter{}); !rebuilt {
		t.Error("removing a caster must trigger a rebuild")
	}
	if _, rebuilt := b.Sync(casters, OccluderFilter{}); !rebuilt {
		t.Error("re-adding a caster must trigger a rebuild")
	}
}

func TestOccluderMarkDirtyForcesRebuild(t *testing.T) {
	b := NewOccluderMapBuilder(64, 64, 8)
	defer b.Dispose()

	casters := []ShadowCaster{testCaster("a", 0, 0, 1)}
	b.Sync(casters, OccluderFilter{})
	b.MarkDirty()
	if _, rebuilt := b.Sync(casters, OccluderFilter{}); !rebuilt {
		t.Error("MarkDirty must force the next sync to rebuild")
	}
}

func TestOccluderResize(t *testing.T) {
	b := NewOccluderMapBuilder(64, 64, 8)
	defer b.Dispose()

	b.Resize(128, 96, 16)
	m := b.Map()
	if m.Bounds().Dx() != 128+32 || m.Bounds().Dy() != 96+32 {
		t.Errorf("resized map = %dx%d, want %dx%d",
			m.Bounds().Dx(), m.Bounds().Dy(), 128+32, 96+32)
	}
	if _, rebuilt := b.Sync(nil, OccluderFilter{}); !rebuilt {
		t.Error("resize must mark the map dirty")
	}
}

func TestOccluderRebuildRecordsAdmittedSigs(t *testing.T) {
	b := NewOccluderMapBuilder(64, 64, 8)
	defer b.Dispose()

	img := ebiten.NewImage(16, 16)
	s := &Sprite{ID: "crate", X: 24, Y: 24, Image: img, CastsShadows: true}
	casters := []ShadowCaster{DeriveCaster(s), testCaster("hero", 0, 0, 1)}

	m := b.Rebuild(casters, OccluderFilter{ExcludeID: "hero"})
	if m == nil {
		t.Fatal("rebuild must return the map texture")
	}
	if len(b.lastSigs) != 1 {
		t.Fatalf("recorded signatures = %d, want 1 (hero excluded)", len(b.lastSigs))
	}
	if b.lastSigs[0].id != "crate" {
		t.Error("recorded signature must be the admitted caster's")
	}
}
