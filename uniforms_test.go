package lumen

import "testing"

func TestBindBatchZeroesEmptySlots(t *testing.T) {
	u := NewUniformBinder()

	full := LightBatch{}
	for i := 0; i < PointSlots; i++ {
		full.Point[i] = NewPointLight(float64(i*10), 5, 100)
	}
	u.BindBatch(&full)

	var empty LightBatch
	u.BindBatch(&empty)

	for i, v := range u.pointPos {
		if v != 0 {
			t.Fatalf("pointPos[%d] = %v after empty bind, want 0", i, v)
		}
	}
	for i, v := range u.pointIntensity {
		if v != 0 {
			t.Fatalf("pointIntensity[%d] = %v after empty bind, want 0", i, v)
		}
	}
	for i, v := range u.pointMaskRect {
		if v != 0 {
			t.Fatalf("pointMaskRect[%d] = %v after empty bind, want 0", i, v)
		}
	}
}

func TestBindBatchDisabledLightIntensityZero(t *testing.T) {
	u := NewUniformBinder()
	l := NewPointLight(40, 40, 120)
	l.Intensity = 2.5
	l.Enabled = false

	b := LightBatch{}
	b.Point[0] = l
	u.BindBatch(&b)

	if u.pointIntensity[0] != 0 {
		t.Errorf("disabled light intensity = %v, want 0", u.pointIntensity[0])
	}
	// Position and radius stay bound: the slot is resident, just dark.
	if u.pointPos[0] != 40 || u.pointRadius[0] != 120 {
		t.Error("disabled light should keep position and radius bound")
	}
}

func TestBindBatchRoundTripBitIdentical(t *testing.T) {
	// Disabling and re-enabling a light must reproduce the exact buffer
	// contents, bit for bit.
	u := NewUniformBinder()

	b := LightBatch{}
	b.Point[0] = NewPointLight(33.3, 66.6, 150)
	b.Point[0].Color = Color{0.9, 0.7, 0.3, 1}
	b.Spot[0] = NewSpotLight(10, 20, 0.5, 0.5, 200, 35)
	b.Spot[0].Softness = 0.4
	b.Directional[0] = NewDirectionalLight(0.3, 0.8)

	u.BindBatch(&b)
	wantPoint := u.pointPos
	wantPointI := u.pointIntensity
	wantSpotCos := u.spotCos
	wantSpotDir := u.spotDir
	wantDirDir := u.dirDir

	b.Point[0].Enabled = false
	b.Spot[0].Enabled = false
	u.BindBatch(&b)

	b.Point[0].Enabled = true
	b.Spot[0].Enabled = true
	u.BindBatch(&b)

	if u.pointPos != wantPoint || u.pointIntensity != wantPointI {
		t.Error("point uniforms differ after disable/re-enable round trip")
	}
	if u.spotCos != wantSpotCos || u.spotDir != wantSpotDir {
		t.Error("spot uniforms differ after disable/re-enable round trip")
	}
	if u.dirDir != wantDirDir {
		t.Error("directional uniforms differ after disable/re-enable round trip")
	}
}

func TestBindFrameFeatureGates(t *testing.T) {
	u := NewUniformBinder()
	ambient := Ambient{Color: Color{1, 1, 1, 1}, Intensity: 0.2}
	shadow := ShadowConfig{Enabled: true, Strength: 0.8, MaxLength: 300, Bias: 2}
	ao := AOConfig{Enabled: true, Strength: 0.5, Radius: 6, Samples: 8}

	perf := NewPerformanceSettings(QualityLow) // shadows and AO disabled
	u.BindFrame(320, 240, ambient, shadow, ao, Vec2{128, 128}, 576, 496, perf, true)

	sp := u.m["ShadowParams"].([]float32)
	if sp[0] != 0 {
		t.Error("low tier must gate shadows off even when config enables them")
	}
	ap := u.m["AOParams"].([]float32)
	if ap[0] != 0 {
		t.Error("low tier must gate AO off even when config enables them")
	}

	perf = NewPerformanceSettings(QualityHigh)
	u.BindFrame(320, 240, ambient, shadow, ao, Vec2{128, 128}, 576, 496, perf, true)
	sp = u.m["ShadowParams"].([]float32)
	if sp[0] != 1 || sp[1] != 0.8 {
		t.Errorf("ShadowParams = %v, want enabled with strength 0.8", sp)
	}
	if got := u.m["MasksEnabled"].(float32); got != 1 {
		t.Errorf("MasksEnabled = %v, want 1 at high tier", got)
	}

	// No mask atlas page bound for the frame: masks off regardless of tier.
	u.BindFrame(320, 240, ambient, shadow, ao, Vec2{128, 128}, 576, 496, perf, false)
	if got := u.m["MasksEnabled"].(float32); got != 0 {
		t.Errorf("MasksEnabled = %v, want 0 without a mask page", got)
	}
}

func TestBindMaskZeroMeansNoMask(t *testing.T) {
	u := NewUniformBinder()
	b := LightBatch{}
	b.Point[0] = NewPointLight(0, 0, 50) // no mask set
	u.BindBatch(&b)
	if u.pointMaskRect[2] != 0 {
		t.Error("maskless light must bind rect width 0")
	}

	b.Point[0].Mask = LightMask{
		Region: TextureRegion{Page: 0, X: 16, Y: 32, Width: 64, Height: 64},
	}
	u.BindBatch(&b)
	if u.pointMaskRect[2] != 64 {
		t.Errorf("mask rect width = %v, want 64", u.pointMaskRect[2])
	}
	// Zero mask scale defaults to 1 so the cookie isn't collapsed.
	if u.pointMaskXform[3] != 1 {
		t.Errorf("mask scale = %v, want default 1", u.pointMaskXform[3])
	}
}

func TestBindSpriteTintDefaultsToWhite(t *testing.T) {
	u := NewUniformBinder()
	s := &Sprite{} // zero Color
	u.BindSprite(s)
	tint := u.m["SpriteTint"].([]float32)
	for i, v := range tint {
		if v != 1 {
			t.Fatalf("tint[%d] = %v, want 1 for zero-color sprite", i, v)
		}
	}
	if u.m["HasNormal"].(float32) != 0 {
		t.Error("sprite without normal map must bind HasNormal 0")
	}
}

func TestBindSpriteEncodesZOrder(t *testing.T) {
	u := NewUniformBinder()

	low := &Sprite{ZOrder: 0}
	u.BindSprite(low)
	zLow := u.m["SpriteZ"].(float32)
	if zLow != float32(encodeZ(0)) {
		t.Fatalf("SpriteZ = %v, want %v", zLow, float32(encodeZ(0)))
	}

	high := &Sprite{ZOrder: 5}
	u.BindSprite(high)
	zHigh := u.m["SpriteZ"].(float32)
	if zHigh <= zLow {
		t.Error("higher layers must bind larger SpriteZ values")
	}
}

func BenchmarkBindBatch(b *testing.B) {
	u := NewUniformBinder()
	batch := LightBatch{}
	for i := 0; i < PointSlots; i++ {
		batch.Point[i] = NewPointLight(float64(i), 0, 100)
	}
	for i := 0; i < SpotSlots; i++ {
		batch.Spot[i] = NewSpotLight(0, 0, 0, 1, 100, 40)
	}
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		u.BindBatch(&batch)
	}
}
