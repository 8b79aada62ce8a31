package lumen

import "github.com/hajimehoshi/ebiten/v2"

// Fixed shader sampling budgets. AOSamples and quality tiers can lower the
// effective counts at runtime, but the loops themselves are compile-time
// constants as Kage requires.
const (
	maxShadowTaps = 24
	maxAOSamples  = 8
)

// lightingShaderSrc is the single shader behind both the base and lighting
// passes. Sources: src0 diffuse, src1 normal map, src2 occluder map,
// src3 mask atlas page.
//
// PassMode 0 renders ambient-with-AO only (normal blending, base pass);
// PassMode 1 accumulates the bound light slots (additive, lighting pass).
// Ebitengine uses premultiplied alpha throughout: the diffuse sample stays
// premultiplied so lighting output is shape-masked by the sprite for free.
const lightingShaderSrc = `//kage:unit pixels
package main

var CanvasSize vec2
var ResolutionScale float
var PassMode float
var AmbientColor vec3
var AmbientIntensity float

var PointPos [4]vec2
var PointColor [4]vec3
var PointIntensity [4]float
var PointRadius [4]float
var PointShadow [4]float
var PointMaskRect [4]vec4
var PointMaskXform [4]vec4

var SpotPos [4]vec2
var SpotDir [4]vec2
var SpotColor [4]vec3
var SpotIntensity [4]float
var SpotRadius [4]float
var SpotCos [4]float
var SpotSoftness [4]float
var SpotShadow [4]float
var SpotMaskRect [4]vec4
var SpotMaskXform [4]vec4

var DirDir [2]vec2
var DirColor [2]vec3
var DirIntensity [2]float
var DirShadow [2]float

var ShadowParams vec4 // enabled, strength, bias, maxLength
var AOParams vec4     // enabled, strength, radius, bias
var AOSamples float
var OccluderOffset vec2
var OccluderSize vec2
var LightHeight float
var MasksEnabled float
var NormalsEnabled float

var HasNormal float
var SpriteRotation float
var SpriteTint vec4
var SpriteZ float

// occluderHit samples the occluder map and applies the hierarchy test: the
// red channel holds the caster's encoded z-order, and only casters at or
// above the receiving sprite's layer occlude it.
func occluderHit(canvasPos vec2, alphaMin float) float {
	p := canvasPos + OccluderOffset
	if p.x < 0.0 || p.y < 0.0 || p.x >= OccluderSize.x || p.y >= OccluderSize.y {
		return 0.0
	}
	s := imageSrc2At(imageSrc2Origin() + p)
	if s.a < alphaMin {
		return 0.0
	}
	z := s.r / s.a
	return step(SpriteZ-0.002, z)
}

// shadowTerm ray-marches the occluder map from the fragment toward the
// light. Returns the light fraction surviving occlusion, in [1-strength, 1].
func shadowTerm(canvasPos, lightPos vec2) float {
	if ShadowParams.x < 0.5 {
		return 1.0
	}
	delta := lightPos - canvasPos
	dist := length(delta)
	if dist < 0.001 {
		return 1.0
	}
	marchLen := min(dist, ShadowParams.w)
	dir := delta / dist
	bias := ShadowParams.z
	span := max(marchLen-bias, 0.0)

	hits := 0.0
	for i := 0; i < 24; i++ {
		t := (float(i) + 0.5) / 24.0
		p := canvasPos + dir*(bias+t*span)
		hits += occluderHit(p, 0.5)
	}
	// A handful of taps is already full shadow; fewer taps feather the edge.
	occl := clamp(hits/6.0, 0.0, 1.0)
	return 1.0 - ShadowParams.y*occl
}

// aoTerm ring-samples the occluder map around the fragment and darkens
// proportionally to silhouette coverage.
func aoTerm(canvasPos vec2) float {
	if AOParams.x < 0.5 {
		return 1.0
	}
	radius := max(AOParams.z, 1.0)
	hits := 0.0
	used := 0.0
	for i := 0; i < 8; i++ {
		if float(i) >= AOSamples {
			continue
		}
		angle := 6.2831853 * float(i) / 8.0
		offset := vec2(cos(angle), sin(angle)) * radius
		hits += occluderHit(canvasPos+offset, 0.5+AOParams.w)
		used += 1.0
	}
	if used < 0.5 {
		return 1.0
	}
	return 1.0 - AOParams.y*(hits/used)
}

// maskFactor samples a light's cookie texture. Outside the mask rect the
// light is clipped; lights without a mask pass through unchanged.
func maskFactor(canvasPos, lightPos vec2, rect, xform vec4) float {
	if MasksEnabled < 0.5 {
		return 1.0
	}
	if rect.z < 0.5 {
		return 1.0
	}
	rel := canvasPos - lightPos - xform.xy
	s := sin(-xform.z)
	c := cos(-xform.z)
	rot := vec2(rel.x*c-rel.y*s, rel.x*s+rel.y*c)
	rot /= max(xform.w, 0.0001)
	uv := rot + rect.zw*0.5
	if uv.x < 0.0 || uv.y < 0.0 || uv.x >= rect.z || uv.y >= rect.w {
		return 0.0
	}
	return imageSrc3At(imageSrc3Origin() + rect.xy + uv).a
}

func surfaceNormal(src vec2) vec3 {
	n := vec3(0.0, 0.0, 1.0)
	if NormalsEnabled < 0.5 || HasNormal < 0.5 {
		return n
	}
	nm := imageSrc1At(src - imageSrc0Origin() + imageSrc1Origin())
	if nm.a <= 0.0 {
		return n
	}
	nm.rgb /= nm.a
	n = normalize(nm.rgb*2.0 - 1.0)
	// Normal maps are authored Y-up; canvas Y grows downward.
	n.y = -n.y
	s := sin(SpriteRotation)
	c := cos(SpriteRotation)
	return vec3(n.x*c-n.y*s, n.x*s+n.y*c, n.z)
}

func pointLightAt(i int, canvasPos vec2, n vec3) vec3 {
	if PointIntensity[i] <= 0.0 {
		return vec3(0.0)
	}
	delta := PointPos[i] - canvasPos
	dist := length(delta)
	radius := max(PointRadius[i], 1.0)
	fall := clamp(1.0-dist/radius, 0.0, 1.0)
	fall *= fall
	if fall <= 0.0 {
		return vec3(0.0)
	}
	l := normalize(vec3(delta.x, delta.y, LightHeight))
	f := fall * max(dot(n, l), 0.0) * PointIntensity[i]
	if PointShadow[i] > 0.5 {
		f *= shadowTerm(canvasPos, PointPos[i])
	}
	f *= maskFactor(canvasPos, PointPos[i], PointMaskRect[i], PointMaskXform[i])
	return PointColor[i] * f
}

func spotLightAt(i int, canvasPos vec2, n vec3) vec3 {
	if SpotIntensity[i] <= 0.0 {
		return vec3(0.0)
	}
	delta := canvasPos - SpotPos[i]
	dist := length(delta)
	radius := max(SpotRadius[i], 1.0)
	fall := clamp(1.0-dist/radius, 0.0, 1.0)
	fall *= fall
	if fall <= 0.0 {
		return vec3(0.0)
	}
	cone := 0.0
	if dist > 0.001 {
		cosAng := dot(delta/dist, SpotDir[i])
		edge := SpotCos[i] + SpotSoftness[i]*(1.0-SpotCos[i])
		cone = smoothstep(SpotCos[i], edge, cosAng)
	} else {
		cone = 1.0
	}
	if cone <= 0.0 {
		return vec3(0.0)
	}
	toLight := SpotPos[i] - canvasPos
	l := normalize(vec3(toLight.x, toLight.y, LightHeight))
	f := fall * cone * max(dot(n, l), 0.0) * SpotIntensity[i]
	if SpotShadow[i] > 0.5 {
		f *= shadowTerm(canvasPos, SpotPos[i])
	}
	f *= maskFactor(canvasPos, SpotPos[i], SpotMaskRect[i], SpotMaskXform[i])
	return SpotColor[i] * f
}

func dirLightAt(i int, canvasPos vec2, n vec3) vec3 {
	if DirIntensity[i] <= 0.0 {
		return vec3(0.0)
	}
	l := normalize(vec3(-DirDir[i].x, -DirDir[i].y, LightHeight*0.02))
	f := max(dot(n, l), 0.0) * DirIntensity[i]
	if DirShadow[i] > 0.5 {
		virtual := canvasPos - DirDir[i]*ShadowParams.w
		f *= shadowTerm(canvasPos, virtual)
	}
	return DirColor[i] * f
}

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	diffuse := imageSrc0At(src)
	if diffuse.a <= 0.0 {
		return vec4(0.0)
	}
	scale := max(ResolutionScale, 0.0001)
	canvasPos := dst.xy / scale

	// Per-sprite tint (premultiplied-compatible: rgb scaled by tint alpha).
	diffuse.rgb *= SpriteTint.rgb * SpriteTint.a
	diffuse.a *= SpriteTint.a

	if PassMode < 0.5 {
		ambient := AmbientColor * AmbientIntensity * aoTerm(canvasPos)
		return vec4(diffuse.rgb*ambient, diffuse.a)
	}

	n := surfaceNormal(src)
	lit := vec3(0.0)
	for i := 0; i < 4; i++ {
		lit += pointLightAt(i, canvasPos, n)
		lit += spotLightAt(i, canvasPos, n)
	}
	for i := 0; i < 2; i++ {
		lit += dirLightAt(i, canvasPos, n)
	}
	// Additive pass: alpha 0 so accumulation never re-darkens coverage.
	return vec4(diffuse.rgb*lit, 0.0)
}
`

// lightingShader singleton (no sync.Once — lumen is single-threaded).
var lightingShader *ebiten.Shader

func ensureLightingShader() *ebiten.Shader {
	if lightingShader == nil {
		s, err := ebiten.NewShader([]byte(lightingShaderSrc))
		if err != nil {
			panic("lumen: failed to compile lighting shader: " + err.Error())
		}
		lightingShader = s
	}
	return lightingShader
}
