package lumen

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// TextureRegion describes a sub-rectangle within an atlas page.
// Value type — stored directly on Sprite and LightMask, no pointer.
type TextureRegion struct {
	Page    uint16 // atlas page index (references the compositor's page list)
	X, Y    uint16 // top-left corner of the sub-image rect within the atlas page
	Width   uint16 // width of the sub-image rect
	Height  uint16 // height of the sub-image rect
	Rotated bool   // true if the region is stored 90 degrees clockwise in the atlas
}

// IsZero reports whether the region is unset.
func (r TextureRegion) IsZero() bool {
	return r.Width == 0 || r.Height == 0
}

// magentaPlaceholderPage is a sentinel page index used for magenta placeholders.
// It's high enough to never collide with real atlas pages.
const magentaPlaceholderPage = 0xFFFF

// magenta placeholder singleton (no sync.Once — lumen is single-threaded)
var magentaImage *ebiten.Image

func ensureMagentaImage() *ebiten.Image {
	if magentaImage == nil {
		magentaImage = ebiten.NewImage(1, 1)
		magentaImage.Fill(color.RGBA{R: 255, G: 0, B: 255, A: 255})
	}
	return magentaImage
}

// neutral placeholders for not-yet-loaded resources. The white pixel stands
// in for a missing diffuse texture; the flat normal (128, 128, 255) stands in
// for a missing normal map so lighting math degenerates to unlit-diffuse.
var (
	whitePixel *ebiten.Image
	flatNormal *ebiten.Image
)

func ensureWhitePixel() *ebiten.Image {
	if whitePixel == nil {
		whitePixel = ebiten.NewImage(1, 1)
		whitePixel.Fill(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return whitePixel
}

func ensureFlatNormal() *ebiten.Image {
	if flatNormal == nil {
		flatNormal = ebiten.NewImage(1, 1)
		flatNormal.Fill(color.RGBA{R: 128, G: 128, B: 255, A: 255})
	}
	return flatNormal
}

// resolvePageImage returns the atlas page image for a region, handling the
// magenta placeholder sentinel. Returns nil for an out-of-range page.
func resolvePageImage(region TextureRegion, pages []*ebiten.Image) *ebiten.Image {
	if region.Page == magentaPlaceholderPage {
		return ensureMagentaImage()
	}
	idx := int(region.Page)
	if idx < len(pages) {
		return pages[idx]
	}
	return nil
}

// subImageForRegion slices the region's rect out of its atlas page.
// Returns nil when the page is missing (caller substitutes a placeholder).
func subImageForRegion(region TextureRegion, pages []*ebiten.Image) *ebiten.Image {
	page := resolvePageImage(region, pages)
	if page == nil {
		return nil
	}
	var r image.Rectangle
	if region.Rotated {
		r = image.Rect(int(region.X), int(region.Y), int(region.X)+int(region.Height), int(region.Y)+int(region.Width))
	} else {
		r = image.Rect(int(region.X), int(region.Y), int(region.X)+int(region.Width), int(region.Y)+int(region.Height))
	}
	return page.SubImage(r).(*ebiten.Image)
}
