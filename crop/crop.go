// Package crop implements the interactive crop controller: rectangle
// geometry in display coordinates, handle-based resizing with a minimum
// size, and resolution of the display rectangle to true source-pixel
// coordinates. The package is pure geometry; pixel extraction is the
// compression engine's job.
package crop

import (
	"fmt"
	"math"

	"github.com/phototrack/phototrack/model"
)

// MinSize is the minimum crop rectangle size in display units, enforced
// on every resize regardless of drag direction.
const MinSize = 50

// Handle identifies which part of the rectangle a drag manipulates.
type Handle int

const (
	// Move translates the whole rectangle without resizing.
	Move Handle = iota
	NorthWest
	North
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
)

// Aspect ratio presets. Free places no constraint on the rectangle.
var (
	AspectSquare    = 1.0
	AspectPortrait  = 3.0 / 4.0
	AspectLandscape = 4.0 / 3.0
)

// Rect is an axis-aligned rectangle in display coordinates.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Layout describes how a source image is displayed scaled-to-fit inside
// a container: the on-screen image dimensions plus the letterbox offsets.
type Layout struct {
	Width, Height    float64
	OffsetX, OffsetY float64
}

// FitToContainer computes the display layout of an image scaled to fit a
// container while preserving aspect ratio. One axis is letterboxed.
func FitToContainer(containerW, containerH float64, srcW, srcH int) Layout {
	imgAspect := float64(srcW) / float64(srcH)
	containerAspect := containerW / containerH

	var l Layout
	if imgAspect > containerAspect {
		l.Width = containerW
		l.Height = containerW / imgAspect
		l.OffsetY = (containerH - l.Height) / 2
	} else {
		l.Height = containerH
		l.Width = containerH * imgAspect
		l.OffsetX = (containerW - l.Width) / 2
	}
	return l
}

// Controller tracks the pending crop rectangle while the user drags it
// around the displayed image. All coordinates are display units.
//
// Nothing is final until Confirm; Cancel discards all pending state and
// leaves the source record untouched.
type Controller struct {
	layout Layout
	rect   Rect
	aspect *float64 // nil = freeform

	dragging   bool
	dragHandle Handle
	dragOrigin Rect // rectangle at drag start

	zoom float64
}

// NewController creates a controller for an image displayed with the
// given layout. The initial rectangle is centered, at most 200 display
// units per side and at most 80% of the displayed image.
func NewController(layout Layout) *Controller {
	w := math.Min(200, layout.Width*0.8)
	h := math.Min(200, layout.Height*0.8)
	return &Controller{
		layout: layout,
		zoom:   1,
		rect: Rect{
			X:      layout.OffsetX + (layout.Width-w)/2,
			Y:      layout.OffsetY + (layout.Height-h)/2,
			Width:  w,
			Height: h,
		},
	}
}

// Rect returns the current pending rectangle.
func (c *Controller) Rect() Rect { return c.rect }

// SetZoom records the display zoom, carried into the saved crop settings.
func (c *Controller) SetZoom(zoom float64) {
	if zoom > 0 {
		c.zoom = zoom
	}
}

// SetAspect constrains the rectangle to a fixed width/height ratio, or
// removes the constraint when ratio is nil. The current rectangle is
// conformed immediately.
func (c *Controller) SetAspect(ratio *float64) {
	c.aspect = ratio
	if ratio != nil {
		c.rect = c.conform(c.rect)
	}
}

// StartDrag begins a drag with the given handle. Deltas passed to Drag
// are measured from this point.
func (c *Controller) StartDrag(h Handle) {
	c.dragging = true
	c.dragHandle = h
	c.dragOrigin = c.rect
}

// EndDrag finishes the current drag, keeping the rectangle where it is.
func (c *Controller) EndDrag() {
	c.dragging = false
}

// Drag applies a cumulative pointer delta from the drag start point.
// Each handle adjusts exactly the edges implied by its compass
// direction; opposite edges never move. The result honors the minimum
// size and never leaves the displayed image bounds.
func (c *Controller) Drag(dx, dy float64) {
	if !c.dragging {
		return
	}

	orig := c.dragOrigin
	r := c.rect
	maxX := c.layout.OffsetX + c.layout.Width
	maxY := c.layout.OffsetY + c.layout.Height

	switch c.dragHandle {
	case Move:
		r.X = math.Max(c.layout.OffsetX, math.Min(maxX-r.Width, orig.X+dx))
		r.Y = math.Max(c.layout.OffsetY, math.Min(maxY-r.Height, orig.Y+dy))
	case NorthWest:
		r.Width = math.Max(MinSize, orig.Width-dx)
		r.Height = math.Max(MinSize, orig.Height-dy)
		r.X = orig.X + orig.Width - r.Width
		r.Y = orig.Y + orig.Height - r.Height
	case NorthEast:
		r.Width = math.Max(MinSize, orig.Width+dx)
		r.Height = math.Max(MinSize, orig.Height-dy)
		r.Y = orig.Y + orig.Height - r.Height
	case SouthWest:
		r.Width = math.Max(MinSize, orig.Width-dx)
		r.Height = math.Max(MinSize, orig.Height+dy)
		r.X = orig.X + orig.Width - r.Width
	case SouthEast:
		r.Width = math.Max(MinSize, orig.Width+dx)
		r.Height = math.Max(MinSize, orig.Height+dy)
	case North:
		r.Height = math.Max(MinSize, orig.Height-dy)
		r.Y = orig.Y + orig.Height - r.Height
	case South:
		r.Height = math.Max(MinSize, orig.Height+dy)
	case West:
		r.Width = math.Max(MinSize, orig.Width-dx)
		r.X = orig.X + orig.Width - r.Width
	case East:
		r.Width = math.Max(MinSize, orig.Width+dx)
	}

	// Clamp to displayed image bounds.
	r.X = math.Max(c.layout.OffsetX, r.X)
	r.Y = math.Max(c.layout.OffsetY, r.Y)
	r.Width = math.Min(r.Width, maxX-r.X)
	r.Height = math.Min(r.Height, maxY-r.Y)

	// Conform after clamping so an edge clamp cannot leave the
	// rectangle off-ratio.
	if c.aspect != nil && c.dragHandle != Move {
		r = c.conform(r)
	}

	c.rect = r
}

// conform adjusts a rectangle to the aspect constraint, bounded by both
// image edges and the minimum size. The minimum size wins over the
// bounds when they conflict.
func (c *Controller) conform(r Rect) Rect {
	ratio := *c.aspect
	maxW := c.layout.OffsetX + c.layout.Width - r.X
	maxH := c.layout.OffsetY + c.layout.Height - r.Y

	w := math.Min(r.Width, math.Min(maxW, maxH*ratio))
	w = math.Max(w, math.Max(MinSize, MinSize*ratio))

	r.Width = w
	r.Height = w / ratio
	return r
}

// Resolve maps the pending display rectangle to source-pixel
// coordinates. The display offsets are subtracted and each axis is
// scaled independently by sourceDimension/displayDimension; the result
// is clamped to the source image bounds.
func (c *Controller) Resolve(srcW, srcH int) (model.PixelRect, error) {
	return ResolveCrop(c.rect, c.layout, srcW, srcH)
}

// Confirm finalizes the crop: it resolves the rectangle to source
// pixels and returns the settings to persist alongside it.
func (c *Controller) Confirm(srcW, srcH int) (model.PixelRect, model.CropSettings, error) {
	px, err := c.Resolve(srcW, srcH)
	if err != nil {
		return model.PixelRect{}, model.CropSettings{}, err
	}
	settings := model.CropSettings{
		X:           float64(px.X),
		Y:           float64(px.Y),
		Width:       float64(px.Width),
		Height:      float64(px.Height),
		Zoom:        c.zoom,
		AspectRatio: c.aspect,
	}
	return px, settings, nil
}

// Cancel discards all pending rectangle state.
func (c *Controller) Cancel() {
	c.dragging = false
	c.aspect = nil
	c.zoom = 1
	*c = *NewController(c.layout)
}

// ResolveCrop translates a display-space rectangle into source-pixel
// coordinates for an image displayed with the given layout.
func ResolveCrop(displayRect Rect, layout Layout, srcW, srcH int) (model.PixelRect, error) {
	if layout.Width <= 0 || layout.Height <= 0 {
		return model.PixelRect{}, fmt.Errorf("image display layout has no area")
	}
	if srcW <= 0 || srcH <= 0 {
		return model.PixelRect{}, fmt.Errorf("source image has no area")
	}

	scaleX := float64(srcW) / layout.Width
	scaleY := float64(srcH) / layout.Height

	x := (displayRect.X - layout.OffsetX) * scaleX
	y := (displayRect.Y - layout.OffsetY) * scaleY
	w := displayRect.Width * scaleX
	h := displayRect.Height * scaleY

	x = math.Max(0, x)
	y = math.Max(0, y)
	w = math.Min(w, float64(srcW)-x)
	h = math.Min(h, float64(srcH)-y)

	return model.PixelRect{
		X:      int(math.Round(x)),
		Y:      int(math.Round(y)),
		Width:  int(math.Round(w)),
		Height: int(math.Round(h)),
	}, nil
}
