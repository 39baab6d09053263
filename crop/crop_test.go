package crop

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFitToContainer(t *testing.T) {
	tests := []struct {
		name                   string
		containerW, containerH float64
		srcW, srcH             int
		want                   Layout
	}{
		{
			name: "wide image letterboxed vertically",
			containerW: 800, containerH: 600,
			srcW: 1600, srcH: 800,
			want: Layout{Width: 800, Height: 400, OffsetX: 0, OffsetY: 100},
		},
		{
			name: "tall image letterboxed horizontally",
			containerW: 800, containerH: 600,
			srcW: 600, srcH: 1200,
			want: Layout{Width: 300, Height: 600, OffsetX: 250, OffsetY: 0},
		},
		{
			name: "matching aspect fills container",
			containerW: 800, containerH: 600,
			srcW: 400, srcH: 300,
			want: Layout{Width: 800, Height: 600},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitToContainer(tt.containerW, tt.containerH, tt.srcW, tt.srcH)
			if !approx(got.Width, tt.want.Width) || !approx(got.Height, tt.want.Height) ||
				!approx(got.OffsetX, tt.want.OffsetX) || !approx(got.OffsetY, tt.want.OffsetY) {
				t.Errorf("FitToContainer = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewControllerCentersRect(t *testing.T) {
	layout := Layout{Width: 800, Height: 600}
	c := NewController(layout)
	r := c.Rect()

	if r.Width != 200 || r.Height != 200 {
		t.Errorf("Expected 200x200 initial rect, got %gx%g", r.Width, r.Height)
	}
	if !approx(r.X, 300) || !approx(r.Y, 200) {
		t.Errorf("Expected centered rect at (300,200), got (%g,%g)", r.X, r.Y)
	}
}

func TestNewControllerSmallImage(t *testing.T) {
	// 80% cap kicks in below 250 display units.
	c := NewController(Layout{Width: 100, Height: 150})
	r := c.Rect()
	if !approx(r.Width, 80) {
		t.Errorf("Expected width capped at 80, got %g", r.Width)
	}
	if !approx(r.Height, 120) {
		t.Errorf("Expected height capped at 120, got %g", r.Height)
	}
}

func TestDragMove(t *testing.T) {
	c := NewController(Layout{Width: 800, Height: 600})
	c.StartDrag(Move)
	c.Drag(50, -30)
	c.EndDrag()

	r := c.Rect()
	if !approx(r.X, 350) || !approx(r.Y, 170) {
		t.Errorf("Expected rect at (350,170), got (%g,%g)", r.X, r.Y)
	}
	if r.Width != 200 || r.Height != 200 {
		t.Errorf("Move must not resize; got %gx%g", r.Width, r.Height)
	}
}

func TestDragMoveClampsToBounds(t *testing.T) {
	c := NewController(Layout{Width: 800, Height: 600})
	c.StartDrag(Move)
	c.Drag(-10000, -10000)

	r := c.Rect()
	if !approx(r.X, 0) || !approx(r.Y, 0) {
		t.Errorf("Expected rect clamped to origin, got (%g,%g)", r.X, r.Y)
	}

	c.StartDrag(Move)
	c.Drag(10000, 10000)
	r = c.Rect()
	if !approx(r.X, 600) || !approx(r.Y, 400) {
		t.Errorf("Expected rect clamped to far corner, got (%g,%g)", r.X, r.Y)
	}
}

func TestDragSouthEastGrows(t *testing.T) {
	c := NewController(Layout{Width: 800, Height: 600})
	c.StartDrag(SouthEast)
	c.Drag(40, 60)

	r := c.Rect()
	if !approx(r.Width, 240) || !approx(r.Height, 260) {
		t.Errorf("Expected 240x260, got %gx%g", r.Width, r.Height)
	}
	if !approx(r.X, 300) || !approx(r.Y, 200) {
		t.Errorf("SouthEast must not move the origin; got (%g,%g)", r.X, r.Y)
	}
}

func TestDragNorthWestKeepsOppositeCorner(t *testing.T) {
	c := NewController(Layout{Width: 800, Height: 600})
	orig := c.Rect()
	c.StartDrag(NorthWest)
	c.Drag(30, 20)

	r := c.Rect()
	if !approx(r.Width, 170) || !approx(r.Height, 180) {
		t.Errorf("Expected 170x180, got %gx%g", r.Width, r.Height)
	}
	if !approx(r.X+r.Width, orig.X+orig.Width) || !approx(r.Y+r.Height, orig.Y+orig.Height) {
		t.Error("NorthWest drag must keep the south-east corner fixed")
	}
}

func TestDragEdgeHandles(t *testing.T) {
	tests := []struct {
		name   string
		handle Handle
		dx, dy float64
		wantW  float64
		wantH  float64
	}{
		{"north shrinks height from top", North, 0, 50, 200, 150},
		{"south grows height", South, 0, 50, 200, 250},
		{"east grows width", East, 50, 0, 250, 200},
		{"west shrinks width from left", West, 50, 0, 150, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(Layout{Width: 800, Height: 600})
			c.StartDrag(tt.handle)
			c.Drag(tt.dx, tt.dy)

			r := c.Rect()
			if !approx(r.Width, tt.wantW) || !approx(r.Height, tt.wantH) {
				t.Errorf("Expected %gx%g, got %gx%g", tt.wantW, tt.wantH, r.Width, r.Height)
			}
		})
	}
}

func TestDragEnforcesMinimumSize(t *testing.T) {
	c := NewController(Layout{Width: 800, Height: 600})
	c.StartDrag(SouthEast)
	c.Drag(-1000, -1000)

	r := c.Rect()
	if r.Width < MinSize || r.Height < MinSize {
		t.Errorf("Expected at least %dx%d, got %gx%g", MinSize, MinSize, r.Width, r.Height)
	}
	if !approx(r.Width, MinSize) || !approx(r.Height, MinSize) {
		t.Errorf("Expected exactly minimum size, got %gx%g", r.Width, r.Height)
	}
}

func TestDragWithoutStartIsIgnored(t *testing.T) {
	c := NewController(Layout{Width: 800, Height: 600})
	before := c.Rect()
	c.Drag(100, 100)
	if c.Rect() != before {
		t.Error("Drag without StartDrag must not change the rectangle")
	}
}

func TestSetAspectConformsRect(t *testing.T) {
	c := NewController(Layout{Width: 800, Height: 600})
	c.SetAspect(&AspectLandscape)

	r := c.Rect()
	if !approx(r.Width/r.Height, AspectLandscape) {
		t.Errorf("Expected aspect %g, got %g", AspectLandscape, r.Width/r.Height)
	}
}

func TestDragClampKeepsAspect(t *testing.T) {
	// Dragging far past an image edge clamps the rectangle; with an
	// aspect constraint active the clamped result must stay on-ratio.
	layout := Layout{Width: 800, Height: 600}

	for _, handle := range []Handle{East, SouthEast, South} {
		c := NewController(layout)
		c.SetAspect(&AspectLandscape)
		c.StartDrag(handle)
		c.Drag(10000, 10000)

		r := c.Rect()
		if !approx(r.Width/r.Height, AspectLandscape) {
			t.Errorf("Handle %v: expected aspect %g after clamp, got %g (%gx%g)",
				handle, AspectLandscape, r.Width/r.Height, r.Width, r.Height)
		}
		if r.X+r.Width > layout.Width+1e-9 || r.Y+r.Height > layout.Height+1e-9 {
			t.Errorf("Handle %v: rectangle %+v exceeds image bounds", handle, r)
		}
	}
}

func TestResolveCrop(t *testing.T) {
	// 1600x800 source displayed at 800x400 with vertical letterbox 100.
	layout := Layout{Width: 800, Height: 400, OffsetY: 100}
	rect := Rect{X: 200, Y: 200, Width: 400, Height: 200}

	px, err := ResolveCrop(rect, layout, 1600, 800)
	if err != nil {
		t.Fatalf("ResolveCrop failed: %v", err)
	}
	want := struct{ x, y, w, h int }{400, 200, 800, 400}
	if px.X != want.x || px.Y != want.y || px.Width != want.w || px.Height != want.h {
		t.Errorf("ResolveCrop = %+v, want %+v", px, want)
	}
}

func TestResolveCropClampsToSource(t *testing.T) {
	layout := Layout{Width: 800, Height: 600}
	rect := Rect{X: 600, Y: 400, Width: 400, Height: 400}

	px, err := ResolveCrop(rect, layout, 800, 600)
	if err != nil {
		t.Fatalf("ResolveCrop failed: %v", err)
	}
	if px.X+px.Width > 800 || px.Y+px.Height > 600 {
		t.Errorf("Resolved rect %+v exceeds source bounds", px)
	}
}

func TestResolveCropErrors(t *testing.T) {
	if _, err := ResolveCrop(Rect{Width: 100, Height: 100}, Layout{}, 100, 100); err == nil {
		t.Error("Expected error for zero-area layout")
	}
	if _, err := ResolveCrop(Rect{Width: 100, Height: 100}, Layout{Width: 100, Height: 100}, 0, 100); err == nil {
		t.Error("Expected error for zero-area source")
	}
}

func TestConfirmProducesSettings(t *testing.T) {
	layout := Layout{Width: 800, Height: 600}
	c := NewController(layout)
	c.SetZoom(1.5)
	c.SetAspect(&AspectSquare)

	px, settings, err := c.Confirm(800, 600)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if settings.Zoom != 1.5 {
		t.Errorf("Expected zoom 1.5, got %g", settings.Zoom)
	}
	if settings.AspectRatio == nil || *settings.AspectRatio != AspectSquare {
		t.Error("Expected square aspect in settings")
	}
	if settings.X != float64(px.X) || settings.Width != float64(px.Width) {
		t.Error("Settings must mirror the resolved pixel rect")
	}
}

func TestCancelResetsController(t *testing.T) {
	layout := Layout{Width: 800, Height: 600}
	c := NewController(layout)
	initial := c.Rect()

	c.SetZoom(2)
	c.SetAspect(&AspectPortrait)
	c.StartDrag(SouthEast)
	c.Drag(100, 100)
	c.Cancel()

	if c.Rect() != initial {
		t.Errorf("Expected rect reset to %+v, got %+v", initial, c.Rect())
	}
	_, settings, err := c.Confirm(800, 600)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if settings.Zoom != 1 || settings.AspectRatio != nil {
		t.Error("Cancel must reset zoom and aspect")
	}
}
