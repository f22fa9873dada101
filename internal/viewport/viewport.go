// Package viewport maps between screen and canvas coordinates and applies
// pan and zoom to a page.
package viewport

import (
	"math"

	"canvas/internal/domain"
	"canvas/internal/geom"
)

// ZoomSensitivity converts a wheel delta into an exponential zoom factor.
// A typical mouse-wheel notch of 100 scales by roughly 0.82 or 1.22.
const ZoomSensitivity = 0.002

// WheelEvent is a wheel or trackpad event in screen coordinates. With
// CtrlKey held (pinch gestures report this too) it zooms, otherwise it pans.
type WheelEvent struct {
	ClientX float64
	ClientY float64
	DeltaX  float64
	DeltaY  float64
	CtrlKey bool
}

// ScreenToCanvas converts a screen position to canvas coordinates for p.
func ScreenToCanvas(p domain.Page, sx, sy float64) geom.Point {
	z := zoomOf(p)
	return geom.Point{X: (sx - p.OffsetX) / z, Y: (sy - p.OffsetY) / z}
}

// CanvasToScreen converts a canvas position to screen coordinates for p.
func CanvasToScreen(p domain.Page, cx, cy float64) geom.Point {
	z := zoomOf(p)
	return geom.Point{X: cx*z + p.OffsetX, Y: cy*z + p.OffsetY}
}

// ScreenDeltaToCanvas converts a screen-space distance to canvas units.
func ScreenDeltaToCanvas(p domain.Page, d float64) float64 {
	return d / zoomOf(p)
}

// Pan shifts the current page's offsets by (dx, dy) screen pixels.
func Pan(d domain.Document, dx, dy float64) domain.Document {
	if dx == 0 && dy == 0 {
		return d
	}
	return domain.UpdateCurrentPage(d, func(p *domain.Page) {
		p.OffsetX += dx
		p.OffsetY += dy
	})
}

// ZoomTo sets the current page's zoom, clamped to [MinZoom, MaxZoom], and
// solves the new offset so the canvas point under the cursor stays put:
//
//	newOffset = cursor - (cursor - oldOffset) * newZoom/oldZoom
func ZoomTo(d domain.Document, cursorX, cursorY, zoom float64) domain.Document {
	page, ok := d.CurrentPage()
	if !ok {
		return d
	}
	oldZoom := zoomOf(page)
	newZoom := geom.Clamp(zoom, domain.MinZoom, domain.MaxZoom)
	if newZoom == oldZoom {
		return d
	}
	ratio := newZoom / oldZoom
	return domain.UpdateCurrentPage(d, func(p *domain.Page) {
		p.OffsetX = cursorX - (cursorX-p.OffsetX)*ratio
		p.OffsetY = cursorY - (cursorY-p.OffsetY)*ratio
		p.Zoom = newZoom
	})
}

// ZoomBy scales the current zoom by a factor derived from a wheel delta.
// Negative deltas (wheel up, pinch out) zoom in.
func ZoomBy(d domain.Document, cursorX, cursorY, deltaY float64) domain.Document {
	page, ok := d.CurrentPage()
	if !ok {
		return d
	}
	return ZoomTo(d, cursorX, cursorY, zoomOf(page)*math.Exp(-deltaY*ZoomSensitivity))
}

// HandleWheel routes a wheel event to zoom-to-cursor or pan.
func HandleWheel(d domain.Document, ev WheelEvent) domain.Document {
	if ev.CtrlKey {
		return ZoomBy(d, ev.ClientX, ev.ClientY, ev.DeltaY)
	}
	return Pan(d, -ev.DeltaX, -ev.DeltaY)
}

// Set replaces the current page's viewport outright.
func Set(d domain.Document, offsetX, offsetY, zoom float64) domain.Document {
	return domain.UpdateCurrentPage(d, func(p *domain.Page) {
		p.OffsetX = offsetX
		p.OffsetY = offsetY
		p.Zoom = geom.Clamp(zoom, domain.MinZoom, domain.MaxZoom)
	})
}

// Reset returns the current page to the origin at zoom 1.
func Reset(d domain.Document) domain.Document {
	return Set(d, 0, 0, domain.DefaultZoom)
}

func zoomOf(p domain.Page) float64 {
	if p.Zoom <= 0 {
		return domain.DefaultZoom
	}
	return p.Zoom
}
