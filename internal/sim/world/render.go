package world

import (
	"deminer.ai/internal/observerproto"
)

const (
	layerTerrain = 1
	layerItems   = 2
	layerRobots  = 3

	itemRadius = 2
)

// Shapes returns one render descriptor per live entity, terrain first.
func (w *World) Shapes() []observerproto.Shape {
	out := make([]observerproto.Shape, 0, len(w.obstacles)+len(w.quicksands)+w.mines.Len()+w.markers.Len()+len(w.robots))
	circle := func(kind, color string, x, y float64, layer int, r float64) observerproto.Shape {
		nx, ny := w.bounds.Normalize(x, y)
		return observerproto.Shape{Kind: kind, Shape: "circle", X: nx, Y: ny, Layer: layer, Color: color, Filled: true, R: r}
	}
	for _, o := range w.obstacles {
		out = append(out, circle("obstacle", "Black", o.X, o.Y, layerTerrain, o.R))
	}
	for _, q := range w.quicksands {
		out = append(out, circle("quicksand", "Olive", q.X, q.Y, layerTerrain, q.R))
	}
	w.mines.each(func(_ Handle, m Mine) {
		out = append(out, circle("mine", "Blue", m.X, m.Y, layerItems, itemRadius))
	})
	w.markers.each(func(_ Handle, m Marker) {
		color := "Green"
		if m.Purpose == MarkerDanger {
			color = "Red"
		}
		out = append(out, circle("marker", color, m.X, m.Y, layerItems, itemRadius))
	})
	for _, r := range w.robots {
		nx, ny := w.bounds.Normalize(r.X, r.Y)
		angle := r.Heading
		out = append(out, observerproto.Shape{
			Kind:   "robot",
			Shape:  "arrowHead",
			X:      nx,
			Y:      ny,
			Layer:  layerRobots,
			Color:  "Red",
			Filled: true,
			ID:     r.ID,
			S:      1,
			Angle:  &angle,
		})
	}
	return out
}
