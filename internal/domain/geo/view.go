package geo

import "github.com/okian/bizmap/internal/domain/model"

// MapSettings are the fixed display parameters of the map.
type MapSettings struct {
	Fallback Point
	Zoom     int
	Width    int
	Height   int
	TileURL  string
}

// MapView is everything the page needs to draw the map for one render pass.
type MapView struct {
	Center   Point    `json:"center"`
	Fallback bool     `json:"fallback"`
	Zoom     int      `json:"zoom"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	TileURL  string   `json:"tile_url"`
	Markers  []Marker `json:"markers"`
	Bounds   *Rect    `json:"bounds,omitempty"`
}

// NewMapView builds the map for an already filtered record set.
func NewMapView(records []model.Record, s MapSettings) (MapView, error) {
	markers, err := Markers(records)
	if err != nil {
		return MapView{}, err
	}
	center, ok := Center(records, s.Fallback)
	mv := MapView{
		Center:   center,
		Fallback: !ok,
		Zoom:     s.Zoom,
		Width:    s.Width,
		Height:   s.Height,
		TileURL:  s.TileURL,
		Markers:  markers,
	}
	if b, ok := Bounds(records); ok {
		mv.Bounds = &b
	}
	return mv, nil
}
