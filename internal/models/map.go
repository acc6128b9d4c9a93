package models

// MapSettings selects the static map tile to render.
type MapSettings struct {
	Latitude  float64
	Longitude float64
	ZoomLevel int
	Width     int
	Height    int
}

// StaticMapResponse carries the rendered map as a data URI. When the
// upstream provider fails, a generated placeholder is returned instead
// and IsDefaultMap is set.
type StaticMapResponse struct {
	Base64Image  string `json:"base64Image"`
	IsDefaultMap bool   `json:"isDefaultMap"`
}
