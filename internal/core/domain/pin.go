package domain

// ContainerIDPrefix prefixes the DOM id of every map container.
const ContainerIDPrefix = "multiMap"

// InstanceID identifies one map widget on a page. It is supplied by the host.
type InstanceID string

// ContainerID returns the DOM id of the element the map is drawn into.
func (id InstanceID) ContainerID() string {
	return ContainerIDPrefix + string(id)
}

// Pin is one normalized map marker.
// URL and Image are nil when absent and serialize as null, never "".
type Pin struct {
	URL     *string `json:"url"`
	Image   *string `json:"image"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	HTML    string  `json:"html"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Point returns the pin's position.
func (p Pin) Point() GeoPoint {
	return GeoPoint{Lat: p.Lat, Lon: p.Lng}
}

// MapInstanceDescriptor is everything the client needs to draw one map.
// Pins keep the order the author configured them in.
type MapInstanceDescriptor struct {
	InstanceID InstanceID `json:"instanceId"`
	Pins       []Pin      `json:"pins"`
}

// ShouldFitBounds reports whether the viewport is fitted to the pins.
// A single pin keeps the default zoom so the map does not zoom to street level.
func (d *MapInstanceDescriptor) ShouldFitBounds() bool {
	return len(d.Pins) > 1
}

// DescriptorBuilt is published after a descriptor has been built.
type DescriptorBuilt struct {
	Descriptor MapInstanceDescriptor `json:"descriptor"`
	BuiltAt    int64                 `json:"built_at"`
}
