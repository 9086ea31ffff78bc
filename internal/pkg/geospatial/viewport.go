package geospatial

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	earthRadiusKm = 6371.0
	tileSize      = 256.0
	MaxZoom       = 21.0
)

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// DiagonalMeters is the distance between the corners of a bound.
func DiagonalMeters(b orb.Bound) float64 {
	return Haversine(b.Min.Lat(), b.Min.Lon(), b.Max.Lat(), b.Max.Lon())
}

// FitZoom returns the largest zoom level at which b fits into a viewport of
// width x height pixels with padding pixels kept free on every side.
// The result is clamped to [0, MaxZoom].
func FitZoom(b orb.Bound, padding, width, height float64) float64 {
	w := width - 2*padding
	h := height - 2*padding
	if w <= 0 || h <= 0 {
		return 0
	}

	lonSpan := (b.Max.Lon() - b.Min.Lon()) / 360
	latSpan := mercatorY(b.Max.Lat()) - mercatorY(b.Min.Lat())

	zoom := MaxZoom
	if lonSpan > 0 {
		zoom = math.Min(zoom, math.Log2(w/tileSize/lonSpan))
	}
	if latSpan > 0 {
		zoom = math.Min(zoom, math.Log2(h/tileSize/latSpan))
	}
	return math.Max(0, math.Floor(zoom))
}

// FitCenter is the point the viewport centers on when fitting b. The
// latitude is taken in projected space so the box is centered on screen.
func FitCenter(b orb.Bound) orb.Point {
	y := (mercatorY(b.Min.Lat()) + mercatorY(b.Max.Lat())) / 2
	return orb.Point{(b.Min.Lon() + b.Max.Lon()) / 2, inverseMercatorY(y)}
}

// mercatorY projects a latitude to the unit Web Mercator square [0, 1],
// growing northwards.
func mercatorY(lat float64) float64 {
	lat = math.Max(-85.05112878, math.Min(85.05112878, lat))
	s := math.Sin(toRad(lat))
	return 0.5 + math.Log((1+s)/(1-s))/(4*math.Pi)
}

func inverseMercatorY(y float64) float64 {
	n := math.Pi * (2*y - 1)
	return math.Atan(math.Sinh(n)) * 180 / math.Pi
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
