package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Keys used by the host page builder for one pin entry.
const (
	KeyPinImage   = "pins_image"
	KeyPinName    = "pins_name"
	KeyPinAddress = "pins_address"
	KeyPinURL     = "pins_url"
	KeyPinLat     = "pins_lat"
	KeyPinLng     = "pins_lng"
)

// WidgetSettings is the settings bag of one widget as the host stores it.
type WidgetSettings struct {
	AspectRatio string `json:"aspect_ratio"`
	Pins        any    `json:"pins"`
}

// MediaRef points at a media-library attachment.
type MediaRef struct {
	ID  int64
	URL string
}

// HasID reports whether the reference names an attachment.
func (m MediaRef) HasID() bool { return m.ID > 0 }

// LinkRef is a link control value.
type LinkRef struct {
	URL string
}

// PinSettings is one raw pin entry decoded into typed fields.
// Lat and Lng stay loosely typed until coordinate coercion.
type PinSettings struct {
	Image   MediaRef
	Name    string
	Address string
	Link    LinkRef
	Lat     any
	Lng     any
}

// DecodePins converts the loosely typed pin list into typed entries.
// ok is false when raw is not a sequence; entries that are not mappings
// decode as empty pins.
func DecodePins(raw any) (pins []PinSettings, ok bool) {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []map[string]any:
		items = make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
	case []PinSettings:
		return v, true
	default:
		return []PinSettings{}, false
	}

	pins = make([]PinSettings, 0, len(items))
	for _, item := range items {
		pins = append(pins, decodePin(item))
	}
	return pins, true
}

func decodePin(item any) PinSettings {
	m, err := cast.ToStringMapE(item)
	if err != nil {
		return PinSettings{}
	}

	var p PinSettings
	p.Name = DisplayString(m[KeyPinName])
	p.Address = DisplayString(m[KeyPinAddress])
	p.Lat = m[KeyPinLat]
	p.Lng = m[KeyPinLng]

	if img, err := cast.ToStringMapE(m[KeyPinImage]); err == nil {
		if id, ok := AttachmentID(img["id"]); ok {
			p.Image.ID = id
		}
		if u, ok := img["url"].(string); ok {
			p.Image.URL = u
		}
	}
	if link, err := cast.ToStringMapE(m[KeyPinURL]); err == nil {
		if u, ok := link["url"].(string); ok {
			p.Link.URL = u
		}
	}
	return p
}

// Coordinate coerces a latitude or longitude. Numbers and numeric strings
// are accepted; everything else, including NaN and infinities, is not.
func Coordinate(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		parsed, err := cast.ToFloat64E(t)
		if err != nil {
			return 0, false
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// AttachmentID accepts positive integral numbers and digit strings.
func AttachmentID(v any) (int64, bool) {
	var id int64
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return 0, false
		}
		id = int64(t)
	case float32:
		return AttachmentID(float64(t))
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false
		}
		id = n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		id = n
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, err := cast.ToInt64E(t)
		if err != nil {
			return 0, false
		}
		id = n
	default:
		return 0, false
	}
	if id <= 0 {
		return 0, false
	}
	return id, true
}

// DisplayString renders scalars as text; containers and nil become "".
func DisplayString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any, []any:
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}
