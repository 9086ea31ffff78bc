package domain

import (
	"math"
	"strconv"
	"strings"
)

// AspectRatio is the width:height of a map wrapper.
type AspectRatio struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultAspectRatio is used whenever the configured ratio is unusable.
var DefaultAspectRatio = AspectRatio{Width: 16, Height: 9}

// ParseAspectRatio parses "W:H". Anything that is not two positive numbers
// separated by a colon yields 16:9. Segments after the second are ignored.
func ParseAspectRatio(s string) AspectRatio {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return DefaultAspectRatio
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || !(w > 0) || math.IsInf(w, 0) {
		return DefaultAspectRatio
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || !(h > 0) || math.IsInf(h, 0) {
		return DefaultAspectRatio
	}
	return AspectRatio{Width: w, Height: h}
}

// String formats the ratio back as "W:H".
func (a AspectRatio) String() string {
	return formatNumber(a.Width) + ":" + formatNumber(a.Height)
}

// PaddingPercent is the CSS padding-top percentage that gives the ratio.
func (a AspectRatio) PaddingPercent() float64 {
	return a.Height / a.Width * 100
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
