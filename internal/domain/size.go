package domain

import (
	"fmt"
	"strings"
)

// Size is an output size accepted by the image edit endpoint, encoded as WxH.
type Size string

const (
	SizeSquare    Size = "1024x1024"
	SizeLandscape Size = "1536x1024"
	SizePortrait  Size = "1024x1536"

	// DefaultSize is used when the request omits the size field.
	DefaultSize = SizeSquare
)

var sizeLabels = map[Size]string{
	SizeSquare:    "Square (1:1)",
	SizeLandscape: "Landscape (3:2)",
	SizePortrait:  "Portrait (2:3)",
}

// Sizes lists the supported sizes in the order they are offered to users.
func Sizes() []Size {
	return []Size{SizeSquare, SizeLandscape, SizePortrait}
}

// ParseSize validates free-form input. Empty input yields DefaultSize.
func ParseSize(raw string) (Size, error) {
	s := Size(strings.ToLower(strings.TrimSpace(raw)))
	if s == "" {
		return DefaultSize, nil
	}
	if _, ok := sizeLabels[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSize, raw)
	}
	return s, nil
}

// Label returns the human readable name shown next to the size.
func (s Size) Label() string {
	if label, ok := sizeLabels[s]; ok {
		return label
	}
	return string(s)
}

// Dimensions returns the width and height encoded in s.
func (s Size) Dimensions() (int, int) {
	var w, h int
	if _, err := fmt.Sscanf(string(s), "%dx%d", &w, &h); err != nil {
		return 0, 0
	}
	return w, h
}

func (s Size) String() string { return string(s) }
