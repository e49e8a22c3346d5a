package nextion

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a color argument as understood by the display firmware: either one
// of the named tokens below or a packed 5-6-5 value in decimal notation.
type Color string

// Named colors, passed to the firmware unchanged
const (
	Black  Color = "BLACK"
	Blue   Color = "BLUE"
	Brown  Color = "BROWN"
	Green  Color = "GREEN"
	Yellow Color = "YELLOW"
	Red    Color = "RED"
	Gray   Color = "GRAY"
	White  Color = "WHITE"
)

var namedColors = map[string]Color{
	"BLACK":  Black,
	"BLUE":   Blue,
	"BROWN":  Brown,
	"GREEN":  Green,
	"YELLOW": Yellow,
	"RED":    Red,
	"GRAY":   Gray,
	"WHITE":  White,
}

// RGB packs 8 bit color components into the 16 bit 5-6-5 representation
func RGB(r, g, b uint8) uint16 {
	return (uint16(r&0xf8) << 8) | (uint16(g&0xfc) << 3) | uint16(b>>3)
}

// Hex parses "#RRGGBB" and returns the packed 5-6-5 value
func Hex(s string) (uint16, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return 0, fmt.Errorf("%w: %q needs 6 hex digits", ErrInvalidColorFormat, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidColorFormat, s)
	}
	return RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// Packed returns the Color token of a packed 5-6-5 value
func Packed(v uint16) Color {
	return Color(strconv.FormatUint(uint64(v), 10))
}

// RGBColor is shorthand for Packed(RGB(r, g, b))
func RGBColor(r, g, b uint8) Color {
	return Packed(RGB(r, g, b))
}

// HexColor is shorthand for Packed(Hex(s))
func HexColor(s string) (Color, error) {
	v, err := Hex(s)
	if err != nil {
		return "", err
	}
	return Packed(v), nil
}

// ParseColor accepts a named color (any case), "#RRGGBB" or a decimal packed value.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if c, ok := namedColors[strings.ToUpper(s)]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") {
		return HexColor(s)
	}
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidColorFormat, s)
	}
	return Packed(uint16(v)), nil
}
