package nextion

import (
	"errors"
	"testing"
)

func TestRGB(t *testing.T) {
	tests := []struct {
		r, g, b uint8
		want    uint16
	}{
		{0, 0, 0, 0x0000},
		{0xff, 0xff, 0xff, 0xffff},
		{0xff, 0, 0, 0xf800},
		{0, 0xff, 0, 0x07e0},
		{0, 0, 0xff, 0x001f},
		{0x07, 0x03, 0x07, 0x0000}, // below the kept bits
		{0x1d, 0xde, 0x47, 0x1ee8},
	}
	for _, tt := range tests {
		if got := RGB(tt.r, tt.g, tt.b); got != tt.want {
			t.Errorf("RGB(%#x, %#x, %#x) = %#04x, want %#04x", tt.r, tt.g, tt.b, got, tt.want)
		}
	}
}

func TestHex(t *testing.T) {
	got, err := Hex("#1dde47")
	if err != nil {
		t.Fatalf("Hex() error = %v", err)
	}
	if want := RGB(0x1d, 0xde, 0x47); got != want {
		t.Errorf("Hex(#1dde47) = %d, want %d", got, want)
	}

	if got, err := Hex("FFFFFF"); err != nil || got != 0xffff {
		t.Errorf("Hex(FFFFFF) = %#x, %v", got, err)
	}

	for _, s := range []string{"", "#", "#12345", "#1234567", "#12345g", "#-12345", "red", "# 12345"} {
		t.Run(s, func(t *testing.T) {
			if _, err := Hex(s); !errors.Is(err, ErrInvalidColorFormat) {
				t.Errorf("Hex(%q) error = %v, want ErrInvalidColorFormat", s, err)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"RED", Red, false},
		{"white", White, false},
		{" Gray ", Gray, false},
		{"#ff0000", "63488", false},
		{"2016", "2016", false},
		{"65535", "65535", false},
		{"65536", "", true},
		{"#zzzzzz", "", true},
		{"purple", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidColorFormat) {
				t.Errorf("ParseColor(%q) error = %v, want ErrInvalidColorFormat", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseColor(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestColorTokens(t *testing.T) {
	if c := RGBColor(0xff, 0xff, 0xff); c != "65535" {
		t.Errorf("RGBColor(white) = %q", c)
	}
	c, err := HexColor("#1dde47")
	if err != nil || c != "7912" {
		t.Errorf("HexColor(#1dde47) = %q, %v", c, err)
	}
	if _, err := HexColor("#1dde4"); !errors.Is(err, ErrInvalidColorFormat) {
		t.Errorf("HexColor(#1dde4) error = %v", err)
	}
}
