package imaging

import (
	"image/color"
	"math"
	"testing"
)

func TestRGBToHSV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    HSV
	}{
		{"white", 255, 255, 255, HSV{0, 0, 255}},
		{"black", 0, 0, 0, HSV{0, 0, 0}},
		{"red", 255, 0, 0, HSV{0, 255, 255}},
		{"green", 0, 255, 0, HSV{120, 255, 255}},
		{"blue", 0, 0, 255, HSV{240, 255, 255}},
		{"grey", 128, 128, 128, HSV{0, 0, 128}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RGBToHSV(tt.r, tt.g, tt.b)
			if math.Abs(got.H-tt.want.H) > 0.5 || math.Abs(got.S-tt.want.S) > 0.5 || math.Abs(got.V-tt.want.V) > 0.5 {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestToHSV_IgnoresAlpha(t *testing.T) {
	got := ToHSV(color.NRGBA{R: 255, G: 255, B: 255, A: 10})
	if math.Abs(got.V-255) > 0.5 {
		t.Errorf("V: got %v, want 255", got.V)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		hex     string
		want    color.NRGBA
		wantErr bool
	}{
		{"#FF0000", color.NRGBA{255, 0, 0, 255}, false},
		{"#00C853", color.NRGBA{0, 200, 83, 255}, false},
		{"FFFFFF", color.NRGBA{255, 255, 255, 255}, false},
		{"#FF000080", color.NRGBA{255, 0, 0, 128}, false},
		{"00C85350", color.NRGBA{0, 200, 83, 80}, false},
		{"", color.NRGBA{}, true},
		{"#FFF", color.NRGBA{}, true},
		{"#GGGGGG", color.NRGBA{}, true},
		{"#FF0000ZZ", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			c, err := ParseHexColor(tt.hex)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c != tt.want {
				t.Errorf("got %v, want %v", c, tt.want)
			}
		})
	}
}
