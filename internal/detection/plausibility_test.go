package detection

import (
	"testing"

	"github.com/ironsheep/logo-redact/internal/geometry"
)

func TestPlausibleBox(t *testing.T) {
	tests := []struct {
		name string
		box  geometry.PixelBox
		want bool
	}{
		{"logo sized", geometry.PixelBox{Width: 160, Height: 60}, true},
		{"too narrow", geometry.PixelBox{Width: 30, Height: 60}, false},
		{"too wide", geometry.PixelBox{Width: 500, Height: 60}, false},
		{"too flat", geometry.PixelBox{Width: 160, Height: 10}, false},
		{"too tall", geometry.PixelBox{Width: 160, Height: 300}, false},
		{"lower bounds", geometry.PixelBox{Width: 40, Height: 15}, true},
		{"upper bounds", geometry.PixelBox{Width: 336, Height: 220}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlausibleBox(tt.box, 800, 1000); got != tt.want {
				t.Errorf("PlausibleBox(%+v) = %v, want %v", tt.box, got, tt.want)
			}
		})
	}
	if PlausibleBox(geometry.PixelBox{Width: 10, Height: 10}, 0, 0) {
		t.Error("zero-sized page must not be plausible")
	}
}
