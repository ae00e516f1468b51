// Package raster provides the 3-D color volume that pattern producers write
// into and the Art-Net sender reads out of.
package raster

import (
	"fmt"
	"math"
)

// RGB is an 8-bit-per-channel color.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// HSV is an 8-bit hue/saturation/value color.
type HSV struct {
	H uint8
	S uint8
	V uint8
}

// SaturateByte clamps a float to [0,255] and floors it to a byte.
func SaturateByte(v float64) uint8 {
	return uint8(math.Min(math.Max(v, 0), 255))
}

// RGBFromHSV converts an HSV color to RGB.
func RGBFromHSV(hsv HSV) RGB {
	h := float64(hsv.H) / (256.0 / 6.0)
	s := float64(hsv.S) / 255.0
	v := float64(hsv.V) / 255.0

	c := v * s
	x := c * (1.0 - math.Abs(math.Mod(h, 2.0)-1.0))
	m := v - c

	var r, g, b float64
	switch {
	case h < 1.0:
		r, g, b = c, x, 0
	case h < 2.0:
		r, g, b = x, c, 0
	case h < 3.0:
		r, g, b = 0, c, x
	case h < 4.0:
		r, g, b = 0, x, c
	case h < 5.0:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return RGB{
		R: SaturateByte((r + m) * 255.0),
		G: SaturateByte((g + m) * 255.0),
		B: SaturateByte((b + m) * 255.0),
	}
}

// axisTransform maps one output axis to a source axis with a direction.
type axisTransform struct {
	axis int // 0=X, 1=Y, 2=Z
	sign int // +1 or -1
}

// Raster is a 3-D color volume. Data is linearly addressed as
// i = ty*W + tx + tz*W*H after the orientation transform.
type Raster struct {
	Width      int
	Height     int
	Length     int
	Brightness float64
	Data       []RGB

	orientation []string
	transform   []axisTransform
}

// DefaultOrientation is the identity axis mapping.
var DefaultOrientation = []string{"X", "Y", "Z"}

// New creates a raster of the given dimensions. Orientation is an ordered
// triple of axis tokens drawn from {X, -X, Y, -Y, Z, -Z} (a leading "+" is
// accepted); nil selects the identity mapping.
func New(width, height, length int, orientation []string) (*Raster, error) {
	if orientation == nil {
		orientation = DefaultOrientation
	}
	r := &Raster{
		Width:       width,
		Height:      height,
		Length:      length,
		Brightness:  1.0,
		Data:        make([]RGB, width*height*length),
		orientation: orientation,
	}
	if err := r.computeTransform(); err != nil {
		return nil, err
	}
	return r, nil
}

// Orientation returns the axis tokens this raster was created with.
func (r *Raster) Orientation() []string {
	return r.orientation
}

func (r *Raster) computeTransform() error {
	if len(r.orientation) != 3 {
		return fmt.Errorf("orientation must have 3 axes, got %d", len(r.orientation))
	}
	r.transform = r.transform[:0]
	for _, coord := range r.orientation {
		if coord == "" {
			return fmt.Errorf("empty axis token")
		}
		sign := 1
		if coord[0] == '-' {
			sign = -1
		}
		var axis int
		switch coord[len(coord)-1] {
		case 'X':
			axis = 0
		case 'Y':
			axis = 1
		case 'Z':
			axis = 2
		default:
			return fmt.Errorf("invalid axis: %s", coord)
		}
		r.transform = append(r.transform, axisTransform{axis: axis, sign: sign})
	}
	return nil
}

// transformCoords permutes and reflects (x,y,z) per the orientation.
func (r *Raster) transformCoords(x, y, z int) (int, int, int) {
	coords := [3]int{x, y, z}
	var result [3]int

	for i, t := range r.transform {
		if t.sign == 1 {
			result[i] = coords[t.axis]
		} else {
			var max int
			switch t.axis {
			case 0:
				max = r.Width - 1
			case 1:
				max = r.Height - 1
			default:
				max = r.Length - 1
			}
			result[i] = max - coords[t.axis]
		}
	}

	return result[0], result[1], result[2]
}

func (r *Raster) checkBounds(x, y, z int) error {
	if x < 0 || x >= r.Width {
		return fmt.Errorf("x: %d width: %d", x, r.Width)
	}
	if y < 0 || y >= r.Height {
		return fmt.Errorf("y: %d height: %d", y, r.Height)
	}
	if z < 0 || z >= r.Length {
		return fmt.Errorf("z: %d length: %d", z, r.Length)
	}
	return nil
}

// SetPix writes a color at (x,y,z) through the orientation transform.
func (r *Raster) SetPix(x, y, z int, color RGB) error {
	if err := r.checkBounds(x, y, z); err != nil {
		return err
	}
	tx, ty, tz := r.transformCoords(x, y, z)
	r.Data[ty*r.Width+tx+tz*r.Width*r.Height] = color
	return nil
}

// GetPix reads the color at (x,y,z) through the orientation transform.
func (r *Raster) GetPix(x, y, z int) (RGB, error) {
	if err := r.checkBounds(x, y, z); err != nil {
		return RGB{}, err
	}
	tx, ty, tz := r.transformCoords(x, y, z)
	return r.Data[ty*r.Width+tx+tz*r.Width*r.Height], nil
}

// SetPixDirect writes a color at (x,y,z) bypassing the orientation transform.
func (r *Raster) SetPixDirect(x, y, z int, color RGB) error {
	if err := r.checkBounds(x, y, z); err != nil {
		return err
	}
	r.Data[y*r.Width+x+z*r.Width*r.Height] = color
	return nil
}

// Clear resets every cell to black.
func (r *Raster) Clear() {
	for i := range r.Data {
		r.Data[i] = RGB{}
	}
}
