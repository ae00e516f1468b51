package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r, err := New(4, 3, 2, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, r.Width)
	assert.Equal(t, 3, r.Height)
	assert.Equal(t, 2, r.Length)
	assert.Equal(t, 1.0, r.Brightness)
	assert.Len(t, r.Data, 24)
	assert.Equal(t, []string{"X", "Y", "Z"}, r.Orientation())
}

func TestNew_InvalidOrientation(t *testing.T) {
	_, err := New(2, 2, 2, []string{"X", "Y"})
	assert.Error(t, err)

	_, err = New(2, 2, 2, []string{"X", "Y", "W"})
	assert.Error(t, err)
}

func TestSetPix_LinearAddressing(t *testing.T) {
	r, err := New(3, 2, 2, nil)
	require.NoError(t, err)

	// i = y*W + x + z*W*H
	require.NoError(t, r.SetPix(1, 1, 0, RGB{R: 10}))
	assert.Equal(t, RGB{R: 10}, r.Data[1*3+1])

	require.NoError(t, r.SetPix(2, 0, 1, RGB{G: 20}))
	assert.Equal(t, RGB{G: 20}, r.Data[2+1*3*2])
}

func TestSetPix_OutOfBounds(t *testing.T) {
	r, err := New(2, 2, 2, nil)
	require.NoError(t, err)

	assert.Error(t, r.SetPix(2, 0, 0, RGB{}))
	assert.Error(t, r.SetPix(0, 2, 0, RGB{}))
	assert.Error(t, r.SetPix(0, 0, 2, RGB{}))
	assert.Error(t, r.SetPix(-1, 0, 0, RGB{}))

	_, err = r.GetPix(0, 0, 5)
	assert.Error(t, err)
}

func TestOrientation_NegatedAxis(t *testing.T) {
	r, err := New(4, 1, 1, []string{"-X", "Y", "Z"})
	require.NoError(t, err)

	// x=0 reflects to the far end of the X axis
	require.NoError(t, r.SetPix(0, 0, 0, RGB{R: 1}))
	assert.Equal(t, RGB{R: 1}, r.Data[3])

	got, err := r.GetPix(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, RGB{R: 1}, got)
}

func TestOrientation_SwappedAxes(t *testing.T) {
	// Output X reads from source Z and vice versa
	r, err := New(2, 2, 2, []string{"Z", "Y", "X"})
	require.NoError(t, err)

	require.NoError(t, r.SetPix(1, 0, 0, RGB{B: 7}))
	// tx=z=0, ty=y=0, tz=x=1 -> i = 0 + 0 + 1*2*2 = 4
	assert.Equal(t, RGB{B: 7}, r.Data[4])
}

func TestOrientation_PlusPrefixAccepted(t *testing.T) {
	r, err := New(2, 2, 2, []string{"+X", "+Y", "+Z"})
	require.NoError(t, err)

	require.NoError(t, r.SetPix(1, 1, 1, RGB{R: 9}))
	assert.Equal(t, RGB{R: 9}, r.Data[1*2+1+1*4])
}

func TestSetPixDirect_BypassesTransform(t *testing.T) {
	r, err := New(4, 1, 1, []string{"-X", "Y", "Z"})
	require.NoError(t, err)

	require.NoError(t, r.SetPixDirect(0, 0, 0, RGB{G: 3}))
	assert.Equal(t, RGB{G: 3}, r.Data[0])
}

func TestClear(t *testing.T) {
	r, err := New(2, 2, 1, nil)
	require.NoError(t, err)

	require.NoError(t, r.SetPix(0, 0, 0, RGB{R: 255, G: 255, B: 255}))
	r.Clear()
	for i, c := range r.Data {
		assert.Equal(t, RGB{}, c, "cell %d not cleared", i)
	}
}

func TestSaturateByte(t *testing.T) {
	assert.Equal(t, uint8(0), SaturateByte(-5))
	assert.Equal(t, uint8(0), SaturateByte(0))
	assert.Equal(t, uint8(127), SaturateByte(127.9))
	assert.Equal(t, uint8(255), SaturateByte(255))
	assert.Equal(t, uint8(255), SaturateByte(300))
}

func TestRGBFromHSV(t *testing.T) {
	// Zero saturation is gray at the value level
	gray := RGBFromHSV(HSV{H: 0, S: 0, V: 128})
	assert.Equal(t, gray.R, gray.G)
	assert.Equal(t, gray.G, gray.B)

	// Hue 0 fully saturated is red
	red := RGBFromHSV(HSV{H: 0, S: 255, V: 255})
	assert.Equal(t, uint8(255), red.R)
	assert.Equal(t, uint8(0), red.B)

	// Zero value is black regardless of hue
	black := RGBFromHSV(HSV{H: 200, S: 255, V: 0})
	assert.Equal(t, RGB{}, black)
}
