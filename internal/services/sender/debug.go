package sender

import (
	"math"
	"strconv"
	"strings"

	"github.com/voxgrid/voxgrid-go/internal/raster"
	"github.com/voxgrid/voxgrid-go/internal/services/monitor"
)

// namedColors covers the colors the debug dashboard offers.
var namedColors = map[string]raster.RGB{
	"red":     {R: 255},
	"green":   {G: 255},
	"blue":    {B: 255},
	"white":   {R: 255, G: 255, B: 255},
	"yellow":  {R: 255, G: 255},
	"cyan":    {G: 255, B: 255},
	"magenta": {R: 255, B: 255},
}

// parseColor accepts a named color or a #rrggbb hex string; unknown input
// falls back to white so a typo still lights the volume.
func parseColor(s string) raster.RGB {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c
	}
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		if v, err := strconv.ParseUint(s[1:], 16, 32); err == nil {
			return raster.RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
		}
	}
	return raster.RGB{R: 255, G: 255, B: 255}
}

// renderDebugCommand paints one frame of the active debug command into the
// raster. elapsed is seconds since the loop started, used by the power-draw
// modulation.
func renderDebugCommand(r *raster.Raster, cmd *monitor.DebugCommand, elapsed float64) {
	switch cmd.CommandType {
	case "mapping_tester":
		if cmd.MappingTester != nil {
			renderMappingTester(r, cmd.MappingTester)
		}
	case "power_draw_tester":
		if cmd.PowerDrawTester != nil {
			renderPowerDrawTester(r, cmd.PowerDrawTester, elapsed)
		}
	}
}

// renderMappingTester lights a single layer of the volume so panel wiring
// can be verified by eye.
func renderMappingTester(r *raster.Raster, cmd *monitor.MappingTesterCommand) {
	r.Clear()
	color := parseColor(cmd.Color)

	switch cmd.Orientation {
	case "xy":
		if cmd.Layer >= r.Length {
			return
		}
		for y := 0; y < r.Height; y++ {
			for x := 0; x < r.Width; x++ {
				_ = r.SetPix(x, y, cmd.Layer, color)
			}
		}
	case "xz":
		if cmd.Layer >= r.Height {
			return
		}
		for z := 0; z < r.Length; z++ {
			for x := 0; x < r.Width; x++ {
				_ = r.SetPix(x, cmd.Layer, z, color)
			}
		}
	case "yz":
		if cmd.Layer >= r.Width {
			return
		}
		for z := 0; z < r.Length; z++ {
			for y := 0; y < r.Height; y++ {
				_ = r.SetPix(cmd.Layer, y, z, color)
			}
		}
	}
}

// renderPowerDrawTester fills the volume with a modulated solid color to
// profile supply load.
func renderPowerDrawTester(r *raster.Raster, cmd *monitor.PowerDrawTesterCommand, elapsed float64) {
	color := parseColor(cmd.Color)

	phase := 2 * math.Pi * cmd.Frequency * elapsed
	var modulation float64
	switch cmd.ModulationType {
	case "square":
		if math.Sin(phase) >= 0 {
			modulation = 1
		} else {
			modulation = -1
		}
	default: // sin
		modulation = math.Sin(phase)
	}

	level := cmd.Offset + cmd.Amplitude*modulation
	level = math.Min(math.Max(level, 0), 1)

	scaled := raster.RGB{
		R: raster.SaturateByte(float64(color.R) * level),
		G: raster.SaturateByte(float64(color.G) * level),
		B: raster.SaturateByte(float64(color.B) * level),
	}
	for i := range r.Data {
		r.Data[i] = scaled
	}
	r.Brightness = math.Min(math.Max(cmd.GlobalBrightness, 0), 1)
}
