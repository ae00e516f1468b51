package monitor

import "sync"

// MappingTesterCommand lights a single layer of the volume in one color so
// panel wiring can be verified from the dashboard.
type MappingTesterCommand struct {
	Orientation string `json:"orientation"` // xy, xz or yz
	Layer       int    `json:"layer"`
	Color       string `json:"color"`
}

// PowerDrawTesterCommand drives the whole volume with a modulated fill to
// profile supply load.
type PowerDrawTesterCommand struct {
	Color            string  `json:"color"`
	ModulationType   string  `json:"modulation_type"` // sin or square
	Frequency        float64 `json:"frequency"`
	Amplitude        float64 `json:"amplitude"`
	Offset           float64 `json:"offset"`
	GlobalBrightness float64 `json:"global_brightness"`
}

// DebugCommand is the single-slot command read by the raster producer once
// per frame. CommandType is one of "clear", "mapping_tester" or
// "power_draw_tester".
type DebugCommand struct {
	CommandType     string                  `json:"command_type"`
	MappingTester   *MappingTesterCommand   `json:"mapping_tester,omitempty"`
	PowerDrawTester *PowerDrawTesterCommand `json:"power_draw_tester,omitempty"`
}

// Cube is one physical display cube position within the world volume.
type Cube struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// DebugState is the full debug surface served to the dashboard.
type DebugState struct {
	Enabled bool          `json:"enabled"`
	Paused  bool          `json:"paused"`
	Command *DebugCommand `json:"command"`
}

// WorldDimensions bounds the dashboard's layer selector.
type WorldDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Length int `json:"length"`
}

type debugStore struct {
	mu        sync.RWMutex
	enabled   bool
	paused    bool
	command   *DebugCommand
	worldDims *WorldDimensions
	cubes     []Cube
}

// SetDebugMode toggles whether the raster producer honors debug commands.
func (t *Tracker) SetDebugMode(enabled bool) {
	t.debug.mu.Lock()
	defer t.debug.mu.Unlock()
	t.debug.enabled = enabled
}

// SetDebugPause pauses or resumes the raster producer.
func (t *Tracker) SetDebugPause(paused bool) {
	t.debug.mu.Lock()
	defer t.debug.mu.Unlock()
	t.debug.paused = paused
}

// SetDebugCommand replaces the command slot. A "clear" command empties it.
func (t *Tracker) SetDebugCommand(cmd DebugCommand) {
	t.debug.mu.Lock()
	defer t.debug.mu.Unlock()
	if cmd.CommandType == "clear" {
		t.debug.command = nil
		return
	}
	t.debug.command = &cmd
}

// GetDebugState returns the current debug surface.
func (t *Tracker) GetDebugState() DebugState {
	t.debug.mu.RLock()
	defer t.debug.mu.RUnlock()
	return DebugState{
		Enabled: t.debug.enabled,
		Paused:  t.debug.paused,
		Command: t.debug.command,
	}
}

// TakeDebugCommand returns the pending command, if any, leaving the slot in
// place; the producer reads it once per frame.
func (t *Tracker) TakeDebugCommand() *DebugCommand {
	t.debug.mu.RLock()
	defer t.debug.mu.RUnlock()
	return t.debug.command
}

// SetWorldDimensions publishes the volume size for the dashboard.
func (t *Tracker) SetWorldDimensions(width, height, length int) {
	t.debug.mu.Lock()
	defer t.debug.mu.Unlock()
	t.debug.worldDims = &WorldDimensions{Width: width, Height: height, Length: length}
}

// GetWorldDimensions returns the published volume size, if set.
func (t *Tracker) GetWorldDimensions() *WorldDimensions {
	t.debug.mu.RLock()
	defer t.debug.mu.RUnlock()
	return t.debug.worldDims
}

// SetCubes publishes the physical cube layout.
func (t *Tracker) SetCubes(cubes []Cube) {
	t.debug.mu.Lock()
	defer t.debug.mu.Unlock()
	t.debug.cubes = append([]Cube(nil), cubes...)
}

// GetCubes returns the published cube layout.
func (t *Tracker) GetCubes() []Cube {
	t.debug.mu.RLock()
	defer t.debug.mu.RUnlock()
	return append([]Cube(nil), t.debug.cubes...)
}
