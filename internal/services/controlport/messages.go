// Package controlport supervises the fleet of LCD/LED auxiliary devices
// reached over TCP: one long-lived connection per device with reconnection,
// heartbeats, display diffing and button fan-out.
package controlport

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voxgrid/voxgrid-go/internal/raster"
)

// OutgoingMessage is a server-to-device command. Bytes() is the exact
// newline-terminated wire form.
type OutgoingMessage interface {
	Bytes() []byte
	String() string
}

// Noop is the outbound heartbeat.
type Noop struct{}

func (Noop) Bytes() []byte  { return []byte("noop\n") }
func (Noop) String() string { return "Noop" }

// LcdClear wipes the device display.
type LcdClear struct{}

func (LcdClear) Bytes() []byte  { return []byte("lcd:clear\n") }
func (LcdClear) String() string { return "LcdClear" }

// LcdWrite places text at (X,Y) on the device display.
type LcdWrite struct {
	X    int
	Y    int
	Text string
}

func (m LcdWrite) Bytes() []byte {
	return []byte(fmt.Sprintf("lcd:%d:%d:%s\n", m.X, m.Y, m.Text))
}

func (m LcdWrite) String() string {
	return fmt.Sprintf("LcdWrite{x: %d, y: %d, text: %q}", m.X, m.Y, m.Text)
}

// Backlight sets the per-key backlight states.
type Backlight struct {
	States []bool
}

func (m Backlight) Bytes() []byte {
	parts := make([]string, len(m.States))
	for i, s := range m.States {
		if s {
			parts[i] = "1"
		} else {
			parts[i] = "0"
		}
	}
	return []byte("backlight:" + strings.Join(parts, ":") + "\n")
}

func (m Backlight) String() string {
	return fmt.Sprintf("Backlight{states: %v}", m.States)
}

// Led sets the device's RGB LEDs. The wire payload is a little-endian 16-bit
// triplet count followed by raw RGB triplets, Base64-encoded.
type Led struct {
	Colors []raster.RGB
}

func (m Led) Bytes() []byte {
	payload := make([]byte, 2, 2+3*len(m.Colors))
	payload[0] = byte(len(m.Colors))
	payload[1] = byte(len(m.Colors) >> 8)
	for _, c := range m.Colors {
		payload = append(payload, c.R, c.G, c.B)
	}
	encoded := base64.StdEncoding.EncodeToString(payload)
	return []byte("led:" + encoded + "\n")
}

func (m Led) String() string {
	return fmt.Sprintf("Led{%d colors}", len(m.Colors))
}

// IncomingMessage is a device-to-server message, one JSON object per line.
type IncomingMessage interface {
	incoming()
}

// Heartbeat is the device's liveness ping.
type Heartbeat struct{}

// Identification carries the device's self-reported DIP.
type Identification struct {
	DIP string
}

// ButtonState is the full button vector after any press or release.
type ButtonState struct {
	Buttons []bool
}

func (Heartbeat) incoming()      {}
func (Identification) incoming() {}
func (ButtonState) incoming()    {}

// ParseIncoming decodes one line from a device. Button vectors may use
// booleans or integers; integers are truthy-coerced.
func ParseIncoming(line string) (IncomingMessage, error) {
	var value map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &value); err != nil {
		return nil, fmt.Errorf("unknown message format: %s", line)
	}

	// Button messages are the most common shape.
	if raw, ok := value["buttons"]; ok {
		var bools []bool
		if err := json.Unmarshal(raw, &bools); err == nil {
			return ButtonState{Buttons: bools}, nil
		}
		var ints []int
		if err := json.Unmarshal(raw, &ints); err == nil {
			bools = make([]bool, len(ints))
			for i, v := range ints {
				bools[i] = v != 0
			}
			return ButtonState{Buttons: bools}, nil
		}
		return nil, fmt.Errorf("unknown message format: %s", line)
	}

	if raw, ok := value["type"]; ok {
		var msgType string
		if err := json.Unmarshal(raw, &msgType); err == nil {
			switch msgType {
			case "heartbeat":
				return Heartbeat{}, nil
			case "controller":
				if dipRaw, ok := value["dip"]; ok {
					var dip string
					if err := json.Unmarshal(dipRaw, &dip); err == nil {
						return Identification{DIP: dip}, nil
					}
				}
			}
		}
	}

	return nil, fmt.Errorf("unknown message format: %s", line)
}
