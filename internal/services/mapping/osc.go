package mapping

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/hypebeast/go-osc/osc"
)

const (
	// senderInterval is the effect output tick (~60 Hz).
	senderInterval = 16 * time.Millisecond

	// epsilon is float32 machine epsilon; values closer than this to the
	// last sent value are not re-sent.
	epsilon = 1.1920929e-07
)

// oscSender ships one OSC packet. Satisfied by *osc.Client.
type oscSender interface {
	Send(packet osc.Packet) error
}

// newLFODispatcher registers handlers for /lfo/1 through /lfo/8. Each sample
// lands in the logical row selected by the LFO bank active at receive time.
func newLFODispatcher(state *State) *osc.StandardDispatcher {
	dispatcher := osc.NewStandardDispatcher()

	for n := 1; n <= NumRows; n++ {
		source := n
		addr := fmt.Sprintf("/lfo/%d", n)
		if err := dispatcher.AddMsgHandler(addr, func(msg *osc.Message) {
			if len(msg.Arguments) == 0 {
				log.Printf("LFO message without a float argument: %v", msg)
				return
			}
			value, ok := msg.Arguments[0].(float32)
			if !ok {
				log.Printf("LFO message argument is not a float: %v", msg.Arguments[0])
				return
			}
			row := state.LFOBank()*NumRows + (source - 1)
			if !state.SetLFOValue(row, value) {
				log.Printf("LFO row %d out of bounds", row)
			}
		}); err != nil {
			log.Printf("Failed to register OSC handler %s: %v", addr, err)
		}
	}

	// Known chatter from LFO hosts; silently ignored.
	_ = dispatcher.AddMsgHandler("/_samplerate", func(*osc.Message) {})

	return dispatcher
}

// newInputServer builds the UDP OSC listener for LFO values.
func newInputServer(addr string, state *State) *osc.Server {
	return &osc.Server{
		Addr:       addr,
		Dispatcher: newLFODispatcher(state),
	}
}

// runSenderLoop emits effect values at the tick rate. Per tick every column
// is resolved (fader override first, then the active bank's mapped LFOs,
// else frozen) and only columns that moved by more than epsilon are bundled.
func runSenderLoop(state *State, client oscSender, stop <-chan struct{}) {
	ticker := time.NewTicker(senderInterval)
	defer ticker.Stop()

	var sentValues [TotalCols]float32
	for i := range sentValues {
		sentValues[i] = -1.0
	}

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			next := state.computeColumnValues(&sentValues)

			bundle := osc.NewBundle(time.Now())
			bundle.Timetag = *osc.NewTimetagFromTimetag(1) // "immediately"
			var updated []int
			for col := 0; col < TotalCols; col++ {
				if math.Abs(float64(next[col]-sentValues[col])) <= epsilon {
					continue
				}
				msg := osc.NewMessage(fmt.Sprintf("/effect/%d", col+1))
				msg.Append(next[col])
				_ = bundle.Append(msg)
				updated = append(updated, col)
			}

			if len(updated) == 0 {
				continue
			}
			if err := client.Send(bundle); err != nil {
				log.Printf("Failed to send OSC bundle: %v", err)
				continue
			}
			for _, col := range updated {
				sentValues[col] = next[col]
			}
		}
	}
}
