package mapping

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/hypebeast/go-osc/osc"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters the rtmidi driver
)

// controllerPortName identifies the APC-MINI among the MIDI ports.
const controllerPortName = "APC MINI"

// Config holds the mapping engine's OSC endpoints.
type Config struct {
	InHost  string
	InPort  int
	OutHost string
	OutPort int
}

// DefaultConfig returns the standard local loopback wiring.
func DefaultConfig() Config {
	return Config{
		InHost:  "127.0.0.1",
		InPort:  9000,
		OutHost: "127.0.0.1",
		OutPort: 9001,
	}
}

// Engine ties the OSC listener, the MIDI processor, the effect sender and
// the LED feedback task together over one shared State.
type Engine struct {
	config Config
	state  *State

	midiEvents chan midi.Message
	ledReq     chan LedUpdateRequest
	stop       chan struct{}
	stopOnce   sync.Once

	oscServer *osc.Server
	stopMIDI  func()
}

// NewEngine creates an engine with fresh state.
func NewEngine(config Config) *Engine {
	return &Engine{
		config:     config,
		state:      NewState(),
		midiEvents: make(chan midi.Message, midiEventCapacity),
		ledReq:     make(chan LedUpdateRequest, ledRequestCapacity),
		stop:       make(chan struct{}),
	}
}

// State exposes the shared routing state.
func (e *Engine) State() *State {
	return e.state
}

// Start connects the APC-MINI, clears its LEDs, and launches all four
// engine tasks. A missing MIDI controller is fatal: the engine cannot run
// without its control surface.
func (e *Engine) Start() error {
	out, err := midi.FindOutPort(controllerPortName)
	if err != nil {
		return fmt.Errorf("%s MIDI output not found: %w", controllerPortName, err)
	}
	sendMIDI, err := midi.SendTo(out)
	if err != nil {
		return fmt.Errorf("open MIDI output: %w", err)
	}
	send := func(note, velocity uint8) error {
		return sendMIDI(midi.NoteOn(0, note, velocity))
	}

	clearAllLeds(send)
	log.Println("Hardware LEDs cleared. Initial state will be set by LED update task.")

	in, err := midi.FindInPort(controllerPortName)
	if err != nil {
		return fmt.Errorf("%s MIDI input not found: %w", controllerPortName, err)
	}
	stopListen, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		select {
		case e.midiEvents <- msg:
		default:
			// Channel full; newest message dropped.
		}
	})
	if err != nil {
		return fmt.Errorf("connect MIDI input: %w", err)
	}
	e.stopMIDI = stopListen

	inAddr := fmt.Sprintf("%s:%d", e.config.InHost, e.config.InPort)
	e.oscServer = newInputServer(inAddr, e.state)
	go func() {
		log.Printf("🎚️  OSC input listening on %s", inAddr)
		if err := e.oscServer.ListenAndServe(); err != nil {
			if !strings.Contains(err.Error(), "use of closed network connection") {
				log.Printf("OSC input listener error: %v", err)
			}
		}
	}()

	go ledLoop(e.ledReq, send, e.state)

	// Initial reconcile so the bank LEDs light before any input arrives.
	select {
	case e.ledReq <- LedUpdateRequest{Kind: BothRefresh}:
	default:
	}

	proc := &processor{state: e.state, ledReq: e.ledReq}
	go proc.run(e.midiEvents)

	client := osc.NewClient(e.config.OutHost, e.config.OutPort)
	go runSenderLoop(e.state, client, e.stop)

	log.Printf("🎛️  Mapping engine running (OSC out %s:%d)", e.config.OutHost, e.config.OutPort)
	return nil
}

// Stop shuts the engine down. Cancellation is coarse-grained: the sender
// loop observes the stop channel, the MIDI and OSC listeners are detached,
// and the remaining tasks quiesce with nothing left to feed them.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stop)
		if e.stopMIDI != nil {
			e.stopMIDI()
		}
		if e.oscServer != nil {
			_ = e.oscServer.CloseConnection()
		}
	})
}
