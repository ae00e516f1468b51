package mapping

import (
	"log"
)

// APC-MINI LED velocities.
const (
	LedOff    uint8 = 0
	LedGreen  uint8 = 1
	LedRed    uint8 = 3
	LedOrange uint8 = 5
	LedBlue   uint8 = 6
)

// ledRequestCapacity bounds the refresh request channel; overflow drops via
// try-send.
const ledRequestCapacity = 8

// noteSender writes one LED velocity to the controller. The LED task owns
// the MIDI output exclusively; everything else goes through requests.
type noteSender func(note, velocity uint8) error

// ledState caches the last velocity written to each LED so reconciliation
// only touches hardware when something changed.
type ledState struct {
	grid        [NumRows][NumCols]uint8
	lfoBanks    [NumLFOBanks]uint8
	effectBanks [NumEffectBanks]uint8
}

func (l *ledState) sendGridNoteIfChanged(send noteSender, rVis, cVis int, velocity uint8) {
	if rVis < 0 || rVis >= NumRows || cVis < 0 || cVis >= NumCols {
		return
	}
	if l.grid[rVis][cVis] == velocity {
		return
	}
	if err := send(noteGrid[rVis][cVis], velocity); err != nil {
		log.Printf("Failed to send grid LED note %d: %v", noteGrid[rVis][cVis], err)
	}
	l.grid[rVis][cVis] = velocity
}

func (l *ledState) sendLFOBankNoteIfChanged(send noteSender, bank int, velocity uint8) {
	if bank < 0 || bank >= NumLFOBanks {
		return
	}
	if l.lfoBanks[bank] == velocity {
		return
	}
	if err := send(uint8(lfoBankNoteBase+bank), velocity); err != nil {
		log.Printf("Failed to send LFO bank LED note %d: %v", lfoBankNoteBase+bank, err)
	}
	l.lfoBanks[bank] = velocity
}

func (l *ledState) sendEffectBankNoteIfChanged(send noteSender, bank int, velocity uint8) {
	if bank < 0 || bank >= NumEffectBanks {
		return
	}
	if l.effectBanks[bank] == velocity {
		return
	}
	if err := send(uint8(effectBankNoteBase+bank), velocity); err != nil {
		log.Printf("Failed to send effect bank LED note %d: %v", effectBankNoteBase+bank, err)
	}
	l.effectBanks[bank] = velocity
}

// gridVelocity resolves the desired velocity for one visible grid cell:
// RED when the column is fader-overridden and the cell mapped, GREEN when
// only mapped, OFF otherwise.
func gridVelocity(state *State, lfoBank, row, col int) uint8 {
	if row >= TotalRows || col >= TotalCols {
		return LedOff
	}
	overridden, _ := state.FaderOverride(lfoBank, col)
	mapped := state.Mapped(row, col)
	switch {
	case overridden && mapped:
		return LedRed
	case mapped:
		return LedGreen
	default:
		return LedOff
	}
}

// refreshBankLeds lights the active LFO bank amber and the active effect
// bank blue.
func (l *ledState) refreshBankLeds(send noteSender, state *State) {
	lfoBank := state.LFOBank()
	effectBank := state.EffectBank()

	for i := 0; i < NumLFOBanks; i++ {
		velocity := LedOff
		if i == lfoBank {
			velocity = LedOrange
		}
		l.sendLFOBankNoteIfChanged(send, i, velocity)
	}
	for i := 0; i < NumEffectBanks; i++ {
		velocity := LedOff
		if i == effectBank {
			velocity = LedBlue
		}
		l.sendEffectBankNoteIfChanged(send, i, velocity)
	}
}

// refreshGridLeds reconciles the whole visible 8x8 grid against the state.
func (l *ledState) refreshGridLeds(send noteSender, state *State) {
	lfoBank := state.LFOBank()
	effectBank := state.EffectBank()

	for rVis := 0; rVis < NumRows; rVis++ {
		for cVis := 0; cVis < NumCols; cVis++ {
			row := lfoBank*NumRows + rVis
			col := effectBank*NumCols + cVis
			l.sendGridNoteIfChanged(send, rVis, cVis, gridVelocity(state, lfoBank, row, col))
		}
	}
}

// refreshFaderColumnLeds reconciles the single visible column mapped to the
// given logical effect index, if it is in the current effect bank's view.
func (l *ledState) refreshFaderColumnLeds(send noteSender, state *State, effectIndex int) {
	lfoBank := state.LFOBank()
	effectBank := state.EffectBank()

	if effectIndex < effectBank*NumCols || effectIndex >= (effectBank+1)*NumCols {
		return
	}
	cVis := effectIndex % NumCols

	for rVis := 0; rVis < NumRows; rVis++ {
		row := lfoBank*NumRows + rVis
		l.sendGridNoteIfChanged(send, rVis, cVis, gridVelocity(state, lfoBank, row, effectIndex))
	}
}

// clearAllLeds turns off every LED the APC-MINI exposes (notes 0-95). Used
// once at startup as a hardware reset, bypassing the cache.
func clearAllLeds(send noteSender) {
	log.Println("Clearing all controller LEDs")
	for note := uint8(0); note < 96; note++ {
		if err := send(note, LedOff); err != nil {
			log.Printf("Failed to clear LED note %d: %v", note, err)
		}
	}
}

// ledLoop owns the MIDI output and the LED cache, reconciling on demand.
func ledLoop(requests <-chan LedUpdateRequest, send noteSender, state *State) {
	log.Println("💡 LED update loop started")
	cache := &ledState{}

	for req := range requests {
		switch req.Kind {
		case FullRefresh:
			cache.refreshGridLeds(send, state)
		case BothRefresh:
			cache.refreshBankLeds(send, state)
			cache.refreshGridLeds(send, state)
		case FaderColumnRefresh:
			cache.refreshFaderColumnLeds(send, state, req.EffectIndex)
		}
	}
	log.Println("LED update loop ended")
}
