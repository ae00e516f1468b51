package mapping

import (
	"log"

	"gitlab.com/gomidi/midi/v2"
)

const (
	// midiEventCapacity bounds the raw MIDI event channel; overflow drops
	// the newest message.
	midiEventCapacity = 64

	lfoBankNoteBase    = 82 // notes 82-85 select the LFO bank
	effectBankNoteBase = 86 // notes 86-89 select the effect bank

	faderCCBase = 48 // CC 48-55 are the eight faders
	faderCCLast = 55
)

// RefreshKind selects which LEDs a refresh request reconciles.
type RefreshKind int

const (
	// FullRefresh reconciles the 8x8 grid.
	FullRefresh RefreshKind = iota
	// BothRefresh reconciles the bank LEDs and the grid.
	BothRefresh
	// FaderColumnRefresh reconciles a single visible grid column.
	FaderColumnRefresh
)

// LedUpdateRequest asks the LED task to reconcile part of the controller.
type LedUpdateRequest struct {
	Kind        RefreshKind
	EffectIndex int // logical effect column, FaderColumnRefresh only
}

// processor interprets raw APC-MINI messages against the routing state and
// raises LED refresh requests.
type processor struct {
	state  *State
	ledReq chan<- LedUpdateRequest
}

// requestRefresh try-sends a refresh; a full LED queue drops the request, a
// later periodic reconcile catches up.
func (p *processor) requestRefresh(req LedUpdateRequest) {
	select {
	case p.ledReq <- req:
	default:
		log.Printf("LED request queue full, dropping %v refresh", req.Kind)
	}
}

// run consumes MIDI events until the channel closes.
func (p *processor) run(events <-chan midi.Message) {
	log.Println("🎹 MIDI processor started")
	for msg := range events {
		p.handle(msg)
	}
	log.Println("MIDI processor stopped")
}

func (p *processor) handle(msg midi.Message) {
	var channel, key, velocity uint8
	if msg.GetNoteStart(&channel, &key, &velocity) {
		p.handleNoteOn(key)
		return
	}

	var cc, value uint8
	if msg.GetControlChange(&channel, &cc, &value) {
		p.handleControlChange(cc, value)
	}
}

func (p *processor) handleNoteOn(note uint8) {
	switch {
	case note >= lfoBankNoteBase && note < lfoBankNoteBase+NumLFOBanks:
		bank := int(note - lfoBankNoteBase)
		p.state.SetLFOBank(bank)
		log.Printf("Switched to LFO bank %d", bank)
		p.requestRefresh(LedUpdateRequest{Kind: BothRefresh})

	case note >= effectBankNoteBase && note < effectBankNoteBase+NumEffectBanks:
		bank := int(note - effectBankNoteBase)
		p.state.SetEffectBank(bank)
		log.Printf("Switched to effect bank %d", bank)
		p.requestRefresh(LedUpdateRequest{Kind: BothRefresh})

	default:
		rVis, cVis, ok := gridPosition(note)
		if !ok {
			return
		}
		lfoBank := p.state.LFOBank()
		effectBank := p.state.EffectBank()
		row := lfoBank*NumRows + rVis
		col := effectBank*NumCols + cVis
		if row >= TotalRows || col >= TotalCols {
			log.Printf("Grid press out of bounds: row=%d col=%d", row, col)
			return
		}

		p.state.toggleMapping(row, col, lfoBank)
		p.requestRefresh(LedUpdateRequest{Kind: FullRefresh})
	}
}

func (p *processor) handleControlChange(cc, value uint8) {
	if cc < faderCCBase || cc > faderCCLast {
		return
	}
	cVis := int(cc - faderCCBase)
	lfoBank := p.state.LFOBank()
	effectBank := p.state.EffectBank()
	col := effectBank*NumCols + cVis
	if col >= TotalCols {
		log.Printf("Fader column out of bounds: %d", col)
		return
	}

	p.state.setFaderOverride(lfoBank, col, float32(value)/127.0)
	p.requestRefresh(LedUpdateRequest{Kind: FaderColumnRefresh, EffectIndex: col})
}
