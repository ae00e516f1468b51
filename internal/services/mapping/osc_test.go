package mapping

import (
	"sync"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLFODispatcher_UpdatesRowInActiveBank(t *testing.T) {
	state := NewState()
	dispatcher := newLFODispatcher(state)

	msg := osc.NewMessage("/lfo/3")
	msg.Append(float32(0.42))
	dispatcher.Dispatch(msg)

	assert.InDelta(t, 0.42, float64(state.LFOValue(2)), 1e-6)

	// With bank 2 active the same source lands 16 rows up.
	state.SetLFOBank(2)
	msg = osc.NewMessage("/lfo/3")
	msg.Append(float32(0.9))
	dispatcher.Dispatch(msg)

	assert.InDelta(t, 0.9, float64(state.LFOValue(2*NumRows+2)), 1e-6)
	assert.InDelta(t, 0.42, float64(state.LFOValue(2)), 1e-6, "bank 0 sample untouched")
}

func TestLFODispatcher_NonFloatArgumentIgnored(t *testing.T) {
	state := NewState()
	dispatcher := newLFODispatcher(state)

	msg := osc.NewMessage("/lfo/1")
	msg.Append(int32(7))
	dispatcher.Dispatch(msg)

	assert.Equal(t, float32(0), state.LFOValue(0))
}

func TestLFODispatcher_BundleContentsDispatched(t *testing.T) {
	state := NewState()
	dispatcher := newLFODispatcher(state)

	bundle := osc.NewBundle(time.Now())
	msg := osc.NewMessage("/lfo/1")
	msg.Append(float32(0.5))
	require.NoError(t, bundle.Append(msg))

	// Bundle contents are dispatched on a separate goroutine.
	dispatcher.Dispatch(bundle)
	assert.Eventually(t, func() bool {
		v := float64(state.LFOValue(0))
		return v > 0.5-1e-6 && v < 0.5+1e-6
	}, time.Second, 5*time.Millisecond)
}

// capturingClient records every packet the sender loop ships.
type capturingClient struct {
	mu      sync.Mutex
	packets []osc.Packet
}

func (c *capturingClient) Send(packet osc.Packet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packets = append(c.packets, packet)
	return nil
}

func (c *capturingClient) drain() []osc.Packet {
	c.mu.Lock()
	defer c.mu.Unlock()
	packets := c.packets
	c.packets = nil
	return packets
}

// allMessages flattens captured bundles into messages.
func allMessages(packets []osc.Packet) []*osc.Message {
	var messages []*osc.Message
	for _, p := range packets {
		if bundle, ok := p.(*osc.Bundle); ok {
			messages = append(messages, bundle.Messages...)
		}
	}
	return messages
}

func runSenderFor(state *State, client oscSender, d time.Duration) {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		runSenderLoop(state, client, stop)
		close(done)
	}()
	time.Sleep(d)
	close(stop)
	<-done
}

func TestSenderLoop_EmitsChangedColumnsOnly(t *testing.T) {
	state := NewState()
	state.toggleMapping(0, 0, 0)
	state.SetLFOValue(0, 0.25)

	client := &capturingClient{}
	runSenderFor(state, client, 100*time.Millisecond)

	messages := allMessages(client.drain())
	require.NotEmpty(t, messages, "the mapped column must be announced")

	// Every message targets column 1 and carries 0.25; after the first
	// bundle the value is unchanged, so exactly one message total.
	require.Len(t, messages, 1)
	assert.Equal(t, "/effect/1", messages[0].Address)
	require.Len(t, messages[0].Arguments, 1)
	assert.InDelta(t, 0.25, float64(messages[0].Arguments[0].(float32)), 1e-6)
}

func TestSenderLoop_QuiescentStateSendsNothing(t *testing.T) {
	state := NewState()
	client := &capturingClient{}
	runSenderFor(state, client, 80*time.Millisecond)
	assert.Empty(t, client.drain())
}

func TestSenderLoop_FaderOverrideWins(t *testing.T) {
	state := NewState()
	state.toggleMapping(0, 0, 0)
	state.SetLFOValue(0, 0.25)
	state.setFaderOverride(0, 0, float32(64)/127.0)

	client := &capturingClient{}
	runSenderFor(state, client, 100*time.Millisecond)

	messages := allMessages(client.drain())
	require.Len(t, messages, 1)
	assert.Equal(t, "/effect/1", messages[0].Address)
	assert.InDelta(t, float64(64)/127.0, float64(messages[0].Arguments[0].(float32)), 1e-6)
}

func TestSenderLoop_ChangesBundledTogether(t *testing.T) {
	state := NewState()
	state.setFaderOverride(0, 0, 0.1)
	state.setFaderOverride(0, 5, 0.2)

	client := &capturingClient{}
	runSenderFor(state, client, 100*time.Millisecond)

	packets := client.drain()
	require.Len(t, packets, 1, "both changes ride one bundle")
	bundle := packets[0].(*osc.Bundle)
	require.Len(t, bundle.Messages, 2)
	assert.Equal(t, "/effect/1", bundle.Messages[0].Address)
	assert.Equal(t, "/effect/6", bundle.Messages[1].Address)
}
