package controlport

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voxgrid/voxgrid-go/internal/raster"
)

const (
	reconnectInterval = 2 * time.Second
	heartbeatInterval = 1 * time.Second
	connectTimeout    = 2 * time.Second

	// settleDelay is how long a fresh connection gets before the display
	// state is replayed onto it.
	settleDelay = 100 * time.Millisecond

	// outgoingQueueCapacity bounds the per-connection send queue. A full
	// queue drops the message rather than blocking the enqueuer.
	outgoingQueueCapacity = 256
)

// DeviceConfig is one control-port device address.
type DeviceConfig struct {
	IP   string `yaml:"ip" json:"ip"`
	Port int    `yaml:"port" json:"port"`
}

// Port is the handle for a single control-port device. It owns the
// supervisory connection task, the display buffers and the button fan-out.
type Port struct {
	dip    string
	config DeviceConfig

	display *displayBuffers
	buttons *buttonBroadcaster
	logs    *logRing

	connected atomic.Bool

	bytesSent          atomic.Uint64
	bytesReceived      atomic.Uint64
	messagesSent       atomic.Uint64
	messagesReceived   atomic.Uint64
	connectionAttempts atomic.Uint64

	// mu guards the outgoing channel swap and the time/error fields below.
	mu                    sync.Mutex
	outgoing              chan OutgoingMessage
	lastError             *string
	connectionTime        *time.Time
	lastHeartbeatReceived *time.Time
	lastNoopSent          *time.Time
	heartbeatActive       bool
	noopActive            bool
	throughput            throughputFilter

	shutdown <-chan struct{}
	stopped  chan struct{}
}

func newPort(dip string, config DeviceConfig, shutdown <-chan struct{}) *Port {
	return &Port{
		dip:      dip,
		config:   config,
		display:  newDisplayBuffers(),
		buttons:  newButtonBroadcaster(),
		logs:     &logRing{},
		outgoing: make(chan OutgoingMessage, outgoingQueueCapacity),
		shutdown: shutdown,
		stopped:  make(chan struct{}),
	}
}

// DIP returns the device identifier.
func (p *Port) DIP() string {
	return p.dip
}

// Connected reports whether the device link is currently up.
func (p *Port) Connected() bool {
	return p.connected.Load()
}

// start launches the supervisory task.
func (p *Port) start() {
	go p.run()
}

// run is the per-device supervisor: it loops on the reconnect and heartbeat
// timers until shutdown, keeping exactly one connection task alive.
func (p *Port) run() {
	defer close(p.stopped)

	reconnect := time.NewTicker(reconnectInterval)
	defer reconnect.Stop()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	// Attempt the initial connection immediately instead of waiting for the
	// first timer tick.
	if err := p.attemptConnection(); err != nil {
		p.logs.Add(LogError, fmt.Sprintf("Initial connection failed: %v", err), nil)
	}

	for {
		select {
		case <-p.shutdown:
			p.connected.Store(false)
			return
		case <-reconnect.C:
			if !p.connected.Load() {
				if err := p.attemptConnection(); err != nil {
					p.logs.Add(LogError, fmt.Sprintf("Connection failed: %v", err), nil)
				}
			}
		case <-heartbeat.C:
			if p.connected.Load() {
				if err := p.Send(Noop{}); err != nil {
					p.logs.Add(LogError, fmt.Sprintf("Heartbeat failed: %v", err), nil)
				}
			}
		}
	}
}

// attemptConnection dials the device with a hard timeout. On success it
// swaps in a fresh outgoing queue (discarding any unsent tail), spawns the
// I/O task and schedules a display replay after a short settle.
func (p *Port) attemptConnection() error {
	p.connectionAttempts.Add(1)

	addr := net.JoinHostPort(p.config.IP, strconv.Itoa(p.config.Port))
	p.logs.Add(LogInfo, fmt.Sprintf("Attempting connection to %s", addr), nil)

	conn, err := net.DialTimeout("tcp", addr, connectTimeout)
	if err != nil {
		return err
	}

	// Mark connected immediately so the reconnect tick cannot dial twice.
	p.connected.Store(true)
	now := time.Now().UTC()
	outgoing := make(chan OutgoingMessage, outgoingQueueCapacity)

	p.mu.Lock()
	p.lastError = nil
	p.connectionTime = &now
	p.outgoing = outgoing
	p.mu.Unlock()

	p.logs.Add(LogInfo, "Connection established, spawning I/O task", nil)

	go p.handleConnection(conn, outgoing)

	go func() {
		timer := time.NewTimer(settleDelay)
		defer timer.Stop()
		select {
		case <-p.shutdown:
			return
		case <-timer.C:
		}
		if err := p.ForceDisplayRefresh(); err != nil {
			p.logs.Add(LogError, fmt.Sprintf("Failed to resend display state after reconnection: %v", err), nil)
			return
		}
		p.logs.Add(LogInfo, "Display state resent after reconnection", nil)
	}()

	return nil
}

// handleConnection runs the reader and writer halves of one connection.
// Either half exiting tears the connection down and marks the device
// disconnected; the supervisor then redials on its next tick.
func (p *Port) handleConnection(conn net.Conn, outgoing chan OutgoingMessage) {
	connDone := make(chan struct{})

	// Writer half: drain the outgoing queue onto the wire in FIFO order.
	go func() {
		for {
			select {
			case <-connDone:
				return
			case <-p.shutdown:
				_ = conn.Close()
				return
			case msg := <-outgoing:
				data := msg.Bytes()
				if _, err := conn.Write(data); err != nil {
					p.logs.Add(LogError, fmt.Sprintf("Write error: %v", err), nil)
					_ = conn.Close()
					return
				}
				p.bytesSent.Add(uint64(len(data)))
				p.messagesSent.Add(1)
				raw := string(data)
				p.logs.Add(LogOutgoing, fmt.Sprintf("Sent: %s", msg), &raw)
			}
		}
	}()

	// Reader half: newline-terminated UTF-8 lines.
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := p.processIncoming(line); err != nil {
			raw := line
			p.logs.Add(LogError, fmt.Sprintf("Error processing message: %v", err), &raw)
		}
	}
	if err := scanner.Err(); err != nil {
		p.logs.Add(LogError, fmt.Sprintf("Read error: %v", err), nil)
	}

	close(connDone)
	_ = conn.Close()
	p.connected.Store(false)
	p.logs.Add(LogInfo, "Connection closed", nil)
}

// processIncoming counts and dispatches one line from the device.
func (p *Port) processIncoming(line string) error {
	p.bytesReceived.Add(uint64(len(line) + 1)) // line plus the newline
	p.messagesReceived.Add(1)

	msg, err := ParseIncoming(line)
	if err != nil {
		return err
	}

	switch m := msg.(type) {
	case Heartbeat:
		now := time.Now().UTC()
		p.mu.Lock()
		p.lastHeartbeatReceived = &now
		p.heartbeatActive = true
		p.mu.Unlock()
		return p.Send(Noop{})
	case Identification:
		raw := line
		p.logs.Add(LogIncoming, fmt.Sprintf("Received: Controller identification with DIP: %s", m.DIP), &raw)
		if m.DIP != p.dip {
			p.logs.Add(LogInfo, fmt.Sprintf("DIP mismatch: expected %s, got %s", p.dip, m.DIP), nil)
		}
	case ButtonState:
		raw := line
		p.logs.Add(LogIncoming, fmt.Sprintf("Received: Button state %v", m.Buttons), &raw)
		p.buttons.Publish(m.Buttons)
	}
	return nil
}

// Send enqueues an outbound message for the current connection. Noop sends
// stamp the heartbeat bookkeeping even while queued.
func (p *Port) Send(msg OutgoingMessage) error {
	if _, ok := msg.(Noop); ok {
		now := time.Now().UTC()
		p.mu.Lock()
		p.lastNoopSent = &now
		p.noopActive = true
		p.mu.Unlock()
	}

	p.mu.Lock()
	outgoing := p.outgoing
	p.mu.Unlock()

	select {
	case outgoing <- msg:
		return nil
	default:
		return fmt.Errorf("outgoing queue full for DIP %s", p.dip)
	}
}

// ClearDisplay stages an all-blank frame.
func (p *Port) ClearDisplay() {
	p.display.Clear()
}

// WriteDisplay stages text at (x,y) on the next frame.
func (p *Port) WriteDisplay(x, y int, text string) {
	p.display.Write(x, y, text)
}

// CommitDisplay diffs the staged frame against the committed one and sends
// the minimal update sequence.
func (p *Port) CommitDisplay() error {
	for _, msg := range p.display.Commit() {
		if err := p.Send(msg); err != nil {
			log.Printf("commit_display: failed to send message for DIP %s: %v", p.dip, err)
		}
	}
	return nil
}

// ForceDisplayRefresh clears the device and redraws every non-blank row of
// the staged frame.
func (p *Port) ForceDisplayRefresh() error {
	for _, msg := range p.display.ForceRefresh() {
		if err := p.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

// SetLeds enqueues an LED color update.
func (p *Port) SetLeds(colors []raster.RGB) {
	if err := p.Send(Led{Colors: colors}); err != nil {
		p.logs.Add(LogError, fmt.Sprintf("Failed to enqueue LED update: %v", err), nil)
	}
}

// SetBacklights enqueues a backlight state update.
func (p *Port) SetBacklights(states []bool) {
	if err := p.Send(Backlight{States: states}); err != nil {
		p.logs.Add(LogError, fmt.Sprintf("Failed to enqueue backlight update: %v", err), nil)
	}
}

// SubscribeButtons returns a subscription delivering every button event
// received after this call.
func (p *Port) SubscribeButtons() *ButtonSubscription {
	return p.buttons.Subscribe()
}

// Logs returns a copy of the device log ring.
func (p *Port) Logs() []LogEntry {
	return p.logs.Entries()
}

// GetStats assembles the published statistics snapshot, refreshing heartbeat
// staleness and the throughput filter.
func (p *Port) GetStats() Stats {
	now := time.Now().UTC()
	bytesSent := p.bytesSent.Load()
	bytesReceived := p.bytesReceived.Load()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastHeartbeatReceived != nil && now.Sub(*p.lastHeartbeatReceived) > heartbeatStaleAfter {
		p.heartbeatActive = false
	}
	if p.lastNoopSent != nil && now.Sub(*p.lastNoopSent) > heartbeatStaleAfter {
		p.noopActive = false
	}

	p.throughput.update(now, bytesSent, bytesReceived)

	stats := Stats{
		DIP:                     p.dip,
		IP:                      p.config.IP,
		Port:                    p.config.Port,
		Connected:               p.connected.Load(),
		ConnectionTime:          p.connectionTime,
		BytesSent:               bytesSent,
		BytesReceived:           bytesReceived,
		MessagesSent:            p.messagesSent.Load(),
		MessagesReceived:        p.messagesReceived.Load(),
		ConnectionAttempts:      p.connectionAttempts.Load(),
		LastError:               p.lastError,
		ThroughputSentBps:       p.throughput.sentBps,
		ThroughputReceivedBps:   p.throughput.receivedBps,
		LastThroughputUpdate:    p.throughput.lastUpdate,
		LastHeartbeatReceived:   p.lastHeartbeatReceived,
		LastNoopSent:            p.lastNoopSent,
		HeartbeatReceivedActive: p.heartbeatActive,
		NoopSentActive:          p.noopActive,
	}
	if stats.Connected {
		stats.LastMessageTime = &now
	}
	return stats
}
