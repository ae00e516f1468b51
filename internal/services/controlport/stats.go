package controlport

import (
	"time"
)

const (
	// heartbeatStaleAfter is how long after the last heartbeat/noop the
	// corresponding activity flag drops.
	heartbeatStaleAfter = 3 * time.Second

	// throughputTimeConstant is the IIR filter time constant for the
	// reported bytes-per-second figures.
	throughputTimeConstant = 2 * time.Second

	// throughputMinInterval is the shortest interval between filter updates.
	throughputMinInterval = 100 * time.Millisecond
)

// Stats is the published per-device statistics snapshot.
type Stats struct {
	DIP                     string     `json:"dip"`
	IP                      string     `json:"ip"`
	Port                    int        `json:"port"`
	Connected               bool       `json:"connected"`
	LastMessageTime         *time.Time `json:"last_message_time"`
	ConnectionTime          *time.Time `json:"connection_time"`
	BytesSent               uint64     `json:"bytes_sent"`
	BytesReceived           uint64     `json:"bytes_received"`
	MessagesSent            uint64     `json:"messages_sent"`
	MessagesReceived        uint64     `json:"messages_received"`
	ConnectionAttempts      uint64     `json:"connection_attempts"`
	LastError               *string    `json:"last_error"`
	ThroughputSentBps       float64    `json:"throughput_sent_bps"`
	ThroughputReceivedBps   float64    `json:"throughput_received_bps"`
	LastThroughputUpdate    *time.Time `json:"last_throughput_update"`
	LastHeartbeatReceived   *time.Time `json:"last_heartbeat_received"`
	LastNoopSent            *time.Time `json:"last_noop_sent"`
	HeartbeatReceivedActive bool       `json:"heartbeat_received_active"`
	NoopSentActive          bool       `json:"noop_sent_active"`
}

// throughputFilter is a single-pole IIR low-pass over instantaneous
// byte rates: alpha = dt / (tau + dt) per update.
type throughputFilter struct {
	lastBytesSent     uint64
	lastBytesReceived uint64
	lastUpdate        *time.Time
	sentBps           float64
	receivedBps       float64
}

// update feeds the filter with the current cumulative counters. The first
// call only records the baseline. A later call no more than
// throughputMinInterval after the last applied update is ignored and leaves
// the baseline where it was.
func (f *throughputFilter) update(now time.Time, bytesSent, bytesReceived uint64) {
	if f.lastUpdate == nil {
		f.lastBytesSent = bytesSent
		f.lastBytesReceived = bytesReceived
		t := now
		f.lastUpdate = &t
		return
	}

	dt := now.Sub(*f.lastUpdate).Seconds()
	if dt <= throughputMinInterval.Seconds() {
		return
	}

	instantSent := float64(bytesSent-f.lastBytesSent) / dt
	instantReceived := float64(bytesReceived-f.lastBytesReceived) / dt

	alpha := dt / (throughputTimeConstant.Seconds() + dt)
	f.sentBps = alpha*instantSent + (1-alpha)*f.sentBps
	f.receivedBps = alpha*instantReceived + (1-alpha)*f.receivedBps

	f.lastBytesSent = bytesSent
	f.lastBytesReceived = bytesReceived
	t := now
	f.lastUpdate = &t
}
