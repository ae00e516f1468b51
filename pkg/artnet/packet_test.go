package artnet

import (
	"encoding/binary"
	"testing"
)

func TestBuildDMXPacket(t *testing.T) {
	tests := []struct {
		name         string
		universe     uint16
		data         []byte
		wantID       string
		wantOpCode   uint16
		wantUniverse uint16
		wantLength   uint16
	}{
		{
			name:         "Universe 0 full payload",
			universe:     0,
			data:         make([]byte, 510),
			wantID:       "Art-Net\x00",
			wantOpCode:   0x5000,
			wantUniverse: 0,
			wantLength:   510,
		},
		{
			name:         "Universe 3 short payload",
			universe:     3,
			data:         make([]byte, 6),
			wantID:       "Art-Net\x00",
			wantOpCode:   0x5000,
			wantUniverse: 3,
			wantLength:   6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packet := BuildDMXPacket(tt.universe, tt.data)

			// Check packet size
			if len(packet) != HeaderSize+len(tt.data) {
				t.Errorf("BuildDMXPacket() packet size = %d, want %d", len(packet), HeaderSize+len(tt.data))
			}

			// Check Art-Net ID
			gotID := string(packet[0:8])
			if gotID != tt.wantID {
				t.Errorf("BuildDMXPacket() ID = %q, want %q", gotID, tt.wantID)
			}

			// Check OpCode (little-endian)
			gotOpCode := binary.LittleEndian.Uint16(packet[8:10])
			if gotOpCode != tt.wantOpCode {
				t.Errorf("BuildDMXPacket() OpCode = 0x%04x, want 0x%04x", gotOpCode, tt.wantOpCode)
			}

			// Check Protocol Version (big-endian)
			gotVersion := binary.BigEndian.Uint16(packet[10:12])
			if gotVersion != ProtocolVersion {
				t.Errorf("BuildDMXPacket() Protocol Version = %d, want %d", gotVersion, ProtocolVersion)
			}

			// Check Sequence
			if packet[12] != 0 {
				t.Errorf("BuildDMXPacket() Sequence = %d, want 0", packet[12])
			}

			// Check Physical
			if packet[13] != 0 {
				t.Errorf("BuildDMXPacket() Physical = %d, want 0", packet[13])
			}

			// Check Universe (little-endian)
			gotUniverse := binary.LittleEndian.Uint16(packet[14:16])
			if gotUniverse != tt.wantUniverse {
				t.Errorf("BuildDMXPacket() Universe = %d, want %d", gotUniverse, tt.wantUniverse)
			}

			// Check Data Length (big-endian)
			gotLength := binary.BigEndian.Uint16(packet[16:18])
			if gotLength != tt.wantLength {
				t.Errorf("BuildDMXPacket() Length = %d, want %d", gotLength, tt.wantLength)
			}
		})
	}
}

func TestBuildDMXPacket_ChannelData(t *testing.T) {
	data := make([]byte, 510)
	data[0] = 255   // First channel
	data[100] = 128 // Middle channel
	data[509] = 64  // Last channel

	packet := BuildDMXPacket(0, data)

	if packet[18] != 255 {
		t.Errorf("BuildDMXPacket() channel 1 = %d, want 255", packet[18])
	}
	if packet[18+100] != 128 {
		t.Errorf("BuildDMXPacket() channel 101 = %d, want 128", packet[18+100])
	}
	if packet[18+509] != 64 {
		t.Errorf("BuildDMXPacket() channel 510 = %d, want 64", packet[18+509])
	}
}

func TestBuildDMXPacket_ShortPayloadNotPadded(t *testing.T) {
	// Partial universes keep their exact length on the wire
	data := []byte{100, 200}
	packet := BuildDMXPacket(0, data)

	if len(packet) != HeaderSize+2 {
		t.Errorf("BuildDMXPacket() size = %d, want %d", len(packet), HeaderSize+2)
	}
	if packet[18] != 100 || packet[19] != 200 {
		t.Errorf("BuildDMXPacket() payload = %v, want [100 200]", packet[18:])
	}
	if got := binary.BigEndian.Uint16(packet[16:18]); got != 2 {
		t.Errorf("BuildDMXPacket() Length = %d, want 2", got)
	}
}

func TestBuildDMXPacket_EmptyPayload(t *testing.T) {
	packet := BuildDMXPacket(0, nil)

	if len(packet) != HeaderSize {
		t.Errorf("BuildDMXPacket() with nil data size = %d, want %d", len(packet), HeaderSize)
	}
	if got := binary.BigEndian.Uint16(packet[16:18]); got != 0 {
		t.Errorf("BuildDMXPacket() Length = %d, want 0", got)
	}
}

func TestBuildSyncPacket(t *testing.T) {
	packet := BuildSyncPacket()

	if len(packet) != SyncPacketSize {
		t.Fatalf("BuildSyncPacket() size = %d, want %d", len(packet), SyncPacketSize)
	}
	if string(packet[0:8]) != "Art-Net\x00" {
		t.Errorf("BuildSyncPacket() ID = %q, want %q", packet[0:8], "Art-Net\x00")
	}
	if got := binary.LittleEndian.Uint16(packet[8:10]); got != OpCodeSync {
		t.Errorf("BuildSyncPacket() OpCode = 0x%04x, want 0x%04x", got, OpCodeSync)
	}
	if got := binary.BigEndian.Uint16(packet[10:12]); got != ProtocolVersion {
		t.Errorf("BuildSyncPacket() Protocol Version = %d, want %d", got, ProtocolVersion)
	}
	if packet[12] != 0 || packet[13] != 0 {
		t.Errorf("BuildSyncPacket() aux bytes = %d %d, want 0 0", packet[12], packet[13])
	}
}
