// Package artnet provides Art-Net protocol packet building for DMX-over-UDP output.
package artnet

import (
	"encoding/binary"
)

const (
	// OpCodeDMX is the Art-Net operation code for DMX data.
	OpCodeDMX uint16 = 0x5000
	// OpCodeSync is the Art-Net operation code for synchronization.
	OpCodeSync uint16 = 0x5200
	// ProtocolVersion is the Art-Net protocol version.
	ProtocolVersion uint16 = 14
	// HeaderSize is the size of an Art-Net DMX packet header.
	HeaderSize = 18
	// SyncPacketSize is the total size of an Art-Net sync packet.
	SyncPacketSize = 14
	// MaxDataLength is the maximum number of DMX channels per universe.
	MaxDataLength = 512
	// DefaultPort is the standard Art-Net UDP port.
	DefaultPort = 6454
)

// ArtNetID is the Art-Net packet identifier.
var ArtNetID = []byte{'A', 'r', 't', '-', 'N', 'e', 't', 0x00}

// BuildDMXPacket creates an Art-Net DMX packet for the specified universe.
// Universe is the 0-based wire value. The payload may be shorter than a full
// universe; the declared length matches the payload exactly so receivers do
// not latch trailing garbage.
func BuildDMXPacket(universe uint16, data []byte) []byte {
	packet := make([]byte, HeaderSize+len(data))

	copy(packet[0:8], ArtNetID)                                  // ID (8 bytes): "Art-Net\0"
	binary.LittleEndian.PutUint16(packet[8:10], OpCodeDMX)       // OpCode (2 bytes): 0x5000 for DMX
	binary.BigEndian.PutUint16(packet[10:12], ProtocolVersion)   // Protocol version (2 bytes): 14
	packet[12] = 0                                               // Sequence (1 byte): unused, frames are sync-gated
	packet[13] = 0                                               // Physical input port (1 byte): 0
	binary.LittleEndian.PutUint16(packet[14:16], universe)       // Universe (2 bytes)
	binary.BigEndian.PutUint16(packet[16:18], uint16(len(data))) // Data length (2 bytes)
	copy(packet[HeaderSize:], data)

	return packet
}

// BuildSyncPacket creates an Art-Net synchronization packet. Receivers hold
// buffered DMX data until the sync arrives, so all universes of a frame
// latch together.
func BuildSyncPacket() []byte {
	packet := make([]byte, SyncPacketSize)

	copy(packet[0:8], ArtNetID)
	binary.LittleEndian.PutUint16(packet[8:10], OpCodeSync)
	binary.BigEndian.PutUint16(packet[10:12], ProtocolVersion)
	packet[12] = 0 // Aux1
	packet[13] = 0 // Aux2

	return packet
}
