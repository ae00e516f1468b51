// Package sender slices rasters into Art-Net DMX universes and ships them
// over UDP, one packet set plus a sync per frame.
package sender

import (
	"fmt"
	"net"
	"strconv"

	"github.com/voxgrid/voxgrid-go/internal/raster"
	"github.com/voxgrid/voxgrid-go/pkg/artnet"
)

// SendOptions controls how a raster is sliced into universes.
type SendOptions struct {
	ChannelsPerUniverse int
	UniversesPerLayer   uint16
	ChannelSpan         int
	ZIndices            []int // nil means 0, span, 2*span, ... up to length-1
}

// DefaultSendOptions matches the wiring of a standard 3-universe-per-layer
// volumetric panel chain.
func DefaultSendOptions() SendOptions {
	return SendOptions{
		ChannelsPerUniverse: 510,
		UniversesPerLayer:   3,
		ChannelSpan:         1,
	}
}

// Controller is a single Art-Net target: an (IP,port) pair reached through a
// broadcast-capable UDP socket. It keeps no state between frames.
type Controller struct {
	conn net.PacketConn
	addr *net.UDPAddr
}

// NewController opens a broadcast-capable UDP socket aimed at ip:port.
func NewController(ip string, port int) (*Controller, error) {
	addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(ip, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("resolve %s:%d: %w", ip, port, err)
	}

	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("open UDP socket: %w", err)
	}

	return &Controller{conn: conn, addr: addr}, nil
}

// Addr returns the controller's target address.
func (c *Controller) Addr() *net.UDPAddr {
	return c.addr
}

// Close releases the socket.
func (c *Controller) Close() error {
	return c.conn.Close()
}

// Send emits one frame: the raster sliced into OpDmx packets per SendOptions,
// terminated by a single OpSync. Socket errors propagate to the caller; no
// retries are attempted.
func (c *Controller) Send(baseUniverse uint16, r *raster.Raster, opts SendOptions) error {
	if opts.ChannelsPerUniverse <= 0 {
		opts.ChannelsPerUniverse = 510
	}
	if opts.ChannelSpan <= 0 {
		opts.ChannelSpan = 1
	}

	zIndices := opts.ZIndices
	if zIndices == nil {
		for z := 0; z < r.Length; z += opts.ChannelSpan {
			zIndices = append(zIndices, z)
		}
	}

	layerCells := r.Width * r.Height
	dataBytes := make([]byte, 0, layerCells*3)

	for outZ, z := range zIndices {
		universe := uint16(outZ/opts.ChannelSpan)*opts.UniversesPerLayer + baseUniverse

		start := z * layerCells
		end := (z + 1) * layerCells
		if end > len(r.Data) {
			// Inconsistent raster data; skip the layer rather than panic.
			continue
		}

		dataBytes = dataBytes[:0]
		for i := start; i < end; i++ {
			cell := r.Data[i]
			dataBytes = append(dataBytes,
				raster.SaturateByte(float64(cell.R)*r.Brightness),
				raster.SaturateByte(float64(cell.G)*r.Brightness),
				raster.SaturateByte(float64(cell.B)*r.Brightness),
			)
		}

		toSend := dataBytes
		for len(toSend) > 0 {
			chunkSize := len(toSend)
			if chunkSize > opts.ChannelsPerUniverse {
				chunkSize = opts.ChannelsPerUniverse
			}
			packet := artnet.BuildDMXPacket(universe, toSend[:chunkSize])
			if _, err := c.conn.WriteTo(packet, c.addr); err != nil {
				return fmt.Errorf("send DMX universe %d: %w", universe, err)
			}
			toSend = toSend[chunkSize:]
			universe++
		}
	}

	if _, err := c.conn.WriteTo(artnet.BuildSyncPacket(), c.addr); err != nil {
		return fmt.Errorf("send sync: %w", err)
	}

	return nil
}
