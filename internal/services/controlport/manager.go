package controlport

import (
	"log"
	"sort"
	"sync"
)

// Config maps device identifiers to their TCP addresses.
type Config struct {
	ControllerAddresses map[string]DeviceConfig `yaml:"controller_addresses"`
}

// Manager supervises one Port per configured device.
type Manager struct {
	mu     sync.RWMutex
	ports  map[string]*Port
	config Config

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewManager creates a manager for the configured fleet. Ports are not
// started until Initialize.
func NewManager(config Config) *Manager {
	return &Manager{
		ports:    make(map[string]*Port),
		config:   config,
		shutdown: make(chan struct{}),
	}
}

// Initialize starts one supervisory task per configured device.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for dip, cfg := range m.config.ControllerAddresses {
		port := newPort(dip, cfg, m.shutdown)
		port.start()
		m.ports[dip] = port
	}
	log.Printf("🔌 Control-port manager supervising %d devices", len(m.ports))
	return nil
}

// GetPort returns the handle for one device, if configured.
func (m *Manager) GetPort(dip string) (*Port, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	port, ok := m.ports[dip]
	return port, ok
}

// AllStats returns every device's statistics snapshot, ordered by DIP.
func (m *Manager) AllStats() []Stats {
	m.mu.RLock()
	ports := make([]*Port, 0, len(m.ports))
	for _, port := range m.ports {
		ports = append(ports, port)
	}
	m.mu.RUnlock()

	sort.Slice(ports, func(i, j int) bool { return ports[i].dip < ports[j].dip })

	stats := make([]Stats, 0, len(ports))
	for _, port := range ports {
		stats = append(stats, port.GetStats())
	}
	return stats
}

// Shutdown broadcasts the stop signal to every connection task and clears
// the fleet.
func (m *Manager) Shutdown() {
	m.shutdownOnce.Do(func() { close(m.shutdown) })

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, port := range m.ports {
		port.connected.Store(false)
	}
	m.ports = make(map[string]*Port)
}
