// Package web serves the JSON monitoring APIs for the control-port fleet and
// the Art-Net sender, plus a websocket stats stream for dashboards.
package web

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/voxgrid/voxgrid-go/internal/services/controlport"
	"github.com/voxgrid/voxgrid-go/internal/services/monitor"
	"github.com/voxgrid/voxgrid-go/internal/services/network"
)

// statsStreamInterval is the websocket push cadence.
const statsStreamInterval = 2 * time.Second

// Server exposes the monitoring endpoints over one chi router.
type Server struct {
	controlPorts *controlport.Manager
	tracker      *monitor.Tracker
	upgrader     websocket.Upgrader
}

// NewServer creates a monitor server over the given subsystems.
func NewServer(controlPorts *controlport.Manager, tracker *monitor.Tracker) *Server {
	return &Server{
		controlPorts: controlPorts,
		tracker:      tracker,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Router assembles the full route table.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	})
	router.Use(corsMiddleware.Handler)

	router.Get("/health", s.handleHealth)

	router.Get("/api/control_ports", s.handleControlPorts)
	router.Get("/api/control_ports/{dip}/logs", s.handleControlPortLogs)
	router.Get("/api/control_ports/{dip}/stats", s.handleControlPortStats)

	router.Get("/api/stats", s.handleStats)
	router.Get("/api/controllers", s.handleControllers)
	router.Get("/api/system", s.handleSystem)

	router.Get("/api/debug/state", s.handleDebugState)
	router.Get("/api/debug/world-dimensions", s.handleWorldDimensions)
	router.Post("/api/debug/mode", s.handleDebugMode)
	router.Post("/api/debug/pause", s.handleDebugPause)
	router.Post("/api/debug/mapping-tester", s.handleMappingTester)
	router.Post("/api/debug/power-draw-tester", s.handlePowerDrawTester)

	router.Get("/api/ws", s.handleStatsStream)

	return router
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// validationError reports a bad request body. Validation failures are 200
// with success=false so dashboards surface the message instead of a bare
// status code.
func validationError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleControlPorts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"control_ports": s.controlPorts.AllStats(),
	})
}

// logFilteredOut hides heartbeat chatter from the log endpoint.
func logFilteredOut(entry controlport.LogEntry) bool {
	m := entry.Message
	return strings.Contains(m, "noop") || strings.Contains(m, "Noop") ||
		strings.Contains(m, "heartbeat") || strings.Contains(m, "Heartbeat")
}

func (s *Server) handleControlPortLogs(w http.ResponseWriter, r *http.Request) {
	dip := chi.URLParam(r, "dip")
	port, ok := s.controlPorts.GetPort(dip)
	if !ok {
		http.NotFound(w, r)
		return
	}

	filtered := make([]controlport.LogEntry, 0)
	for _, entry := range port.Logs() {
		if !logFilteredOut(entry) {
			filtered = append(filtered, entry)
		}
	}
	writeJSON(w, http.StatusOK, filtered)
}

func (s *Server) handleControlPortStats(w http.ResponseWriter, r *http.Request) {
	dip := chi.URLParam(r, "dip")
	port, ok := s.controlPorts.GetPort(dip)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, port.GetStats())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.GetStats())
}

func (s *Server) handleControllers(w http.ResponseWriter, r *http.Request) {
	stats := s.tracker.GetStats()
	routable := 0
	for _, c := range stats.Controllers {
		if c.IsRoutable {
			routable++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"controllers": stats.Controllers,
		"total":       len(stats.Controllers),
		"routable":    routable,
	})
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	stats := s.tracker.GetStats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"system":                    stats.System,
		"controller_count":          s.tracker.ControllerCount(),
		"routable_controller_count": s.tracker.RoutableControllerCount(),
		"interfaces":                network.ListInterfaceOptions(),
	})
}

func (s *Server) handleDebugState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.GetDebugState())
}

func (s *Server) handleWorldDimensions(w http.ResponseWriter, r *http.Request) {
	dims := s.tracker.GetWorldDimensions()
	if dims == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"error": "World dimensions not set",
		})
		return
	}
	writeJSON(w, http.StatusOK, dims)
}

func (s *Server) handleDebugMode(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Enabled == nil {
		validationError(w, "Missing 'enabled' field")
		return
	}
	s.tracker.SetDebugMode(*payload.Enabled)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"debug_mode": *payload.Enabled,
	})
}

func (s *Server) handleDebugPause(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Paused *bool `json:"paused"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Paused == nil {
		validationError(w, "Missing 'paused' field")
		return
	}
	s.tracker.SetDebugPause(*payload.Paused)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"paused":  *payload.Paused,
	})
}

func (s *Server) handleMappingTester(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Clear       bool    `json:"clear"`
		Orientation *string `json:"orientation"`
		Layer       *int    `json:"layer"`
		Color       *string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		validationError(w, "Invalid JSON body")
		return
	}

	if payload.Clear {
		s.tracker.SetDebugCommand(monitor.DebugCommand{CommandType: "clear"})
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"command": "clear",
		})
		return
	}

	if payload.Orientation == nil || payload.Layer == nil || payload.Color == nil {
		validationError(w, "Missing required fields: orientation, layer, color")
		return
	}

	s.tracker.SetDebugCommand(monitor.DebugCommand{
		CommandType: "mapping_tester",
		MappingTester: &monitor.MappingTesterCommand{
			Orientation: *payload.Orientation,
			Layer:       *payload.Layer,
			Color:       *payload.Color,
		},
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"command": "mapping_tester",
	})
}

func (s *Server) handlePowerDrawTester(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Color            *string  `json:"color"`
		ModulationType   *string  `json:"modulation_type"`
		Frequency        *float64 `json:"frequency"`
		Amplitude        *float64 `json:"amplitude"`
		Offset           *float64 `json:"offset"`
		GlobalBrightness *float64 `json:"global_brightness"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil ||
		payload.Color == nil || payload.ModulationType == nil || payload.Frequency == nil ||
		payload.Amplitude == nil || payload.Offset == nil || payload.GlobalBrightness == nil {
		validationError(w, "Missing required fields: color, modulation_type, frequency, amplitude, offset, global_brightness")
		return
	}

	s.tracker.SetDebugCommand(monitor.DebugCommand{
		CommandType: "power_draw_tester",
		PowerDrawTester: &monitor.PowerDrawTesterCommand{
			Color:            *payload.Color,
			ModulationType:   *payload.ModulationType,
			Frequency:        *payload.Frequency,
			Amplitude:        *payload.Amplitude,
			Offset:           *payload.Offset,
			GlobalBrightness: *payload.GlobalBrightness,
		},
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"command": "power_draw_tester",
	})
}

// handleStatsStream pushes the sender-monitor snapshot over a websocket
// every statsStreamInterval until the client goes away.
func (s *Server) handleStatsStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ticker := time.NewTicker(statsStreamInterval)
	defer ticker.Stop()

	// Send one snapshot immediately so the dashboard renders without
	// waiting for the first tick.
	if err := conn.WriteJSON(s.tracker.GetStats()); err != nil {
		return
	}
	for range ticker.C {
		if err := conn.WriteJSON(s.tracker.GetStats()); err != nil {
			return
		}
	}
}
