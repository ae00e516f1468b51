package sender

import (
	"log"
	"sync"
	"time"

	"github.com/voxgrid/voxgrid-go/internal/raster"
	"github.com/voxgrid/voxgrid-go/internal/services/monitor"
)

// defaultFrameRate is the frame loop tick in Hz.
const defaultFrameRate = 60

// Target is one controller plus its universe base.
type Target struct {
	Controller   *Controller
	IP           string
	Port         int
	BaseUniverse uint16
	Options      SendOptions
}

// Service fans one raster frame out to every configured Art-Net target and
// feeds the sender monitor with per-controller reachability reports.
type Service struct {
	targets []Target
	tracker *monitor.Tracker

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

// NewService creates a sender service over the given targets. Each target is
// registered with the tracker so the dashboard shows it from the first frame.
func NewService(targets []Target, tracker *monitor.Tracker) *Service {
	for _, t := range targets {
		tracker.RegisterController(t.IP, t.Port)
	}
	log.Printf("📡 Art-Net sender initialized with %d targets", len(targets))
	return &Service{targets: targets, tracker: tracker}
}

// SendFrame ships the raster to every target and counts the frame. Failures
// are reported to the tracker and do not stop the remaining targets.
func (s *Service) SendFrame(r *raster.Raster) {
	for _, t := range s.targets {
		if err := t.Controller.Send(t.BaseUniverse, r, t.Options); err != nil {
			s.tracker.ReportControllerFailure(t.IP, t.Port, err.Error())
			continue
		}
		s.tracker.ReportControllerSuccess(t.IP, t.Port)
	}
	s.tracker.ReportFrame()
}

// Start runs the frame loop: each tick the debug command slot is consulted,
// rendered into the raster when debug mode is on, and the frame shipped.
// External producers mutate the raster between ticks.
func (s *Service) Start(r *raster.Raster) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.mu.Unlock()

	go s.frameLoop(r, stop)
}

func (s *Service) frameLoop(r *raster.Raster, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / defaultFrameRate)
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			state := s.tracker.GetDebugState()
			if state.Paused {
				continue
			}
			if state.Enabled {
				if cmd := s.tracker.TakeDebugCommand(); cmd != nil {
					renderDebugCommand(r, cmd, time.Since(start).Seconds())
				}
			}
			s.SendFrame(r)
		}
	}
}

// Stop halts the frame loop.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopChan)
}

// Close releases every target socket.
func (s *Service) Close() {
	s.Stop()
	for _, t := range s.targets {
		_ = t.Controller.Close()
	}
}
