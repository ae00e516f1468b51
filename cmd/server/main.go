// Package main is the entry point for the voxgrid server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/voxgrid/voxgrid-go/internal/config"
	"github.com/voxgrid/voxgrid-go/internal/raster"
	"github.com/voxgrid/voxgrid-go/internal/services/controlport"
	"github.com/voxgrid/voxgrid-go/internal/services/mapping"
	"github.com/voxgrid/voxgrid-go/internal/services/monitor"
	"github.com/voxgrid/voxgrid-go/internal/services/sender"
	"github.com/voxgrid/voxgrid-go/internal/web"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// OSC endpoints can be overridden on the command line, matching how
	// installations wire the mapper into their LFO hosts.
	pflag.StringVar(&cfg.OSCInHost, "in-host", cfg.OSCInHost, "OSC input host")
	pflag.IntVar(&cfg.OSCInPort, "in-port", cfg.OSCInPort, "OSC input port")
	pflag.StringVar(&cfg.OSCOutHost, "out-host", cfg.OSCOutHost, "OSC output host")
	pflag.IntVar(&cfg.OSCOutPort, "out-port", cfg.OSCOutPort, "OSC output port")
	fleetPath := pflag.String("fleet", cfg.FleetPath, "fleet configuration file")
	pflag.Parse()
	cfg.FleetPath = *fleetPath

	// Print startup banner
	printBanner(cfg)

	// Load the fleet description
	fleet, err := config.LoadFleet(cfg.FleetPath)
	if err != nil {
		log.Fatalf("Failed to load fleet config: %v", err)
	}

	// Sender monitor
	tracker := monitor.NewTracker()
	tracker.SetCooldown(time.Duration(cfg.CooldownSeconds) * time.Second)
	if fleet.World != nil {
		tracker.SetWorldDimensions(fleet.World.Width, fleet.World.Height, fleet.World.Length)
	}

	// Art-Net sender targets
	var targets []sender.Target
	for _, c := range fleet.ArtNetControllers {
		port := c.Port
		if port == 0 {
			port = cfg.ArtNetPort
		}
		ctrl, err := sender.NewController(c.IP, port)
		if err != nil {
			log.Fatalf("Failed to open Art-Net socket for %s:%d: %v", c.IP, port, err)
		}
		targets = append(targets, sender.Target{
			Controller:   ctrl,
			IP:           c.IP,
			Port:         port,
			BaseUniverse: uint16(c.BaseUniverse),
			Options:      sender.DefaultSendOptions(),
		})
	}
	senderService := sender.NewService(targets, tracker)

	// The shared raster volume. External producers mutate it; the frame
	// loop ships it.
	var frame *raster.Raster
	if fleet.World != nil {
		frame, err = raster.New(fleet.World.Width, fleet.World.Height, fleet.World.Length, nil)
		if err != nil {
			log.Fatalf("Failed to create raster: %v", err)
		}
		senderService.Start(frame)
	} else {
		log.Println("No world dimensions configured; frame loop disabled")
	}

	// Control-port fleet
	controlPortConfig := controlport.Config{ControllerAddresses: map[string]controlport.DeviceConfig{}}
	for dip, addr := range fleet.ControlPorts {
		controlPortConfig.ControllerAddresses[dip] = controlport.DeviceConfig{IP: addr.IP, Port: addr.Port}
	}
	controlPorts := controlport.NewManager(controlPortConfig)
	if cfg.ControlPortsEnabled {
		if err := controlPorts.Initialize(); err != nil {
			log.Fatalf("Failed to initialize control ports: %v", err)
		}
	}

	// Mapping engine (requires the APC-MINI when enabled)
	var mappingEngine *mapping.Engine
	if cfg.MappingEnabled {
		mappingEngine = mapping.NewEngine(mapping.Config{
			InHost:  cfg.OSCInHost,
			InPort:  cfg.OSCInPort,
			OutHost: cfg.OSCOutHost,
			OutPort: cfg.OSCOutPort,
		})
		if err := mappingEngine.Start(); err != nil {
			log.Fatalf("Failed to start mapping engine: %v", err)
		}
	}

	// HTTP monitor
	webServer := web.NewServer(controlPorts, tracker)
	httpServer := &http.Server{
		Addr:         cfg.MonitorBind + ":" + cfg.MonitorPort,
		Handler:      webServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Monitor listening on http://%s:%s\n", cfg.MonitorBind, cfg.MonitorPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cleanup services in reverse order
	if mappingEngine != nil {
		mappingEngine.Stop()
	}
	controlPorts.Shutdown()
	senderService.Close()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// printBanner prints the startup banner.
func printBanner(cfg *config.Config) {
	fmt.Println("============================================")
	fmt.Println("  voxgrid Server")
	fmt.Printf("  Version: %s\n", Version)
	fmt.Printf("  Build:   %s\n", BuildTime)
	fmt.Printf("  Commit:  %s\n", GitCommit)
	fmt.Println("============================================")
	fmt.Printf("  Environment: %s\n", cfg.Env)
	fmt.Printf("  Monitor:     %s:%s\n", cfg.MonitorBind, cfg.MonitorPort)
	fmt.Printf("  Fleet:       %s\n", cfg.FleetPath)
	fmt.Printf("  OSC in:      %s:%d\n", cfg.OSCInHost, cfg.OSCInPort)
	fmt.Printf("  OSC out:     %s:%d\n", cfg.OSCOutHost, cfg.OSCOutPort)
	fmt.Println("============================================")
}
