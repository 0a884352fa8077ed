// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"synesthesia/cmd"
	"synesthesia/internal/audio"
	applog "synesthesia/internal/log"
	"synesthesia/internal/osc"
	"synesthesia/internal/rules"
	"synesthesia/internal/transport"
	"synesthesia/pkg/build"
)

// main is the entry point for the synesthesia pipeline.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Initialize PortAudio
//   - Parse command line arguments
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Load mapping rules and open the OSC bridge
//   - Start capture and the processing loop
//   - Begin recording and monitoring if enabled
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Drain the pipeline in order
//   - Surface teardown failures
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	build.Initialize()

	// Limit OS threads to optimize for real-time processing:
	// - One thread dedicated to the capture callback (time-critical)
	// - One thread for analysis and I/O
	runtime.GOMAXPROCS(2)

	if err := audio.Initialize(); err != nil {
		applog.Fatalf("Main: %v", err)
	}
	defer audio.Terminate()

	cfg, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("Main: %v", err)
	}
	if cfg == nil {
		// Help or version output was requested.
		return
	}

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}
	if cfg.Debug {
		applog.SetLevel(applog.LevelDebug)
	}

	// Handle one-off commands that don't require the pipeline.
	if cfg.Command == "list" {
		if err := audio.ListDevices(); err != nil {
			applog.Fatalf("Main: %v", err)
		}
		return
	}
	if !cfg.RunSession {
		return
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	store := rules.NewStore(rules.Load(cfg.Rules.Path))

	bridge, err := osc.NewBridge(cfg.OSC.TargetAddress)
	if err != nil {
		applog.Fatalf("Main: %v", err)
	}

	var monitor *transport.Monitor
	var publisher *transport.StatsPublisher
	if cfg.Monitor.Enabled {
		monitor = transport.NewMonitor(cfg.Monitor.Port)
	}

	var mon transport.Transport
	if monitor != nil {
		mon = monitor
	}
	engine, err := audio.NewEngine(cfg, store, bridge, mon)
	if err != nil {
		applog.Fatalf("Main: %v", err)
	}

	if monitor != nil {
		stats := engine.Stats()
		publisher, err = transport.NewStatsPublisher(cfg.Monitor.StatsInterval, monitor, func() any {
			return stats.Snapshot()
		})
		if err != nil {
			applog.Fatalf("Main: %v", err)
		}
		publisher.Start()
	}

	// CRITICAL: Start of real-time processing. The first capture
	// callback fires as soon as Start returns.
	if err := engine.Start(); err != nil {
		applog.Fatalf("Main: %v", err)
	}

	outputFile := cfg.Record.OutputFile
	if cfg.Record.Enabled {
		if outputFile == "" {
			outputFile = "recording-" + time.Now().UTC().Format("02-01-2006-150405") + ".wav"
		}
		if err := engine.StartRecording(outputFile); err != nil {
			applog.Fatalf("Main: %v", err)
		}
	}

	applog.Infof("Main: Session running, sending to %s. Ctrl+C to stop.", cfg.OSC.TargetAddress)

	<-done

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if publisher != nil {
		if err := publisher.Stop(); err != nil {
			applog.Errorf("Main: Error stopping stats publisher: %v", err)
		}
	}

	// Close stops capture, drains the processing loop, finalizes the
	// recording and closes the OSC bridge and monitor. A teardown
	// failure here means state may not have been flushed.
	if err := engine.Close(); err != nil {
		applog.Fatalf("Main: Error during shutdown: %v", err)
	}

	if cfg.Record.Enabled {
		fmt.Printf("\nRecording saved to: %s\n", outputFile)
	}

	snap := engine.Stats().Snapshot()
	applog.Infof("Main: Session finished. frames=%d dropped=%d onsets=%d glitches=%d uptime=%.1fs",
		snap.FramesProcessed, snap.FramesDropped, snap.Onsets, snap.StreamGlitches, snap.UptimeSeconds)
}
