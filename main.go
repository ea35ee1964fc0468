// ABOUTME: Entry point for the Waveline file player
// ABOUTME: Parses CLI flags and starts the player application
package main

import (
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Waveline-Audio/waveline-go/internal/app"
	"github.com/Waveline-Audio/waveline-go/internal/ui"
	"github.com/Waveline-Audio/waveline-go/internal/version"
	"github.com/Waveline-Audio/waveline-go/pkg/sink"
	"github.com/Waveline-Audio/waveline-go/pkg/transport"
)

var (
	file        = flag.String("file", "", "Audio file to play (wav, mp3, flac, ogg, opus)")
	volume      = flag.Int("volume", 100, "Initial volume (0-100)")
	maxInFlight = flag.Int("max-inflight", sink.DefaultMaxInFlight, "Concurrent transfers at the output")
	backend     = flag.String("backend", "oto", "Output backend: oto, portaudio, or loopback")
	logFile     = flag.String("log-file", "waveline-player.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	if *file == "" {
		log.Fatalf("no input: -file is required")
	}

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
		log.Printf("Starting %s %s", version.Product, version.Version)
	}

	var t transport.Transport
	switch *backend {
	case "oto":
		t = transport.NewOto()
	case "portaudio":
		t = transport.NewPortAudio()
	case "loopback":
		t = transport.NewLoopback(transport.LoopbackConfig{Realtime: true})
	default:
		log.Fatalf("unknown backend %q", *backend)
	}
	defer t.Close()

	// TUI setup
	var tuiProg *tea.Program
	var ctrl *ui.Control

	if useTUI {
		ctrl = ui.NewControl()
		tuiProg, err = ui.Run(ctrl)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go tuiProg.Run()
	}

	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	player := app.New(app.Config{
		File:        *file,
		Volume:      *volume,
		MaxInFlight: *maxInFlight,
		Transport:   t,
		OnProgress: func(stats sink.Stats) {
			updateTUI(ui.StatusMsg{
				File:      *file,
				Enqueued:  stats.Enqueued,
				Submitted: stats.Submitted,
				Returned:  stats.Returned,
				InFlight:  stats.InFlight,
				Pending:   stats.Pending,
			})
		},
	})

	// Control handlers
	if ctrl != nil {
		go handleControls(player, ctrl)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			log.Printf("Shutdown signal received")
		case <-quitChan(ctrl):
			log.Printf("Received quit from TUI")
		}
		player.Stop()
	}()

	if err := player.Run(); err != nil {
		log.Fatalf("Playback failed: %v", err)
	}

	if tuiProg != nil {
		tuiProg.Quit()
	}
	log.Printf("Player stopped")
}

// handleControls processes volume and pause requests from the TUI.
// Quit is consumed by the shutdown handler.
func handleControls(player *app.Player, ctrl *ui.Control) {
	for {
		select {
		case vol := <-ctrl.Changes:
			log.Printf("Volume change: %d%%, muted=%v", vol.Volume, vol.Muted)
			player.SetVolume(vol.Volume)
			player.SetMute(vol.Muted)
		case <-ctrl.Pauses:
			player.TogglePause()
		}
	}
}

// quitChan adapts the optional TUI quit channel for select
func quitChan(ctrl *ui.Control) <-chan ui.QuitMsg {
	if ctrl == nil {
		return nil
	}
	return ctrl.Quit
}
