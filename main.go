package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/lumipallolabs/textscan/internal/core"
	"github.com/lumipallolabs/textscan/internal/model"
	"github.com/lumipallolabs/textscan/internal/ui"
)

func main() {
	resume := flag.Bool("resume", false, "resume from the last checkpoint instead of scanning from scratch")
	plain := flag.Bool("plain", false, "line-based output instead of the interactive display")
	recordDir := flag.String("record-dir", "", "directory for checkpoint and count records (default ~/.textscan)")
	importLegacy := flag.Bool("import-legacy", false, "convert old combined record files to per-volume records and exit")
	every := flag.Duration("every", 0, "re-run the scan on this interval (0 = scan once)")
	flag.Parse()

	// Enable CPU profiling if CPUPROFILE env var is set
	if cpuProfile := os.Getenv("CPUPROFILE"); cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	cfg := core.DefaultConfig()
	if *recordDir != "" {
		cfg.RecordDir = *recordDir
	}
	ctrl := core.NewController(cfg)

	if *importLegacy {
		migrated, err := ctrl.Store().ImportLegacy()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if migrated {
			fmt.Println("Legacy records converted to per-volume format; originals backed up.")
		} else {
			fmt.Println("No legacy records found.")
		}
		return
	}

	volumes, err := resolveVolumes(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(volumes) == 0 {
		fmt.Fprintln(os.Stderr, "No volumes to scan.")
		os.Exit(1)
	}

	for {
		if err := runScan(ctrl, volumes, *resume, *plain); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if *every <= 0 {
			return
		}
		time.Sleep(*every)
		// Later passes pick up from the records the first one wrote.
		*resume = true
	}
}

// resolveVolumes turns command-line roots into volumes, or enumerates
// the host's volumes when none are given.
func resolveVolumes(roots []string) ([]model.Volume, error) {
	if len(roots) == 0 {
		return model.Enumerate()
	}
	volumes := make([]model.Volume, 0, len(roots))
	for _, root := range roots {
		v, err := model.VolumeForPath(root)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", root, err)
		}
		volumes = append(volumes, v)
	}
	return volumes, nil
}

func runScan(ctrl *core.Controller, volumes []model.Volume, resume, plain bool) error {
	events, err := ctrl.Start(context.Background(), volumes, resume)
	if err != nil {
		return err
	}

	if plain {
		return renderPlain(events)
	}

	p := tea.NewProgram(ui.NewApp(events, ctrl.Abort))
	_, err = p.Run()
	return err
}

// renderPlain consumes the event stream as log lines, for cron jobs
// and terminals without TTY support.
func renderPlain(events <-chan core.Event) error {
	var lastPct int64 = -1
	for ev := range events {
		switch e := ev.(type) {
		case core.VolumeStartedEvent:
			fmt.Printf("scanning %s\n", e.Volume.Path)
		case core.ProgressEvent:
			if e.TotalEstimate == 0 {
				continue
			}
			pct := e.FilesProcessed * 100 / e.TotalEstimate
			if pct != lastPct {
				lastPct = pct
				fmt.Printf("  %3d%%  %s / %s files\n", pct,
					humanize.Comma(e.FilesProcessed), humanize.Comma(e.TotalEstimate))
			}
		case core.VolumeCompletedEvent:
			fmt.Printf("finished %s: %s text files\n", e.VolumeID, humanize.Comma(int64(e.Files)))
		case core.CountCompletedEvent:
			fmt.Printf("count pass done: %s files total\n", humanize.Comma(e.Total))
		case core.ScanCompletedEvent:
			fmt.Printf("scan complete: %s text files found\n", humanize.Comma(int64(len(e.Result.Files))))
			for _, mc := range e.Result.MIMECounts() {
				fmt.Printf("  %-28s %s\n", mc.Label, humanize.Comma(int64(mc.Count)))
			}
		case core.ScanAbortedEvent:
			fmt.Println("scan aborted; last checkpoint stands")
		}
	}
	return nil
}
