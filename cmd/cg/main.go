package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/vanderheijden86/colorgrid/internal/datasource"
	"github.com/vanderheijden86/colorgrid/pkg/config"
	"github.com/vanderheijden86/colorgrid/pkg/loader"
	"github.com/vanderheijden86/colorgrid/pkg/ui"
	"github.com/vanderheijden86/colorgrid/pkg/version"
	"github.com/vanderheijden86/colorgrid/pkg/watcher"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	dataDirFlag := flag.String("data-dir", "", "Color data directory (overrides config and CG_DATA_DIR)")
	noWatch := flag.Bool("no-watch", false, "Disable live reload on data file changes")
	checkSources := flag.Bool("check-sources", false, "Compare all data sources for inconsistencies and exit")
	flag.Parse()

	// CPU profiling support
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: cg [options]")
		fmt.Println("\nA TUI for hierarchical market color data.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("cg %s\n", version.Version)
		os.Exit(0)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("CG_FORCE_TTY") == "" {
		fmt.Fprintln(os.Stderr, "cg requires a terminal (set CG_FORCE_TTY=1 to override)")
		os.Exit(1)
	}

	// Config is non-fatal: fall back to defaults.
	appCfg, cfgErr := config.Load()
	if cfgErr != nil {
		appCfg = config.DefaultConfig()
	}

	dataDir := *dataDirFlag
	if dataDir == "" {
		dataDir = appCfg.DataDir
	}
	if dataDir == "" {
		var err error
		dataDir, err = loader.GetDataDir("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error locating data directory: %v\n", err)
			os.Exit(1)
		}
	}

	if *checkSources {
		runSourceCheck(dataDir)
		return
	}

	rows, err := datasource.LoadRowsFromDir(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading colors: %v\n", err)
		fmt.Fprintf(os.Stderr, "Expected colors.db or a JSONL file in %s.\n", dataDir)
		os.Exit(1)
	}
	if len(rows) == 0 {
		fmt.Println("No color rows found.")
		os.Exit(0)
	}

	// The backend is the SQLite store when one exists; without it the TUI
	// still browses JSONL data with lookup/search/rules disabled.
	var backend ui.Backend
	sources, _ := datasource.DiscoverSources(datasource.DiscoveryOptions{DataDir: dataDir})
	for _, source := range sources {
		if source.Type != datasource.SourceTypeSQLite {
			continue
		}
		store, err := datasource.OpenSQLiteStore(source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open %s: %v\n", source.Path, err)
			break
		}
		defer store.Close()
		backend = store
		break
	}

	// Live reload watches the JSONL source when one exists.
	var w *watcher.Watcher
	if !*noWatch {
		if jsonlPath, err := loader.FindJSONLPath(dataDir); err == nil {
			w, err = watcher.NewWatcher(jsonlPath)
			if err == nil {
				if err := w.Start(); err != nil {
					w = nil
				}
			} else {
				w = nil
			}
		}
	}

	m := ui.New(appCfg, rows, backend, dataDir, w)
	if err := runTUIProgram(m); err != nil {
		fmt.Printf("Error running colorgrid: %v\n", err)
		os.Exit(1)
	}
}

func runSourceCheck(dataDir string) {
	sources, err := datasource.DiscoverSources(datasource.DiscoveryOptions{
		DataDir:                dataDir,
		ValidateAfterDiscovery: true,
		IncludeInvalid:         true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Discovery failed: %v\n", err)
		os.Exit(1)
	}
	if len(sources) == 0 {
		fmt.Println("No sources found.")
		return
	}

	for _, s := range sources {
		fmt.Println(s.String())
	}

	diffs, err := datasource.CheckAllSourcesConsistent(sources, datasource.DefaultDiffOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Consistency check failed: %v\n", err)
		os.Exit(1)
	}
	if len(diffs) == 0 {
		fmt.Println("All sources consistent.")
		return
	}
	for _, d := range diffs {
		fmt.Println(d.Summary())
	}
	os.Exit(1)
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set CG_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("CG_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted)) {
		return nil
	}
	return err
}
