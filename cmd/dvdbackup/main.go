package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bamsammich/dvdbackup/internal/catalog"
	"github.com/bamsammich/dvdbackup/internal/config"
	"github.com/bamsammich/dvdbackup/internal/dvdread"
	"github.com/bamsammich/dvdbackup/internal/engine"
	"github.com/bamsammich/dvdbackup/internal/event"
	"github.com/bamsammich/dvdbackup/internal/platform"
	"github.com/bamsammich/dvdbackup/internal/stats"
	"github.com/bamsammich/dvdbackup/internal/ui"
)

var version = "dev"

const (
	waitAttempts = 60
	waitInterval = time.Second
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the parsed command line.
type options struct {
	outputDir   string
	vts         int
	maxRate     sizeFlag
	logFile     string
	wait        bool
	verify      bool
	dryRun      bool
	noJournal   bool
	noProgress  bool
	verbose     bool
	quiet       bool
	showVersion bool
}

func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "dvdbackup [flags] [device]",
		Short: "Back up a DVD-Video disc to a VIDEO_TS directory, block by block",
		Long: `dvdbackup copies every information, backup, menu and title file of a
DVD-Video disc into <output-dir>/<disc title>/VIDEO_TS. Unreadable blocks
are zero-filled so a damaged disc still yields a playable backup. The
device may be a drive, an ISO image, or a directory holding VIDEO_TS.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintf(stdout, "dvdbackup %s\n", version)
				return nil
			}
			return runBackup(cmd, args, &opts, stdout, stderr)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.Flags().BoolVar(&opts.showVersion, "version", false, "print version and exit")
	rootCmd.Flags().
		IntVarP(&opts.vts, "vts", "T", 0, "back up only title set N (1-99) plus the disc menus")
	rootCmd.Flags().
		StringVarP(&opts.outputDir, "output-dir", "o", ".", "directory the backup is created in")
	rootCmd.Flags().
		BoolVar(&opts.wait, "wait", false, "wait up to a minute for the drive to become ready")
	rootCmd.Flags().
		BoolVar(&opts.verify, "verify", false, "verify checksums after the backup (BLAKE3)")
	rootCmd.Flags().
		BoolVar(&opts.dryRun, "dry-run", false, "show what would be written without writing")
	rootCmd.Flags().
		Var(&opts.maxRate, "max-rate", "limit disc reads to RATE bytes/sec (e.g. 4M)")
	rootCmd.Flags().
		BoolVar(&opts.noJournal, "no-journal", false, "don't keep a resume journal")
	rootCmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "disable the live progress line")
	rootCmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.Flags().
		StringVar(&opts.logFile, "log", "", "write structured JSON log to FILE")

	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.AddCommand(newInfoCmd(stdout))
	rootCmd.AddCommand(newDocsCmd())

	return rootCmd
}

//nolint:gocyclo,revive // cyclomatic,cognitive-complexity: CLI entry point wires every subsystem
func runBackup(cmd *cobra.Command, args []string, opts *options, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config", "path", config.Path(), "error", err)
	}
	device := platform.DefaultDevice
	if cfg.Defaults.Device != nil {
		device = *cfg.Defaults.Device
	}
	if len(args) > 0 {
		device = args[0]
	}
	if err := applyConfigDefaults(cmd, cfg.Defaults, opts); err != nil {
		return err
	}
	ui.ApplyTheme(cfg.Theme)

	if cmd.Flags().Changed("vts") && (opts.vts < 1 || opts.vts > catalog.MaxTitleSets) {
		return errors.New("VTS must be between 1 and 99")
	}

	maxRate := opts.maxRate.bytes

	fileLogger, closeLog := setupLogging(stderr, opts)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !opts.quiet {
		fmt.Fprintln(stdout, "[DVD]")
		fmt.Fprintf(stdout, "* Opening device %s\n", device)
	}
	disc, err := openDevice(ctx, device, opts.wait)
	if err != nil {
		slog.Error("backup failed", "device", device, "error", err)
		return &exitError{code: 1}
	}
	defer disc.Close()

	collector := stats.NewCollector()
	events := make(chan event.Event, 256)

	presenterEvents := (<-chan event.Event)(events)
	if fileLogger != nil {
		presenterEvents = ui.TeeEvents(events, fileLogger)
	}

	presenter := ui.NewPresenter(ui.Config{
		Writer:     stdout,
		ErrWriter:  stderr,
		Stats:      collector,
		Width:      ui.TermWidth(os.Stderr.Fd()),
		IsTTY:      stderr == io.Writer(os.Stderr) && ui.IsTTY(os.Stderr.Fd()),
		Quiet:      opts.quiet,
		Verbose:    opts.verbose,
		NoProgress: opts.noProgress,
	})

	slog.Debug("starting backup",
		"device", device,
		"title", disc.Title(),
		"output_dir", opts.outputDir,
		"vts", opts.vts,
		"max_rate", maxRate,
	)

	var presenterErr error
	var presenterWg sync.WaitGroup
	presenterWg.Add(1)
	go func() {
		defer presenterWg.Done()
		presenterErr = presenter.Run(presenterEvents)
	}()

	result := engine.Run(ctx, engine.Config{
		Disc:      disc,
		OutputDir: opts.outputDir,
		TitleSet:  opts.vts,
		MaxRate:   maxRate,
		DryRun:    opts.dryRun,
		Verify:    opts.verify,
		Journal:   !opts.noJournal && !opts.dryRun,
		Events:    events,
		Stats:     collector,
	})
	stop()
	close(events)
	presenterWg.Wait()
	if presenterErr != nil {
		fmt.Fprintf(stderr, "presenter: %v\n", presenterErr)
	}

	if !opts.quiet && !opts.dryRun {
		if summary := presenter.Summary(); summary != "" {
			fmt.Fprintln(stderr, summary)
		}
	}

	if result.Err != nil {
		slog.Error("backup failed", "error", result.Err)
		return &exitError{code: 1}
	}
	if result.Verify.Failed > 0 {
		slog.Error("verification failed", "files", result.Verify.Failed)
		return &exitError{code: 1}
	}
	slog.Debug("backup finished", "root", result.Root, "stats", result.Stats.String())
	return nil
}

// openDevice checks drive readiness for hardware paths, then opens the disc.
func openDevice(ctx context.Context, device string, wait bool) (*dvdread.Disc, error) {
	if platform.IsHardware(device) {
		if _, err := os.Stat(device); err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", device, err)
		}
		if wait {
			if _, err := platform.WaitForReady(ctx, device, waitAttempts, waitInterval); err != nil {
				return nil, err
			}
		} else if err := platform.EnsureReady(device); err != nil {
			return nil, err
		}
	}
	return dvdread.Open(device)
}

// setupLogging installs the default slog logger. With --log it also
// returns a JSON logger writing only to the rotating log file, used to
// record engine events.
func setupLogging(stderr io.Writer, opts *options) (*slog.Logger, func()) {
	logLevel := slog.LevelInfo
	if opts.verbose {
		logLevel = slog.LevelDebug
	} else if opts.quiet {
		logLevel = slog.LevelWarn
	}
	textHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	if opts.logFile == "" {
		slog.SetDefault(slog.New(textHandler))
		return nil, func() {}
	}

	lf := &lumberjack.Logger{
		Filename:   opts.logFile,
		MaxSize:    100, // megabytes
		MaxBackups: 3,
	}
	jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	slog.SetDefault(slog.New(ui.NewMultiHandler(textHandler, jsonHandler)))
	return slog.New(jsonHandler), func() { lf.Close() }
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(cmd *cobra.Command, defaults config.DefaultsConfig, opts *options) error {
	if !cmd.Flags().Changed("output-dir") && defaults.OutputDir != nil {
		opts.outputDir = *defaults.OutputDir
	}
	if !cmd.Flags().Changed("verify") && defaults.Verify != nil {
		opts.verify = *defaults.Verify
	}
	if !cmd.Flags().Changed("wait") && defaults.Wait != nil {
		opts.wait = *defaults.Wait
	}
	if !cmd.Flags().Changed("no-journal") && defaults.Journal != nil {
		opts.noJournal = !*defaults.Journal
	}
	if !cmd.Flags().Changed("max-rate") && defaults.MaxRate != nil {
		if err := opts.maxRate.Set(*defaults.MaxRate); err != nil {
			return fmt.Errorf("config max_rate: %w", err)
		}
	}
	return nil
}

// sizeFlag is a pflag.Value holding a byte count such as "4M".
type sizeFlag struct {
	raw   string
	bytes int64
}

var _ pflag.Value = (*sizeFlag)(nil)

func (f *sizeFlag) String() string { return f.raw }
func (*sizeFlag) Type() string     { return "size" }

func (f *sizeFlag) Set(val string) error {
	n, err := config.ParseSize(val)
	if err != nil {
		return err
	}
	f.raw, f.bytes = val, n
	return nil
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
