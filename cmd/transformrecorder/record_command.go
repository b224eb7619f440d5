package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"transformrecorder/internal/capture"
	"transformrecorder/internal/catalog"
	"transformrecorder/internal/config"
	"transformrecorder/internal/logging"
	"transformrecorder/internal/sequence"
	"transformrecorder/internal/transform"
)

type recordOptions struct {
	channels  [capture.NumChannels]string
	inputPath string
	noPersist bool
	outputDir string
}

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var opts recordOptions

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record transform updates read from a text stream",
		Long: `Record binds up to three channels to named sources and reads updates of the
form "<name> <16 row-major matrix values>" from --input (stdin by default).
Every update of the first bound channel samples all channels. Recording stops
at end of input or on interrupt, and one sequence file is written per channel.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if path := strings.TrimSpace(opts.inputPath); path != "" && path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				in = f
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runRecord(sigCtx, cmd.OutOrStdout(), in, cfg, logger, opts)
		},
	}

	for i := range opts.channels {
		ordinal := strconv.Itoa(i + 1)
		cmd.Flags().StringVar(&opts.channels[i], "channel"+ordinal, "", "Source name bound to channel "+ordinal)
	}
	cmd.Flags().StringVarP(&opts.inputPath, "input", "i", "", "Read updates from file instead of stdin")
	cmd.Flags().BoolVar(&opts.noPersist, "no-persist", false, "Do not write sequence files on stop")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Override paths.output_dir")
	return cmd
}

func runRecord(ctx context.Context, out io.Writer, in io.Reader, cfg *config.Config, logger *slog.Logger, opts recordOptions) error {
	outputDir := cfg.Paths.OutputDir
	if dir := strings.TrimSpace(opts.outputDir); dir != "" {
		expanded, err := config.ExpandPath(dir)
		if err != nil {
			return fmt.Errorf("resolve output dir: %w", err)
		}
		if err := os.MkdirAll(expanded, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		outputDir = expanded
	}

	encOpts := []sequence.Option{
		sequence.WithPrefix(cfg.Recorder.FilePrefix),
		sequence.WithLogger(logger),
	}
	if cfg.Recorder.LegacyDimSize {
		encOpts = append(encOpts, sequence.WithLegacyDimSize())
	}

	var eventErrs []error
	ctlOpts := []capture.Option{
		capture.WithEncoder(sequence.NewEncoder(outputDir, encOpts...)),
		capture.WithLogger(logger),
		capture.WithPersist(cfg.Recorder.PersistOnStop && !opts.noPersist),
		capture.WithDirLock(),
		capture.WithEventErrorHandler(func(err error) { eventErrs = append(eventErrs, err) }),
	}
	if cfg.Catalog.Enabled {
		cat, err := catalog.Open(cfg.Catalog.Path)
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		defer cat.Close()
		ctlOpts = append(ctlOpts, capture.WithCatalog(cat))
	}
	ctl := capture.NewController(ctlOpts...)

	sources := make(map[string]*transform.Static)
	for i, name := range opts.channels {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		src, ok := sources[name]
		if !ok {
			src = transform.NewStatic(name)
			sources[name] = src
		}
		if err := ctl.BindChannel(i+1, src); err != nil {
			return err
		}
	}
	if err := ctl.Record(); err != nil {
		if errors.Is(err, capture.ErrNoChannelBound) {
			return fmt.Errorf("%w: pass at least one of --channel1, --channel2, --channel3", err)
		}
		return err
	}

	dispatchCtx, cancelDispatch := context.WithCancel(context.Background())
	defer cancelDispatch()
	dispatcher := capture.NewDispatcher(cfg.Recorder.EventQueueSize)
	go func() {
		if err := dispatcher.Run(dispatchCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("dispatcher stopped", logging.Error(err))
		}
	}()

	skipped := 0
	lines := readSampleLines(ctx, in)
feed:
	for {
		select {
		case <-ctx.Done():
			logger.Info("interrupted; stopping capture")
			break feed
		case res, ok := <-lines:
			if !ok {
				break feed
			}
			if res.err != nil {
				skipped++
				logger.Warn("input line skipped", logging.Error(res.err))
				continue
			}
			src, known := sources[res.sample.name]
			if !known {
				skipped++
				logger.Warn("input line skipped",
					logging.Int("line", res.sample.number),
					logging.String("source", res.sample.name),
					logging.String("reason", "unknown source"),
				)
				continue
			}
			m := res.sample.matrix
			if err := dispatcher.Call(dispatchCtx, func() { src.Set(m) }); err != nil {
				return fmt.Errorf("dispatch update: %w", err)
			}
		}
	}

	var (
		result  capture.StopResult
		stopErr error
	)
	if err := dispatcher.Call(dispatchCtx, func() {
		result, stopErr = ctl.Stop(context.Background())
	}); err != nil {
		return fmt.Errorf("dispatch stop: %w", err)
	}
	dispatcher.Close()
	<-dispatcher.Done()

	printRecordSummary(out, result, skipped, len(eventErrs))
	return stopErr
}

func printRecordSummary(out io.Writer, result capture.StopResult, skipped, dropped int) {
	fmt.Fprintf(out, "Session %s: %d events over %.3fs\n", result.SessionID, result.Events, result.Duration)
	if skipped > 0 {
		fmt.Fprintf(out, "Skipped %d input lines\n", skipped)
	}
	if dropped > 0 {
		fmt.Fprintf(out, "Dropped %d events that could not be sampled\n", dropped)
	}
	if !result.Persisted {
		fmt.Fprintln(out, "Persistence disabled; no files written")
		return
	}
	if len(result.Files) == 0 {
		fmt.Fprintln(out, "No samples recorded; no files written")
		return
	}
	rows := make([][]string, 0, len(result.Files))
	for _, f := range result.Files {
		rows = append(rows, []string{
			strconv.Itoa(f.Ordinal),
			f.Channel,
			strconv.Itoa(f.Frames),
			filepath.Base(f.Path),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Ch", "Name", "Frames", "File"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
	))
}
