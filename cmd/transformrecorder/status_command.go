package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"transformrecorder/internal/catalog"
	"transformrecorder/internal/config"
	"transformrecorder/internal/fileutil"
)

// lockProbeTimeout bounds how long status waits on a recorder that is saving.
const lockProbeTimeout = 100 * time.Millisecond

type checkLevel int

const (
	checkInfo checkLevel = iota
	checkOK
	checkWarn
	checkFail
)

const ansiReset = "\x1b[0m"

var checkStyles = [...]struct {
	tag   string
	color string
}{
	checkInfo: {"info", "\x1b[34m"},
	checkOK:   {"ok", "\x1b[32m"},
	checkWarn: {"warn", "\x1b[33m"},
	checkFail: {"fail", "\x1b[31m"},
}

// statusReport accumulates the lines printed by the status command.
type statusReport struct {
	lines    []string
	colorize bool
}

func (r *statusReport) section(title string) {
	if len(r.lines) > 0 {
		r.lines = append(r.lines, "")
	}
	heading := "[" + strings.TrimSpace(title) + "]"
	if r.colorize {
		heading = checkStyles[checkInfo].color + heading + ansiReset
	}
	r.lines = append(r.lines, heading)
}

func (r *statusReport) check(label string, level checkLevel, message string) {
	r.lines = append(r.lines, formatCheck(label, level, message, r.colorize))
}

func formatCheck(label string, level checkLevel, message string, colorize bool) string {
	style := checkStyles[level]
	line := strings.TrimRight(fmt.Sprintf("  %-16s %-4s %s", label+":", style.tag, message), " ")
	if colorize {
		return style.color + line + ansiReset
	}
	return line
}

func terminalOutput(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the output directory, catalog, and configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			report := &statusReport{colorize: terminalOutput(out)}
			report.build(cmd.Context(), cfg, ctx.configPath, ctx.configExists)
			writeLines(out, report.lines)
			return nil
		},
	}
}

func (r *statusReport) build(ctx context.Context, cfg *config.Config, configPath string, configExists bool) {
	r.section("Configuration")
	if configExists {
		r.check("Config", checkOK, configPath)
	} else {
		r.check("Config", checkInfo, "defaults ("+configPath+" not found)")
	}
	r.check("Persist on stop", checkInfo, yesNo(cfg.Recorder.PersistOnStop))
	r.check("Legacy DimSize", checkInfo, yesNo(cfg.Recorder.LegacyDimSize))

	r.section("Output")
	if err := fileutil.CheckWritableDir(cfg.Paths.OutputDir); err != nil {
		r.check("Output dir", checkFail, err.Error())
	} else {
		r.check("Output dir", checkOK, cfg.Paths.OutputDir)
		r.checkOutputLock(ctx, cfg.Paths.OutputDir)
	}

	r.section("Catalog")
	r.checkCatalog(ctx, cfg)
}

func (r *statusReport) checkOutputLock(ctx context.Context, dir string) {
	lockCtx, cancel := context.WithTimeout(ctx, lockProbeTimeout)
	defer cancel()
	lock, err := fileutil.LockDir(lockCtx, dir)
	switch {
	case errors.Is(err, fileutil.ErrLocked):
		r.check("Output lock", checkWarn, "another recorder is saving")
	case err != nil:
		r.check("Output lock", checkFail, err.Error())
	default:
		_ = lock.Unlock()
		r.check("Output lock", checkOK, "free")
	}
}

func (r *statusReport) checkCatalog(ctx context.Context, cfg *config.Config) {
	if !cfg.Catalog.Enabled {
		r.check("Catalog", checkInfo, "disabled")
		return
	}
	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		r.check("Catalog", checkFail, err.Error())
		return
	}
	defer cat.Close()
	files, err := cat.ListFiles(ctx, 0)
	if err != nil {
		r.check("Catalog", checkFail, err.Error())
		return
	}
	r.check("Catalog", checkOK, cfg.Catalog.Path+" ("+strconv.Itoa(len(files))+" files)")
}

func writeLines(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
