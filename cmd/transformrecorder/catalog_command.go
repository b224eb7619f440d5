package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"transformrecorder/internal/catalog"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse recorded sessions",
	}
	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogShowCommand(ctx))
	return catalogCmd
}

func (c *commandContext) withCatalog(out io.Writer, fn func(*catalog.Catalog) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Catalog.Enabled {
		fmt.Fprintln(out, "Catalog disabled; set catalog.enabled = true to record sessions")
		return nil
	}
	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer cat.Close()
	return fn(cat)
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recently written sequence files",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return ctx.withCatalog(out, func(cat *catalog.Catalog) error {
				files, err := cat.ListFiles(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Fprintln(out, "No recordings cataloged")
					return nil
				}
				fmt.Fprintln(out, renderFiles(files, true))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Files to list (0 lists all)")
	return cmd
}

func newCatalogShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show SESSION_ID",
		Short: "Show one recorded session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return ctx.withCatalog(out, func(cat *catalog.Catalog) error {
				sess, err := cat.GetSession(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if sess == nil {
					return fmt.Errorf("session %s not found", args[0])
				}
				files, err := cat.FilesForSession(cmd.Context(), sess.ID)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderKeyValues([][2]string{
					{"Session", sess.ID},
					{"Started", formatTime(sess.StartedAt)},
					{"Stopped", formatTime(sess.StoppedAt)},
					{"Duration", strconv.FormatFloat(sess.Duration, 'f', 3, 64) + "s"},
					{"Events", strconv.Itoa(sess.Events)},
				}))
				if len(files) > 0 {
					fmt.Fprintln(out, renderFiles(files, false))
				}
				return nil
			})
		},
	}
}

func renderFiles(files []catalog.File, withSession bool) string {
	headers := []string{"Created", "Ch", "Name", "Frames", "File"}
	aligns := []columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft}
	if withSession {
		headers = append([]string{"Session"}, headers...)
		aligns = append([]columnAlignment{alignLeft}, aligns...)
	}
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		row := []string{
			formatTime(f.CreatedAt),
			strconv.Itoa(f.Ordinal),
			f.Channel,
			strconv.Itoa(f.Frames),
			filepath.Base(f.Path),
		}
		if withSession {
			row = append([]string{shortID(f.SessionID)}, row...)
		}
		rows = append(rows, row)
	}
	return renderTable(headers, rows, aligns)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
