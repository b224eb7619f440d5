package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"transformrecorder/internal/sequence"
)

func newInspectCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:         "inspect FILE",
		Short:       "Summarize a recorded sequence file",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := sequence.ReadFile(args[0])
			if err != nil {
				return err
			}
			printSequence(cmd.OutOrStdout(), args[0], seq, limit)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Frames to list (0 lists all)")
	return cmd
}

func printSequence(out io.Writer, path string, seq *sequence.Sequence, limit int) {
	dim, _ := seq.Value("DimSize")
	fmt.Fprintln(out, renderKeyValues([][2]string{
		{"File", filepath.Base(path)},
		{"Channel", seq.ChannelName()},
		{"Transform", seq.TransformName},
		{"Frames", strconv.Itoa(len(seq.Frames))},
		{"Duration", strconv.FormatFloat(seq.Duration(), 'f', 3, 64) + "s"},
		{"DimSize", dim},
	}))
	if len(seq.Frames) == 0 {
		return
	}

	frames := seq.Frames
	if limit > 0 && len(frames) > limit {
		frames = frames[:limit]
	}
	rows := make([][]string, 0, len(frames))
	for _, f := range frames {
		x, y, z := f.Matrix.Translation()
		rows = append(rows, []string{
			strconv.Itoa(f.FrameNumber),
			sequence.FormatTimestamp(f.Timestamp),
			f.Status,
			formatCoord(x),
			formatCoord(y),
			formatCoord(z),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Frame", "Timestamp", "Status", "X", "Y", "Z"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignRight, alignRight},
	))
	if len(frames) < len(seq.Frames) {
		fmt.Fprintf(out, "%d more frames not shown (use --limit 0)\n", len(seq.Frames)-len(frames))
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
