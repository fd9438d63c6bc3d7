package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/soberano/soberano/internal/domain"
)

func newImagesCommand(cc *commandContext) *cobra.Command {
	var quality int
	var outDir string

	cmd := &cobra.Command{
		Use:   "images <file>...",
		Short: "Compress images through the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cc.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("quality") {
				quality = cfg.DefaultQuality
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			files := make([]domain.File, 0, len(args))
			for _, path := range args {
				f, err := readMediaFile(path)
				if err != nil {
					return err
				}
				files = append(files, f)
			}

			adm, err := a.queue.Enqueue(files, quality)
			if err != nil {
				return err
			}
			for _, name := range adm.Rejected {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: not an image\n", name)
			}
			if err := a.queue.Wait(ctx); err != nil {
				return err
			}

			jobs := a.queue.Jobs()
			rows := make([][]string, 0, len(jobs)+1)
			for _, job := range jobs {
				rows = append(rows, imageRow(job, outDir))
			}
			stats := domain.AggregateStats(jobs)
			rows = append(rows, []string{
				fmt.Sprintf("%d files", stats.Total),
				fmt.Sprintf("%d done, %d failed", stats.Done, stats.Failed),
				humanize.Bytes(uint64(stats.OriginalBytes)),
				humanize.Bytes(uint64(stats.CompressedBytes)),
				reduction(stats.ReductionPercent, stats.ReductionIsDefined),
				"",
			})
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"File", "Status", "Original", "Compressed", "Saved", "Output"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			if stats.Failed > 0 {
				return fmt.Errorf("%d image(s) failed", stats.Failed)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&quality, "quality", "q", domain.DefaultQuality, "Quality percent (10-100)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory for compressed files")
	return cmd
}

// imageRow writes a finished job to outDir and describes it.
func imageRow(job domain.CompressionJob, outDir string) []string {
	row := []string{job.Original.Name, string(job.Status), humanize.Bytes(uint64(job.OriginalSize)), "", "", ""}
	switch job.Status {
	case domain.JobStatusDone:
		c := job.Compressed
		stats := job.Stats()
		row[3] = humanize.Bytes(uint64(job.CompressedSize))
		row[4] = reduction(stats.ReductionPercent, stats.Defined)
		path, err := writeResult(outDir, c.DownloadName(domain.ExtensionForMIME(c.MIMEType)), c.Data)
		if err != nil {
			row[5] = "write failed: " + err.Error()
		} else {
			row[5] = path
		}
	case domain.JobStatusError:
		row[5] = strings.TrimSpace(job.Error)
	}
	return row
}

func reduction(percent float64, defined bool) string {
	if !defined {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", percent)
}
