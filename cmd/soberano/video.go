package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newVideoCommand(cc *commandContext) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "video <file>",
		Short: "Compress one video with the engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cc.ensureConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			file, err := readMediaFile(args[0])
			if err != nil {
				return err
			}
			if !file.IsVideo() {
				return fmt.Errorf("%s is not a video (%s)", file.Name, file.MIMEType)
			}

			fmt.Fprintln(cmd.ErrOrStderr(), "loading video engine...")
			if err := a.lifecycle.EnsureReady(ctx); err != nil {
				return err
			}

			bar := progressbar.NewOptions(100,
				progressbar.OptionSetDescription(file.Name),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			remove := a.lifecycle.OnProgress(func(percent int) {
				_ = bar.Set(percent)
			})
			job, err := a.video.Run(ctx, file)
			remove()
			_ = bar.Finish()
			if err != nil {
				return err
			}

			path, err := writeResult(outDir, job.Result.DownloadName(""), job.Result.Data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s (%s)\n", file.Name,
				humanize.Bytes(uint64(job.OriginalSize())), humanize.Bytes(uint64(job.ResultSize())), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory for the compressed video")
	return cmd
}
