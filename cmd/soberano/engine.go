package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/soberano/soberano/internal/domain"
)

func newEngineCommand(cc *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engine",
		Short: "Inspect or prefetch the video engine artifacts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "fetch",
		Short: "Download the engine artifacts into the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cc.ensureConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			g, ctx := errgroup.WithContext(cmd.Context())
			for _, kind := range []domain.ArtifactKind{domain.ArtifactRuntime, domain.ArtifactPayload} {
				g.Go(func() error {
					_, err := a.fetcher.Fetch(ctx, kind)
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			return printArtifacts(cmd, a)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List cached engine artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cc.ensureConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			return printArtifacts(cmd, a)
		},
	})
	return cmd
}

func printArtifacts(cmd *cobra.Command, a *app) error {
	records, err := a.store.ListArtifacts(cmd.Context())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no engine artifacts cached")
		return nil
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		digest := r.Digest
		if len(digest) > 12 {
			digest = digest[:12]
		}
		rows = append(rows, []string{
			string(r.Kind), r.SourceURL, humanize.Bytes(uint64(r.Size)), digest, humanize.Time(r.FetchedAt),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Kind", "Source", "Size", "Digest", "Fetched"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))
	return nil
}
