package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/phobologic/headerpack/internal/discover"
	"github.com/phobologic/headerpack/internal/graph"
	"github.com/phobologic/headerpack/internal/model"
	"github.com/phobologic/headerpack/internal/pack"
	"github.com/phobologic/headerpack/internal/ranking"
	"github.com/phobologic/headerpack/internal/sink"
	"github.com/phobologic/headerpack/internal/toon"
)

func newGraphCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	var (
		maxFiles int
		filter   string
	)

	cmd := &cobra.Command{
		Use:   "graph [flags] [root-header]",
		Short: "Print the include graph of a packing run without writing output",
		Long: `graph performs the same resolution as a packing run but discards the
packed text. It prints every header the run touched, ranked by how widely it
is included, together with the include edges, in TOON format. Local headers
the root never reaches are listed as unreached.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, g, args, stderr)
			if err != nil {
				return err
			}
			reader, ignore, err := newReader(cfg)
			if err != nil {
				return err
			}

			p := pack.New(reader, pack.WithLogger(logger))
			seen := model.NewIncludeRecord()
			rep, err := p.Pack(cfg.RootHeader, &sink.Discard{}, seen)
			if err != nil {
				return err
			}
			logger.Debug("attempted", "paths", seen.Paths())

			headers, err := discover.Headers(cfg.SourceRoot, ignore)
			if err != nil {
				return fmt.Errorf("discovering headers: %w", err)
			}

			m := graph.Build(rep, headers)
			if unreached := graph.Unreached(m); len(unreached) > 0 {
				logger.Warn("headers not reachable from root", "root", cfg.RootHeader, "count", len(unreached))
				for _, u := range unreached {
					logger.Debug("unreached", "file", u)
				}
			}

			if filter != "" {
				m = ranking.FilterByPath(m, filter)
			}
			m = ranking.SelectFiles(m, maxFiles)

			_, err = fmt.Fprintln(stdout, toon.Encode(m))
			return err
		},
	}

	cmd.Flags().IntVarP(&maxFiles, "max-files", "n", 0, "maximum number of files to show (0 for all)")
	cmd.Flags().StringVar(&filter, "filter", "", "only show files whose path contains this substring")
	return cmd
}
