package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/headerpack/internal/banner"
	"github.com/phobologic/headerpack/internal/lang"
	"github.com/phobologic/headerpack/internal/parse"
	"github.com/phobologic/headerpack/internal/toon"
)

// errProblemsFound is returned once the problems were already reported.
var errProblemsFound = errors.New("syntax problems found")

func newCheckCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "check [flags] [packed-header]",
		Short: "Parse a packed header and list its declarations and syntax errors",
		Long: `check parses a packed header as C and prints the declarations it finds,
in TOON format. Any syntax errors are listed as well and make the command fail.
License text ahead of the generated-file notice is not parsed; line numbers
still count it. The header defaults to the configured output.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, g, nil, stderr)
			if err != nil {
				return err
			}
			path := cfg.Output
			if len(args) > 0 {
				path = args[0]
			}
			if path == stdoutPath {
				return errors.New("check needs a file; the configured output is stdout")
			}

			name := lang.ForExtension(filepath.Ext(path))
			if name == "" {
				return fmt.Errorf("%s: unsupported file type", path)
			}
			c := lang.Languages[name]
			query, err := c.GetTagQuery()
			if err != nil {
				return err
			}
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			body, offset := banner.Skip(src)
			res, err := parse.Header(cmd.Context(), c.NewParser(), query, body)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}
			res.Shift(offset)

			if _, err := fmt.Fprintln(stdout, toon.EncodeCheck(path, res.Tags, res.Issues)); err != nil {
				return err
			}
			if !res.OK() {
				logger.Error("header does not parse", "file", path, "errors", len(res.Issues))
				return errProblemsFound
			}
			logger.Info("header parses", "file", path, "declarations", len(res.Tags))
			return nil
		},
	}
}
