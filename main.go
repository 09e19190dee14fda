// headerpack flattens a library's local headers into one distributable header.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/phobologic/headerpack/internal/banner"
	"github.com/phobologic/headerpack/internal/config"
	"github.com/phobologic/headerpack/internal/discover"
	"github.com/phobologic/headerpack/internal/model"
	"github.com/phobologic/headerpack/internal/output"
	"github.com/phobologic/headerpack/internal/pack"
	"github.com/phobologic/headerpack/internal/sink"
	"github.com/phobologic/headerpack/internal/source"
)

var version = "dev"

// stdoutPath as --output writes the packed header to stdout.
const stdoutPath = "-"

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"source-root": config.KeySourceRoot,
	"output":      config.KeyOutput,
	"license":     config.KeyLicense,
	"library":     config.KeyLibrary,
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.Execute()
}

// globalFlags are shared by every command.
type globalFlags struct {
	configFile string
	verbose    bool
	quiet      bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		g         globalFlags
		noBanner  bool
		skipFresh bool
	)

	cmd := &cobra.Command{
		Use:   "headerpack [flags] [root-header]",
		Short: "Pack a tree of local C headers into a single header",
		Long: `headerpack reads a root header from the source root and writes one
self-contained header: every #include that names a file under the source root
is replaced by that file's contents (once), and every other #include is kept
as written.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, &g, args, stderr)
			if err != nil {
				return err
			}
			if noBanner {
				cfg.Banner = false
			}
			return runPack(cfg, logger, skipFresh, stdout)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("headerpack {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.configFile, "config", "", "config file (default is ./"+config.FileName+"."+config.FileExt+")")
	pf.StringP("source-root", "C", "", "directory include paths are resolved against")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log every dropped include")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "only log errors")

	f := cmd.Flags()
	f.StringP("output", "o", "", `packed header path ("-" for stdout)`)
	f.String("license", "", "license file copied to the top of the output (empty for none)")
	f.String("library", "", "library name used in the generated-file notice")
	f.BoolVar(&noBanner, "no-banner", false, "omit the generated-file notice")
	f.BoolVar(&skipFresh, "skip-fresh", false, "do nothing if the output is newer than every header and the license")

	cmd.AddCommand(newGraphCmd(&g, stdout, stderr))
	cmd.AddCommand(newCheckCmd(&g, stdout, stderr))
	cmd.AddCommand(newInitCmd(stdout, stderr))

	return cmd
}

// setup loads the configuration for cmd and builds its logger. A positional
// argument replaces the configured root header.
func setup(cmd *cobra.Command, g *globalFlags, args []string, stderr io.Writer) (*config.Config, *log.Logger, error) {
	logger := newLogger(stderr, g)

	cfg, used, err := config.Load(config.LoadOptions{
		ConfigFile: g.configFile,
		Flags:      cmd.Flags(),
		FlagKeys:   flagKeys,
	})
	if err != nil {
		return nil, nil, err
	}
	if used != "" {
		logger.Debug("loaded config", "file", used)
	}
	if len(args) > 0 {
		cfg.RootHeader = args[0]
	}
	return cfg, logger, nil
}

func newLogger(w io.Writer, g *globalFlags) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{Prefix: config.AppName})
	switch {
	case g.quiet:
		logger.SetLevel(log.ErrorLevel)
	case g.verbose:
		logger.SetLevel(log.DebugLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

// newReader returns the source reader for cfg along with the ignore rules it
// applies, which may be nil.
func newReader(cfg *config.Config) (*source.Reader, source.Matcher, error) {
	info, err := os.Stat(cfg.SourceRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("source root: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%s: not a directory", cfg.SourceRoot)
	}

	m, err := source.LoadIgnore(cfg.SourceRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("loading ignore rules: %w", err)
	}
	var opts []source.Option
	if m != nil {
		opts = append(opts, source.WithIgnore(m))
	}
	return source.New(cfg.SourceRoot, opts...), m, nil
}

func runPack(cfg *config.Config, logger *log.Logger, skipFresh bool, stdout io.Writer) error {
	reader, ignore, err := newReader(cfg)
	if err != nil {
		return err
	}

	if skipFresh && cfg.Output != stdoutPath {
		fresh, err := outputIsFresh(cfg, ignore)
		if err != nil {
			return err
		}
		if fresh {
			logger.Info("up to date", "output", cfg.Output)
			return nil
		}
	}

	var license []byte
	if cfg.License != "" {
		license, err = os.ReadFile(cfg.License)
		if err != nil {
			return fmt.Errorf("reading license: %w", err)
		}
	}

	logger.Debug("packing", "source_root", reader.Root(), "root", cfg.RootHeader)
	p := pack.New(reader, pack.WithLogger(logger))
	write := func(w io.Writer) error {
		seen := model.NewIncludeRecord()
		rep, lines, err := writePacked(w, p, cfg, license, seen)
		if err != nil {
			return err
		}
		logger.Info("packed",
			"root", rep.Root,
			"files", len(rep.Included),
			"external", len(rep.External),
			"attempted", seen.Len(),
			"lines", lines,
			"output", cfg.Output,
		)
		return nil
	}

	if cfg.Output == stdoutPath {
		return write(stdout)
	}
	return output.WriteFile(cfg.Output, 0o644, write)
}

// writePacked writes the preamble and the packed root header to w. It
// returns the packing report and the number of packed lines written.
func writePacked(w io.Writer, p *pack.Packer, cfg *config.Config, license []byte, seen *model.IncludeRecord) (*model.Report, int, error) {
	if cfg.Banner || len(license) > 0 {
		var lines []string
		if cfg.Banner {
			lines = banner.Lines(cfg.Library)
		}
		if err := banner.Write(w, license, lines); err != nil {
			return nil, 0, fmt.Errorf("writing banner: %w", err)
		}
	}

	s := sink.NewWriter(w)
	rep, err := p.Pack(cfg.RootHeader, s, seen)
	if err != nil {
		return nil, 0, err
	}
	if err := s.Flush(); err != nil {
		return nil, 0, fmt.Errorf("writing output: %w", err)
	}
	return rep, s.Count(), nil
}

// outputIsFresh reports whether the output is newer than every header under
// the source root and the license file.
func outputIsFresh(cfg *config.Config, ignore source.Matcher) (bool, error) {
	headers, err := discover.Headers(cfg.SourceRoot, ignore)
	if err != nil {
		return false, fmt.Errorf("discovering headers: %w", err)
	}
	deps := make([]string, 0, len(headers)+1)
	for _, h := range headers {
		deps = append(deps, filepath.Join(cfg.SourceRoot, filepath.FromSlash(h)))
	}
	if cfg.License != "" {
		deps = append(deps, cfg.License)
	}
	return output.IsFresh(cfg.Output, deps), nil
}
