package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/vito/sexpfmt/pkg/config"
	"github.com/vito/sexpfmt/pkg/ioctx"
	"github.com/vito/sexpfmt/pkg/sexpfmt"
)

var (
	version = "v0.1.0"
	commit  = "dev"
)

// Config holds the application configuration
type Config struct {
	Debug      bool
	Write      bool
	List       bool
	Width      int
	Indent     int
	ConfigFile string
	LSP        bool
	LSPLogFile string
	Addr       string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ctx = ioctx.StdoutToContext(ctx, os.Stdout)
	ctx = ioctx.StderrToContext(ctx, os.Stderr)

	if err := fang.Execute(ctx, rootCmd(),
		fang.WithVersion(version),
		fang.WithCommit(commit),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, err.Error())
		}),
	); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfg Config

	cmd := &cobra.Command{
		Use:   "sexpfmt [flags] [path...]",
		Short: "Format s-expressions",
		Long: `Format s-expressions, breaking lists across lines to fit a maximum width.

By default, sexpfmt prints the formatted source to stdout. With no paths,
or with "-", it reads from stdin. Directories are walked recursively.
Use -w to write the result back to the source file. Files with syntax
errors are left untouched.
Use -l to list files that would be changed.`,
		Example: `  # Format a file and print to stdout
  sexpfmt tree.sexp

  # Format stdin with a narrower width
  tree-sitter parse file.ex | sexpfmt --width 80

  # Format all .sexp files under a directory in place
  sexpfmt -w ./fixtures

  # Start a language server on stdio
  sexpfmt --lsp`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := setupLogging(ioctx.StderrFromContext(ctx), cfg.Debug)
			ctx = ioctx.LoggerToContext(ctx, logger)
			cmd.SetContext(ctx)

			conf, err := loadConfig(cmd, cfg)
			if err != nil {
				return err
			}

			if cfg.LSP {
				return runLSP(ctx, cfg, conf.Options(), cmd.InOrStdin(), ioctx.StdoutFromContext(ctx))
			}

			if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
				formatted, err := sexpfmt.FormatReader(cmd.InOrStdin(), conf.Options())
				if err != nil {
					return err
				}
				_, err = io.WriteString(ioctx.StdoutFromContext(ctx), formatted)
				return err
			}

			mode := sexpfmt.Print
			switch {
			case cfg.Write:
				mode = sexpfmt.Write
			case cfg.List:
				mode = sexpfmt.List
			}

			batch := sexpfmt.Batch{
				Options:    conf.Options(),
				Mode:       mode,
				Extensions: conf.Extensions,
			}
			return batch.Run(ctx, args, ioctx.StdoutFromContext(ctx))
		},
	}

	cmd.PersistentFlags().BoolVarP(&cfg.Debug, "debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().IntVar(&cfg.Width, "width", 0, "Maximum line width (default from config, or 150)")
	cmd.PersistentFlags().IntVar(&cfg.Indent, "indent", 0, "Columns per nesting level (default from config, or 1)")
	cmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Path to a "+config.FileName+" file (searched for if not specified)")

	cmd.Flags().BoolVarP(&cfg.Write, "write", "w", false, "Write result to source file instead of stdout")
	cmd.Flags().BoolVarP(&cfg.List, "list", "l", false, "List files that would be formatted")
	cmd.Flags().BoolVar(&cfg.LSP, "lsp", false, "Run in Language Server Protocol mode")
	cmd.Flags().StringVar(&cfg.LSPLogFile, "lsp-log-file", "", "Path to LSP log file (stderr if not specified)")

	cmd.AddCommand(serveCmd(&cfg))

	return cmd
}

// loadConfig resolves the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command, cfg Config) (*config.Config, error) {
	ctx := cmd.Context()
	logger := ioctx.LoggerFromContext(ctx)

	var conf *config.Config
	if cfg.ConfigFile != "" {
		loaded, err := config.Load(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		conf = loaded
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		path, found, err := config.Find(cwd)
		if err != nil {
			return nil, err
		}
		if found != nil {
			logger.DebugContext(ctx, "using config", "path", path)
			conf = found
		} else {
			conf = config.Default()
		}
	}

	flags := cmd.Flags()
	if flags.Changed("width") {
		conf.MaxWidth = cfg.Width
	}
	if flags.Changed("indent") {
		conf.IndentSize = cfg.Indent
	}
	if err := conf.Options().Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}
