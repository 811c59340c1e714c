package main

import (
	"github.com/spf13/cobra"
	"github.com/vito/sexpfmt/pkg/ioctx"
	"github.com/vito/sexpfmt/pkg/server"
)

func serveCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [flags]",
		Short: "Serve formatting over HTTP",
		Long: `Serve formatting over HTTP.

POST a document to /format to receive it formatted. The width and indent
query parameters override the configured options for one request.`,
		Example: `  sexpfmt serve --addr :8080
  curl --data-binary @tree.sexp 'localhost:8080/format?width=80'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := setupLogging(ioctx.StderrFromContext(ctx), cfg.Debug)
			ctx = ioctx.LoggerToContext(ctx, logger)
			cmd.SetContext(ctx)

			conf, err := loadConfig(cmd, *cfg)
			if err != nil {
				return err
			}

			addr := conf.Server.Addr
			if cmd.Flags().Changed("addr") {
				addr = cfg.Addr
			}

			return server.New(conf.Options(), logger).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&cfg.Addr, "addr", "", "Address to listen on (default from config, or 127.0.0.1:8080)")

	return cmd
}
