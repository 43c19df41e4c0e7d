package cmd

import (
	"github.com/spf13/cobra"

	"reelhound/internal/server"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolver as a JSON API",
	Long: `Serve exposes /api/resolve, /api/search, /api/latest, /api/popular,
/api/episodes, /healthz and /metrics on the configured listen address.`,
	Args: cobra.NoArgs,
	RunE: serveRun,
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "Listen address (default from config, 127.0.0.1:8787)")
}

func serveRun(cmd *cobra.Command, args []string) error {
	addr := cfg.Listen
	if flagListen != "" {
		addr = flagListen
	}

	a := newApp(cfg)
	srv := server.New(server.Options{
		Catalog:  a.site,
		Resolver: a.resolver,
		BaseURL:  cfg.BaseURL(),
		Headers:  a.headers,
		Metrics:  a.metrics,
		Logger:   a.log,
	})
	return srv.ListenAndServe(cmd.Context(), addr)
}
