package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/ppiankov/ignoromenot/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve filtered views over HTTP",
	Long: `Serve loads the artifacts once and answers filter requests over HTTP for a
presentation layer. A request that fails validation returns 400 with the previous
view. When source watching is enabled, changed artifacts are reloaded and the
current filter is applied again.

Routes:
  GET  /health
  GET  /metrics
  GET  /v1/bounds
  POST /v1/filter
  GET  /v1/snapshot
  GET  /v1/proteins/:id/mentions
  GET  /v1/proteins/:id/mentions.tsv
  GET  /v1/export/proteins.csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Output.Verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		session, snapshot, err := openSession(ctx, cfg)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Loaded %d proteins (%d orphan index keys ignored)\n",
			snapshot.Source.Proteins, snapshot.Source.Orphans)
		fmt.Fprintf(os.Stderr, "Listening on http://%s\n", cfg.Server.Addr)
		logger.Info("serving", zap.String("addr", cfg.Server.Addr), zap.Bool("watch", cfg.Server.WatchSources))

		return server.New(cfg, session, logger).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from config)")
	serveCmd.Flags().Bool("watch", true, "reload sources when they change on disk")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.watch_sources", serveCmd.Flags().Lookup("watch"))
}
