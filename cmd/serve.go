package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/pipeline"
	"github.com/spigell/job-matcher/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the matching API over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from server.addr)")
	serveCmd.Flags().Bool("dry-run", false, "do not persist matches produced by /agent")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("serve.dry-run", serveCmd.Flags().Lookup("dry-run"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the job-matcher api", zap.String("version", version))

	store, closeStore, err := openStore(ctx, config, logger)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err))
	}
	defer closeStore()

	scorer, err := newScorer(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the scorer", zap.Error(err))
	}

	p := newPipeline(store, scorer, pipeline.Options{
		TopN:   config.Matching.TopN,
		DryRun: viper.GetBool("serve.dry-run"),
	}, logger)

	srv := server.New(server.Config{
		Addr:            config.Server.Addr,
		ShutdownTimeout: config.Server.ShutdownTimeout,
	}, server.Deps{
		Store:    store,
		Matcher:  p,
		Ingester: newIngester(config, store, logger),
		Logger:   logger.Named("http"),
	})

	if err := srv.Run(ctx); err != nil {
		logger.Error("http server stopped", zap.Error(err))
		return
	}

	logger.Info("http server stopped")
}
