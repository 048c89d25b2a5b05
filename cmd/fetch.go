package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/logger"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch-jobs",
	Short: "Fetch remote jobs from Remotive and store them",
	Run: func(_ *cobra.Command, _ []string) {
		fetchJobs()
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntP("limit", "l", 0, "how many jobs to request (default all)")
	fetchCmd.Flags().String("dump", "", "write the fetched items to this JSON file")
	fetchCmd.Flags().Bool("plain-text", false, "strip HTML from job descriptions before storing")

	viper.BindPFlag("feed.limit", fetchCmd.Flags().Lookup("limit"))
	viper.BindPFlag("feed.dump-file", fetchCmd.Flags().Lookup("dump"))
	viper.BindPFlag("feed.plain-text", fetchCmd.Flags().Lookup("plain-text"))
}

func fetchJobs() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	store, closeStore, err := openStore(ctx, config, logger)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err))
	}
	defer closeStore()

	result, err := newIngester(config, store, logger).Run(ctx, config.Feed.Limit)
	if err != nil {
		logger.Fatal("fetching jobs", zap.Error(err))
	}

	logger.Info("fetched and stored jobs",
		zap.Int("fetched", result.Fetched),
		zap.Int("stored", result.Stored),
		zap.String("dump_file", result.DumpFile),
	)
}
