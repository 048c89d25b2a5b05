package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/pipeline"
)

const (
	PromptShowResponse  = "Show response"
	PromptReportMatches = "Report all matches"
	PromptMatchesToFile = "Dump matches to file"
	PromptExit          = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptShowResponse, PromptReportMatches, PromptMatchesToFile, PromptExit},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run the matching pipeline for one user",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("user-id", "u", "", "the user to match jobs for")
	matchCmd.Flags().Bool("dry-run", false, "score and format without persisting matches")
	matchCmd.Flags().Int("top-n", 0, "how many matches to render in the response (default from matching.top-n)")
	matchCmd.Flags().BoolP("auto-approve", "y", false, "print the response and exit without prompting")

	viper.BindPFlag("matching.top-n", matchCmd.Flags().Lookup("top-n"))
}

func match(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the job-matcher", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	userID, _ := cmd.Flags().GetString("user-id")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	store, closeStore, err := openStore(ctx, config, logger)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err))
	}
	defer closeStore()

	scorer, err := newScorer(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the scorer", zap.Error(err))
	}

	p := newPipeline(store, scorer, pipeline.Options{TopN: config.Matching.TopN, DryRun: dryRun}, logger)

	result, err := p.RunForUser(ctx, userID)
	if err != nil {
		logger.Fatal("running the pipeline", zap.Error(err), zap.String("hint", "pass --user-id"))
	}

	if result.Err != nil {
		logger.Warn("pipeline finished with an error", zap.String("run_id", result.RunID.String()), zap.Error(result.Err))
	}

	logger.Info("pipeline finished",
		zap.String("run_id", result.RunID.String()),
		zap.Int("jobs", len(result.Jobs)),
		zap.Int("matched", len(result.MatchedJobs)),
	)

	out := cmd.OutOrStdout()

	if autoApprove, _ := cmd.Flags().GetBool("auto-approve"); autoApprove {
		fmt.Fprintln(out, result.Response)
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, out, logger, result); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, out io.Writer, logger *zap.Logger, result *pipeline.Result) error {
	switch action {
	case PromptShowResponse:
		fmt.Fprintln(out, result.Response)
		return nil
	case PromptReportMatches:
		pretty, _ := json.MarshalIndent(result.MatchedJobs, "", "  ")
		fmt.Fprintln(out, string(pretty))
		logger.Info("reported matches", zap.Int("count", len(result.MatchedJobs)))
		return nil
	case PromptMatchesToFile:
		filename, err := dumpToTmpFile(result)
		if err != nil {
			return fmt.Errorf("dump matches to file: %w", err)
		}
		logger.Info("dumping matches to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func dumpToTmpFile(result *pipeline.Result) (string, error) {
	file, err := os.CreateTemp("", "matches_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(struct {
		RunID   string `json:"run_id"`
		Matches any    `json:"matched_jobs"`
	}{RunID: result.RunID.String(), Matches: result.MatchedJobs}); err != nil {
		return "", err
	}

	return file.Name(), nil
}
