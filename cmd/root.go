package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "job-matcher"
)

type Config struct {
	Mock     bool            `mapstructure:"mock"`
	Database *DatabaseConfig `mapstructure:"database"`
	Matching *MatchingConfig `mapstructure:"matching"`
	AI       *AIConfig       `mapstructure:"ai"`
	Feed     *FeedConfig     `mapstructure:"feed"`
	Server   *ServerConfig   `mapstructure:"server"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	URLFile  string `mapstructure:"url-file"`
	MaxConns int32  `mapstructure:"max-conns"`
	MinConns int32  `mapstructure:"min-conns"`
}

type MatchingConfig struct {
	TopN        int    `mapstructure:"top-n"`
	Backend     string `mapstructure:"backend"`
	MatchPolicy string `mapstructure:"match-policy"`
}

type AIConfig struct {
	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type FeedConfig struct {
	URL        string `mapstructure:"url"`
	Limit      int    `mapstructure:"limit"`
	PlainText  bool   `mapstructure:"plain-text"`
	MaxRetries int    `mapstructure:"max-retries"`
	DumpFile   string `mapstructure:"dump-file"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-matcher ranks job postings against a user's resume and preferences",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"mock":                   "USE_MOCK",
		"database.url":           "DATABASE_URL",
		"database.url-file":      "DATABASE_URL_FILE",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().Bool("mock", false, "use the in-memory store seeded with mock data instead of PostgreSQL")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("mock", rootCmd.PersistentFlags().Lookup("mock"))
}

func setDefaults() {
	viper.SetDefault("mock", false)
	viper.SetDefault("database.max-conns", 10)
	viper.SetDefault("database.min-conns", 1)
	viper.SetDefault("matching.top-n", 5)
	viper.SetDefault("matching.backend", "tfidf")
	viper.SetDefault("matching.match-policy", "append")
	viper.SetDefault("ai.gemini.model", "gemini-embedding-001")
	viper.SetDefault("ai.gemini.max-log-length", 200)
	viper.SetDefault("feed.plain-text", false)
	viper.SetDefault("feed.max-retries", 2)
	viper.SetDefault("server.addr", ":5001")
	viper.SetDefault("server.shutdown-timeout", 10*time.Second)
}

func initConfig() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		// We can't proceed if an explicitly given config is unreadable.
		if err := viper.ReadInConfig(); err != nil {
			log.Fatal(err)
		}
		return
	}

	viper.AddConfigPath(".")
	viper.SetConfigName(app)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Database == nil {
		config.Database = &DatabaseConfig{}
	}
	if config.Matching == nil {
		config.Matching = &MatchingConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Feed == nil {
		config.Feed = &FeedConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}

	return config, nil
}
