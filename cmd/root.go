package cmd

import (
	"log"

	"github.com/spigell/jobsage/internal/search"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobsage"
)

type Config struct {
	Search     *search.Request `mapstructure:"search"`
	ResumeFile string          `mapstructure:"resume-file"`
	Output     *OutputConfig   `mapstructure:"output"`
	JSearch    *JSearchConfig  `mapstructure:"jsearch"`
	Scoring    *ScoringConfig  `mapstructure:"scoring"`
	AI         *AIConfig       `mapstructure:"ai"`
}

type OutputConfig struct {
	File      string `mapstructure:"file"`
	Threshold int    `mapstructure:"threshold"`
}

type JSearchConfig struct {
	APIKeyFile       string `mapstructure:"api-key-file"`
	PacingIntervalMS int    `mapstructure:"pacing-interval-ms"`
	MaxRetries       int    `mapstructure:"max-retries"`
}

type ScoringConfig struct {
	Workers int `mapstructure:"workers"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile     string `mapstructure:"api-key-file"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout-seconds"`
	MaxLogLength   int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobsage is a cli for fetching job listings and ranking them against your resume",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("jsearch.api-key-file", "RAPIDAPI_KEY_FILE"); err != nil {
		log.Fatalf("binding RAPIDAPI_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobsage.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for run command now. If there is no config, we can skip initialization
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
