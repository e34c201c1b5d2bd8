package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spigell/jobsage/internal/ai"
	"github.com/spigell/jobsage/internal/ai/gemini"
	"github.com/spigell/jobsage/internal/intent"
	"github.com/spigell/jobsage/internal/jsearch"
	"github.com/spigell/jobsage/internal/logger"
	"github.com/spigell/jobsage/internal/pipeline"
	"github.com/spigell/jobsage/internal/report"
	"github.com/spigell/jobsage/internal/scoring"
	"github.com/spigell/jobsage/internal/search"
	"github.com/spigell/jobsage/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptTopMatches      = "Show top matches"
	PromptReportByCompany = "Report by company"
	PromptListingsToFile  = "Dump listings to file"
	PromptExit            = "Exit"

	defaultOutputFile = "jobs_scored.csv"
	defaultThreshold  = 70
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptTopMatches, PromptReportByCompany, PromptListingsToFile, PromptExit},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the jobsage main command",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not open the interactive menu after the run")
	runCmd.Flags().StringP("say", "s", "", "free-text command like 'find jobs as data analyst in austin above 80'")
	runCmd.Flags().IntP("threshold", "t", 0, "minimum match score for the filtered view. Overrides the config value.")

	viper.BindPFlag("output.threshold", runCmd.Flags().Lookup("threshold"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the jobsage", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	if config.Search == nil {
		logger.Fatal("the search section is required to fetch listings")
	}

	resume, err := loadResume(config)
	if err != nil {
		logger.Fatal("loading the resume",
			zap.Error(err),
			zap.String("hint", "set the 'resume-file' key in the configuration file"),
		)
	}

	req := buildRequest(cmd, config, logger)
	req.Resume = resume

	p, err := buildPipeline(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	logger.Info("starting the search",
		zap.String("role", req.Search.Role),
		zap.Strings("locations", req.Search.Locations),
		zap.Int("pages", req.Search.Pages),
	)

	result, err := p.Run(ctx, req)
	if err != nil {
		logger.Fatal("pipeline run failed", zap.Error(err))
	}

	logger.Info("persisted the result table",
		zap.String("file", outputFile(config)),
		zap.Int("listings", result.Table.Len()),
		zap.Int("matches above threshold", len(result.Filtered)),
		zap.Int("threshold", req.Threshold),
	)

	if result.Table.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no listings found"))
		return
	}

	if cmd.Flag("auto-approve").Value.String() == "true" {
		printTopMatches(result, req.Threshold)
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, result, req.Threshold, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, result *pipeline.Result, threshold int, logger *zap.Logger) error {
	switch action {
	case PromptTopMatches:
		printTopMatches(result, threshold)
		return nil
	case PromptReportByCompany:
		pretty, _ := json.MarshalIndent(result.Table.ByCompany(), "", "  ")
		logger.Info(string(pretty), zap.Int("listings count", result.Table.Len()))
		return nil
	case PromptListingsToFile:
		filename, err := result.Table.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func printTopMatches(result *pipeline.Result, threshold int) {
	if len(result.Filtered) == 0 {
		fmt.Printf("no listings above the %d%% match threshold\n", threshold)
		return
	}

	for _, row := range result.Filtered {
		listing := row.Listing
		fmt.Printf("%3d%%  %s / %s / %s / %s\n",
			row.Score, listing.Title, listing.Company, listing.Location, listing.Link,
		)
	}
}

// buildRequest assembles the run request from the config, optionally
// reshaped by the free-text --say command.
func buildRequest(cmd *cobra.Command, config *Config, logger *zap.Logger) *pipeline.Request {
	req := &pipeline.Request{
		Search: &search.Request{
			Role:      config.Search.Role,
			Locations: config.Search.Locations,
			Pages:     config.Search.Pages,
		},
		Threshold: threshold(config),
	}

	if req.Search.Pages < 1 {
		req.Search.Pages = 1
	}

	say := strings.TrimSpace(cmd.Flag("say").Value.String())
	if say == "" {
		return req
	}

	defaults := intent.Defaults{
		Role:      req.Search.Role,
		Threshold: req.Threshold,
	}
	if len(req.Search.Locations) > 0 {
		defaults.Location = req.Search.Locations[0]
	}

	parsed := intent.Parse(say, defaults)

	logger.Info("parsed the free-text command",
		zap.String("command", say),
		zap.String("role", parsed.Role),
		zap.String("location", parsed.Location),
		zap.Int("threshold", parsed.Threshold),
	)

	req.Search.Role = parsed.Role
	req.Search.Locations = []string{parsed.Location}
	req.Threshold = parsed.Threshold

	return req
}

func buildPipeline(ctx context.Context, config *Config, logger *zap.Logger) (*pipeline.Pipeline, error) {
	key, err := resolveJSearchKey(config)
	if err != nil {
		return nil, err
	}

	planner := search.NewPlanner(jsearch.New(logger, key), plannerConfig(config), logger)

	scorer, err := newScorer(ctx, config.AI, logger)
	if err != nil {
		return nil, fmt.Errorf("building the scorer: %w", err)
	}

	workers := 0
	if config.Scoring != nil {
		workers = config.Scoring.Workers
	}

	coordinator := scoring.NewCoordinator(scorer, workers, logger)
	store := &report.CSVStore{Path: outputFile(config)}

	return pipeline.New(planner, coordinator, store, logger), nil
}

func resolveJSearchKey(config *Config) (string, error) {
	src := secrets.Source{
		Name:  "jsearch api key",
		Value: os.Getenv("RAPIDAPI_KEY"),
	}

	// an explicit environment value wins over a configured key file
	if src.Value == "" {
		if config.JSearch != nil {
			src.File = strings.TrimSpace(config.JSearch.APIKeyFile)
		}
		if src.File == "" {
			src.File = strings.TrimSpace(viper.GetString("jsearch.api-key-file"))
		}
	}

	key, err := secrets.Load(src)
	if err != nil {
		return "", fmt.Errorf("%w (set RAPIDAPI_KEY, RAPIDAPI_KEY_FILE or jsearch.api-key-file)", err)
	}

	return key, nil
}

func newScorer(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Scorer, error) {
	geminiCfg := &GeminiConfig{}
	if cfg != nil {
		provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
		if provider != "" && provider != "gemini" {
			return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
		}
		if cfg.Gemini != nil {
			geminiCfg = cfg.Gemini
		}
	}

	src := secrets.Source{
		Name:  "gemini api key",
		Value: os.Getenv("GEMINI_API_KEY"),
	}
	if src.Value == "" {
		src.File = strings.TrimSpace(geminiCfg.APIKeyFile)
	}

	apiKey, err := secrets.Load(src)
	if err != nil {
		return nil, fmt.Errorf("%w (set GEMINI_API_KEY, GEMINI_API_KEY_FILE or ai.gemini.api-key-file)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, geminiCfg.Model)
	if err != nil {
		return nil, err
	}

	scorerLogger := logger.WithCommonFields(log, "gemini", generator.Model())

	return gemini.NewScorer(
		generator,
		time.Duration(geminiCfg.TimeoutSeconds)*time.Second,
		geminiCfg.MaxLogLength,
		scorerLogger,
	), nil
}

func loadResume(config *Config) (string, error) {
	path := strings.TrimSpace(config.ResumeFile)
	if path == "" {
		return "", errors.New("resume file is not configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading resume file %q: %w", path, err)
	}

	resume := strings.TrimSpace(string(data))
	if resume == "" {
		return "", fmt.Errorf("resume file %q is empty", path)
	}

	return resume, nil
}

func plannerConfig(config *Config) *search.PlannerConfig {
	cfg := &search.PlannerConfig{}
	if config.JSearch == nil {
		return cfg
	}

	cfg.PacingInterval = time.Duration(config.JSearch.PacingIntervalMS) * time.Millisecond
	cfg.MaxRetries = config.JSearch.MaxRetries

	return cfg
}

func outputFile(config *Config) string {
	if config.Output != nil && strings.TrimSpace(config.Output.File) != "" {
		return config.Output.File
	}

	return defaultOutputFile
}

func threshold(config *Config) int {
	if t := viper.GetInt("output.threshold"); t > 0 {
		return t
	}

	if config.Output != nil && config.Output.Threshold > 0 {
		return config.Output.Threshold
	}

	return defaultThreshold
}
