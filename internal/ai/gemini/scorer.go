package gemini

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/jobsage/internal/jsearch"
	"github.com/spigell/jobsage/internal/util"

	"go.uber.org/zap"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxLogLength = 200

	minScore = 0
	maxScore = 100
)

// Scorer rates resume/listing pairs through a Gemini content generator.
type Scorer struct {
	generator contentGenerator
	timeout   time.Duration
	maxLogLen int
	logger    *zap.Logger
}

func NewScorer(generator contentGenerator, timeout time.Duration, maxLogLength int, logger *zap.Logger) *Scorer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Scorer{
		generator: generator,
		timeout:   timeout,
		maxLogLen: maxLogLength,
		logger:    logger,
	}
}

// Score sends the resume and the listing summary to the model and parses the
// answer as an integer match score. Every call is bounded by the configured
// timeout; an expired call fails instead of hanging.
func (s *Scorer) Score(ctx context.Context, resume string, listing *jsearch.Listing) (int, error) {
	if strings.TrimSpace(resume) == "" {
		return 0, errors.New("resume text is required")
	}
	if listing == nil {
		return 0, errors.New("listing is required")
	}

	prompt := buildPrompt(resume, listing.Summary())

	s.logger.Debug("gemini score request",
		zap.String("listing", listing.Key()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", util.TruncateForLog(prompt, s.maxLogLen)),
	)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.generator.GenerateContent(callCtx, prompt)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("gemini score response",
		zap.String("listing", listing.Key()),
		zap.String("response_preview", util.TruncateForLog(raw, s.maxLogLen)),
	)

	return parseScore(raw)
}

func buildPrompt(resume, job string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Rate how well this resume matches the job from 0 to 100. Only output a single integer number.\n\nResume:\n{{RESUME}}\n\nJob:\n{{JOB}}\n"
	}

	prompt := strings.ReplaceAll(template, "{{RESUME}}", resume)
	return strings.ReplaceAll(prompt, "{{JOB}}", job)
}

func parseScore(raw string) (int, error) {
	cleaned := extractText(raw)

	score, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, fmt.Errorf("parse gemini response %q as score: %w", util.TruncateForLog(raw, defaultMaxLogLength), err)
	}

	if score < minScore || score > maxScore {
		return 0, fmt.Errorf("score %d out of range [%d,%d]", score, minScore, maxScore)
	}

	return score, nil
}

// extractText strips markdown fences the model sometimes wraps around short answers.
func extractText(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```text")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
