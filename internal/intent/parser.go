// Package intent extracts a search request from a free-text command such as
// "find jobs as data analyst in austin above 80". Parsing is best-effort:
// anything it cannot extract falls back to the caller's defaults, so a failed
// parse never blocks a run.
package intent

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	rolePattern      = regexp.MustCompile(`(?:as|for)\s+([\w\s]+?)\s+(?:in|at)\s+([\w\s]+)`)
	thresholdPattern = regexp.MustCompile(`\babove\s+(\d{1,3})\b`)
)

// Defaults seed the parsed command for every field that cannot be extracted.
type Defaults struct {
	Role      string
	Location  string
	Threshold int
}

// Command is the parsed search intent.
type Command struct {
	Role      string
	Location  string
	Threshold int
}

// Parse extracts role, location and threshold from the command text.
func Parse(text string, defaults Defaults) Command {
	out := Command{
		Role:      defaults.Role,
		Location:  defaults.Location,
		Threshold: defaults.Threshold,
	}

	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return out
	}

	// The threshold clause is cut first so it does not bleed into the
	// location capture ("in austin above 80").
	if m := thresholdPattern.FindStringSubmatch(lower); m != nil {
		if threshold, err := strconv.Atoi(m[1]); err == nil && threshold <= 100 {
			out.Threshold = threshold
		}
		lower = strings.TrimSpace(thresholdPattern.ReplaceAllString(lower, ""))
	}

	if m := rolePattern.FindStringSubmatch(lower); m != nil {
		out.Role = titleCase(strings.TrimSpace(m[1]))
		out.Location = titleCase(strings.TrimSpace(m[2]))
	}

	return out
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
