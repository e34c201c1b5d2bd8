package jsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	searchPath = "/search"

	// The source API truncates nothing; long descriptions are bounded here
	// to keep prompts and the persisted table manageable.
	maxDescriptionRunes = 2000
)

type Item interface{}

type searchResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    []Item `json:"data"`
}

type rawJob struct {
	Title       string `json:"job_title"`
	Employer    string `json:"employer_name"`
	City        string `json:"job_city"`
	ApplyLink   string `json:"job_apply_link"`
	GoogleLink  string `json:"job_google_link"`
	Description string `json:"job_description"`
	Publisher   string `json:"job_publisher"`
}

// Search fetches one page of listings for the given role and location. It is
// safe to retry: every call issues a single idempotent GET request.
func (c *Client) Search(ctx context.Context, role, location string, page int) ([]Listing, error) {
	q := url.Values{}
	q.Set("query", fmt.Sprintf("%s in %s", role, location))
	q.Set("page", strconv.Itoa(page))
	q.Set("num_pages", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+searchPath, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("X-RapidAPI-Key", c.key)
	req.Header.Set("X-RapidAPI-Host", apiHost)
	req.URL.RawQuery = q.Encode()

	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{Status: resp.Status}
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, &TransientError{Err: fmt.Errorf("bad status: %s", resp.Status)}
	case resp.StatusCode != http.StatusOK:
		return nil, &SchemaError{Err: fmt.Errorf("bad status: %s", resp.Status)}
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &SchemaError{Err: err}
	}

	if quotaExceeded(&response) {
		return nil, &RateLimitError{Status: response.Message}
	}

	return c.toListings(response.Data, location)
}

// quotaExceeded detects a quota-exceeded body delivered with a 200 status,
// which RapidAPI produces for some plans instead of a 429.
func quotaExceeded(response *searchResponse) bool {
	message := strings.ToLower(response.Message)
	return strings.Contains(message, "quota") || strings.Contains(message, "exceeded the rate limit")
}

func (c *Client) toListings(items []Item, requestedLocation string) ([]Listing, error) {
	var jobs []*rawJob

	cfg := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   &jobs,
		TagName:  "json",
	}
	decoder, _ := mapstructure.NewDecoder(cfg)
	if err := decoder.Decode(items); err != nil {
		return nil, &SchemaError{Err: err}
	}

	listings := make([]Listing, 0, len(jobs))
	for _, job := range jobs {
		if job == nil {
			continue
		}

		// The source may omit the city; the requested location is the
		// documented fallback.
		location := job.City
		if location == "" {
			location = requestedLocation
		}

		link := job.ApplyLink
		if link == "" {
			link = job.GoogleLink
		}

		listings = append(listings, Listing{
			Title:       job.Title,
			Company:     job.Employer,
			Location:    location,
			Link:        link,
			Description: truncate(job.Description, maxDescriptionRunes),
			Source:      job.Publisher,
		})
	}

	return listings, nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
