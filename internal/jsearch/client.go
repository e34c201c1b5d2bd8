package jsearch

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL  = "https://jsearch.p.rapidapi.com"
	apiHost = "jsearch.p.rapidapi.com"
)

type Client struct {
	key    string
	logger *zap.Logger

	HTTPClient *http.Client
	APIURL     string
}

func New(logger *zap.Logger, key string) *Client {
	return &Client{
		key:    key,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		logger: logger,
	}
}
