package jsearch

import "fmt"

// TransientError marks a fetch failure worth retrying: transport errors,
// timeouts and 5xx responses.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient fetch error"
	}
	return fmt.Sprintf("transient fetch error: %s", e.Err.Error())
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RateLimitError signals the API explicitly throttled the request. The caller
// should back off before retrying the same unit.
type RateLimitError struct {
	Status string
}

func (e *RateLimitError) Error() string {
	if e == nil || e.Status == "" {
		return "rate limited"
	}
	return fmt.Sprintf("rate limited: %s", e.Status)
}

// SchemaError marks a malformed or unexpected response body. It is not
// retryable: the caller should skip the unit instead.
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string {
	if e == nil || e.Err == nil {
		return "malformed response"
	}
	return fmt.Sprintf("malformed response: %s", e.Err.Error())
}

func (e *SchemaError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
