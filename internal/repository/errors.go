package repository

import (
	"errors"
	"fmt"
)

// Custom error types
var (
	ErrLocationNotFound = errors.New("city not found")
	ErrAPIKeyMissing    = errors.New("API key missing")
	ErrExternalAPI      = errors.New("external API error")
	ErrEmptyCity        = errors.New("city must not be empty")
)

// ErrorKind classifies why a fetch failed.
type ErrorKind int

const (
	// KindRequest covers local preconditions: empty city, missing credential.
	KindRequest ErrorKind = iota
	KindNetwork
	KindHTTP
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// FetchError is the only error type Fetch returns. A non-nil FetchError
// means no weather data was produced.
type FetchError struct {
	Kind       ErrorKind
	City       string
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("fetch weather for %q: %v", e.City, e.Err)
	}
	return fmt.Sprintf("fetch %s for %q: %s: %v", e.Endpoint, e.City, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the external API does not know the city.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLocationNotFound)
}
