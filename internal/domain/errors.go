package domain

import "errors"

// DefaultLoadMessage is shown when the catalog API failed without a message of its own.
const DefaultLoadMessage = "Failed to load product data, please refresh the page and try again"

// ErrEmptyCatalog marks a catalog without any first_group entries. It is an
// empty state, rendered as a placeholder, never a failure of the page.
var ErrEmptyCatalog = errors.New("catalog has no product types")

// LoadError is returned when the catalog could not be fetched: transport
// failure, HTTP error status or an application status other than 200.
type LoadError struct {
	Message string // user-facing banner text
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return "catalog load failed: " + e.Message
	}
	return "catalog load failed: " + e.Message + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError builds a LoadError, falling back to DefaultLoadMessage.
func NewLoadError(message string, err error) *LoadError {
	if message == "" {
		message = DefaultLoadMessage
	}
	return &LoadError{Message: message, Err: err}
}

// BannerMessage returns the text to show for err in the error banner.
func BannerMessage(err error) string {
	if err == nil {
		return ""
	}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Message
	}
	return DefaultLoadMessage
}
