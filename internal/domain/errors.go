package domain

import "fmt"

// FetchError marks a single feed's failure. Recoverable: the run skips
// the feed and continues.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch feed %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// RenderError marks a document-rendering failure. Run-fatal.
type RenderError struct {
	Format Format
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s document: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// DeliveryError marks a genuine email-provider failure. Run-fatal.
type DeliveryError struct {
	To  string
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.To, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// ConfigurationError means the run could not start at all (no feeds,
// no destination address, inactive settings). No delivery record is
// written because no attempt occurred.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return e.Reason }
