package dns

import "fmt"

// ValidationError reports an invalid invocation parameter. It is always
// detected before any request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// TransportError reports a failure to reach the provider or to read its
// reply: network errors, non-2xx statuses and undecodable bodies.
type TransportError struct {
	Action string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProviderError carries the message of a response envelope whose result
// was not "success". Error returns that message unchanged.
type ProviderError struct {
	Action  string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: provider reported an error without a message", e.Action)
	}
	return e.Message
}
