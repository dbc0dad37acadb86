package analysis

import "errors"

// Kind groups analysis failures by what the operator can do about them
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindEmptyReport   Kind = "empty_report"
	KindTransport     Kind = "transport"
)

const (
	MessageMissingCredential = "AI uplink not configured. Set GEMINI_API_KEY."
	MessageEmptyReport       = "Report generation failed."
	MessageLinkSevered       = "Communication link severed."
)

// Classify maps an Analyze error to its kind and the message shown on the scanner
func Classify(err error) (Kind, string) {
	switch {
	case errors.Is(err, ErrMissingCredential):
		return KindConfiguration, MessageMissingCredential
	case errors.Is(err, ErrEmptyReport):
		return KindEmptyReport, MessageEmptyReport
	default:
		return KindTransport, MessageLinkSevered
	}
}
