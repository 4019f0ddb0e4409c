package summary

import "fmt"

type Kind int

const (
	// Produced means the backend returned a summary. Only first edits get one.
	Produced Kind = iota
	// NotEligible means the backend declined because the changeset is not
	// the author's first edit. This is not an error.
	NotEligible
	// Failed covers all other responses and network errors.
	Failed
)

func (k Kind) String() string {
	switch k {
	case Produced:
		return "produced"
	case NotEligible:
		return "not-eligible"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Outcome is the classified result of a summary request.
type Outcome struct {
	Kind Kind
	// Text is the summary for Produced.
	Text string
	// Cached is set when the backend answered from its cache.
	Cached bool
	// Message describes the failure for Failed.
	Message string
	// StatusCode is the HTTP status. 0 if no response was received.
	StatusCode int
}

func produced(text string, cached bool) Outcome {
	return Outcome{Kind: Produced, Text: text, Cached: cached}
}

func failed(msg string, status int) Outcome {
	return Outcome{Kind: Failed, Message: msg, StatusCode: status}
}

func (o Outcome) String() string {
	switch o.Kind {
	case Produced:
		return fmt.Sprintf("produced(%q)", o.Text)
	case Failed:
		return fmt.Sprintf("failed(%q, %d)", o.Message, o.StatusCode)
	}
	return o.Kind.String()
}
