package welcome

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/omniscale/osmwelcome/osmapi"
)

type Kind int

const (
	// MissingInput: no changeset id was given.
	MissingInput Kind = iota + 1
	// NetworkFailure: a fetch from the OSM API did not complete.
	NetworkFailure
	// MalformedInput: metadata or diff could not be parsed.
	MalformedInput
	// BackendFailure: the summarization backend failed.
	BackendFailure
	// Cancelled: the caller aborted the run.
	Cancelled
)

var kindNames = map[Kind]string{
	MissingInput:   "MissingInput",
	NetworkFailure: "NetworkFailure",
	MalformedInput: "MalformedInput",
	BackendFailure: "BackendFailure",
	Cancelled:      "Cancelled",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Failure is the single error a failed run ends with. Title and Detail are
// meant for users.
type Failure struct {
	Kind       Kind
	Title      string
	Detail     string
	StatusCode int
	Err        error
}

func (e *Failure) Error() string {
	if e.Detail == "" {
		return e.Title
	}
	return e.Title + ": " + e.Detail
}

func (e *Failure) Unwrap() error {
	return e.Err
}

// Silent reports whether presenters should skip the error message.
func (e *Failure) Silent() bool {
	return e.Kind == Cancelled
}

func missingInput() *Failure {
	return &Failure{
		Kind:   MissingInput,
		Title:  "No changeset ID provided",
		Detail: "Please provide a changeset ID (e.g. 123456789)",
	}
}

func cancelled(err error) *Failure {
	return &Failure{Kind: Cancelled, Title: "Cancelled", Err: err}
}

// contextError returns the error for a done context, nil otherwise.
func contextError(ctx context.Context) *Failure {
	switch err := ctx.Err(); err {
	case nil:
		return nil
	case context.DeadlineExceeded:
		return &Failure{Kind: NetworkFailure, Title: "Error loading changeset data", Detail: "request timed out", Err: err}
	default:
		return cancelled(err)
	}
}

func fetchError(err error) *Failure {
	e := &Failure{Kind: NetworkFailure, Title: "Error loading changeset data", Detail: err.Error(), Err: err}
	var se *osmapi.StatusError
	if errors.As(err, &se) {
		e.Detail = se.Message
		e.StatusCode = se.StatusCode
	}
	return e
}

func parseError(err error) *Failure {
	return &Failure{Kind: MalformedInput, Title: "Invalid changeset data", Detail: err.Error(), Err: err}
}

func backendError(message string, status int) *Failure {
	return &Failure{Kind: BackendFailure, Title: "Error getting AI summary", Detail: message, StatusCode: status}
}
