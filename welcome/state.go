package welcome

import "fmt"

type State int

const (
	Idle State = iota
	FetchingData
	Parsing
	AwaitingSummary
	RenderingFirstEdit
	RenderingReturning
	Done
	Error
)

var stateNames = [...]string{
	"Idle",
	"FetchingData",
	"Parsing",
	"AwaitingSummary",
	"RenderingFirstEdit",
	"RenderingReturning",
	"Done",
	"Error",
}

func (s State) String() string {
	if s < Idle || s > Error {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
