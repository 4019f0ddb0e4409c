package render

import (
	"github.com/omniscale/osmwelcome/changeset"
	"github.com/omniscale/osmwelcome/welcome"
)

// View is the JSON document for a finished run.
type View struct {
	Kind welcome.ViewKind `json:"kind"`

	// firstEdit
	SummaryText string      `json:"summaryText,omitempty"`
	Share       *ShareLinks `json:"share,omitempty"`

	// returning
	Meta      *changeset.Meta    `json:"meta,omitempty"`
	Changes   *changeset.Changes `json:"changes,omitempty"`
	Breakdown []string           `json:"breakdown,omitempty"`
	Tools     []Tool             `json:"tools,omitempty"`
	UserTools []Tool             `json:"userTools,omitempty"`
	MapCenter *[2]float64        `json:"mapCenter,omitempty"`

	// error, Message is the detail if there is one
	ErrorKind welcome.Kind `json:"errorKind,omitempty"`
	Title     string       `json:"title,omitempty"`
	Message   string       `json:"message,omitempty"`
}

// NewView converts the result of a run. pageURL is used for share links.
func NewView(res *welcome.Result, pageURL string) *View {
	v := &View{Kind: res.Kind}
	switch res.Kind {
	case welcome.FirstEditView:
		v.SummaryText = res.Summary
		share := Share(res.Summary, pageURL)
		v.Share = &share
	case welcome.ReturningView:
		v.Meta = res.Meta
		v.Changes = res.Changes
		v.Breakdown = res.Changes.Breakdown().Lines()
		v.Tools = ChangesetTools(res.Meta.ID)
		if res.Meta.User != "" {
			v.UserTools = UserTools(res.Meta.User)
		}
	case welcome.ErrorView:
		v.ErrorKind = res.Err.Kind
		v.Title = res.Err.Title
		v.Message = res.Err.Detail
		if v.Message == "" {
			v.Message = res.Err.Title
		}
	}
	if res.Meta != nil && res.Meta.HasBounds() {
		lat, lon := res.Meta.Center()
		v.MapCenter = &[2]float64{lat, lon}
	}
	return v
}
