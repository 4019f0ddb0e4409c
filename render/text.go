package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/omniscale/osmwelcome/changeset"
	"github.com/omniscale/osmwelcome/osmapi"
	"github.com/omniscale/osmwelcome/welcome"
)

var statusText = map[welcome.State]string{
	welcome.FetchingData:    "Loading changeset...",
	welcome.Parsing:         "Reading changes...",
	welcome.AwaitingSummary: "Analyzing...",
}

// Text writes results as plain text. Progress messages are only written
// if Progress is set.
type Text struct {
	mu       sync.Mutex
	w        io.Writer
	pageURL  string
	Progress bool
	inStatus bool
}

var _ welcome.Presenter = &Text{}

// NewText returns a Text presenter. pageURL is shared together with
// first edit summaries and can be empty.
func NewText(w io.Writer, pageURL string) *Text {
	return &Text{w: w, pageURL: pageURL}
}

func (t *Text) Status(s welcome.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.Progress {
		return
	}
	if msg, ok := statusText[s]; ok {
		fmt.Fprintf(t.w, "\r\x1b[2K%s", msg)
		t.inStatus = true
		return
	}
	t.clearStatus()
}

func (t *Text) clearStatus() {
	if t.inStatus {
		fmt.Fprint(t.w, "\r\x1b[2K")
		t.inStatus = false
	}
}

func (t *Text) FirstEdit(summary string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearStatus()
	fmt.Fprintln(t.w, summary)
	fmt.Fprintln(t.w)
	share := Share(summary, t.pageURL)
	fmt.Fprintln(t.w, "Share on Mastodon:", share.Mastodon)
	fmt.Fprintln(t.w, "Share on Telegram:", share.Telegram)
}

func (t *Text) Returning(meta *changeset.Meta, changes *changeset.Changes) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearStatus()
	fmt.Fprintf(t.w, "Changeset %s by %s\n", meta.ID, meta.User)
	if !meta.CreatedAt.IsZero() {
		fmt.Fprintf(t.w, "  %s\n", meta.CreatedAt.UTC().Format("Jan 2, 2006, 03:04 PM MST"))
	}
	if meta.Comment != "" {
		fmt.Fprintf(t.w, "  %q\n", meta.Comment)
	}
	for _, line := range changes.Breakdown().Lines() {
		fmt.Fprintf(t.w, "  %s\n", line)
	}
	fmt.Fprintln(t.w)
	fmt.Fprintln(t.w, "View this change:")
	writeTools(t.w, ChangesetTools(meta.ID))
	if meta.User != "" {
		fmt.Fprintln(t.w, "Your contributions:")
		writeTools(t.w, UserTools(meta.User))
	}
}

func writeTools(w io.Writer, tools []Tool) {
	for _, tool := range tools {
		fmt.Fprintf(w, "  %-24s %s\n", tool.Name, tool.URL)
	}
}

func (t *Text) UserInfo(user *osmapi.User) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearStatus()
	fmt.Fprintf(t.w, "Mapper: %s", user.DisplayName)
	if !user.AccountCreated.IsZero() {
		fmt.Fprintf(t.w, " (joined %s)", humanize.Time(user.AccountCreated))
	}
	fmt.Fprintln(t.w)
	links := user.Links()
	if len(links) > 0 {
		parts := make([]string, len(links))
		for i, l := range links {
			if l.Text == l.URL {
				parts[i] = l.URL
			} else {
				parts[i] = l.Text + " <" + l.URL + ">"
			}
		}
		fmt.Fprintln(t.w, "  "+strings.Join(parts, " | "))
	}
}

func (t *Text) Error(err *welcome.Failure) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearStatus()
	if err.Silent() {
		return
	}
	fmt.Fprintln(t.w, "Error:", err.Title)
	if err.Detail != "" {
		fmt.Fprintln(t.w, "  "+err.Detail)
	}
}
