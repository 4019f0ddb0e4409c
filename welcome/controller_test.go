package welcome

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniscale/osmwelcome/changeset"
	"github.com/omniscale/osmwelcome/osmapi"
	"github.com/omniscale/osmwelcome/prompt"
	"github.com/omniscale/osmwelcome/summary"
)

const (
	metaDoc = `<osm><changeset id="42" uid="7" user="newbie" created_at="2024-03-01T10:00:00Z" min_lat="1" max_lat="2" min_lon="3" max_lon="4"><tag k="comment" v="cafe"/></changeset></osm>`
	diffDoc = `<osmChange><create><node id="1"><tag k="name" v="Cafe"/></node></create></osmChange>`
)

type fakeOSM struct {
	calls     int32
	meta      func(ctx context.Context) ([]byte, error)
	download  func(ctx context.Context) ([]byte, error)
	user      func(ctx context.Context) (*osmapi.User, error)
	userCalls int32
}

func newFakeOSM() *fakeOSM {
	return &fakeOSM{
		meta:     func(context.Context) ([]byte, error) { return []byte(metaDoc), nil },
		download: func(context.Context) ([]byte, error) { return []byte(diffDoc), nil },
		user: func(context.Context) (*osmapi.User, error) {
			return &osmapi.User{ID: 7, DisplayName: "newbie"}, nil
		},
	}
}

func (f *fakeOSM) Changeset(ctx context.Context, id string) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.meta(ctx)
}

func (f *fakeOSM) ChangesetDownload(ctx context.Context, id string) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.download(ctx)
}

func (f *fakeOSM) User(ctx context.Context, uid string) (*osmapi.User, error) {
	atomic.AddInt32(&f.userCalls, 1)
	return f.user(ctx)
}

type fakeSummarizer struct {
	calls   int
	id      string
	prompt  string
	outcome summary.Outcome
	before  func()
}

func (f *fakeSummarizer) RequestSummary(ctx context.Context, id, prompt string) summary.Outcome {
	f.calls++
	f.id = id
	f.prompt = prompt
	if f.before != nil {
		f.before()
	}
	return f.outcome
}

type recorder struct {
	mu        sync.Mutex
	states    []State
	firstEdit []string
	returning int
	errs      []*Failure
	users     []*osmapi.User
}

func (r *recorder) Status(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) FirstEdit(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.firstEdit = append(r.firstEdit, s)
}

func (r *recorder) Returning(*changeset.Meta, *changeset.Changes) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.returning++
}

func (r *recorder) UserInfo(u *osmapi.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, u)
}

func (r *recorder) Error(err *Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

// renders returns the number of final views rendered.
func (r *recorder) renders() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.firstEdit) + r.returning + len(r.errs)
}

func TestRunFirstEdit(t *testing.T) {
	osm := newFakeOSM()
	sum := &fakeSummarizer{outcome: summary.Outcome{Kind: summary.Produced, Text: "I just added a cafe"}}
	rec := &recorder{}
	c := New(osm, sum, rec, prompt.Default)

	res := c.Run(context.Background(), "42")
	c.Wait()

	assert.Equal(t, Done, res.State)
	assert.Equal(t, []State{Idle, FetchingData, Parsing, AwaitingSummary, RenderingFirstEdit, Done}, res.Trace)
	assert.Equal(t, FirstEditView, res.Kind)
	assert.Equal(t, "I just added a cafe", res.Summary)
	assert.Nil(t, res.Err)

	require.Len(t, res.Changes.Created, 1)
	assert.Equal(t, changeset.Element{
		Type: changeset.Node, ID: "1", Tags: map[string]string{"name": "Cafe"}, NodeRefs: []string{},
	}, res.Changes.Created[0])
	assert.Equal(t, "newbie", res.Meta.User)

	assert.Equal(t, 1, sum.calls)
	assert.Equal(t, "42", sum.id)
	assert.Contains(t, sum.prompt, `- node 1 with tags: {"name":"Cafe"}`)

	assert.Equal(t, []string{"I just added a cafe"}, rec.firstEdit)
	assert.Equal(t, 1, rec.renders())
	assert.Equal(t, res.Trace[1:], rec.states)
	require.Len(t, rec.users, 1)
	assert.Equal(t, "newbie", rec.users[0].DisplayName)
}

func TestRunNotEligible(t *testing.T) {
	sum := &fakeSummarizer{outcome: summary.Outcome{Kind: summary.NotEligible}}
	rec := &recorder{}
	c := New(newFakeOSM(), sum, rec, prompt.Default)

	res := c.Run(context.Background(), "42")
	c.Wait()

	assert.Equal(t, []State{Idle, FetchingData, Parsing, AwaitingSummary, RenderingReturning, Done}, res.Trace)
	assert.NotContains(t, res.Trace, Error)
	assert.Equal(t, ReturningView, res.Kind)
	assert.Nil(t, res.Err)
	assert.Equal(t, 1, rec.returning)
	assert.Equal(t, 1, rec.renders())
}

func TestRunBackendFailure(t *testing.T) {
	sum := &fakeSummarizer{outcome: summary.Outcome{Kind: summary.Failed, Message: "db down", StatusCode: 500}}
	rec := &recorder{}
	c := New(newFakeOSM(), sum, rec, prompt.Default)

	res := c.Run(context.Background(), "42")
	c.Wait()

	assert.Equal(t, Error, res.State)
	assert.Equal(t, ErrorView, res.Kind)
	require.NotNil(t, res.Err)
	assert.Equal(t, BackendFailure, res.Err.Kind)
	assert.Equal(t, "db down", res.Err.Detail)
	assert.Equal(t, 500, res.Err.StatusCode)
	assert.Equal(t, 1, rec.renders())
}

func TestRunMissingInput(t *testing.T) {
	for _, id := range []string{"", "  "} {
		osm := newFakeOSM()
		sum := &fakeSummarizer{}
		rec := &recorder{}
		c := New(osm, sum, rec, prompt.Default)

		res := c.Run(context.Background(), id)
		c.Wait()

		assert.Equal(t, []State{Idle, Error}, res.Trace)
		require.NotNil(t, res.Err)
		assert.Equal(t, MissingInput, res.Err.Kind)
		assert.Equal(t, int32(0), osm.calls)
		assert.Equal(t, int32(0), osm.userCalls)
		assert.Equal(t, 0, sum.calls)
		assert.Equal(t, []*Failure{res.Err}, rec.errs)
	}
}

func TestRunFetchFailure(t *testing.T) {
	osm := newFakeOSM()
	var metaCancelled int32
	osm.meta = func(ctx context.Context) ([]byte, error) {
		<-ctx.Done()
		atomic.StoreInt32(&metaCancelled, 1)
		return nil, ctx.Err()
	}
	osm.download = func(context.Context) ([]byte, error) {
		return nil, &osmapi.StatusError{StatusCode: 404, Message: "Failed to fetch changeset data"}
	}
	sum := &fakeSummarizer{}
	rec := &recorder{}
	c := New(osm, sum, rec, prompt.Default)

	res := c.Run(context.Background(), "42")
	c.Wait()

	assert.Equal(t, []State{Idle, FetchingData, Error}, res.Trace)
	require.NotNil(t, res.Err)
	assert.Equal(t, NetworkFailure, res.Err.Kind)
	assert.Equal(t, "Failed to fetch changeset data", res.Err.Detail)
	assert.Equal(t, 404, res.Err.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&metaCancelled), "other request not cancelled")
	assert.Equal(t, 0, sum.calls)
	assert.Equal(t, int32(0), osm.userCalls)
}

func TestRunMalformed(t *testing.T) {
	for name, setup := range map[string]func(*fakeOSM){
		"diff": func(f *fakeOSM) {
			f.download = func(context.Context) ([]byte, error) { return []byte(`<osmChange><create>`), nil }
		},
		"meta": func(f *fakeOSM) {
			f.meta = func(context.Context) ([]byte, error) { return []byte(`<osm>`), nil }
		},
	} {
		t.Run(name, func(t *testing.T) {
			osm := newFakeOSM()
			setup(osm)
			sum := &fakeSummarizer{}
			c := New(osm, sum, &recorder{}, prompt.Default)

			res := c.Run(context.Background(), "42")
			c.Wait()

			assert.Equal(t, []State{Idle, FetchingData, Parsing, Error}, res.Trace)
			require.NotNil(t, res.Err)
			assert.Equal(t, MalformedInput, res.Err.Kind)
			assert.Equal(t, 0, sum.calls)
		})
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sum := &fakeSummarizer{
		outcome: summary.Outcome{Kind: summary.Failed, Message: "network error"},
		before:  cancel,
	}
	rec := &recorder{}
	c := New(newFakeOSM(), sum, rec, prompt.Default)

	res := c.Run(ctx, "42")
	c.Wait()

	assert.Equal(t, []State{Idle, FetchingData, Parsing, AwaitingSummary, Error}, res.Trace)
	require.NotNil(t, res.Err)
	assert.Equal(t, Cancelled, res.Err.Kind)
	assert.True(t, res.Err.Silent())
	assert.True(t, errors.Is(res.Err, context.Canceled))
}

func TestRunCancelledBeforeFetch(t *testing.T) {
	osm := newFakeOSM()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(osm, &fakeSummarizer{}, nil, prompt.Default)

	res := c.Run(ctx, "42")
	assert.Equal(t, []State{Idle, Error}, res.Trace)
	assert.Equal(t, Cancelled, res.Err.Kind)
	assert.Equal(t, int32(0), osm.calls)
}

func TestUserInfoIsolated(t *testing.T) {
	osm := newFakeOSM()
	release := make(chan struct{})
	osm.user = func(ctx context.Context) (*osmapi.User, error) {
		<-release
		return nil, errors.New("user service down")
	}
	sum := &fakeSummarizer{outcome: summary.Outcome{Kind: summary.NotEligible}}
	rec := &recorder{}
	c := New(osm, sum, rec, prompt.Default)

	ctx, cancel := context.WithCancel(context.Background())
	// the run finishes while the user request still blocks
	res := c.Run(ctx, "42")
	cancel()
	assert.Equal(t, Done, res.State)

	close(release)
	c.Wait()
	assert.Equal(t, int32(1), osm.userCalls)
	assert.Empty(t, rec.users)
	assert.Empty(t, rec.errs)
	assert.Equal(t, Done, res.State)
}

func TestUserInfoNotCancelledWithRun(t *testing.T) {
	osm := newFakeOSM()
	var userErr error
	release := make(chan struct{})
	osm.user = func(ctx context.Context) (*osmapi.User, error) {
		<-release
		userErr = ctx.Err()
		return &osmapi.User{DisplayName: "newbie"}, nil
	}
	rec := &recorder{}
	c := New(osm, &fakeSummarizer{outcome: summary.Outcome{Kind: summary.Produced, Text: "x"}}, rec, prompt.Default)
	c.UserInfoTimeout = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	c.Run(ctx, "42")
	cancel()
	close(release)
	c.Wait()

	assert.NoError(t, userErr)
	assert.Len(t, rec.users, 1)
}

func TestSkipUserInfo(t *testing.T) {
	osm := newFakeOSM()
	c := New(osm, &fakeSummarizer{outcome: summary.Outcome{Kind: summary.NotEligible}}, nil, prompt.Default)
	c.SkipUserInfo = true

	res := c.Run(context.Background(), "42")
	c.Wait()
	assert.Equal(t, Done, res.State)
	assert.Equal(t, int32(0), osm.userCalls)
}

func TestPrompt(t *testing.T) {
	osm := newFakeOSM()
	sum := &fakeSummarizer{}
	c := New(osm, sum, nil, prompt.Celebrate)

	p, err := c.Prompt(context.Background(), "42")
	require.Nil(t, err)
	assert.Contains(t, p, "#osm #firstedit")
	assert.Contains(t, p, `- node 1 with tags: {"name":"Cafe"}`)
	assert.Equal(t, 0, sum.calls)
	assert.Equal(t, int32(0), osm.userCalls)

	_, err = c.Prompt(context.Background(), "")
	require.NotNil(t, err)
	assert.Equal(t, MissingInput, err.Kind)
}
