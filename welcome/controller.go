// Package welcome runs the pipeline behind a changeset welcome page: fetch
// a changeset, parse its diff, ask the summarization backend for a
// first-edit summary and hand the result to a Presenter.
package welcome

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omniscale/osmwelcome/changeset"
	"github.com/omniscale/osmwelcome/log"
	"github.com/omniscale/osmwelcome/osmapi"
	pchangeset "github.com/omniscale/osmwelcome/parser/changeset"
	"github.com/omniscale/osmwelcome/parser/diff"
	"github.com/omniscale/osmwelcome/prompt"
	"github.com/omniscale/osmwelcome/summary"
)

// OSM is the part of the OSM API the controller needs.
type OSM interface {
	Changeset(ctx context.Context, id string) ([]byte, error)
	ChangesetDownload(ctx context.Context, id string) ([]byte, error)
	User(ctx context.Context, uid string) (*osmapi.User, error)
}

// Summarizer requests a summary for a changeset. The backend decides
// whether a changeset qualifies as a first edit.
type Summarizer interface {
	RequestSummary(ctx context.Context, changesetID, prompt string) summary.Outcome
}

var _ OSM = &osmapi.Client{}
var _ Summarizer = &summary.Client{}

type ViewKind string

const (
	FirstEditView ViewKind = "firstEdit"
	ReturningView ViewKind = "returning"
	ErrorView     ViewKind = "error"
)

// Result describes a finished run.
type Result struct {
	State State
	// Trace lists all states of the run in order, starting with Idle.
	Trace   []State
	Kind    ViewKind
	Summary string
	Prompt  string
	Meta    *changeset.Meta
	Changes *changeset.Changes
	Err     *Failure
}

const defaultUserInfoTimeout = 30 * time.Second

type Controller struct {
	osm        OSM
	summarizer Summarizer
	presenter  Presenter
	policy     prompt.Policy

	// UserInfoTimeout limits the detached user info request.
	UserInfoTimeout time.Duration
	// SkipUserInfo disables the user info request, e.g. if the presenter
	// does not show it.
	SkipUserInfo bool

	wg sync.WaitGroup
}

// New returns a Controller. presenter can be nil.
func New(osm OSM, summarizer Summarizer, presenter Presenter, policy prompt.Policy) *Controller {
	if presenter == nil {
		presenter = NopPresenter{}
	}
	return &Controller{
		osm:             osm,
		summarizer:      summarizer,
		presenter:       presenter,
		policy:          policy,
		UserInfoTimeout: defaultUserInfoTimeout,
	}
}

type run struct {
	presenter Presenter
	result    *Result
	id        string
	// userInfo enables the background user info request.
	userInfo bool
}

func (r *run) enter(s State) {
	r.result.State = s
	r.result.Trace = append(r.result.Trace, s)
	r.presenter.Status(s)
}

func (r *run) fail(err *Failure) *Result {
	r.result.Kind = ErrorView
	r.result.Err = err
	r.enter(Error)
	r.presenter.Error(err)
	return r.result
}

// Run processes a single changeset. The presenter receives each state
// change and exactly one of FirstEdit, Returning or Error.
func (c *Controller) Run(ctx context.Context, changesetID string) *Result {
	r := &run{
		presenter: c.presenter,
		result:    &Result{State: Idle, Trace: []State{Idle}},
		userInfo:  !c.SkipUserInfo,
	}

	meta, changes, err := c.load(ctx, r, changesetID)
	if err != nil {
		return r.fail(err)
	}
	r.result.Meta = meta
	r.result.Changes = changes

	r.enter(AwaitingSummary)
	r.result.Prompt = prompt.Build(changes, c.policy)
	done := log.Step("Requesting summary for changeset " + r.id)
	outcome := c.summarizer.RequestSummary(ctx, r.id, r.result.Prompt)
	done()
	if err := contextError(ctx); err != nil {
		return r.fail(err)
	}

	switch outcome.Kind {
	case summary.Produced:
		r.result.Kind = FirstEditView
		r.result.Summary = outcome.Text
		r.enter(RenderingFirstEdit)
		c.presenter.FirstEdit(outcome.Text)
	case summary.NotEligible:
		log.Printf("[info] changeset %s is not a first edit", r.id)
		r.result.Kind = ReturningView
		r.enter(RenderingReturning)
		c.presenter.Returning(meta, changes)
	default:
		return r.fail(backendError(outcome.Message, outcome.StatusCode))
	}

	r.enter(Done)
	return r.result
}

// Prompt fetches and parses a changeset and returns the prompt without
// calling the summarization backend.
func (c *Controller) Prompt(ctx context.Context, changesetID string) (string, *Failure) {
	r := &run{
		presenter: NopPresenter{},
		result:    &Result{State: Idle, Trace: []State{Idle}},
	}
	_, changes, err := c.load(ctx, r, changesetID)
	if err != nil {
		return "", err
	}
	return prompt.Build(changes, c.policy), nil
}

// load runs the FetchingData and Parsing states.
func (c *Controller) load(ctx context.Context, r *run, changesetID string) (*changeset.Meta, *changeset.Changes, *Failure) {
	id := strings.TrimSpace(changesetID)
	if id == "" {
		return nil, nil, missingInput()
	}
	r.id = id
	if err := contextError(ctx); err != nil {
		return nil, nil, err
	}

	r.enter(FetchingData)
	done := log.Step("Fetching changeset " + id)
	metaDoc, diffDoc, err := c.fetch(ctx, id)
	done()
	if cerr := contextError(ctx); cerr != nil {
		return nil, nil, cerr
	}
	if err != nil {
		return nil, nil, fetchError(err)
	}

	r.enter(Parsing)
	meta, err := pchangeset.ParseMeta(ctx, bytes.NewReader(metaDoc))
	if err != nil {
		if cerr := contextError(ctx); cerr != nil {
			return nil, nil, cerr
		}
		return nil, nil, parseError(err)
	}
	if meta.UID != "" && r.userInfo {
		c.loadUserInfo(ctx, meta.UID)
	}

	changes, err := diff.Parse(ctx, bytes.NewReader(diffDoc))
	if err != nil {
		if cerr := contextError(ctx); cerr != nil {
			return nil, nil, cerr
		}
		return nil, nil, parseError(err)
	}
	log.Printf("[info] changeset %s: %d created, %d modified, %d deleted",
		id, len(changes.Created), len(changes.Modified), len(changes.Deleted))
	return meta, changes, nil
}

// fetch requests metadata and diff concurrently. The first error cancels
// the other request.
func (c *Controller) fetch(ctx context.Context, id string) (metaDoc, diffDoc []byte, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		metaDoc, err = c.osm.Changeset(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		diffDoc, err = c.osm.ChangesetDownload(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return metaDoc, diffDoc, nil
}

// loadUserInfo fetches user details in the background. It is not
// cancelled with the run and its errors are only logged.
func (c *Controller) loadUserInfo(ctx context.Context, uid string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.UserInfoTimeout)
		defer cancel()
		user, err := c.osm.User(ctx, uid)
		if err != nil {
			log.Printf("[warn] loading user info for %s: %s", uid, err)
			return
		}
		c.presenter.UserInfo(user)
	}()
}

// Wait blocks until all background user info requests are finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}
