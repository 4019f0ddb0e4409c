package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/omniscale/osmwelcome/config"
	"github.com/omniscale/osmwelcome/log"
	"github.com/omniscale/osmwelcome/render"
	"github.com/omniscale/osmwelcome/stats"
	"github.com/omniscale/osmwelcome/welcome"
)

const statsInterval = 5 * time.Minute

// changesetHandler runs the controller for each request and returns the
// JSON view.
type changesetHandler struct {
	ctrl    *welcome.Controller
	timeout time.Duration
	pageURL string
	stats   *stats.Statistics
}

func (h *changesetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	res := h.ctrl.Run(ctx, r.URL.Query().Get("changeset"))
	if h.stats != nil {
		h.stats.AddRun(string(res.Kind))
	}
	if res.Err != nil && res.Err.Kind == welcome.Cancelled {
		// client is gone
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus(res.Err))
	if err := json.NewEncoder(w).Encode(render.NewView(res, h.pageURL)); err != nil {
		log.Printf("[warn] writing response: %s", err)
	}
}

func httpStatus(err *welcome.Failure) int {
	if err == nil {
		return http.StatusOK
	}
	switch err.Kind {
	case welcome.MissingInput:
		return http.StatusBadRequest
	case welcome.NetworkFailure:
		if err.StatusCode == http.StatusNotFound || err.StatusCode == http.StatusGone {
			return err.StatusCode
		}
		if err.StatusCode == 0 {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}

func newServeMux(opts config.Base, s *stats.Statistics) *http.ServeMux {
	c := newController(opts, nil)
	c.SkipUserInfo = true

	mux := http.NewServeMux()
	mux.Handle("/api/changeset", &changesetHandler{
		ctrl:    c,
		timeout: opts.Timeout,
		pageURL: opts.PageURL,
		stats:   s,
	})
	return mux
}

func serve(ctx context.Context, opts config.Base) error {
	// outlives ctx for requests that are still running during shutdown
	statsCtx, stopStats := context.WithCancel(context.Background())
	defer stopStats()
	s := stats.StatsReporter(statsCtx, statsInterval)
	srv := &http.Server{
		Addr:              opts.Listen,
		Handler:           newServeMux(opts, s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("[info] listening on %s", opts.Listen)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.Message("shut down")
	return nil
}
