package stats

import (
	"net/http"
	_ "net/http/pprof"

	"github.com/omniscale/osmwelcome/log"
)

// StartHttpPProf serves net/http/pprof on bind in the background.
func StartHttpPProf(bind string) {
	go func() {
		log.Printf("[info] pprof listening on %s", bind)
		log.Println("[error]", http.ListenAndServe(bind, nil))
	}()
}
