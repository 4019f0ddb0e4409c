package stats

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/omniscale/osmwelcome/log"
)

type counter struct {
	runs       map[string]int64
	total      int64
	lastTotal  int64
	lastReport time.Time
}

// Statistics counts finished runs by result kind. All methods are safe
// for concurrent use.
type Statistics struct {
	runs     chan string
	reset    chan bool
	snapshot chan chan map[string]int64
	messages chan string
}

func (s *Statistics) AddRun(kind string) { s.runs <- kind }
func (s *Statistics) Reset()             { s.reset <- true }
func (s *Statistics) Message(msg string) { s.messages <- msg }

// Counts returns a copy of the current counters.
func (s *Statistics) Counts() map[string]int64 {
	c := make(chan map[string]int64)
	s.snapshot <- c
	return <-c
}

// StatsReporter starts the reporter. Counters are logged every interval
// if they changed. The reporter stops with ctx, all methods block after
// that.
func StatsReporter(ctx context.Context, interval time.Duration) *Statistics {
	c := counter{runs: map[string]int64{}, lastReport: time.Now()}
	s := Statistics{
		runs:     make(chan string),
		reset:    make(chan bool),
		snapshot: make(chan chan map[string]int64),
		messages: make(chan string),
	}

	go func() {
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for {
			select {
			case kind := <-s.runs:
				c.runs[kind]++
				c.total++
			case <-s.reset:
				c = counter{runs: map[string]int64{}, lastReport: time.Now()}
			case resp := <-s.snapshot:
				m := make(map[string]int64, len(c.runs))
				for k, v := range c.runs {
					m[k] = v
				}
				resp <- m
			case msg := <-s.messages:
				c.Print()
				log.Println("[info]", msg)
			case <-tick.C:
				if c.total != c.lastTotal {
					c.Print()
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return &s
}

func (c *counter) String() string {
	kinds := make([]string, 0, len(c.runs))
	for k := range c.runs {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%s: %d", k, c.runs[k]))
	}
	rate := float64(c.total-c.lastTotal) / time.Since(c.lastReport).Minutes()
	return fmt.Sprintf("Runs: %d (%.1f/min) %s", c.total, rate, strings.Join(parts, " "))
}

func (c *counter) Print() {
	log.Println("[info]", c.String())
	c.lastTotal = c.total
	c.lastReport = time.Now()
}
