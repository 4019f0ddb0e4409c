package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/omniscale/osmwelcome"
	"github.com/omniscale/osmwelcome/config"
	"github.com/omniscale/osmwelcome/log"
	"github.com/omniscale/osmwelcome/osmapi"
	"github.com/omniscale/osmwelcome/render"
	"github.com/omniscale/osmwelcome/stats"
	"github.com/omniscale/osmwelcome/summary"
	"github.com/omniscale/osmwelcome/welcome"
)

func PrintCmds() {
	fmt.Fprintf(os.Stderr, "Usage: %s COMMAND [args]\n\n", os.Args[0])
	fmt.Println("Available commands:")
	fmt.Println("\tshow")
	fmt.Println("\tprompt")
	fmt.Println("\tserve")
	fmt.Println("\tversion")
}

func Main(usage func()) {
	if len(os.Args) <= 1 {
		usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "show":
		opts, ids := config.ParseShow("show", os.Args[2:])
		opts.SetupLogging()
		if code := show(ctx, opts, ids); code != 0 {
			stop()
			os.Exit(code)
		}
	case "prompt":
		opts, ids := config.ParseShow("prompt", os.Args[2:])
		opts.SetupLogging()
		if code := printPrompt(ctx, opts, ids); code != 0 {
			stop()
			os.Exit(code)
		}
	case "serve":
		opts := config.ParseServe(os.Args[2:])
		opts.SetupLogging()
		if opts.Httpprofile != "" {
			stats.StartHttpPProf(opts.Httpprofile)
		}
		if err := serve(ctx, opts); err != nil {
			log.Fatal(err)
		}
	case "version":
		fmt.Printf("%s %s(%s-%s)\n", osmwelcome.Version, runtime.Version(), runtime.GOARCH, runtime.GOOS)
		os.Exit(0)
	default:
		usage()
		log.Fatalf("invalid command: '%s'", os.Args[1])
	}
}

func newController(opts config.Base, presenter welcome.Presenter) *welcome.Controller {
	// both clients share one connection pool
	httpClient := osmapi.NewHTTPClient()
	osm := osmapi.NewClient(opts.OSMAPI)
	osm.SetHTTPClient(httpClient)
	if opts.UserAgent != "" {
		osm.SetUserAgent(opts.UserAgent)
	}
	summarizer := summary.NewClient(opts.SummaryAPI)
	summarizer.SetHTTPClient(httpClient)
	return welcome.New(osm, summarizer, presenter, opts.Policy())
}

// firstID returns the single changeset ID of a show or prompt command.
// An empty ID is reported by the controller as missing input.
func firstID(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	if len(ids) > 1 {
		log.Printf("[warn] ignoring additional changeset IDs %v", ids[1:])
	}
	return ids[0]
}

func show(ctx context.Context, opts config.Base, ids []string) int {
	presenter := render.NewText(os.Stdout, opts.PageURL)
	presenter.Progress = !opts.Quiet
	c := newController(opts, presenter)

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	res := c.Run(ctx, firstID(ids))
	c.Wait()

	if res.Err != nil {
		return exitCode(res.Err)
	}
	return 0
}

func printPrompt(ctx context.Context, opts config.Base, ids []string) int {
	c := newController(opts, nil)

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	p, err := c.Prompt(ctx, firstID(ids))
	if err != nil {
		if !err.Silent() {
			fmt.Fprintln(os.Stderr, err)
		}
		return exitCode(err)
	}
	fmt.Println(p)
	return 0
}

func exitCode(err *welcome.Failure) int {
	switch err.Kind {
	case welcome.MissingInput:
		return 2
	case welcome.Cancelled:
		return 130
	default:
		return 1
	}
}

func main() {
	Main(PrintCmds)
}
