package config

import (
	"flag"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/omniscale/osmwelcome/prompt"
)

func parseTest(t *testing.T, args []string, env map[string]string) (Base, []error) {
	t.Helper()
	opts := Base{}
	flags := flag.NewFlagSet("test", flag.ContinueOnError)
	addBaseFlags(&opts, flags)
	if err := flags.Parse(args); err != nil {
		t.Fatal(err)
	}
	set := map[string]bool{}
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if err := opts.updateFromConfig(set, func(k string) string { return env[k] }); err != nil {
		return opts, []error{err}
	}
	return opts, opts.check()
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	fname := filepath.Join(t.TempDir(), "config.yml")
	if err := ioutil.WriteFile(fname, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return fname
}

func TestDefaults(t *testing.T) {
	opts, errs := parseTest(t, nil, nil)
	if len(errs) != 0 {
		t.Fatal(errs)
	}
	if opts.Variant != "share" {
		t.Error("unexpected variant", opts.Variant)
	}
	if opts.Timeout != 60*time.Second {
		t.Error("unexpected timeout", opts.Timeout)
	}
	if opts.OSMAPI != "https://api.openstreetmap.org/api/0.6" {
		t.Error("unexpected osmapi", opts.OSMAPI)
	}
	if opts.Policy() != prompt.Share {
		t.Error("unexpected policy", opts.Policy())
	}
}

func TestPrecedence(t *testing.T) {
	conf := writeConfig(t, `
summaryapi: http://file/api
variant: celebrate
signoff: "#file"
timeout: 5s
keepuntaggednodes: true
useragent: file-agent
pageurl: https://example.org/
httpprofile: localhost:6060
quiet: true
`)
	env := map[string]string{
		"OSMWELCOME_SIGNOFF": "#env",
		"OSMWELCOME_TIMEOUT": "7s",
	}

	opts, errs := parseTest(t, []string{"-config", conf, "-timeout", "9s"}, env)
	if len(errs) != 0 {
		t.Fatal(errs)
	}
	if opts.SummaryAPI != "http://file/api" {
		t.Error("config file not applied", opts.SummaryAPI)
	}
	if opts.Signoff != "#env" {
		t.Error("env does not override config file", opts.Signoff)
	}
	if opts.Timeout != 9*time.Second {
		t.Error("flag does not override env", opts.Timeout)
	}
	if !opts.KeepUntaggedNodes {
		t.Error("keepuntaggednodes not applied")
	}
	if opts.UserAgent != "file-agent" || opts.PageURL != "https://example.org/" {
		t.Error("useragent/pageurl not applied", opts.UserAgent, opts.PageURL)
	}
	if opts.Httpprofile != "localhost:6060" || !opts.Quiet {
		t.Error("httpprofile/quiet not applied", opts.Httpprofile, opts.Quiet)
	}

	p := opts.Policy()
	if p.AllowEmoji || p.Signoff != "#env" || !p.KeepUntaggedNodes {
		t.Errorf("unexpected policy %+v", p)
	}
}

func TestCelebrateDefaultSignoff(t *testing.T) {
	opts, errs := parseTest(t, []string{"-variant", "celebrate"}, nil)
	if len(errs) != 0 {
		t.Fatal(errs)
	}
	if opts.Policy() != prompt.Celebrate {
		t.Error("unexpected policy", opts.Policy())
	}
}

func TestInvalidOptions(t *testing.T) {
	_, errs := parseTest(t, []string{"-variant", "shout", "-loglevel", "loud", "-timeout", "0s"}, nil)
	if len(errs) != 3 {
		t.Fatal("expected three errors", errs)
	}

	_, errs = parseTest(t, nil, map[string]string{"OSMWELCOME_TIMEOUT": "soon"})
	if len(errs) != 1 {
		t.Fatal("expected error for invalid timeout", errs)
	}

	_, errs = parseTest(t, nil, map[string]string{"OSMWELCOME_QUIET": "maybe"})
	if len(errs) != 1 {
		t.Fatal("expected error for invalid quiet", errs)
	}

	_, errs = parseTest(t, []string{"-config", writeConfig(t, "keep_untagged_nodes: true\n")}, nil)
	if len(errs) != 1 {
		t.Fatal("expected error for key that is not a flag name", errs)
	}

	_, errs = parseTest(t, []string{"-config", writeConfig(t, "unknown: 1\n")}, nil)
	if len(errs) != 1 {
		t.Fatal("expected error for unknown config key", errs)
	}

	_, errs = parseTest(t, []string{"-config", filepath.Join(os.TempDir(), "does-not-exist.yml")}, nil)
	if len(errs) != 1 {
		t.Fatal("expected error for missing config", errs)
	}
}
