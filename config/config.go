package config

import (
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/omniscale/osmwelcome/log"
	"github.com/omniscale/osmwelcome/osmapi"
	"github.com/omniscale/osmwelcome/prompt"
	"github.com/omniscale/osmwelcome/summary"
)

// Config is the content of the -config file.
type Config struct {
	OSMAPI            string        `yaml:"osmapi"`
	SummaryAPI        string        `yaml:"summaryapi"`
	Variant           string        `yaml:"variant"`
	Signoff           string        `yaml:"signoff"`
	KeepUntaggedNodes bool          `yaml:"keepuntaggednodes"`
	Timeout           time.Duration `yaml:"timeout"`
	UserAgent         string        `yaml:"useragent"`
	PageURL           string        `yaml:"pageurl"`
	Listen            string        `yaml:"listen"`
	Httpprofile       string        `yaml:"httpprofile"`
	Quiet             bool          `yaml:"quiet"`
	LogLevel          string        `yaml:"loglevel"`
}

type Base struct {
	OSMAPI            string
	SummaryAPI        string
	Variant           string
	Signoff           string
	KeepUntaggedNodes bool
	Timeout           time.Duration
	UserAgent         string
	PageURL           string
	Listen            string
	ConfigFile        string
	Httpprofile       string
	Quiet             bool
	LogLevel          string
}

const (
	defaultVariant = "share"
	defaultTimeout = 60 * time.Second
	defaultListen  = "localhost:8080"
	envPrefix      = "OSMWELCOME_"
)

const (
	VariantShare     = "share"
	VariantCelebrate = "celebrate"
)

func addBaseFlags(opts *Base, flags *flag.FlagSet) {
	flags.StringVar(&opts.OSMAPI, "osmapi", osmapi.DefaultBaseURL, "OSM API base URL")
	flags.StringVar(&opts.SummaryAPI, "summaryapi", summary.DefaultBaseURL, "summarization backend base URL")
	flags.StringVar(&opts.Variant, "variant", defaultVariant, "prompt variant (share or celebrate)")
	flags.StringVar(&opts.Signoff, "signoff", "", "requested signoff, e.g. hashtags (default depends on -variant)")
	flags.BoolVar(&opts.KeepUntaggedNodes, "keepuntaggednodes", false, "list nodes without tags in the prompt")
	flags.DurationVar(&opts.Timeout, "timeout", defaultTimeout, "timeout for a single changeset")
	flags.StringVar(&opts.UserAgent, "useragent", "", "User-Agent for OSM API requests")
	flags.StringVar(&opts.PageURL, "pageurl", "", "page URL for share links")
	flags.StringVar(&opts.ConfigFile, "config", "", "config (yaml)")
	flags.StringVar(&opts.Httpprofile, "httpprofile", "", "bind address for profile server")
	flags.BoolVar(&opts.Quiet, "quiet", false, "quiet log output")
	flags.StringVar(&opts.LogLevel, "loglevel", "", "minimal log level (debug, step, info, warn, error)")
}

// updateFromConfig fills all options that were not set on the command line
// from the environment and the config file. Environment variables
// overwrite the config file. Config keys and environment variables use the
// flag names.
func (o *Base) updateFromConfig(set map[string]bool, env func(string) string) error {
	conf := &Config{}
	if o.ConfigFile != "" {
		b, err := ioutil.ReadFile(o.ConfigFile)
		if err != nil {
			return err
		}
		if err := yaml.UnmarshalStrict(b, conf); err != nil {
			return fmt.Errorf("reading %s: %v", o.ConfigFile, err)
		}
	}

	str := func(flagName string, dst *string, fromConf string) {
		if set[flagName] {
			return
		}
		if v := env(envPrefix + strings.ToUpper(flagName)); v != "" {
			*dst = v
		} else if fromConf != "" {
			*dst = fromConf
		}
	}
	str("osmapi", &o.OSMAPI, conf.OSMAPI)
	str("summaryapi", &o.SummaryAPI, conf.SummaryAPI)
	str("variant", &o.Variant, conf.Variant)
	str("signoff", &o.Signoff, conf.Signoff)
	str("useragent", &o.UserAgent, conf.UserAgent)
	str("pageurl", &o.PageURL, conf.PageURL)
	str("listen", &o.Listen, conf.Listen)
	str("httpprofile", &o.Httpprofile, conf.Httpprofile)
	str("loglevel", &o.LogLevel, conf.LogLevel)

	boolean := func(flagName string, dst *bool, fromConf bool) error {
		if set[flagName] {
			return nil
		}
		name := envPrefix + strings.ToUpper(flagName)
		if v := env(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %v", name, err)
			}
			*dst = b
		} else if fromConf {
			*dst = true
		}
		return nil
	}
	if err := boolean("keepuntaggednodes", &o.KeepUntaggedNodes, conf.KeepUntaggedNodes); err != nil {
		return err
	}
	if err := boolean("quiet", &o.Quiet, conf.Quiet); err != nil {
		return err
	}
	if !set["timeout"] {
		if v := env(envPrefix + "TIMEOUT"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%sTIMEOUT: %v", envPrefix, err)
			}
			o.Timeout = d
		} else if conf.Timeout != 0 {
			o.Timeout = conf.Timeout
		}
	}
	return nil
}

func (o *Base) check() []error {
	errs := []error{}
	if o.Variant != VariantShare && o.Variant != VariantCelebrate {
		errs = append(errs, errors.New("only -variant=share or -variant=celebrate are supported"))
	}
	if o.OSMAPI == "" {
		errs = append(errs, errors.New("missing -osmapi"))
	}
	if o.SummaryAPI == "" {
		errs = append(errs, errors.New("missing -summaryapi"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, errors.New("-timeout must be positive"))
	}
	if o.LogLevel != "" {
		if _, ok := log.ParseLevel(o.LogLevel); !ok {
			errs = append(errs, fmt.Errorf("unknown -loglevel %q", o.LogLevel))
		}
	}
	return errs
}

// Policy returns the prompt policy for the configured variant.
func (o *Base) Policy() prompt.Policy {
	p := prompt.Share
	if o.Variant == VariantCelebrate {
		p = prompt.Celebrate
	}
	if o.Signoff != "" {
		p.Signoff = o.Signoff
	}
	p.KeepUntaggedNodes = o.KeepUntaggedNodes
	return p
}

// SetupLogging applies -quiet and -loglevel.
func (o *Base) SetupLogging() {
	if o.Quiet {
		log.SetMinLevel(log.LWarn)
	}
	if lvl, ok := log.ParseLevel(o.LogLevel); ok {
		log.SetMinLevel(lvl)
	}
}

func parse(flags *flag.FlagSet, opts *Base, args []string) []error {
	if err := flags.Parse(args); err != nil {
		return []error{err}
	}
	set := map[string]bool{}
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if err := opts.updateFromConfig(set, os.Getenv); err != nil {
		return []error{err}
	}
	return opts.check()
}

func newFlagSet(name, usageArgs string) *flag.FlagSet {
	flags := flag.NewFlagSet(name, flag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s %s [args] %s\n\n", os.Args[0], name, usageArgs)
		flags.PrintDefaults()
		os.Exit(2)
	}
	return flags
}

// loadDotEnv reads .env from the working directory, if present. Variables
// that are already set are not overwritten.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[warn] reading .env: %s", err)
	}
}

// ParseShow parses the arguments of the show and prompt commands. It
// returns the options and the remaining arguments (the changeset IDs).
func ParseShow(name string, args []string) (Base, []string) {
	loadDotEnv()
	opts := Base{}
	flags := newFlagSet(name, "CHANGESET_ID")
	addBaseFlags(&opts, flags)

	if errs := parse(flags, &opts, args); len(errs) != 0 {
		reportErrors(errs)
		flags.Usage()
	}
	return opts, flags.Args()
}

// ParseServe parses the arguments of the serve command.
func ParseServe(args []string) Base {
	loadDotEnv()
	opts := Base{}
	flags := newFlagSet("serve", "")
	addBaseFlags(&opts, flags)
	flags.StringVar(&opts.Listen, "listen", defaultListen, "bind address for the HTTP server")

	if errs := parse(flags, &opts, args); len(errs) != 0 {
		reportErrors(errs)
		flags.Usage()
	}
	return opts
}

func reportErrors(errs []error) {
	fmt.Println("errors in config/options:")
	for _, err := range errs {
		fmt.Printf("\t%s\n", err)
	}
	os.Exit(1)
}
