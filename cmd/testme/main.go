// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/davecgh/go-spew/spew"
	"github.com/karlmutch/envflag"
	logxi "github.com/karlmutch/logxi/v1"

	"github.com/leaf-ai/testme-runner/internal/config"
	"github.com/leaf-ai/testme-runner/internal/discovery"
	"github.com/leaf-ai/testme-runner/internal/model"
	"github.com/leaf-ai/testme-runner/internal/platform"
	"github.com/leaf-ai/testme-runner/internal/reporter"
	"github.com/leaf-ai/testme-runner/internal/scheduler"
	"github.com/leaf-ai/testme-runner/internal/testmelog"
)

var (
	// TestMode will be set to true if the test flag is set during a build when the exe
	// runs
	TestMode = false

	// Spew contains the process wide configuration preferences for the structure dumping
	// package
	Spew *spew.ConfigState

	logger = testmelog.New("testme")

	depthOpt      = flag.Int("depth", 0, "the caller depth, tests gated behind a larger configured depth are skipped")
	iterationsOpt = flag.Int("iterations", 1, "number of times each test is run, stopping at the first failure")
	workersOpt    = flag.Int("workers", 0, "maximum number of tests run concurrently within a batch (default min(4, cores))")
	timeoutOpt    = flag.Duration("timeout", 0, "per test timeout, for example 45s or 2m (default 30s)")
	verboseOpt    = flag.Bool("v", false, "verbose output, includes captured stdout/stderr for every test")
	quietOpt      = flag.Bool("q", false, "quiet output, only failures and the summary are printed")
	keepOpt       = flag.Bool("keep", false, "retain the per test .testme artifact directories after the run")
	listOpt       = flag.Bool("list", false, "print the discovered tests after filtering without running them")
	initOpt       = flag.Bool("init", false, "write a commented default testme.json5 into the current directory")
	newOpt        = flag.String("new", "", "scaffold a <name>.tst.sh test file and exit")
	profileOpt    = flag.String("profile", "", "profile name used during variable expansion")
	debugOpt      = flag.Bool("debug", false, "debug level logging and option dumps (intended for developers only)")
	chdirOpt      = flag.String("chdir", "", "change to this directory before resolving roots")
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage of", os.Args[0], "[options] [patterns or directories...]")
	fmt.Fprintln(os.Stderr, "Runs <stem>.tst.<ext> test files discovered under the given roots.")
	fmt.Fprintln(os.Stderr, "Arguments that name directories become discovery roots; anything else")
	fmt.Fprintln(os.Stderr, "is treated as a test name pattern.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Options:")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Environment Variables:")
	fmt.Fprintln(os.Stderr, "options can also be extracted from environment variables by changing dashes '-' to underscores and using upper case")
}

func main() {
	flag.Usage = usage
	// Parse the CLI flags, then visit the environment so every option can
	// also arrive as an upper-cased, underscored environment variable
	if !flag.Parsed() {
		envflag.Parse()
	}
	os.Exit(Main())
}

// Main is the body of the command, separated so tests can drive it.
func Main() int {
	Spew = spew.NewDefaultConfig()
	Spew.Indent = "    "
	Spew.SortKeys = true

	if *debugOpt {
		logger.SetLevel(logxi.LevelDebug)
	}

	if *chdirOpt != "" {
		if errGo := os.Chdir(*chdirOpt); errGo != nil {
			logger.Error("unable to change directory", "dir", *chdirOpt, "error", errGo)
			return 2
		}
	}

	if *initOpt {
		return initConfig()
	}
	if *newOpt != "" {
		return newTest(*newOpt)
	}

	opts, errCode := buildOptions()
	if errCode != 0 {
		return errCode
	}
	set := visitedFlags()

	if *debugOpt {
		logger.Debug("options resolved", "opts", Spew.Sdump(opts))
	}

	cwd, errGo := os.Getwd()
	if errGo != nil {
		logger.Error("unable to determine the working directory", "error", errGo)
		return 2
	}

	p := platform.NewPlatformContext()

	if *listOpt {
		return listTests(p, opts, set, cwd)
	}

	// The config governing the working directory selects the reporter
	// shape for the whole run
	cwdCfg, err := config.Resolve(p, cwd, opts.AsOverrides(set), set)
	if err != nil {
		logger.Error("configuration error", "error", err)
		return 2
	}
	rep := reporter.ForConfig(os.Stdout, cwdCfg.Output)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := scheduler.New(p, rep, opts, set).Run(ctx, cwd)
	if err != nil {
		logger.Error("run failed", "error", err)
		return 2
	}
	if ctx.Err() != nil {
		return 130
	}
	return summary.ExitCode()
}

// buildOptions folds positional arguments and flags into the canonical
// options record. Arguments naming directories become roots, everything
// else is a name pattern.
func buildOptions() (opts *model.Options, errCode int) {
	opts = &model.Options{
		Depth:      *depthOpt,
		Iterations: *iterationsOpt,
		Workers:    *workersOpt,
		TimeoutMS:  int(timeoutOpt.Milliseconds()),
		Verbose:    *verboseOpt,
		Quiet:      *quietOpt,
		Keep:       *keepOpt,
		ListOnly:   *listOpt,
		Profile:    *profileOpt,
		Debug:      *debugOpt,
		Chdir:      *chdirOpt,
	}

	for _, arg := range flag.Args() {
		if info, errGo := os.Stat(arg); errGo == nil && info.IsDir() {
			abs, errGo := filepath.Abs(arg)
			if errGo != nil {
				logger.Error("unable to resolve root", "root", arg, "error", errGo)
				return nil, 2
			}
			opts.Roots = append(opts.Roots, abs)
			continue
		}
		opts.NamePatterns = append(opts.NamePatterns, arg)
	}
	if len(opts.Roots) == 0 {
		cwd, errGo := os.Getwd()
		if errGo != nil {
			logger.Error("unable to determine the working directory", "error", errGo)
			return nil, 2
		}
		opts.Roots = []string{cwd}
	}
	return opts, 0
}

// visitedFlags records which flags the user actually set, so only those
// participate as the synthetic top-most configuration layer.
func visitedFlags() map[string]bool {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":
			set["verbose"] = true
		case "q":
			set["quiet"] = true
		default:
			set[f.Name] = true
		}
	})
	return set
}

// listTests implements -list: discovery and filtering run in full, then
// the survivors are printed relative to the working directory.
func listTests(p *platform.PlatformContext, opts *model.Options, set map[string]bool, cwd string) int {
	filtered, err := discovery.Discover(p, opts.Roots, discovery.Options{
		NamePatterns: opts.NamePatterns,
		Depth:        opts.Depth,
		CWD:          cwd,
	}, opts.AsOverrides(set), set)
	if err != nil {
		logger.Error("configuration error", "error", err)
		return 2
	}
	for _, f := range filtered {
		rel, errGo := filepath.Rel(cwd, f.File.Path)
		if errGo != nil {
			rel = f.File.Path
		}
		fmt.Println(rel)
	}
	return 0
}
