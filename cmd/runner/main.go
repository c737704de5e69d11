package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"dev/bravebird/ui-harness-go/pkg/browser"
	"dev/bravebird/ui-harness-go/pkg/config"
	"dev/bravebird/ui-harness-go/pkg/results"
	"dev/bravebird/ui-harness-go/pkg/runner"
	"dev/bravebird/ui-harness-go/suites"
)

func main() {
	var (
		suiteFlag  = flag.String("suite", "", "comma-separated suite names to run (default: all)")
		initial    = flag.Int("initial", 0, "first step ordinal to run")
		through    = flag.Int("through", 99, "last step ordinal to run")
		noTeardown = flag.Bool("no-teardown-first", false, "skip the leading teardown pass")
		persist    = flag.Bool("persist", true, "record outcomes to the results database")
		listSuites = flag.Bool("list", false, "list registered suites and exit")
	)
	flag.Parse()

	if *listSuites {
		for _, name := range suites.Names() {
			log.Println(name)
		}
		return
	}

	cfg := config.Load()

	var store *results.Store
	if *persist && cfg.MySQLDSN != "" {
		var err error
		store, err = results.New(cfg.MySQLDSN)
		if err != nil {
			log.Printf("Warning: Failed to connect to database: %v", err)
			log.Println("Running without database persistence")
			store = nil
		}
	}
	if store != nil {
		defer store.Close()
	}

	selected := suites.Names()
	if *suiteFlag != "" {
		selected = strings.Split(*suiteFlag, ",")
	}

	manager := browser.NewManager(browser.RodFactory(cfg))
	defer manager.Release()

	r := runner.New(manager, cfg, store)
	opts := runner.Options{
		Initial:       *initial,
		Through:       *through,
		TeardownFirst: !*noTeardown,
	}

	ctx := context.Background()
	failed := false
	for _, name := range selected {
		group := suites.Get(strings.TrimSpace(name))
		if group == nil {
			log.Printf("Unknown suite %q, skipping", name)
			failed = true
			continue
		}
		log.Printf("Running suite %s against %s", group.Name, cfg.DomainName)
		if _, failure := r.Run(ctx, group, opts); failure != nil {
			log.Printf("Suite %s failed: %v", group.Name, failure)
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}
