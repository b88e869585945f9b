package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"defenceblocker/config"
	"defenceblocker/pkg/assembler"
	"defenceblocker/pkg/homoglyph"
	"defenceblocker/pkg/matcher"
	"defenceblocker/pkg/worker"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

func main() {
	a := kingpin.New(filepath.Base(os.Args[0]), "Content blocker rules against crypto phishing and typosquatting")
	configFile := a.Flag("configfile", "config file").Short('c').ExistingFile()
	dryRun := a.Flag("dry-run", "generate without publishing").Bool()
	output := a.Flag("output", "file to write the rules to, overrides OutputFile").Short('o').String()
	a.HelpFlag.Short('h')

	generate := a.Command("generate", "fetch the feeds, generate and publish the rules").Default()
	check := a.Command("check", "check URLs against a rules file")
	rulesFile := check.Flag("rules", "rules file, defaults to OutputFile").ExistingFile()
	urls := check.Arg("url", "URLs to check").Required().Strings()

	command, err := a.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrapf(err, "Error parsing commandline arguments"))
		a.Usage(os.Args[1:])
		os.Exit(2)
	}

	cfg := config.GetConfig(configFile)
	applyFlags(cfg, *dryRun, *output)

	switch command {
	case generate.FullCommand():
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if _, err := worker.Run(ctx, cfg); err != nil {
			cfg.Log.Fatalf("[ERROR] : %v", err)
		}
	case check.FullCommand():
		path := cfg.OutputFile
		if *rulesFile != "" {
			path = *rulesFile
		}
		blocked, err := runCheck(os.Stdout, path, *urls)
		if err != nil {
			cfg.Log.Fatalf("[ERROR] : %v", err)
		}
		if blocked {
			os.Exit(1)
		}
	}
}

// applyFlags overrides the configuration with the command line.
// --output always selects the file publisher.
func applyFlags(cfg *config.Configuration, dryRun bool, output string) {
	if dryRun {
		cfg.DryRun = true
	}
	if output == "" {
		return
	}
	if cfg.Publisher != "file" && cfg.Publisher != "none" {
		logger := cfg.Log
		if logger == nil {
			logger = log.StandardLogger()
		}
		logger.Warnf("--output set, publishing to %s instead of %s", output, cfg.Publisher)
	}
	cfg.OutputFile = output
	cfg.Publisher = "file"
}

// runCheck writes a verdict per URL to w and reports whether any was blocked
func runCheck(w io.Writer, path string, urls []string) (bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return false, errors.Wrapf(err, "can't read rules %s", path)
	}
	doc, err := assembler.Unmarshal(b)
	if err != nil {
		return false, errors.Wrapf(err, "can't decode rules %s", path)
	}
	m, err := matcher.New(doc, homoglyph.GetHomoglyphMap())
	if err != nil {
		return false, err
	}

	var blocked bool
	for _, u := range urls {
		v, err := m.Check(u)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", u, err)
			continue
		}
		if !v.Blocked {
			fmt.Fprintf(w, "%s\tallowed\n", u)
			continue
		}
		blocked = true
		kind := "fuzzy"
		if v.RuleIndex == 0 {
			kind = "exact"
		}
		fmt.Fprintf(w, "%s\tblocked by %s rule #%d %s\n", u, kind, v.RuleIndex, v.Rule.URLFilter)
	}
	return blocked, nil
}
