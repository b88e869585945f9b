package worker

import (
	"context"
	"net/http"
	"time"

	"defenceblocker/config"
	"defenceblocker/pkg/assembler"
	"defenceblocker/pkg/confusable"
	"defenceblocker/pkg/feed"
	"defenceblocker/pkg/metrics"
	"defenceblocker/pkg/model"
	"defenceblocker/pkg/pattern"
	"defenceblocker/pkg/publish"
	"defenceblocker/pkg/slack"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Result represents the outcome of a run
type Result struct {
	Document model.RuleDocument
	Content  []byte
	Summary  *model.Summary
}

type feedResult struct {
	name  string
	hosts []string
	err   error
}

// Generate builds the rule document from already fetched feeds
func Generate(targets []model.TargetDomain, table confusable.Table, blacklist, whitelistFeed []string) (model.RuleDocument, *model.Summary, error) {
	whitelist := pattern.BuildWhitelist(targets, whitelistFeed)
	summary := &model.Summary{
		Targets:        len(targets),
		Blacklisted:    len(blacklist),
		Whitelisted:    len(whitelist),
		WhitelistFeed:  len(whitelistFeed),
		RulesPerTarget: make(map[string]int, len(targets)),
	}

	var fuzzy []model.BlockRule
	for _, t := range pattern.SortTargets(targets) {
		rules, err := pattern.BuildTargetRules(t, whitelist, table)
		if err != nil {
			return nil, nil, err
		}
		summary.RulesPerTarget[t.Host()] += len(rules)
		fuzzy = append(fuzzy, rules...)
	}
	summary.FuzzyRules = len(fuzzy)

	return assembler.Assemble(blacklist, fuzzy), summary, nil
}

// Run fetches the feeds, generates the document, then publishes and reports it
func Run(ctx context.Context, cfg *config.Configuration) (*Result, error) {
	start := time.Now()
	logger := cfg.Log
	if logger == nil {
		logger = log.StandardLogger()
	}
	table := cfg.Confusables
	if table == nil {
		table = confusable.GetConfusableTable()
	}
	targets := cfg.Catalog
	if targets == nil {
		targets = config.DefaultCatalog()
	}

	blacklist, whitelistFeed, err := fetchFeeds(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	doc, summary, err := Generate(targets, table, blacklist, whitelistFeed)
	if err != nil {
		return nil, errors.Wrap(err, "can't generate rules")
	}
	content, err := assembler.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "can't encode rules")
	}
	summary.Digest = publish.Digest(content)
	logger.Infof("%d total regexes", summary.FuzzyRules)

	if err := publishDocument(ctx, cfg, logger, content, len(doc), summary); err != nil {
		return nil, err
	}
	summary.Duration = time.Since(start)

	if cfg.MetricsTextfile != "" {
		m := metrics.New()
		m.Observe(summary)
		if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warnf("Can't write metrics to %s: %v", cfg.MetricsTextfile, err)
		}
	}
	if cfg.SlackWebHookURL != "" {
		if err := slack.NewPayload(cfg, summary).Post(cfg); err != nil {
			logger.Warnf("Slack notification failed: %v", err)
		}
	}

	return &Result{Document: doc, Content: content, Summary: summary}, nil
}

// fetchFeeds retrieves the blacklist and the optional whitelist concurrently
func fetchFeeds(ctx context.Context, cfg *config.Configuration, logger *log.Logger) ([]string, []string, error) {
	fetcher := feed.NewFetcher(&http.Client{Timeout: cfg.FeedTimeout}, logger)
	if cfg.FeedResultKey != "" {
		fetcher.ResultKey = cfg.FeedResultKey
	}

	sources := map[string]string{"blacklist": cfg.BlacklistURL}
	if cfg.WhitelistURL != "" {
		sources["whitelist"] = cfg.WhitelistURL
	}
	results := make(chan feedResult, len(sources))
	for name, source := range sources {
		go func(name, source string) {
			hosts, err := fetcher.Fetch(ctx, source)
			results <- feedResult{name: name, hosts: hosts, err: err}
		}(name, source)
	}

	var blacklist, whitelist []string
	for range sources {
		r := <-results
		if r.err != nil {
			return nil, nil, errors.Wrapf(r.err, "can't get %s", r.name)
		}
		logger.Debugf("%d hosts in %s", len(r.hosts), r.name)
		if r.name == "blacklist" {
			blacklist = r.hosts
		} else {
			whitelist = r.hosts
		}
	}
	return blacklist, whitelist, nil
}

func newPublisher(cfg *config.Configuration, logger *log.Logger) publish.Publisher {
	switch cfg.Publisher {
	case "file":
		return &publish.FilePublisher{Path: cfg.OutputFile}
	case "git":
		return &publish.GitPublisher{
			RepoURL:       cfg.GitRepoURL,
			Branch:        cfg.GitBranch,
			FileName:      cfg.GitFileName,
			CloneDir:      cfg.GitCloneDir,
			AuthorName:    cfg.GitAuthorName,
			AuthorEmail:   cfg.GitAuthorEmail,
			CommitMessage: cfg.GitCommitMessage,
			DeployKey:     cfg.GitDeployKey,
			Log:           logger,
		}
	}
	return nil
}

// publishDocument hands the document to the configured publisher and records new digests in the history
func publishDocument(ctx context.Context, cfg *config.Configuration, logger *log.Logger, content []byte, rules int, summary *model.Summary) error {
	p := newPublisher(cfg, logger)
	if p == nil || cfg.DryRun {
		logger.Infof("Publishing skipped")
		return nil
	}
	summary.Location = p.Location()

	changed, err := p.Publish(ctx, content)
	if err != nil {
		return errors.Wrapf(err, "can't publish to %s", summary.Location)
	}
	summary.Published = changed
	if !changed {
		logger.Infof("No change in %s", summary.Location)
	} else {
		logger.Infof("Published %s to %s", summary.Digest, summary.Location)
	}

	if cfg.HistoryDB == "" {
		return nil
	}
	h, err := publish.OpenHistory(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer h.Close()
	latest, err := h.Latest()
	if err != nil {
		return err
	}
	if latest != nil && latest.Digest == summary.Digest && latest.Location == summary.Location {
		logger.Debugf("Document %s already recorded for %s", summary.Digest, summary.Location)
		return nil
	}
	return h.Record(publish.Entry{
		Digest:      summary.Digest,
		PublishedAt: time.Now().UTC(),
		Rules:       rules,
		Location:    summary.Location,
	})
}
