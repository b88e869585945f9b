package config

import (
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"defenceblocker/pkg/confusable"
	"defenceblocker/pkg/model"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/net/publicsuffix"
)

// Configuration represents a configuration element
type Configuration struct {
	BlacklistURL     string `validate:"required"`
	WhitelistURL     string
	FeedResultKey    string        `validate:"required"`
	FeedTimeout      time.Duration `validate:"gt=0"`
	Targets          []string
	Publisher        string `validate:"oneof=none file git"`
	OutputFile       string `validate:"required_if=Publisher file"`
	GitRepoURL       string `validate:"required_if=Publisher git"`
	GitBranch        string `validate:"required_if=Publisher git"`
	GitFileName      string `validate:"required_if=Publisher git"`
	GitCloneDir      string `validate:"required_if=Publisher git"`
	GitAuthorName    string
	GitAuthorEmail   string `validate:"omitempty,email"`
	GitCommitMessage string
	GitDeployKey     string
	HistoryDB        string
	MetricsTextfile  string
	SlackWebHookURL  string `validate:"omitempty,url"`
	SlackIconURL     string `validate:"omitempty,url"`
	SlackUsername    string
	LogLevel         string `validate:"oneof=trace debug info warn error"`
	DryRun           bool

	Catalog     []model.TargetDomain `mapstructure:"-" validate:"-"`
	Confusables confusable.Table     `mapstructure:"-" validate:"-"`
	Log         *log.Logger          `mapstructure:"-" validate:"-"`
}

// GetConfig provides a Configuration, exits on error
func GetConfig(configFile *string) *Configuration {
	var f string
	if configFile != nil {
		f = *configFile
	}
	c, err := Load(f)
	if err != nil {
		log.Fatalf("[ERROR] : %v", err)
	}
	return c
}

// Load reads the configuration from the optional file and the environment
func Load(configFile string) (*Configuration, error) {
	c := &Configuration{
		Confusables: confusable.GetConfusableTable(),
	}

	v := viper.New()
	v.SetDefault("BlacklistURL", "https://etherscamdb.info/api/blacklist/")
	v.SetDefault("WhitelistURL", "")
	v.SetDefault("FeedResultKey", "result")
	v.SetDefault("FeedTimeout", "45s")
	v.SetDefault("Targets", []string{})
	v.SetDefault("Publisher", "file")
	v.SetDefault("OutputFile", "blockList.json")
	v.SetDefault("GitRepoURL", "")
	v.SetDefault("GitBranch", "master")
	v.SetDefault("GitFileName", "blockList.json")
	v.SetDefault("GitCloneDir", "/tmp/defenceblocklist")
	v.SetDefault("GitAuthorName", "Updater")
	v.SetDefault("GitAuthorEmail", "no-reply@defenceblocker.app")
	v.SetDefault("GitCommitMessage", "Update blockList.json")
	v.SetDefault("GitDeployKey", "")
	v.SetDefault("HistoryDB", "")
	v.SetDefault("MetricsTextfile", "")
	v.SetDefault("SlackWebhookURL", "")
	v.SetDefault("SlackIconURL", "")
	v.SetDefault("SlackUsername", "Defenceblocker")
	v.SetDefault("LogLevel", "info")
	v.SetDefault("DryRun", false)

	if configFile != "" {
		d, f := path.Split(configFile)
		if d == "" {
			d = "."
		}
		v.SetConfigName(f[0 : len(f)-len(filepath.Ext(f))])
		v.AddConfigPath(d)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "error when reading config file")
		}
	}
	v.AutomaticEnv()
	if err := v.Unmarshal(c); err != nil {
		return nil, errors.Wrap(err, "error when parsing config")
	}

	if c.SlackUsername == "" {
		c.SlackUsername = "Defenceblocker"
	}
	if err := validator.New().Struct(c); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	c.Log = log.New()
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "invalid log level")
	}
	c.Log.SetLevel(lvl)

	c.Catalog = DefaultCatalog()
	if len(c.Targets) != 0 {
		c.Catalog = make([]model.TargetDomain, 0, len(c.Targets))
		for _, t := range c.Targets {
			target, err := ParseTarget(t)
			if err != nil {
				return nil, err
			}
			c.Catalog = append(c.Catalog, target)
		}
	}

	return c, nil
}

// ParseTarget parses "host:depth[:alias|alias]" into a TargetDomain
func ParseTarget(s string) (model.TargetDomain, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 3)
	host := strings.Trim(strings.ToLower(parts[0]), ".")
	p, icann := publicsuffix.PublicSuffix(host)
	if !icann || p == host {
		return model.TargetDomain{}, errors.Errorf("target %q has no known public suffix", s)
	}
	labels := strings.Split(strings.TrimSuffix(host, "."+p), ".")

	t := model.TargetDomain{
		Label: labels[len(labels)-1],
		TLD:   p,
	}
	if len(parts) > 1 {
		d, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return model.TargetDomain{}, errors.Wrapf(err, "target %q has an invalid depth", s)
		}
		t.FuzzDepth = d
	}
	if t.FuzzDepth < 0 {
		log.Warnf("Target %s has a negative depth, using 0", host)
		t.FuzzDepth = 0
	}
	if len(parts) > 2 {
		for _, a := range strings.Split(parts[2], "|") {
			if a = strings.Trim(strings.ToLower(strings.TrimSpace(a)), "."); a != "" {
				t.Aliases = append(t.Aliases, a)
			}
		}
	}
	return t, nil
}
