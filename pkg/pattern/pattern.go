package pattern

import (
	"regexp"
	"sort"
	"strings"

	"defenceblocker/helper"
	"defenceblocker/pkg/confusable"
	"defenceblocker/pkg/model"
	"defenceblocker/pkg/omission"

	"github.com/caffix/stringset"
	"github.com/pkg/errors"
)

const (
	// any number of subdomains, then an optional punycode marker
	prefix = `^https?://([a-z0-9\-]*\.)*(xn\-\-)?`
	// optional hyphenated suffix, more labels, then the rest of the host and path
	suffix = `(\-[a-z0-9]*)?([a-z0-9\-]*\.)*\..*`
	// tolerated extra character between fuzzed characters
	gap = `.?`
)

// Compile builds the url-filter regexp matching a host containing variant,
// with every character replaceable by its confusables.
func Compile(variant string, table confusable.Table) (string, error) {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(gap)
	for _, c := range variant {
		b.WriteByte('[')
		for _, r := range table.Class(c) {
			b.WriteString(classChar(r))
		}
		b.WriteByte(']')
		b.WriteString(gap)
	}
	b.WriteString(suffix)

	p := b.String()
	if err := validate(p, variant); err != nil {
		return "", err
	}
	return p, nil
}

// validate fails with the offending variant when p is not a valid expression
func validate(p, variant string) error {
	if _, err := regexp.Compile(p); err != nil {
		return errors.Wrapf(err, "invalid pattern generated for variant %q", variant)
	}
	return nil
}

func classChar(r rune) string {
	switch r {
	case '-', ']', '[', '\\', '^':
		return `\` + string(r)
	}
	return string(r)
}

// BuildWhitelist merges the whitelist feed with the hosts and aliases of all targets
func BuildWhitelist(targets []model.TargetDomain, feed []string) []string {
	set := stringset.New(feed...)
	defer set.Close()
	for _, t := range targets {
		set.Insert(t.Host())
		set.InsertMany(t.Aliases...)
	}
	return helper.SortedSlice(set)
}

// SortTargets returns a copy of targets ordered by label, then TLD
func SortTargets(targets []model.TargetDomain) []model.TargetDomain {
	sorted := make([]model.TargetDomain, len(targets))
	copy(sorted, targets)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Label != sorted[j].Label {
			return sorted[i].Label < sorted[j].Label
		}
		return sorted[i].TLD < sorted[j].TLD
	})
	return sorted
}

// BuildFuzzyRules returns one rule per deletion variant of every target.
// Rules are grouped by target, sorted by label, then by url-filter.
func BuildFuzzyRules(targets []model.TargetDomain, whitelist []string, table confusable.Table) ([]model.BlockRule, error) {
	var rules []model.BlockRule
	for _, t := range SortTargets(targets) {
		r, err := BuildTargetRules(t, whitelist, table)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r...)
	}
	return rules, nil
}

// BuildTargetRules returns the rules of a single target, sorted by url-filter
func BuildTargetRules(t model.TargetDomain, whitelist []string, table confusable.Table) ([]model.BlockRule, error) {
	variants := omission.GetOmissionPatterns(t.Label, t.Depth())
	if len(variants) == 0 {
		return nil, nil
	}
	exclusions := exclusionsFor(t, whitelist)

	filters := make([]string, 0, len(variants))
	for _, v := range variants {
		// an empty variant would match every URL
		if v == "" {
			continue
		}
		p, err := Compile(v, table)
		if err != nil {
			return nil, errors.Wrapf(err, "target %s", t.Host())
		}
		filters = append(filters, p)
	}
	sort.Strings(filters)

	rules := make([]model.BlockRule, 0, len(filters))
	for _, f := range filters {
		rules = append(rules, model.BlockRule{
			URLFilter:    f,
			UnlessDomain: append([]string(nil), exclusions...),
		})
	}
	return rules, nil
}

func exclusionsFor(t model.TargetDomain, whitelist []string) []string {
	set := stringset.New(model.Wildcard(t.Host()))
	defer set.Close()
	set.InsertMany(model.Wildcards(t.Aliases)...)
	set.InsertMany(model.Wildcards(whitelist)...)
	return helper.SortedSlice(set)
}
