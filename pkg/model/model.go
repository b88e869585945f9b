package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// TargetDomain represents a brand to protect against typosquatting
type TargetDomain struct {
	Label     string   `json:"label"`
	TLD       string   `json:"tld"`
	FuzzDepth int      `json:"fuzzDepth"`
	Aliases   []string `json:"aliases,omitempty"`
}

// Host returns the canonical hostname of the target
func (t TargetDomain) Host() string {
	return t.Label + "." + t.TLD
}

// Depth returns the fuzz depth, negative values count as 0
func (t TargetDomain) Depth() int {
	if t.FuzzDepth < 0 {
		return 0
	}
	return t.FuzzDepth
}

// BlockRule represents one content-blocker rule.
// IfDomain is only set on the exact-match rule, UnlessDomain only on fuzzy rules.
type BlockRule struct {
	URLFilter    string
	IfDomain     []string
	UnlessDomain []string
}

// RuleDocument is the ordered list of rules, exact-match rule first
type RuleDocument []BlockRule

// Action represents the action field of a content-blocker rule
type Action struct {
	Type string `json:"type"`
}

// Trigger represents the trigger field of a content-blocker rule.
// A nil domain list is omitted, an empty one is kept.
type Trigger struct {
	IfDomain     []string
	UnlessDomain []string
	URLFilter    string
}

// MarshalJSON encodes the trigger with sorted keys
func (t Trigger) MarshalJSON() ([]byte, error) {
	m := map[string]interface{}{"url-filter": t.URLFilter}
	if t.IfDomain != nil {
		m["if-domain"] = t.IfDomain
	}
	if t.UnlessDomain != nil {
		m["unless-domain"] = t.UnlessDomain
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON decodes a trigger
func (t *Trigger) UnmarshalJSON(b []byte) error {
	var raw struct {
		IfDomain     []string `json:"if-domain"`
		UnlessDomain []string `json:"unless-domain"`
		URLFilter    string   `json:"url-filter"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	t.IfDomain, t.UnlessDomain, t.URLFilter = raw.IfDomain, raw.UnlessDomain, raw.URLFilter
	return nil
}

// Rule is the wire form of a BlockRule.
// Fields are declared in key order so the encoded JSON has sorted keys.
type Rule struct {
	Action  Action  `json:"action"`
	Trigger Trigger `json:"trigger"`
}

// ActionBlock is the only action emitted
const ActionBlock = "block"

// ToRule converts a BlockRule to its wire form
func (r BlockRule) ToRule() Rule {
	return Rule{
		Action: Action{Type: ActionBlock},
		Trigger: Trigger{
			IfDomain:     r.IfDomain,
			UnlessDomain: r.UnlessDomain,
			URLFilter:    r.URLFilter,
		},
	}
}

// FromRule converts a wire rule back to a BlockRule
func FromRule(r Rule) BlockRule {
	return BlockRule{
		URLFilter:    r.Trigger.URLFilter,
		IfDomain:     r.Trigger.IfDomain,
		UnlessDomain: r.Trigger.UnlessDomain,
	}
}

// Wildcard prefixes a host with '*' so it matches the host and its subdomains
func Wildcard(host string) string {
	if strings.HasPrefix(host, "*") {
		return host
	}
	return "*" + host
}

// Wildcards applies Wildcard to every host
func Wildcards(hosts []string) []string {
	result := make([]string, 0, len(hosts))
	for _, h := range hosts {
		result = append(result, Wildcard(h))
	}
	return result
}

// Summary represents the outcome of a generation run
type Summary struct {
	Targets        int            `json:"targets"`
	Blacklisted    int            `json:"blacklisted"`
	Whitelisted    int            `json:"whitelisted"`
	WhitelistFeed  int            `json:"whitelistFeed"`
	FuzzyRules     int            `json:"fuzzyRules"`
	RulesPerTarget map[string]int `json:"rulesPerTarget"`
	Digest         string         `json:"digest,omitempty"`
	Published      bool           `json:"published"`
	Location       string         `json:"location,omitempty"`
	Duration       time.Duration  `json:"duration"`
}
