package matcher

import (
	"net/url"
	"regexp"
	"strings"

	"defenceblocker/pkg/homoglyph"
	"defenceblocker/pkg/model"

	tld "github.com/jpillora/go-tld"
	"github.com/pkg/errors"
	"golang.org/x/net/idna"
)

type compiledRule struct {
	rule model.BlockRule
	reg  *regexp.Regexp
}

// Matcher evaluates URLs against a rule document the way a content blocker does
type Matcher struct {
	rules      []compiledRule
	homoglyphs map[string]string
}

// Verdict is the outcome of a check
type Verdict struct {
	URL              string
	Host             string
	RegisteredDomain string
	IDN              string
	Blocked          bool
	Rule             *model.BlockRule
	RuleIndex        int
}

// New compiles every rule of doc. url-filters are case-insensitive.
func New(doc model.RuleDocument, homoglyphs map[string]string) (*Matcher, error) {
	m := &Matcher{homoglyphs: homoglyphs}
	for i, r := range doc {
		reg, err := regexp.Compile("(?i)" + r.URLFilter)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %d has an invalid url-filter", i)
		}
		m.rules = append(m.rules, compiledRule{rule: r, reg: reg})
	}
	return m, nil
}

// Check returns whether rawURL is blocked and by which rule
func (m *Matcher) Check(rawURL string) (*Verdict, error) {
	v := &Verdict{URL: rawURL, RuleIndex: -1}

	var u *url.URL
	if t, err := tld.Parse(rawURL); err == nil && t.URL != nil {
		u = t.URL
		if t.Domain != "" {
			v.RegisteredDomain = t.Domain + "." + t.TLD
		}
	} else if u, err = url.Parse(rawURL); err != nil {
		return nil, errors.Wrapf(err, "can't parse URL %s", rawURL)
	}
	v.Host = strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if v.Host == "" {
		return nil, errors.Errorf("URL %s has no host", rawURL)
	}

	candidates := []string{rawURL}
	if isIDN(v.Host) {
		if unicode, err := idna.ToUnicode(v.Host); err == nil {
			v.IDN = unicode
			folded := homoglyph.ReplaceHomoglyph(unicode, m.homoglyphs)
			candidates = append(candidates, strings.Replace(strings.ToLower(rawURL), v.Host, folded, 1))
		}
	}

	for i := range m.rules {
		r := &m.rules[i]
		if r.rule.IfDomain != nil && !DomainListMatches(v.Host, r.rule.IfDomain) {
			continue
		}
		if DomainListMatches(v.Host, r.rule.UnlessDomain) {
			continue
		}
		for _, c := range candidates {
			if r.reg.MatchString(c) {
				v.Blocked = true
				v.Rule = &r.rule
				v.RuleIndex = i
				return v, nil
			}
		}
	}
	return v, nil
}

// DomainListMatches reports whether host is in list.
// An entry prefixed with '*' also matches subdomains.
func DomainListMatches(host string, list []string) bool {
	for _, d := range list {
		if strings.HasPrefix(d, "*") {
			d = d[1:]
			if host == d || strings.HasSuffix(host, "."+d) {
				return true
			}
			continue
		}
		if host == d {
			return true
		}
	}
	return false
}

// isIDN checks if domain has a punycode label
func isIDN(domain string) bool {
	for _, i := range strings.Split(domain, ".") {
		if strings.HasPrefix(i, "xn--") {
			return true
		}
	}
	return false
}
