package assembler

import (
	"bytes"
	"encoding/json"

	"defenceblocker/pkg/model"

	"github.com/pkg/errors"
)

// ExactURLFilter is the url-filter of the exact-match rule, hosts are selected through if-domain
const ExactURLFilter = ".*"

// Assemble builds the rule document: the exact-match rule over the blacklist first, then the fuzzy rules
func Assemble(exactBlacklist []string, fuzzyRules []model.BlockRule) model.RuleDocument {
	doc := make(model.RuleDocument, 0, len(fuzzyRules)+1)
	doc = append(doc, model.BlockRule{
		URLFilter: ExactURLFilter,
		IfDomain:  model.Wildcards(exactBlacklist),
	})
	return append(doc, fuzzyRules...)
}

// Marshal encodes the document as a content-blocker rule list with sorted keys and 4-space indentation
func Marshal(doc model.RuleDocument) ([]byte, error) {
	rules := make([]model.Rule, 0, len(doc))
	for _, r := range doc {
		rules = append(rules, r.ToRule())
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(rules); err != nil {
		return nil, errors.Wrap(err, "can't encode rule document")
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Unmarshal decodes a content-blocker rule list
func Unmarshal(b []byte) (model.RuleDocument, error) {
	var rules []model.Rule
	if err := json.Unmarshal(b, &rules); err != nil {
		return nil, errors.Wrap(err, "can't decode rule document")
	}
	doc := make(model.RuleDocument, 0, len(rules))
	for _, r := range rules {
		doc = append(doc, model.FromRule(r))
	}
	return doc, nil
}
