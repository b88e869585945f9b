package slack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"defenceblocker/config"
	"defenceblocker/pkg/model"

	"github.com/pkg/errors"
)

// AttachmentField
type AttachmentField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Attachment
type Attachment struct {
	Color  string            `json:"color"`
	Text   string            `json:"text,omitempty"`
	Fields []AttachmentField `json:"fields"`
}

// Payload represents a message to send to Slack
type Payload struct {
	Text        string       `json:"text,omitempty"`
	Username    string       `json:"username,omitempty"`
	IconURL     string       `json:"icon_url,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// NewPayload generates a new Slack Payload from a run summary
func NewPayload(config *config.Configuration, s *model.Summary) Payload {
	var fields []AttachmentField
	var field AttachmentField

	field.Title = "Blacklisted"
	field.Value = fmt.Sprintf("%d", s.Blacklisted)
	field.Short = true
	fields = append(fields, field)

	field.Title = "Fuzzy rules"
	field.Value = fmt.Sprintf("%d", s.FuzzyRules)
	field.Short = true
	fields = append(fields, field)

	field.Title = "Whitelisted"
	field.Value = fmt.Sprintf("%d", s.Whitelisted)
	field.Short = true
	fields = append(fields, field)

	if s.Location != "" {
		field.Title = "Location"
		field.Value = s.Location
		field.Short = true
		fields = append(fields, field)
	}

	targets := make([]string, 0, len(s.RulesPerTarget))
	for t, n := range s.RulesPerTarget {
		targets = append(targets, fmt.Sprintf("%s (%d)", t, n))
	}
	sort.Strings(targets)
	field.Title = "Targets"
	field.Value = strings.Join(targets, ", ")
	field.Short = false
	fields = append(fields, field)

	attachment := Attachment{Fields: fields, Color: "#2eb886"}
	text := "The blocklist is up to date"
	if s.Published {
		text = "A new blocklist has been published"
		attachment.Color = "#ff5400"
	}

	return Payload{
		Text:        text,
		Username:    config.SlackUsername,
		IconURL:     config.SlackIconURL,
		Attachments: []Attachment{attachment},
	}
}

// Post posts to Slack a Payload
func (s Payload) Post(config *config.Configuration) error {
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, config.SlackWebHookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	client := &http.Client{}
	res, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "slack post error")
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return errors.Errorf("slack post error: %s", res.Status)
	}
	return nil
}
