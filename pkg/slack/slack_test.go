package slack_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"defenceblocker/config"
	"defenceblocker/pkg/model"
	"defenceblocker/pkg/slack"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Slack", func() {
	cfg := &config.Configuration{
		SlackUsername: "Defenceblocker",
		SlackIconURL:  "https://example.com/icon.png",
	}
	summary := &model.Summary{
		Blacklisted:    3,
		Whitelisted:    2,
		FuzzyRules:     7,
		RulesPerTarget: map[string]int{"kraken.com": 5, "bitmex.com": 0, "airswap.io": 2},
		Published:      true,
		Location:       "blockList.json",
	}

	Describe("NewPayload", func() {
		It("should summarize the run", func() {
			p := slack.NewPayload(cfg, summary)
			Expect(p.Text).To(Equal("A new blocklist has been published"))
			Expect(p.Username).To(Equal("Defenceblocker"))
			Expect(p.IconURL).To(Equal("https://example.com/icon.png"))
			Expect(p.Attachments).To(HaveLen(1))
			Expect(p.Attachments[0].Color).To(Equal("#ff5400"))
			fields := p.Attachments[0].Fields
			Expect(fields).To(HaveLen(5))
			Expect(fields[0]).To(Equal(slack.AttachmentField{Title: "Blacklisted", Value: "3", Short: true}))
			Expect(fields[1].Value).To(Equal("7"))
			Expect(fields[3].Value).To(Equal("blockList.json"))
			Expect(fields[4].Value).To(Equal("airswap.io (2), bitmex.com (0), kraken.com (5)"))
		})
		It("should report an unchanged document", func() {
			s := *summary
			s.Published = false
			s.Location = ""
			p := slack.NewPayload(cfg, &s)
			Expect(p.Text).To(Equal("The blocklist is up to date"))
			Expect(p.Attachments[0].Fields).To(HaveLen(4))
		})
	})

	Describe("Post", func() {
		It("should send the payload as JSON", func() {
			var received slack.Payload
			var contentType string
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				contentType = r.Header.Get("Content-Type")
				b, _ := io.ReadAll(r.Body)
				_ = json.Unmarshal(b, &received)
				w.WriteHeader(http.StatusOK)
			}))
			defer ts.Close()

			c := *cfg
			c.SlackWebHookURL = ts.URL
			Expect(slack.NewPayload(&c, summary).Post(&c)).To(Succeed())
			Expect(contentType).To(Equal("application/json"))
			Expect(received.Text).To(Equal("A new blocklist has been published"))
		})
		It("should fail on an error status", func() {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			}))
			defer ts.Close()

			c := *cfg
			c.SlackWebHookURL = ts.URL
			Expect(slack.NewPayload(&c, summary).Post(&c)).ToNot(Succeed())
		})
	})
})
