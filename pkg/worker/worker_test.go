package worker_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	"defenceblocker/config"
	"defenceblocker/pkg/assembler"
	"defenceblocker/pkg/confusable"
	"defenceblocker/pkg/model"
	"defenceblocker/pkg/publish"
	"defenceblocker/pkg/worker"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	log "github.com/sirupsen/logrus"
)

var _ = Describe("Worker", func() {
	targets := []model.TargetDomain{
		{Label: "kraken", TLD: "com", FuzzDepth: 1},
		{Label: "bitmex", TLD: "com", FuzzDepth: 0},
		{Label: "coinbase", TLD: "com", FuzzDepth: 1, Aliases: []string{"coinbase.org"}},
	}
	table := confusable.GetConfusableTable()

	Describe("Generate", func() {
		It("should put the exact rule first", func() {
			doc, _, err := worker.Generate(targets, table, []string{"evil.com", "scam.io"}, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(doc[0].URLFilter).To(Equal(".*"))
			Expect(doc[0].IfDomain).To(Equal([]string{"*evil.com", "*scam.io"}))
			Expect(doc[0].UnlessDomain).To(BeNil())
			for _, r := range doc[1:] {
				Expect(r.IfDomain).To(BeNil())
				Expect(r.UnlessDomain).To(ContainElement("*bitmex.com"))
			}
		})
		It("should count rules per target", func() {
			doc, summary, err := worker.Generate(targets, table, nil, []string{"safe.org"})
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.Targets).To(Equal(3))
			Expect(summary.Whitelisted).To(Equal(5))
			Expect(summary.WhitelistFeed).To(Equal(1))
			Expect(summary.RulesPerTarget).To(Equal(map[string]int{
				"bitmex.com":   0,
				"coinbase.com": 8,
				"kraken.com":   6,
			}))
			Expect(summary.FuzzyRules).To(Equal(14))
			Expect(doc).To(HaveLen(15))
		})
		It("should be byte-identical across runs", func() {
			shuffled := []model.TargetDomain{targets[2], targets[0], targets[1]}
			doc1, _, err := worker.Generate(targets, table, []string{"a.com"}, []string{"b.com"})
			Expect(err).ToNot(HaveOccurred())
			doc2, _, err := worker.Generate(shuffled, table, []string{"a.com"}, []string{"b.com"})
			Expect(err).ToNot(HaveOccurred())
			b1, err := assembler.Marshal(doc1)
			Expect(err).ToNot(HaveOccurred())
			b2, err := assembler.Marshal(doc2)
			Expect(err).ToNot(HaveOccurred())
			Expect(b1).To(Equal(b2))
		})
	})

	Describe("Run", func() {
		var (
			dir string
			cfg *config.Configuration
			ts  *httptest.Server
		)

		BeforeEach(func() {
			var err error
			dir, err = os.MkdirTemp("", "worker")
			Expect(err).ToNot(HaveOccurred())
			ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"success":true,"result":["Evil.com","1.2.3.4","www.scam.io","phish.net",null,""]}`))
			}))
			whitelist := filepath.Join(dir, "whitelist.json")
			Expect(os.WriteFile(whitelist, []byte(`["safe.org"]`), 0o644)).To(Succeed())

			logger := log.New()
			logger.SetOutput(GinkgoWriter)
			cfg = &config.Configuration{
				BlacklistURL:    ts.URL,
				WhitelistURL:    whitelist,
				FeedResultKey:   "result",
				FeedTimeout:     5 * time.Second,
				Publisher:       "file",
				OutputFile:      filepath.Join(dir, "blockList.json"),
				HistoryDB:       filepath.Join(dir, "history.db"),
				MetricsTextfile: filepath.Join(dir, "defenceblocker.prom"),
				Catalog:         targets,
				Confusables:     table,
				Log:             logger,
			}
		})

		AfterEach(func() {
			ts.Close()
			os.RemoveAll(dir)
		})

		It("should publish the document once", func() {
			res, err := worker.Run(context.Background(), cfg)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Summary.Published).To(BeTrue())
			Expect(res.Summary.Blacklisted).To(Equal(2))
			Expect(res.Document[0].IfDomain).To(Equal([]string{"*evil.com", "*phish.net"}))
			Expect(res.Document[1].UnlessDomain).To(ContainElement("*safe.org"))

			b, err := os.ReadFile(cfg.OutputFile)
			Expect(err).ToNot(HaveOccurred())
			Expect(b).To(Equal(res.Content))
			Expect(res.Summary.Digest).To(Equal(publish.Digest(b)))

			_, err = os.Stat(cfg.MetricsTextfile)
			Expect(err).ToNot(HaveOccurred())

			again, err := worker.Run(context.Background(), cfg)
			Expect(err).ToNot(HaveOccurred())
			Expect(again.Summary.Published).To(BeFalse())
			Expect(again.Content).To(Equal(res.Content))
		})

		It("should restore a deleted output file", func() {
			res, err := worker.Run(context.Background(), cfg)
			Expect(err).ToNot(HaveOccurred())
			Expect(os.Remove(cfg.OutputFile)).To(Succeed())

			again, err := worker.Run(context.Background(), cfg)
			Expect(err).ToNot(HaveOccurred())
			Expect(again.Summary.Published).To(BeTrue())
			b, err := os.ReadFile(cfg.OutputFile)
			Expect(err).ToNot(HaveOccurred())
			Expect(b).To(Equal(res.Content))

			h, err := publish.OpenHistory(cfg.HistoryDB)
			Expect(err).ToNot(HaveOccurred())
			defer h.Close()
			Expect(h.Count()).To(Equal(1))
			latest, err := h.Latest()
			Expect(err).ToNot(HaveOccurred())
			Expect(latest.Digest).To(Equal(res.Summary.Digest))
		})

		It("should not write anything on a dry run", func() {
			cfg.DryRun = true
			res, err := worker.Run(context.Background(), cfg)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Summary.Published).To(BeFalse())
			_, err = os.Stat(cfg.OutputFile)
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("should fail when the blacklist is unavailable", func() {
			cfg.BlacklistURL = filepath.Join(dir, "missing.json")
			_, err := worker.Run(context.Background(), cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("blacklist"))
		})
	})
})
