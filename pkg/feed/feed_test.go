package feed_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"defenceblocker/pkg/feed"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	log "github.com/sirupsen/logrus"
)

var _ = Describe("Feed", func() {
	logger := log.New()
	logger.SetOutput(io.Discard)
	fetcher := feed.NewFetcher(nil, logger)

	Describe("Normalize", func() {
		Describe("If entries are mixed", func() {
			It("should keep only valid hosts, sorted and unique", func() {
				result := fetcher.Normalize([]interface{}{
					"myetherwallet.co",
					nil,
					42.0,
					"  Kraken-Login.com ",
					"192.168.1.1",
					"10.0.0.1/login",
					"www.binance-secure.net",
					"",
					"kraken-login.com",
					"a-binance.net",
				})
				Expect(result).To(Equal([]string{"a-binance.net", "kraken-login.com", "myetherwallet.co"}))
			})
		})
		Describe("If an entry is internationalized", func() {
			It("should convert it to punycode", func() {
				result := fetcher.Normalize([]interface{}{"bіnance.com"}) // i is cyrillic
				Expect(result).To(HaveLen(1))
				Expect(result[0]).To(HavePrefix("xn--"))
			})
		})
		Describe("If the feed is empty", func() {
			It("should return an empty list", func() {
				Expect(fetcher.Normalize(nil)).To(BeEmpty())
			})
		})
	})

	Describe("Decode", func() {
		Describe("If the feed is a list", func() {
			It("should return it", func() {
				result, err := feed.Decode([]byte(`["a.com", 1]`), "")
				Expect(err).ToNot(HaveOccurred())
				Expect(result).To(HaveLen(2))
			})
		})
		Describe("If the feed is nested under the result key", func() {
			It("should return the nested list", func() {
				result, err := feed.Decode([]byte(`{"success": true, "result": ["a.com", "b.com"]}`), "result")
				Expect(err).ToNot(HaveOccurred())
				Expect(result).To(Equal([]interface{}{"a.com", "b.com"}))
			})
		})
		Describe("If the key is missing", func() {
			It("should return an error", func() {
				_, err := feed.Decode([]byte(`{"data": []}`), "result")
				Expect(err).To(HaveOccurred())
			})
		})
		Describe("If the body is not JSON", func() {
			It("should return an error", func() {
				_, err := feed.Decode([]byte(`<html>`), "result")
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Fetch", func() {
		Describe("If the feed is served over HTTP", func() {
			It("should return normalized hosts", func() {
				srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					Expect(r.Header.Get("User-Agent")).To(Equal("defenceblocker/1.0"))
					w.Write([]byte(`{"result": ["z.com", "www.z.com", "1.2.3.4", "a.com"]}`))
				}))
				defer srv.Close()
				result, err := fetcher.Fetch(context.Background(), srv.URL)
				Expect(err).ToNot(HaveOccurred())
				Expect(result).To(Equal([]string{"a.com", "z.com"}))
			})
		})
		Describe("If the server fails", func() {
			It("should return an error", func() {
				srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusBadGateway)
				}))
				defer srv.Close()
				_, err := fetcher.Fetch(context.Background(), srv.URL)
				Expect(err).To(HaveOccurred())
			})
		})
		Describe("If the feed is a local file", func() {
			It("should read it", func() {
				dir, err := os.MkdirTemp("", "feed")
				Expect(err).ToNot(HaveOccurred())
				defer os.RemoveAll(dir)
				path := filepath.Join(dir, "feed.json")
				Expect(os.WriteFile(path, []byte(`["b.com","a.com","b.com"]`), 0o644)).To(Succeed())
				result, err := fetcher.Fetch(context.Background(), path)
				Expect(err).ToNot(HaveOccurred())
				Expect(result).To(Equal([]string{"a.com", "b.com"}))
			})
		})
		Describe("If the scheme is unsupported", func() {
			It("should return an error", func() {
				_, err := fetcher.Fetch(context.Background(), "ftp://example.com/feed.json")
				Expect(err).To(HaveOccurred())
			})
		})
	})
})
