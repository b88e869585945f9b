package feed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"defenceblocker/helper"

	"github.com/caffix/stringset"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/idna"
)

// DefaultResultKey is the key holding the host list in object-shaped feeds
const DefaultResultKey = "result"

// entries starting with a dotted quad are IP literals, not hosts
var regIP = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+`)

// Fetcher retrieves and normalizes host feeds
type Fetcher struct {
	Client    *http.Client
	ResultKey string
	UserAgent string
	Log       *log.Logger
}

// NewFetcher returns a Fetcher with default settings
func NewFetcher(client *http.Client, logger *log.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Fetcher{
		Client:    client,
		ResultKey: DefaultResultKey,
		UserAgent: "defenceblocker/1.0",
		Log:       logger,
	}
}

// Fetch reads the feed at source (URL, file:// URL or local path) and returns its normalized hosts
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]string, error) {
	body, err := f.read(ctx, source)
	if err != nil {
		return nil, errors.Wrapf(err, "can't fetch feed %s", source)
	}
	entries, err := Decode(body, f.ResultKey)
	if err != nil {
		return nil, errors.Wrapf(err, "can't decode feed %s", source)
	}
	hosts := f.Normalize(entries)
	f.Log.Debugf("Feed %s: %d entries, %d hosts kept", source, len(entries), len(hosts))
	return hosts, nil
}

func (f *Fetcher) read(ctx context.Context, source string) ([]byte, error) {
	if looksLikeFilePath(source) {
		return os.ReadFile(source)
	}
	u, err := url.Parse(source)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "file":
		return os.ReadFile(filepath.FromSlash(u.Path))
	case "http", "https":
	case "":
		return os.ReadFile(source)
	default:
		return nil, errors.Errorf("unsupported scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "application/json")

	res, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, errors.Errorf("unexpected HTTP status %s", res.Status)
	}
	return io.ReadAll(res.Body)
}

func looksLikeFilePath(s string) bool {
	return strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") || strings.HasPrefix(s, "/")
}

// Decode accepts either a JSON list or an object holding the list under resultKey
func Decode(body []byte, resultKey string) ([]interface{}, error) {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	switch v := raw.(type) {
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		if resultKey == "" {
			resultKey = DefaultResultKey
		}
		list, ok := v[resultKey].([]interface{})
		if !ok {
			return nil, errors.Errorf("no list under key %q", resultKey)
		}
		return list, nil
	case nil:
		return []interface{}{}, nil
	}
	return nil, errors.Errorf("unexpected feed type %T", raw)
}

// Normalize drops malformed entries, IP literals and www. hosts, then returns the sorted unique ASCII hosts
func (f *Fetcher) Normalize(entries []interface{}) []string {
	set := stringset.New()
	defer set.Close()
	for _, e := range entries {
		s, ok := e.(string)
		if !ok {
			f.Log.Debugf("Skipping malformed feed entry %v", e)
			continue
		}
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || regIP.MatchString(s) || strings.HasPrefix(s, "www.") {
			continue
		}
		a, err := idna.Punycode.ToASCII(s)
		if err != nil {
			f.Log.Debugf("Skipping feed entry %q: %v", s, err)
			continue
		}
		set.Insert(a)
	}
	return helper.SortedSlice(set)
}
