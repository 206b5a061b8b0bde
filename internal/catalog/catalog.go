// internal/catalog/catalog.go
//
// Client for the hosted similarity lists.
// Each answer word has a plain-text resource at <base>/<word>.txt whose
// lines are words ordered from most to least similar (line 1 is the word itself).
//
// Any transport error, non-2xx status, timeout or empty body is reported as
// ErrUnavailable. There are no retries: callers surface the failure and the
// player reissues the command.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultBaseURL hosts the published similarity lists.
const DefaultBaseURL = "https://ci-ying.oss-cn-zhangjiakou.aliyuncs.com/v1/ci-yi-list"

// DefaultTimeout bounds a single fetch when none is configured.
const DefaultTimeout = 10 * time.Second

// maxBody caps the response size; real lists are a few hundred KB.
const maxBody = 8 << 20

// ErrUnavailable means the ranking could not be retrieved.
var ErrUnavailable = errors.New("catalog unavailable")

// Catalog fetches the similarity ranking for an answer word.
type Catalog interface {
	Ranking(ctx context.Context, answer string) ([]string, error)
}

// HTTP is a Catalog backed by plain HTTP GETs.
type HTTP struct {
	base    string
	timeout time.Duration
	client  *http.Client
}

// NewHTTP returns an HTTP catalog rooted at base. A zero timeout uses DefaultTimeout.
func NewHTTP(base string, timeout time.Duration) *HTTP {
	if base == "" {
		base = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTP{
		base:    strings.TrimRight(base, "/"),
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// Ranking downloads and parses the list for answer.
func (c *HTTP) Ranking(ctx context.Context, answer string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.base + "/" + url.PathEscape(answer) + ".txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	res, err := c.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("word", answer).Msg("fetch similarity list")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		log.Error().Int("status", res.StatusCode).Str("word", answer).Msg("fetch similarity list")
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, res.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	ranking := Parse(string(body))
	if len(ranking) == 0 {
		return nil, fmt.Errorf("%w: empty list for %s", ErrUnavailable, answer)
	}
	return ranking, nil
}

// Parse splits a newline-separated list, dropping blank lines and stray \r.
func Parse(body string) []string {
	lines := strings.Split(strings.TrimSpace(body), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if w := strings.TrimSpace(l); w != "" {
			out = append(out, w)
		}
	}
	return out
}
