package crawler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// robotsPolicy answers whether a URL may be fetched, reading each
// host's robots.txt once.
type robotsPolicy struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger

	mu     sync.Mutex
	groups map[string]*robotstxt.Group
}

func newRobotsPolicy(client *http.Client, userAgent string, logger *slog.Logger) *robotsPolicy {
	return &robotsPolicy{
		client:    client,
		userAgent: userAgent,
		logger:    logger,
		groups:    make(map[string]*robotstxt.Group),
	}
}

// allowed reports whether u may be fetched. A robots.txt that cannot be
// read allows everything; a server error on robots.txt disallows
// everything.
func (r *robotsPolicy) allowed(ctx context.Context, u *url.URL) bool {
	group := r.group(ctx, u)
	if group == nil {
		return true
	}
	return group.Test(u.RequestURI())
}

func (r *robotsPolicy) group(ctx context.Context, u *url.URL) *robotstxt.Group {
	key := u.Scheme + "://" + u.Host

	r.mu.Lock()
	group, ok := r.groups[key]
	r.mu.Unlock()
	if ok {
		return group
	}

	group = r.fetch(ctx, key+"/robots.txt")

	r.mu.Lock()
	r.groups[key] = group
	r.mu.Unlock()
	return group
}

func (r *robotsPolicy) fetch(ctx context.Context, robotsURL string) *robotstxt.Group {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("robots.txt unavailable", "url", robotsURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		r.logger.Debug("robots.txt unreadable", "url", robotsURL, "error", err)
		return nil
	}
	return data.FindGroup(r.userAgent)
}
