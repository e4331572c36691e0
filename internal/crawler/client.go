package crawler

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/nao1215/secregistry/internal/config"
)

// maxRedirects stops redirect loops between the regulator's hosts.
const maxRedirects = 10

// ClientOption configures the HTTP client built by NewHTTPClient.
type ClientOption func(*clientOptions)

type clientOptions struct {
	proxy string
	sites *config.File
}

// WithProxy routes every request through a proxy. The address is either
// "host:port" (SOCKS5) or a socks5://, socks5h://, http:// or https:// URL.
func WithProxy(address string) ClientOption {
	return func(o *clientOptions) {
		o.proxy = address
	}
}

// WithSiteConfig injects the per-host cookie and headers of the
// configuration file into every request.
func WithSiteConfig(file *config.File) ClientOption {
	return func(o *clientOptions) {
		o.sites = file
	}
}

// NewHTTPClient returns the client used for every page request.
// It keeps cookies across requests, as the listing pages set a session.
func NewHTTPClient(timeout time.Duration, opts ...ClientOption) (*http.Client, error) {
	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 15 * time.Second,
	}
	if o.proxy != "" {
		if err := configureProxy(transport, o.proxy); err != nil {
			return nil, err
		}
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	var rt http.RoundTripper = transport
	if o.sites != nil {
		rt = &siteConfigTransport{base: transport, sites: o.sites}
	}

	return &http.Client{
		Transport: rt,
		Timeout:   timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// configureProxy points transport at the given proxy.
func configureProxy(transport *http.Transport, address string) error {
	if !strings.Contains(address, "://") {
		if !isValidProxyAddress(address) {
			return ErrInvalidProxyAddress
		}
		address = "socks5://" + address
	}

	u, err := url.Parse(address)
	if err != nil || u.Host == "" {
		return ErrInvalidProxyAddress
	}

	switch u.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
		return nil
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			return fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
		return nil
	default:
		return ErrInvalidProxyAddress
	}
}

// isValidProxyAddress checks the "host:port" form.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// siteConfigTransport injects the cookie and headers configured for the
// request's host.
type siteConfigTransport struct {
	base  http.RoundTripper
	sites *config.File
}

// RoundTrip implements http.RoundTripper.
func (t *siteConfigTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	site := t.sites.GetSiteConfig(req.URL.Hostname())
	if site.Cookie == "" && len(site.Headers) == 0 {
		return t.base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	if site.Cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+site.Cookie)
		} else {
			clone.Header.Set("Cookie", site.Cookie)
		}
	}
	for key, value := range site.Headers {
		clone.Header.Set(key, value)
	}
	return t.base.RoundTrip(clone)
}
