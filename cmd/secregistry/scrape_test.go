package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/secregistry/internal/config"
)

const scrapeIndexPage = `<html><body><table class="ms-rteTable-sec"><tr><td>
<div>Securities Business</div>
<div>&#1086; <a href="/listing">Brokerage</a></div>
</td></tr></table></body></html>`

const scrapeListingPage = `<html><body><table class="menub">
<tr><td>1</td><td><a href="/company.php?cno=1">UNITED SECURITIES PCL</a></td><td>1 Silom Road, Bangkok Tel.0-2000-0000 Fax.-</td></tr>
</table></body></html>`

const scrapeCompanyPage = `<html><body><table class="menub">
<tr class="ttr"><td>UNITED SECURITIES PUBLIC COMPANY LIMITED</td></tr>
<tr><td><a href="namechange.php?cno=1">[Click HERE for History of Name Change]</a></td></tr>
<tr><td>Date of Incorporation : 15/12/1993<br>Registered &amp; Paid-Up Capital</td></tr>
</table></body></html>`

const scrapeHistoryPage = `<html><body><table class="menub">
<tr class="ttr"><td colspan="2">UNITED SECURITIES PUBLIC COMPANY LIMITED</td></tr>
<tr class="ttr01"><td>Former Name</td><td>Used Until</td></tr>
<tr><td>UNITED SECURITES PUBLIC COMPANY LIMITED</td><td>17/06/2013</td></tr>
</table></body></html>`

// newRegistryServer serves a registry with one category and one company.
func newRegistryServer(t *testing.T) *httptest.Server {
	t.Helper()

	pages := map[string]string{
		"/":               scrapeIndexPage,
		"/listing":        scrapeListingPage,
		"/company.php":    scrapeCompanyPage,
		"/namechange.php": scrapeHistoryPage,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page)) //nolint:errcheck
	}))
	t.Cleanup(server.Close)
	return server
}

func testScrapeConfig(rootURL string) *config.Config {
	cfg := config.NewConfig()
	cfg.RootURL = rootURL
	cfg.Timeout = 5 * time.Second
	cfg.Rate = 0
	cfg.Retries = 0
	cfg.UseCache = false
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestNewScrapeCmd tests the scrape command creation.
func TestNewScrapeCmd(t *testing.T) {
	t.Parallel()

	cmd := NewScrapeCmd()

	if cmd.Use != "scrape [root-url]" {
		t.Errorf("expected use 'scrape [root-url]', got %q", cmd.Use)
	}

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"timeout", "t", config.DefaultTimeout.String()},
		{"rate", "r", "1"},
		{"burst", "", "1"},
		{"retries", "", "3"},
		{"max-body-size", "", "5242880"},
		{"user-agent", "", config.DefaultUserAgent},
		{"proxy", "", ""},
		{"no-robots", "", "false"},
		{"cache-dir", "", config.XDGCacheDir()},
		{"no-cache", "", "false"},
		{"cache-ttl", "", config.DefaultCacheTTL.String()},
		{"config", "c", ""},
		{"json", "j", "false"},
		{"markdown", "m", "false"},
		{"output", "o", ""},
		{"limit", "l", "0"},
		{"log-json", "", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

// TestBuildConfig tests reading flags, environment and config file.
// Subtests change the environment, so they do not run in parallel.
func TestBuildConfig(t *testing.T) {
	t.Setenv(config.EnvProxy, "")
	t.Setenv(config.EnvUserAgent, "")
	t.Setenv(config.EnvRootURL, "")
	t.Setenv(config.EnvCacheDir, "")

	t.Run("defaults", func(t *testing.T) {
		cmd := NewScrapeCmd()
		if err := cmd.ParseFlags([]string{"-c", writeConfigFile(t, "")}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.RootURL != config.DefaultRootURL {
			t.Errorf("expected default root URL, got %q", cfg.RootURL)
		}
		if !cfg.ObeyRobots || !cfg.UseCache {
			t.Error("expected robots and cache to be enabled")
		}
		if cfg.Rate != config.DefaultRate {
			t.Errorf("expected rate %v, got %v", config.DefaultRate, cfg.Rate)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("flags and argument", func(t *testing.T) {
		cmd := NewScrapeCmd()
		err := cmd.ParseFlags([]string{
			"-t", "10s", "-r", "0.5", "--retries", "1", "--no-robots", "--no-cache",
			"-m", "-o", "out.md", "-l", "5", "--proxy", "127.0.0.1:1080",
			"--log-json", "-c", writeConfigFile(t, ""),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{"https://example.com/index"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.RootURL != "https://example.com/index" {
			t.Errorf("expected root URL from argument, got %q", cfg.RootURL)
		}
		if cfg.Timeout != 10*time.Second || cfg.Rate != 0.5 || cfg.Retries != 1 {
			t.Errorf("unexpected request settings: %v %v %v", cfg.Timeout, cfg.Rate, cfg.Retries)
		}
		if cfg.ObeyRobots || cfg.UseCache {
			t.Error("expected robots and cache to be disabled")
		}
		if !cfg.MarkdownReport || cfg.ReportFile != "out.md" || cfg.Limit != 5 || !cfg.LogJSON {
			t.Errorf("unexpected output settings: %+v", cfg)
		}
		if cfg.Proxy != "127.0.0.1:1080" {
			t.Errorf("expected proxy from flag, got %q", cfg.Proxy)
		}
	})

	t.Run("environment applies unless flag given", func(t *testing.T) {
		t.Setenv(config.EnvProxy, "10.0.0.1:9050")
		t.Setenv(config.EnvUserAgent, "env-agent")

		cmd := NewScrapeCmd()
		if err := cmd.ParseFlags([]string{"--user-agent", "flag-agent", "-c", writeConfigFile(t, "")}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Proxy != "10.0.0.1:9050" {
			t.Errorf("expected proxy from environment, got %q", cfg.Proxy)
		}
		if cfg.UserAgent != "flag-agent" {
			t.Errorf("expected user agent from flag, got %q", cfg.UserAgent)
		}
	})

	t.Run("loads config file", func(t *testing.T) {
		path := writeConfigFile(t, "skipCategories:\n  - \"Staff*\"\nsites:\n  market.sec.or.th:\n    cookie: \"a=b\"\n")

		cmd := NewScrapeCmd()
		if err := cmd.ParseFlags([]string{"-c", path}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cfg.SiteConfigs.SkipCategories) != 1 {
			t.Errorf("expected skip categories, got %v", cfg.SiteConfigs.SkipCategories)
		}
		if cfg.SiteConfigs.Sites["market.sec.or.th"].Cookie != "a=b" {
			t.Errorf("expected site cookie, got %+v", cfg.SiteConfigs.Sites)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		cmd := NewScrapeCmd()
		if err := cmd.ParseFlags([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml")}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err := buildConfig(cmd, nil)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

// TestRunScrape tests a full walk against a local registry.
func TestRunScrape(t *testing.T) {
	t.Parallel()

	t.Run("writes records and summary", func(t *testing.T) {
		t.Parallel()

		server := newRegistryServer(t)
		cfg := testScrapeConfig(server.URL + "/")

		var stdout, summary bytes.Buffer
		if err := runScrape(context.Background(), cfg, "run-1", discardLogger(), &stdout, &summary); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
		if len(lines) != 1 {
			t.Fatalf("expected one record, got %d: %s", len(lines), stdout.String())
		}
		for _, want := range []string{
			`"name":"UNITED SECURITIES PUBLIC COMPANY LIMITED"`,
			`"date_incorporated":"1993-12-15"`,
			`"category":["Securities Business","Brokerage"]`,
			`"until":"2013-06-17"`,
			`"tel":"0-2000-0000"`,
		} {
			if !strings.Contains(lines[0], want) {
				t.Errorf("expected record to contain %s, got %s", want, lines[0])
			}
		}

		for _, want := range []string{"run-1", "Companies:  1", "Status:     Complete\n"} {
			if !strings.Contains(summary.String(), want) {
				t.Errorf("expected summary to contain %q, got:\n%s", want, summary.String())
			}
		}
	})

	t.Run("markdown to file", func(t *testing.T) {
		t.Parallel()

		server := newRegistryServer(t)
		cfg := testScrapeConfig(server.URL + "/")
		cfg.MarkdownReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "out", "operators.md")

		var stdout, summary bytes.Buffer
		if err := runScrape(context.Background(), cfg, "run-2", discardLogger(), &stdout, &summary); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stdout.Len() != 0 {
			t.Errorf("expected nothing on stdout, got %q", stdout.String())
		}

		content, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("failed to read output: %v", err)
		}
		if !strings.Contains(string(content), "## UNITED SECURITIES PUBLIC COMPANY LIMITED") {
			t.Errorf("expected company section, got:\n%s", content)
		}

		info, err := os.Stat(cfg.ReportFile)
		if err != nil {
			t.Fatalf("failed to stat output: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
		}
	})

	t.Run("serves pages from cache", func(t *testing.T) {
		t.Parallel()

		server := newRegistryServer(t)
		cfg := testScrapeConfig(server.URL + "/")
		cfg.UseCache = true
		cfg.CacheDir = t.TempDir()

		var first bytes.Buffer
		if err := runScrape(context.Background(), cfg, "run-3", discardLogger(), &first, io.Discard); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		server.Close()

		var second bytes.Buffer
		if err := runScrape(context.Background(), cfg, "run-4", discardLogger(), &second, io.Discard); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first.String() != second.String() {
			t.Errorf("expected cached run to match:\n%s\n%s", first.String(), second.String())
		}
	})

	t.Run("index failure", func(t *testing.T) {
		t.Parallel()

		server := newRegistryServer(t)
		cfg := testScrapeConfig(server.URL + "/missing")

		var summary bytes.Buffer
		err := runScrape(context.Background(), cfg, "run-5", discardLogger(), io.Discard, &summary)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(summary.String(), "Status:     ERROR") {
			t.Errorf("expected error status, got:\n%s", summary.String())
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		server := newRegistryServer(t)
		cfg := testScrapeConfig(server.URL + "/")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := runScrape(ctx, cfg, "run-6", discardLogger(), io.Discard, io.Discard)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
