package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/nao1215/secregistry/internal/config"
	"github.com/nao1215/secregistry/internal/model"
)

const walkerIndexPage = `<html><body><table class="ms-rteTable-sec"><tr><td>
<div>Brokerage</div>
<div>&#1086; <a href="/listing/alpha">Alpha</a></div>
<div>&#1086; <a href="/listing/beta">Beta</a></div>
</td></tr></table></body></html>`

// listingPage renders a listing with one row per "name=query" pair.
func listingPage(companies ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table class="menub">`)
	for i, c := range companies {
		name, cno, _ := strings.Cut(c, "=")
		fmt.Fprintf(&b, `<tr><td>%d</td><td><a href="/company?cno=%s">%s</a></td><td>Bangkok Tel.- Fax.-</td></tr>`, i+1, cno, name)
	}
	b.WriteString(`</table></body></html>`)
	return b.String()
}

// newWalkerServer serves an index with two listings. Alpha answers with a
// script redirect. C2 is listed in both.
func newWalkerServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(walkerIndexPage)) //nolint:errcheck
	})
	mux.HandleFunc("/listing/alpha", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><script>document.location = 'http://%s/listing/alpha2'</script></head></html>`, r.Host)
	})
	mux.HandleFunc("/listing/alpha2", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(listingPage("C1=1", "C2=2"))) //nolint:errcheck
	})
	mux.HandleFunc("/listing/beta", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(listingPage("C2=2", "C3=3"))) //nolint:errcheck
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// fakeProcessor builds records from listing links without fetching.
type fakeProcessor struct {
	fail  map[string]bool
	links []model.CompanyLink
}

func (p *fakeProcessor) Process(_ context.Context, link model.CompanyLink) (*model.CompanyRecord, error) {
	p.links = append(p.links, link)
	if p.fail[link.Name] {
		return nil, errors.New("company page unavailable")
	}
	rec := model.NewCompanyRecord(link.Name)
	rec.SourceURL = link.URL
	rec.Category = link.Category
	return rec, nil
}

// collect returns a RecordFunc appending to recs.
func collect(recs *[]*model.CompanyRecord) RecordFunc {
	return func(rec *model.CompanyRecord) error {
		*recs = append(*recs, rec)
		return nil
	}
}

func names(recs []*model.CompanyRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}

func TestWalkerWalk(t *testing.T) {
	t.Parallel()

	t.Run("visits every company once", func(t *testing.T) {
		t.Parallel()

		server := newWalkerServer(t)
		processor := &fakeProcessor{}
		w := NewWalker(newTestFetcher(server.Client()), processor)

		var recs []*model.CompanyRecord
		if err := w.Walk(context.Background(), server.URL+"/", collect(&recs)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := names(recs); !slices.Equal(got, []string{"C1", "C2", "C3"}) {
			t.Fatalf("expected C1 C2 C3, got %v", got)
		}
		if !slices.Equal(recs[1].Category, []string{"Brokerage", "Alpha"}) {
			t.Errorf("expected first category to win, got %v", recs[1].Category)
		}
		if !slices.Equal(recs[2].Category, []string{"Brokerage", "Beta"}) {
			t.Errorf("expected beta category, got %v", recs[2].Category)
		}
		if recs[0].SourceURL != server.URL+"/company?cno=1" {
			t.Errorf("expected resolved company url, got %q", recs[0].SourceURL)
		}

		stats := w.Stats()
		if stats.Listings != 2 || stats.Companies != 3 || stats.Duplicates != 1 || stats.Failed != 0 {
			t.Errorf("unexpected stats: %+v", stats)
		}
	})

	t.Run("stops at the limit", func(t *testing.T) {
		t.Parallel()

		server := newWalkerServer(t)
		w := NewWalker(newTestFetcher(server.Client()), &fakeProcessor{}, WithLimit(2))

		var recs []*model.CompanyRecord
		if err := w.Walk(context.Background(), server.URL+"/", collect(&recs)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := names(recs); !slices.Equal(got, []string{"C1", "C2"}) {
			t.Errorf("expected C1 C2, got %v", got)
		}
	})

	t.Run("skips failed companies", func(t *testing.T) {
		t.Parallel()

		server := newWalkerServer(t)
		processor := &fakeProcessor{fail: map[string]bool{"C1": true}}
		w := NewWalker(newTestFetcher(server.Client()), processor)

		var recs []*model.CompanyRecord
		if err := w.Walk(context.Background(), server.URL+"/", collect(&recs)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := names(recs); !slices.Equal(got, []string{"C2", "C3"}) {
			t.Errorf("expected C2 C3, got %v", got)
		}
		if w.Stats().Failed != 1 {
			t.Errorf("expected 1 failure, got %+v", w.Stats())
		}
	})

	t.Run("skips filtered categories", func(t *testing.T) {
		t.Parallel()

		server := newWalkerServer(t)
		file := config.NewFile()
		file.SkipCategories = []string{"Al*"}
		w := NewWalker(newTestFetcher(server.Client()), &fakeProcessor{}, WithFilter(NewFilter(file)))

		var recs []*model.CompanyRecord
		if err := w.Walk(context.Background(), server.URL+"/", collect(&recs)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := names(recs); !slices.Equal(got, []string{"C2", "C3"}) {
			t.Errorf("expected C2 C3, got %v", got)
		}
		if w.Stats().Skipped != 1 {
			t.Errorf("expected 1 skipped listing, got %+v", w.Stats())
		}
	})

	t.Run("returns the record func error", func(t *testing.T) {
		t.Parallel()

		server := newWalkerServer(t)
		w := NewWalker(newTestFetcher(server.Client()), &fakeProcessor{})

		errStop := errors.New("disk full")
		err := w.Walk(context.Background(), server.URL+"/", func(*model.CompanyRecord) error {
			return errStop
		})
		if !errors.Is(err, errStop) {
			t.Errorf("expected errStop, got %v", err)
		}
	})

	t.Run("fails when the index has no cells", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body>maintenance</body></html>`)) //nolint:errcheck
		}))
		defer server.Close()

		w := NewWalker(newTestFetcher(server.Client()), &fakeProcessor{})
		err := w.Walk(context.Background(), server.URL, collect(new([]*model.CompanyRecord)))
		if err == nil || !strings.Contains(err.Error(), "parse index") {
			t.Errorf("expected parse index error, got %v", err)
		}
	})

	t.Run("logs and skips failed listings", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(walkerIndexPage)) //nolint:errcheck
		})
		mux.HandleFunc("/listing/beta", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(listingPage("C3=3"))) //nolint:errcheck
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		w := NewWalker(newTestFetcher(server.Client(), WithRetries(0)), &fakeProcessor{})
		var recs []*model.CompanyRecord
		if err := w.Walk(context.Background(), server.URL+"/", collect(&recs)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := names(recs); !slices.Equal(got, []string{"C3"}) {
			t.Errorf("expected C3, got %v", got)
		}
		if w.Stats().Failed != 1 {
			t.Errorf("expected 1 failed listing, got %+v", w.Stats())
		}
	})
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"HTTP://Capital.SEC.or.th/a?cno=1#top", "http://capital.sec.or.th/a?cno=1"},
		{"http://example.com", "http://example.com/"},
		{"http://example.com/", "http://example.com/"},
	}

	for _, tt := range tests {
		if got := normalizeURL(tt.input); got != tt.want {
			t.Errorf("normalizeURL(%q): expected %q, got %q", tt.input, tt.want, got)
		}
	}
}
