package normalize

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestStrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text is unchanged", "Brokerage", "Brokerage"},
		{"trims ordinary whitespace", " \t\nBrokerage \r\n", "Brokerage"},
		{"trims no-break space", "\u00a0Sercurities Brokerage\u00a0", "Sercurities Brokerage"},
		{"trims zero-width space", "\u200bDerivatives Advisors\u200b", "Derivatives Advisors"},
		{"replaces inner no-break space", "Derivatives\u00a0Agent", "Derivatives Agent"},
		{"empty string", "", ""},
		{"only filler", "\u00a0\u200b \t", ""},
		{"keeps thai text", "\u00a0ลก-0061-01 ", "ลก-0061-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Strip(tt.input); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"  a  ",
		"\u00a0\u200b x \u00a0y\u200b",
		"\u200b\u00a0\u200b",
		"e\u0301", // decomposed é
		"Head office 63 Main St\u00a0Tel.-",
	}

	for _, input := range inputs {
		once := Strip(input)
		twice := Strip(once)
		if once != twice {
			t.Errorf("Strip not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}

func TestStripAny(t *testing.T) {
	t.Parallel()

	t.Run("strings are stripped", func(t *testing.T) {
		t.Parallel()
		if got := StripAny(" a\u00a0"); got != "a" {
			t.Errorf("expected %q, got %v", "a", got)
		}
	})

	t.Run("non-text values pass through", func(t *testing.T) {
		t.Parallel()
		if got := StripAny(42); got != 42 {
			t.Errorf("expected 42, got %v", got)
		}
		if got := StripAny(nil); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("recurses into slices and maps", func(t *testing.T) {
		t.Parallel()
		input := map[string]any{
			"name":  " AEC ",
			"tags":  []any{" a ", 1, []string{"\u00a0b\u200b"}},
			"inner": map[string]string{"k": "\u00a0v"},
		}
		want := map[string]any{
			"name":  "AEC",
			"tags":  []any{"a", 1, []string{"b"}},
			"inner": map[string]string{"k": "v"},
		}
		got := StripAny(input)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %#v, got %#v", want, got)
		}
		again := StripAny(got)
		if !reflect.DeepEqual(again, got) {
			t.Errorf("StripAny not idempotent: %#v", again)
		}
	})
}

func TestCollapse(t *testing.T) {
	t.Parallel()

	got := Collapse("  Head   office\u00a0\u00a063 Main St\n\tTel.- \u200b Fax.-  ")
	want := "Head office 63 Main St Tel.- Fax.-"
	if got != want {
		t.Errorf("Collapse() = %q, want %q", got, want)
	}
}

func TestCollapseZeroWidth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"inside a word", "AB\u200bC", "ABC"},
		{"byte order mark inside a word", "Sec\ufeffurities", "Securities"},
		{"next to a space", "Tel.- \u200b Fax.-", "Tel.- Fax.-"},
		{"trailing", "UNITED SECURITES\u200b", "UNITED SECURITES"},
		{"no-break spaces still split", "A\u00a0\u00a0B", "A B"},
		{"only filler", "\u200b\u00a0\ufeff", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Collapse(tt.input); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"PRAPHOL MILINDACHINLA", "Praphol Milindachinla"},
		{"MR. VICHYA KREA-NGAM", "Mr. Vichya Krea-Ngam"},
		{"mrs. amporn  jiammunjit", "Mrs. Amporn Jiammunjit"},
		{"THAI", "Thai"},
		{"MR. JOHN O'BRIEN", "Mr. John O'Brien"},
		{"D\u2019ANGELO", "D\u2019Angelo"},
		{"'QUOTED'", "'Quoted'"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Title(tt.input); got != tt.want {
			t.Errorf("Title(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"day first slash", "31/01/2014", time.Date(2014, 1, 31, 0, 0, 0, 0, time.UTC)},
		{"ambiguous resolves day first", "01/02/2014", time.Date(2014, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"single digit parts", "6/5/2015", time.Date(2015, 5, 6, 0, 0, 0, 0, time.UTC)},
		{"surrounding whitespace", "\u00a015/12/1993 ", time.Date(1993, 12, 15, 0, 0, 0, 0, time.UTC)},
		{"dash separated", "17-03-2016", time.Date(2016, 3, 17, 0, 0, 0, 0, time.UTC)},
		{"iso form", "2014-05-20", time.Date(2014, 5, 20, 0, 0, 0, 0, time.UTC)},
		{"two digit year day first", "01/02/14", time.Date(2014, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"two digit year day over twelve", "13/01/14", time.Date(2014, 1, 13, 0, 0, 0, 0, time.UTC)},
		{"two digit year last century", "15/12/93", time.Date(1993, 12, 15, 0, 0, 0, 0, time.UTC)},
		{"dotted two digit year", "02.03.16", time.Date(2016, 3, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDate(tt.input)
			if err != nil {
				t.Fatalf("ParseDate(%q) returned error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDateErrors(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "   ", "-", "31/02/2014", "not a date"} {
		_, err := ParseDate(input)
		if err == nil {
			t.Errorf("ParseDate(%q) expected error", input)
			continue
		}
		if !errors.Is(err, ErrNoDate) {
			t.Errorf("ParseDate(%q) error %v does not wrap ErrNoDate", input, err)
		}
		var dateErr *DateError
		if !errors.As(err, &dateErr) {
			t.Errorf("ParseDate(%q) error %T is not *DateError", input, err)
		}
	}
}

func TestISODate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"31/01/2014", "2014-01-31"},
		{"20/09/2013", "2013-09-20"},
		{"17/03/2016", "2016-03-17"},
		{"01/02/14", "2014-02-01"},
		{"13/01/14", "2014-01-13"},
		{"31/02/14", ""},
		{"", ""},
		{"-", ""},
		{"\u200b", ""},
		{"99/99/9999", ""},
		{"garbage (As of", ""},
	}

	for _, tt := range tests {
		if got := ISODate(tt.input); got != tt.want {
			t.Errorf("ISODate(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestISODateNeverFails(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"", "0", "/", "//", "1/1/", "32/13/2020", "Level 3A", "(As of)",
		"\x00\xff", "2014-13-45", "12:61", "ลก-0061-01", "Mon Jan",
	}
	for _, input := range inputs {
		got := ISODate(input)
		if got == "" {
			continue
		}
		if _, err := time.Parse(ISOLayout, got); err != nil {
			t.Errorf("ISODate(%q) = %q is not an ISO date", input, got)
		}
	}
}
