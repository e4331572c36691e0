package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const (
	noBreakSpace   = '\u00a0'
	zeroWidthSpace = '\u200b'
	byteOrderMark  = '\ufeff'
)

// isSpace reports whether r is trimmed by Strip.
// unicode.IsSpace does not cover the zero-width code points the pages
// use as layout filler.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == zeroWidthSpace || r == byteOrderMark
}

// Strip trims leading and trailing whitespace, including no-break and
// zero-width spaces, and replaces inner no-break spaces with plain ones.
// The result is NFC-normalized. Strip is idempotent.
func Strip(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, string(noBreakSpace), " ")
	return strings.TrimFunc(text, isSpace)
}

// StripAny applies Strip to strings and recurses into slices and maps.
// Values of any other type are returned unchanged.
func StripAny(v any) any {
	switch t := v.(type) {
	case string:
		return Strip(t)
	case []string:
		out := make([]string, len(t))
		for i, s := range t {
			out[i] = Strip(s)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = StripAny(item)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, s := range t {
			out[k] = Strip(s)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = StripAny(item)
		}
		return out
	default:
		return v
	}
}

// dropZeroWidth removes zero-width code points. They carry no spacing,
// so "AB\u200bC" reads as "ABC" rather than two words.
var dropZeroWidth = strings.NewReplacer(string(zeroWidthSpace), "", string(byteOrderMark), "")

// Collapse removes zero-width code points, splits on whitespace
// (no-break spaces included) and joins the tokens with a single space.
// The result is NFC-normalized.
func Collapse(text string) string {
	text = norm.NFC.String(dropZeroWidth.Replace(text))
	return strings.Join(strings.Fields(text), " ")
}

// Title returns text collapsed and title-cased using English rules,
// e.g. "MR. VICHYA KREA-NGAM" becomes "Mr. Vichya Krea-Ngam" and
// "O'BRIEN" becomes "O'Brien".
func Title(text string) string {
	// A Caser keeps state between calls, so one is built per call.
	return upperAfterApostrophe(cases.Title(language.English).String(Collapse(text)))
}

// upperAfterApostrophe upper-cases a letter that follows an apostrophe
// which itself follows a letter. cases.Title treats the apostrophe as
// part of the word and lowers the rest.
func upperAfterApostrophe(text string) string {
	runes := []rune(text)
	for i := 2; i < len(runes); i++ {
		if !isApostrophe(runes[i-1]) || !unicode.IsLetter(runes[i-2]) {
			continue
		}
		runes[i] = unicode.ToUpper(runes[i])
	}
	return string(runes)
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '\u2019'
}
