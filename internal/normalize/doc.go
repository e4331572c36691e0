// Package normalize cleans up text scraped from the regulator's pages.
//
// The pages mix ordinary whitespace with no-break and zero-width spaces,
// write dates day-first ("31/01/2014") and upper-case most personal names.
// Every extractor runs cell text through this package before matching or
// storing it, so the rules live in one place:
//
//   - Strip and StripAny trim whitespace, including U+00A0 and U+200B
//   - Collapse drops zero-width code points and squeezes inner whitespace
//     runs to a single space
//   - ParseDate and ISODate read free-form, day-first dates
//   - Title applies English title casing to names
package normalize
