package cache

import (
	"golang.org/x/text/unicode/norm"
)

// Key identifies a cached result: the canonical query text plus the row
// limit it was requested with. The same text requested with different
// limits is two distinct entries.
type Key struct {
	Text     string
	RowLimit int
}

// NewKey builds a cache key from canonical query text. The text is NFC
// normalized so visually identical queries that differ only in Unicode
// composition share an entry.
func NewKey(text string, rowLimit int) Key {
	return Key{
		Text:     norm.NFC.String(text),
		RowLimit: rowLimit,
	}
}
