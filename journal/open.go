package journal

import (
	"fmt"
	"strings"
)

// Kinds accepted by Open.
const (
	KindCSV    = "csv"
	KindSQLite = "sqlite"
	KindNone   = "none"
)

// Open returns the journal of the given kind writing to path. Kind "none"
// or "" returns Discard.
func Open(kind, path string) (Journal, error) {
	switch strings.ToLower(kind) {
	case "", KindNone:
		return Discard{}, nil
	case KindCSV:
		return NewCSV(path)
	case KindSQLite:
		return NewSQLite(path)
	}
	return nil, fmt.Errorf("unknown journal type %q", kind)
}
