package utils

import (
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CollationInfo describes a collation's properties
type CollationInfo struct {
	Name              string
	Charset           string
	Tag               language.Tag
	CaseInsensitive   bool
	AccentInsensitive bool
	IsBinary          bool
	options           []collate.Option // pre-computed collate options
}

// CollationEngine provides locale-aware string comparison and sort key generation.
// It maps MySQL collation names to golang.org/x/text/collate configurations.
// Collator instances are created per-call because they are NOT goroutine-safe.
type CollationEngine struct {
	registry map[string]*CollationInfo
	aliases  map[string]string // alias -> canonical name
}

// Global singleton
var (
	globalEngine *CollationEngine
	engineOnce   sync.Once
)

// GetGlobalCollationEngine returns the global CollationEngine singleton.
func GetGlobalCollationEngine() *CollationEngine {
	engineOnce.Do(func() {
		globalEngine = NewCollationEngine()
	})
	return globalEngine
}

// NewCollationEngine creates a new CollationEngine with the supported collation registry.
func NewCollationEngine() *CollationEngine {
	e := &CollationEngine{
		registry: make(map[string]*CollationInfo),
		aliases:  make(map[string]string),
	}
	e.initRegistry()
	return e
}

func (e *CollationEngine) initRegistry() {
	for _, name := range []string{"utf8mb4_bin", "utf8_bin", "binary"} {
		e.registerCollation(&CollationInfo{Name: name, Charset: strings.SplitN(name, "_", 2)[0], IsBinary: true})
	}

	for _, name := range []string{"utf8mb4_general_ci", "utf8_general_ci", "utf8mb4_unicode_ci"} {
		e.registerCollation(&CollationInfo{
			Name: name, Charset: strings.SplitN(name, "_", 2)[0],
			Tag: language.Und, CaseInsensitive: true,
			options: []collate.Option{collate.IgnoreCase},
		})
	}

	// MySQL 8.0 default: accent-insensitive + case-insensitive
	e.registerCollation(&CollationInfo{
		Name: "utf8mb4_0900_ai_ci", Charset: "utf8mb4", Tag: language.Und,
		CaseInsensitive: true, AccentInsensitive: true,
		options: []collate.Option{collate.IgnoreCase, collate.Loose},
	})

	localeCIs := map[string]string{
		"utf8mb4_turkish_ci": "tr",
		"utf8mb4_german2_ci": "de-u-co-phonebk",
		"utf8mb4_spanish_ci": "es",
		"utf8mb4_swedish_ci": "sv",
	}
	for name, tag := range localeCIs {
		e.registerCollation(&CollationInfo{
			Name:            name,
			Charset:         "utf8mb4",
			Tag:             language.MustParse(tag),
			CaseInsensitive: true,
			options:         []collate.Option{collate.IgnoreCase},
		})
	}

	e.aliases["utf8mb4"] = "utf8mb4_general_ci"
	e.aliases["utf8"] = "utf8_general_ci"
	e.aliases["default"] = "utf8mb4_0900_ai_ci"
}

func (e *CollationEngine) registerCollation(info *CollationInfo) {
	e.registry[info.Name] = info
}

// IsKnown reports whether name (or an alias of it) is a registered collation.
func (e *CollationEngine) IsKnown(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return true
	}
	if _, ok := e.aliases[lower]; ok {
		return true
	}
	_, ok := e.registry[lower]
	return ok
}

// ResolveCollation normalizes a collation name, resolving aliases and case differences.
// Returns the canonical collation name.
func (e *CollationEngine) ResolveCollation(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return "utf8mb4_bin"
	}

	if canonical, ok := e.aliases[lower]; ok {
		return canonical
	}

	if _, ok := e.registry[lower]; ok {
		return lower
	}

	// Unknown collation: fall back to binary
	return "utf8mb4_bin"
}

// GetCollationInfo returns metadata for a collation, or (nil, false) if unknown.
func (e *CollationEngine) GetCollationInfo(name string) (*CollationInfo, bool) {
	info, ok := e.registry[e.ResolveCollation(name)]
	return info, ok
}

// newCollator creates a new collator for the given collation info.
// Collators are NOT goroutine-safe and must not be shared.
func (e *CollationEngine) newCollator(info *CollationInfo) *collate.Collator {
	if info.IsBinary {
		return nil
	}
	return collate.New(info.Tag, info.options...)
}

// Compare compares two strings using the specified collation.
// Returns -1, 0, or 1.
func (e *CollationEngine) Compare(a, b string, collationName string) int {
	info := e.registry[e.ResolveCollation(collationName)]
	if info == nil || info.IsBinary {
		return strings.Compare(a, b)
	}
	return e.newCollator(info).CompareString(a, b)
}

// SortKey generates a binary sort key for the given string and collation.
// Sort keys can be compared with bytes.Compare for correct collation ordering,
// and two strings that the collation considers equal produce equal keys.
func (e *CollationEngine) SortKey(s string, collationName string) []byte {
	info := e.registry[e.ResolveCollation(collationName)]
	if info == nil || info.IsBinary {
		return []byte(s)
	}
	buf := &collate.Buffer{}
	return e.newCollator(info).KeyFromString(buf, s)
}

// IsCaseInsensitive returns true if the named collation is case-insensitive.
func (e *CollationEngine) IsCaseInsensitive(collationName string) bool {
	info, ok := e.GetCollationInfo(collationName)
	if !ok {
		return false
	}
	return info.CaseInsensitive
}
