// Package pragma scans source comments for translation annotations and
// keeps them in a map keyed by source location. The translator receives the
// map as explicit configuration; it never reads source text itself.
package pragma

import (
	"strings"

	"sluice/internal/source"
)

// Kind enumerates the recognized annotations.
type Kind uint8

const (
	KindNone Kind = iota
	// KindTop designates the next function as the translation entry.
	KindTop
	// KindUnroll requests static unrolling of the next loop.
	KindUnroll
	// KindNoTuple flattens the next single-field record to its bare field.
	KindNoTuple
)

func (k Kind) String() string {
	switch k {
	case KindTop:
		return "hls_top"
	case KindUnroll:
		return "hls_unroll"
	case KindNoTuple:
		return "hls_no_tuple"
	}
	return "none"
}

type key struct {
	file source.FileID
	line int
}

// Map binds each annotation to the source line of the construct it governs.
type Map struct {
	entries map[key]Kind
}

func NewMap() *Map {
	return &Map{entries: make(map[key]Kind)}
}

// Set binds kind to the construct starting at the 1-based line.
func (m *Map) Set(file source.FileID, line int, kind Kind) {
	m.entries[key{file, line}] = kind
}

// At returns the annotation bound to the construct at line.
func (m *Map) At(file source.FileID, line int) Kind {
	if m == nil {
		return KindNone
	}
	return m.entries[key{file, line}]
}

// Scan extracts pragmas from content. A pragma applies to the next
// non-blank, non-pragma source line. Pragmas inside line or block comments
// are inert, matching the behavior of a real preprocessor.
func Scan(file source.FileID, content []byte) *Map {
	m := NewMap()
	lines := strings.Split(string(content), "\n")
	pending := KindNone
	inBlockComment := false
	for i, raw := range lines {
		line, nowInBlock := stripComments(raw, inBlockComment)
		inBlockComment = nowInBlock
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if kind, ok := parsePragma(trimmed); ok {
			if kind != KindNone {
				pending = kind
			}
			continue
		}
		if pending != KindNone {
			m.Set(file, i+1, pending)
			pending = KindNone
		}
	}
	return m
}

func parsePragma(line string) (Kind, bool) {
	if !strings.HasPrefix(line, "#pragma") {
		return KindNone, false
	}
	rest := strings.Fields(strings.TrimPrefix(line, "#pragma"))
	if len(rest) == 0 {
		return KindNone, true
	}
	switch rest[0] {
	case "hls_top":
		return KindTop, true
	case "hls_unroll":
		if len(rest) > 1 && rest[1] == "no" {
			return KindNone, true
		}
		return KindUnroll, true
	case "hls_no_tuple":
		return KindNoTuple, true
	}
	// Unknown pragmas pass through silently, like -Wno-unknown-pragmas.
	return KindNone, true
}

// stripComments removes comment text from one line, carrying block-comment
// state across lines.
func stripComments(line string, inBlock bool) (string, bool) {
	var b strings.Builder
	i := 0
	for i < len(line) {
		if inBlock {
			end := strings.Index(line[i:], "*/")
			if end < 0 {
				return b.String(), true
			}
			i += end + 2
			inBlock = false
			continue
		}
		if strings.HasPrefix(line[i:], "//") {
			return b.String(), false
		}
		if strings.HasPrefix(line[i:], "/*") {
			i += 2
			inBlock = true
			continue
		}
		b.WriteByte(line[i])
		i++
	}
	return b.String(), inBlock
}
