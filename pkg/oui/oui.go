// Package oui resolves device addresses to manufacturer names using a
// Wireshark-style manufacturer prefix file.
//
// Each line of the file is
//
//	<mac-prefix>[/<bits>]<TAB><short-name>[<TAB><long-name>]
//
// and lines that do not look like that are ignored.
package oui

import (
	"bufio"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Unknown is returned by Resolve when no prefix matches.
const Unknown = "unknown"

// minKeyLen is the length of a three byte OUI in hex characters. Implicit
// (zero padded) prefixes are never shortened below it.
const minKeyLen = 6

var prefixPattern = regexp.MustCompile(`^((?:[0-9A-Fa-f]{2}[:\-.]?){2,5}[0-9A-Fa-f]{2})(?:/(\d{1,2}))?$`)

// Entry is one prefix in the table.
type Entry struct {
	Prefix       string
	Manufacturer string
}

// Table is a longest-prefix-match lookup from normalized hex prefixes to
// manufacturer names. The zero value and a nil *Table are empty tables.
type Table struct {
	entries map[string]string
	maxLen  int
}

// New returns an empty table.
func New() *Table {
	return &Table{entries: make(map[string]string)}
}

// Build parses lines into a table, skipping malformed ones.
func Build(lines []string) *Table {
	t := New()
	for _, line := range lines {
		t.AddLine(line)
	}
	return t
}

// Parse reads a manufacturer file from r.
func Parse(r io.Reader) (*Table, error) {
	t := New()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		t.AddLine(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// AddLine parses a single manufacturer line and inserts it. It reports
// whether the line was accepted.
func (t *Table) AddLine(line string) bool {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) < 2 {
		return false
	}
	m := prefixPattern.FindStringSubmatch(strings.TrimSpace(fields[0]))
	if m == nil {
		return false
	}

	key := Normalize(m[1])
	if m[2] != "" {
		bits, err := strconv.Atoi(m[2])
		if err != nil || bits <= 0 {
			return false
		}
		if n := (bits + 3) / 4; n < len(key) {
			key = key[:n]
		}
	} else {
		for len(key) > minKeyLen && strings.HasSuffix(key, "00") {
			key = key[:len(key)-2]
		}
	}

	name := strings.TrimSpace(fields[1])
	if len(fields) > 2 {
		if long := strings.TrimSpace(fields[2]); long != "" {
			name = long
		}
	}
	if name == "" {
		return false
	}

	t.Add(key, name)
	return true
}

// Add inserts a normalized prefix. Any stored prefix that is a longer
// extension of key is removed first: a later declaration for a broader range
// replaces the narrower ones nested inside it.
func (t *Table) Add(key, manufacturer string) {
	if t.entries == nil {
		t.entries = make(map[string]string)
	}
	for k := range t.entries {
		if len(k) > len(key) && strings.HasPrefix(k, key) {
			delete(t.entries, k)
		}
	}
	t.entries[key] = manufacturer
	if len(key) > t.maxLen {
		t.maxLen = len(key)
	}
}

// Resolve returns the manufacturer of the longest prefix matching mac, or
// Unknown.
func (t *Table) Resolve(mac string) string {
	if t == nil || len(t.entries) == 0 {
		return Unknown
	}
	key := Normalize(mac)
	n := len(key)
	if n > t.maxLen {
		n = t.maxLen
	}
	for ; n > 0; n-- {
		if name, ok := t.entries[key[:n]]; ok {
			return name
		}
	}
	return Unknown
}

// Len returns the number of stored prefixes.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns every stored prefix sorted by key.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, 0, len(t.entries))
	for k, v := range t.entries {
		out = append(out, Entry{Prefix: k, Manufacturer: v})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Prefix < out[j].Prefix
	})
	return out
}

// Normalize strips address separators and lower-cases mac.
func Normalize(mac string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == ':' || r == '-' || r == '.':
			return -1
		case r >= 'A' && r <= 'F':
			return r + ('a' - 'A')
		}
		return r
	}, strings.TrimSpace(mac))
}
