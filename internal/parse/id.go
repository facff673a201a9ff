package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var idRe = regexp.MustCompile(`^([A-Z]+)(\d+)$`)

// idWidth is the minimum number of digits in a formatted identifier.
const idWidth = 3

// ParsedID holds the prefix and ordinal of a registry identifier such as "DEV007".
type ParsedID struct {
	Prefix  string
	Ordinal int
}

// ParseID splits a registry identifier into its prefix and ordinal.
func ParseID(raw string) (ParsedID, error) {
	m := idRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return ParsedID{}, fmt.Errorf("unable to parse identifier: %q", raw)
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return ParsedID{}, fmt.Errorf("unable to parse ordinal of %q: %w", raw, err)
	}
	return ParsedID{Prefix: m[1], Ordinal: n}, nil
}

// FormatID renders prefix and ordinal as a zero-padded identifier.
// Ordinals wider than three digits are kept as-is ("ALR1000").
func FormatID(prefix string, ordinal int) string {
	return fmt.Sprintf("%s%0*d", prefix, idWidth, ordinal)
}

// MaxOrdinal returns the highest ordinal among ids carrying prefix, or 0.
// Identifiers that do not parse are ignored.
func MaxOrdinal(prefix string, ids []string) int {
	highest := 0
	for _, id := range ids {
		p, err := ParseID(id)
		if err != nil || p.Prefix != prefix {
			continue
		}
		if p.Ordinal > highest {
			highest = p.Ordinal
		}
	}
	return highest
}
