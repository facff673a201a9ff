package store

import (
	"mdm-registry-backend/internal/model"
	"mdm-registry-backend/internal/parse"
)

// Identifier prefixes.
const (
	prefixDevice  = "DEV"
	prefixPolicy  = "POL"
	prefixAppRule = "APP"
	prefixAlert   = "ALR"
)

// nextID issues the next identifier for prefix. The sequence stored in the
// document only moves forward, so an id is never handed out twice even
// after the record carrying it was removed or evicted. Documents without
// sequences fall back to the highest ordinal still present.
func nextID(doc *model.Document, prefix string) string {
	if doc.Sequences == nil {
		doc.Sequences = make(map[string]int)
	}
	n := doc.Sequences[prefix]
	if present := parse.MaxOrdinal(prefix, idsOf(doc, prefix)); present > n {
		n = present
	}
	n++
	doc.Sequences[prefix] = n
	return parse.FormatID(prefix, n)
}

func idsOf(doc *model.Document, prefix string) []string {
	var ids []string
	switch prefix {
	case prefixDevice:
		for _, d := range doc.Devices {
			ids = append(ids, d.ID)
		}
	case prefixPolicy:
		for _, p := range doc.Policies {
			ids = append(ids, p.ID)
		}
	case prefixAppRule:
		for _, r := range doc.AppRules {
			ids = append(ids, r.ID)
		}
	case prefixAlert:
		for _, a := range doc.Alerts {
			ids = append(ids, a.ID)
		}
	}
	return ids
}
