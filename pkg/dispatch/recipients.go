package dispatch

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// recipientKey normalises an address for ledger comparisons so that
// "Jane@Example.com" and "jane@example.com " are the same recipient.
func recipientKey(r string) string {
	// Casers carry state and must not be shared between goroutines.
	return cases.Fold().String(strings.TrimSpace(r))
}

// undelivered returns the active recipients not yet present in sent,
// preserving directory order and dropping duplicates within active.
func undelivered(active, sent []string) []string {
	seen := make(map[string]struct{}, len(sent)+len(active))
	for _, r := range sent {
		seen[recipientKey(r)] = struct{}{}
	}
	out := make([]string, 0, len(active))
	for _, r := range active {
		k := recipientKey(r)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// union appends the recipients of add that are not already in base.
func union(base, add []string) []string {
	seen := make(map[string]struct{}, len(base))
	for _, r := range base {
		seen[recipientKey(r)] = struct{}{}
	}
	out := slices.Clone(base)
	for _, r := range add {
		k := recipientKey(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// distinctCount counts unique, non-empty recipients.
func distinctCount(rs []string) int {
	seen := make(map[string]struct{}, len(rs))
	for _, r := range rs {
		if k := recipientKey(r); k != "" {
			seen[k] = struct{}{}
		}
	}
	return len(seen)
}
