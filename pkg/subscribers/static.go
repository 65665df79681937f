package subscribers

import (
	"context"
	"slices"
	"strings"
)

// Static is a fixed recipient list.
type Static []string

func (s Static) ActiveRecipients(context.Context) ([]string, error) {
	return clean(s), nil
}

// clean trims addresses and drops empty entries. Order is preserved.
func clean(in []string) []string {
	out := make([]string, 0, len(in))
	for _, r := range in {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return slices.Clip(out)
}
