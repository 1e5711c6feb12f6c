package codegen

import (
	"slices"
	"strings"
)

// CompareNamespaces orders dotted namespaces component by component. A
// namespace sorts before every namespace it is a prefix of; otherwise the
// first differing component decides, compared ordinally.
func CompareNamespaces(x, y string) int {
	xs := strings.Split(x, ".")
	ys := strings.Split(y, ".")
	for i := 0; i < len(xs) && i < len(ys); i++ {
		if c := strings.Compare(xs[i], ys[i]); c != 0 {
			return c
		}
	}
	return len(xs) - len(ys)
}

// SortNamespaces returns the distinct namespaces ordered by CompareNamespaces.
// Empty entries are dropped.
func SortNamespaces(namespaces []string) []string {
	out := make([]string, 0, len(namespaces))
	for _, n := range namespaces {
		if n != "" {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, CompareNamespaces)
	return slices.Compact(out)
}
