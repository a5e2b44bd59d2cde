package model

import (
	"strings"

	"golang.org/x/text/cases"
)

// FoldName returns the case-insensitive lookup key for a player, alias or
// champion name. The returned key is what the store indexes on.
func FoldName(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
