package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// CanonicalName normalizes a player name for storage: trimmed, single-spaced,
// title-cased. Box scores arrive from several sources ("j. SMITH", "J. Smith ")
// and the stats tables key on the name, so casing has to be stable.
func CanonicalName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return titleCaser.String(strings.Join(fields, " "))
}
