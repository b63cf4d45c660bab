package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// ValidateTag checks that tag names a language. Catalog file names use gettext conventions
// ("pt_BR", "ca@valencia"), which are accepted as-is.
func ValidateTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("empty locale tag")
	}
	if strings.ContainsAny(tag, "/\\ \x00") {
		return fmt.Errorf("invalid locale tag %q", tag)
	}
	base, _, _ := strings.Cut(tag, "@")
	if _, err := language.Parse(strings.ReplaceAll(base, "_", "-")); err != nil {
		return fmt.Errorf("invalid locale tag %q: %v", tag, err)
	}
	return nil
}
