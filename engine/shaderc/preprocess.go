package shaderc

import (
	"regexp"
	"sort"
)

// Preprocess substitutes define values into source. Only whole
// identifiers are replaced, so a define named MAX never rewrites
// MAX_LIGHTS. Defines apply in sorted key order; repeated runs over
// the same input produce identical output.
func Preprocess(source string, defines map[string]string) string {
	if len(defines) == 0 {
		return source
	}

	keys := make([]string, 0, len(defines))
	for key := range defines {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(key) + `\b`)
		source = pattern.ReplaceAllLiteralString(source, defines[key])
	}
	return source
}
