package engine

import (
	"fmt"
	"regexp"
)

// placeholderRe matches {{name}} occurrences in dynamic source templates.
// Substitution is a literal single pass; there is no expression language.
var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// ScanVariables returns the distinct variable names referenced by template in
// order of first appearance.
func ScanVariables(template string) []string {
	matches := placeholderRe.FindAllStringSubmatch(template, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	var names []string
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}

// Substitute replaces every {{name}} occurrence with the string form of
// values[name]. Variables that are absent or empty stay unsubstituted and are
// returned in missing, so callers can tell a resolvable template apart from a
// pending one without re-scanning.
func Substitute(template string, values map[string]any) (resolved string, missing []string) {
	resolved = placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		value, ok := values[name]
		if !ok || isEmpty(value) {
			missing = append(missing, name)
			return match
		}
		return fmt.Sprint(value)
	})
	return resolved, missing
}
