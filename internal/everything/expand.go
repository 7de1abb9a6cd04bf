package everything

import "regexp"

var percentVar = regexp.MustCompile(`%([^%]+)%`)

// expandPercent replaces Windows-style %NAME% references using lookup.
// Unknown variables are left as written, like cmd.exe does.
func expandPercent(s string, lookup func(string) (string, bool)) string {
	return percentVar.ReplaceAllStringFunc(s, func(ref string) string {
		if v, ok := lookup(ref[1 : len(ref)-1]); ok {
			return v
		}
		return ref
	})
}
