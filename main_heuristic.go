package planner

import (
	"path"
	"regexp"
	"strings"
)

// shouldParseAsLibrary implements the single-source-file heuristic from
// spec.md §4.2.1(11). Resolution of the Open Question in spec.md §9 about
// ambiguity between "not named main + no live @main" and "top-level code
// regardless of filename": this implementation treats filename as the
// primary signal (a file named "main" is assumed to be a top-level-code
// entry point unless it contains a live @main) and does not attempt to
// distinguish declaration-only files from top-level-statement files by any
// means short of full parsing, which spec.md §9 explicitly says not to do.
func shouldParseAsLibrary(sourcePath string, reader func(string) ([]byte, error)) (bool, error) {
	if reader == nil {
		return false, nil
	}
	contents, err := reader(sourcePath)
	if err != nil {
		return false, err
	}

	stripped := stripComments(string(contents))
	if containsLiveMainAttribute(stripped) {
		return true, nil
	}

	base := strings.TrimSuffix(path.Base(sourcePath), path.Ext(sourcePath))
	return base != "main", nil
}

var mainAttrRe = regexp.MustCompile(`(^|[^A-Za-z0-9_])@main([^A-Za-z0-9_]|$)`)

func containsLiveMainAttribute(src string) bool {
	return mainAttrRe.MatchString(src)
}

// stripComments removes // line comments and /* */ block comments and the
// contents of string literals. Block comments are treated as
// non-nesting, per the Open Question in spec.md §9: a nested block comment
// inside a block comment closes at the first "*/", which may leave text
// that a real Swift compiler would still consider commented-out treated as
// live. This matches the spec's own caveat that nested-comment handling is
// unclear and should be documented, not derived from an AST.
func stripComments(src string) string {
	var out strings.Builder
	runes := []rune(src)
	n := len(runes)
	for i := 0; i < n; i++ {
		switch {
		case runes[i] == '/' && i+1 < n && runes[i+1] == '/':
			for i < n && runes[i] != '\n' {
				i++
			}
			if i < n {
				out.WriteRune('\n')
			}
		case runes[i] == '/' && i+1 < n && runes[i+1] == '*':
			i += 2
			for i+1 < n && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			i++ // land on the closing '/'
		case runes[i] == '"':
			out.WriteRune(' ')
			i++
			for i < n && runes[i] != '"' {
				if runes[i] == '\\' && i+1 < n {
					i++
				}
				i++
			}
		default:
			out.WriteRune(runes[i])
		}
	}
	return out.String()
}
