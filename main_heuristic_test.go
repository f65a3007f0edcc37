package planner

import (
	"fmt"
	"testing"

	"gotest.tools/v3/assert"
)

func fakeReader(contents string) func(string) ([]byte, error) {
	return func(string) ([]byte, error) { return []byte(contents), nil }
}

func TestShouldParseAsLibrary(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		source string
		want   bool
	}{
		{"main.swift without @main is an entry point", "Sources/App/main.swift", "print(\"hi\")\n", false},
		{"non-main.swift file is a library", "Sources/App/Lib.swift", "struct Lib {}\n", true},
		{"main.swift with live @main is a library", "Sources/App/main.swift", "@main\nstruct App {}\n", true},
		{
			"main.swift with commented-out @main is an entry point",
			"Sources/App/main.swift",
			"// @main\nprint(\"hi\")\n",
			false,
		},
		{
			"main.swift with @main inside a string literal is an entry point",
			"Sources/App/main.swift",
			"print(\"@main\")\n",
			false,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := shouldParseAsLibrary(c.path, fakeReader(c.source))
			assert.NilError(t, err)
			assert.Equal(t, got, c.want)
		})
	}
}

func TestShouldParseAsLibraryNilReader(t *testing.T) {
	got, err := shouldParseAsLibrary("Sources/App/main.swift", nil)
	assert.NilError(t, err)
	assert.Equal(t, got, false)
}

func TestShouldParseAsLibraryReaderError(t *testing.T) {
	_, err := shouldParseAsLibrary("main.swift", func(string) ([]byte, error) {
		return nil, fmt.Errorf("boom")
	})
	assert.ErrorContains(t, err, "boom")
}

func TestStripCommentsNonNestingBlockComment(t *testing.T) {
	src := "/* outer /* inner */ still text */\n@main\n"
	stripped := stripComments(src)
	// The block comment closes at the first "*/", so "still text */" and the
	// following @main remain live text.
	assert.Assert(t, containsLiveMainAttribute(stripped))
}
