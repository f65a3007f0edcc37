package planner

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/forgebuild/planner/triple"
)

func TestBuildStaticLibraryLinkPlatformDispatch(t *testing.T) {
	desc := &ProductBuildDescription{
		outputPath:       "/build/libFoo.a",
		linkFileListPath: "/build/Foo.LinkFileList",
	}

	windows, err := triple.Parse("x86_64-unknown-windows-msvc")
	assert.NilError(t, err)
	w := buildStaticLibraryLink(desc, windows, "lib.exe")
	assert.Equal(t, w.Librarian, "lib.exe")
	assert.DeepEqual(t, w.Arguments, []string{"/LIB", "/OUT:/build/libFoo.a", "@/build/Foo.LinkFileList"})

	darwin, err := triple.Parse("arm64-apple-macosx14.0")
	assert.NilError(t, err)
	d := buildStaticLibraryLink(desc, darwin, "libtool")
	assert.DeepEqual(t, d.Arguments, []string{"-static", "-o", "/build/libFoo.a", "@/build/Foo.LinkFileList"})

	linux, err := triple.Parse("x86_64-unknown-linux-gnu")
	assert.NilError(t, err)
	l := buildStaticLibraryLink(desc, linux, "ar")
	assert.DeepEqual(t, l.Arguments, []string{"crs", "/build/libFoo.a", "@/build/Foo.LinkFileList"})

	assert.Equal(t, w.OutputPath, "/build/libFoo.a")
}
