package planner

import (
	"fmt"

	"github.com/forgebuild/planner/triple"
)

// StaticLibraryLinkDescription is the librarian invocation for a
// library-static product, built separately from the swift-driver link
// commands because static archiving never goes through the driver.
// spec.md §4.3.1.
type StaticLibraryLinkDescription struct {
	Librarian string
	Arguments []string
	OutputPath string
}

// buildStaticLibraryLink assembles the librarian command line for product
// desc's output. t selects the platform-specific command form.
func buildStaticLibraryLink(desc *ProductBuildDescription, t triple.Triple, librarian string) StaticLibraryLinkDescription {
	linkFileList := desc.LinkFileListPath()
	out := desc.OutputPath()

	var args []string
	switch {
	case t.IsWindows():
		args = []string{"/LIB", fmt.Sprintf("/OUT:%s", out), "@" + linkFileList}
	case t.IsDarwin():
		args = []string{"-static", "-o", out, "@" + linkFileList}
	default:
		args = []string{"crs", out, "@" + linkFileList}
	}

	return StaticLibraryLinkDescription{
		Librarian:  librarian,
		Arguments:  args,
		OutputPath: out,
	}
}
