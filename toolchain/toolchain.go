// Package toolchain declares the external toolchain-query interface the
// engine consumes (spec.md §6.3). Implementations live outside this module;
// the engine only depends on this interface so plan construction can be
// tested against a fake without a real compiler installed.
package toolchain

import "context"

// Toolchain resolves the absolute paths of build tools and answers
// capability questions the engine cannot infer statically (e.g. whether a
// given compiler build supports a specific flag).
type Toolchain interface {
	SwiftCompilerPath(ctx context.Context) (string, error)
	ClangCompilerPath(ctx context.Context) (string, error)
	LibrarianPath(ctx context.Context) (string, error)
	LinkerPath(ctx context.Context) (string, error)

	// ResourcePath is the toolchain's shared resource directory (Swift
	// runtime libraries, Clang resource dir, etc).
	ResourcePath(ctx context.Context) (string, error)
	// SDKRoot is the SDK path to pass via -sdk, empty when not applicable.
	SDKRoot(ctx context.Context) (string, error)

	// SupportsFlag probes whether the compiler driver recognizes the named
	// flag. The engine silently omits flags this returns false for
	// (ToolchainFlagUnsupported, spec.md §7).
	SupportsFlag(ctx context.Context, name string) (bool, error)

	// DarwinPlatformVersion returns the minimum-deployment-target string to
	// embed in a darwin target triple, or empty if not overridden.
	DarwinPlatformVersion(ctx context.Context, platform string) (string, error)
}

// Static is a fixed-answer Toolchain for tests and simple embedders that
// don't need live capability probing.
type Static struct {
	Swift, Clang, Librarian, Linker, Resources, SDK string
	UnsupportedFlags                                map[string]bool
	DarwinVersions                                   map[string]string
}

func (s *Static) SwiftCompilerPath(context.Context) (string, error) { return s.Swift, nil }
func (s *Static) ClangCompilerPath(context.Context) (string, error) { return s.Clang, nil }
func (s *Static) LibrarianPath(context.Context) (string, error)     { return s.Librarian, nil }
func (s *Static) LinkerPath(context.Context) (string, error)        { return s.Linker, nil }
func (s *Static) ResourcePath(context.Context) (string, error)      { return s.Resources, nil }
func (s *Static) SDKRoot(context.Context) (string, error)           { return s.SDK, nil }

func (s *Static) SupportsFlag(_ context.Context, name string) (bool, error) {
	return !s.UnsupportedFlags[name], nil
}

func (s *Static) DarwinPlatformVersion(_ context.Context, platform string) (string, error) {
	return s.DarwinVersions[platform], nil
}
