package triple

// Configuration is the build configuration: debug or release.
type Configuration string

const (
	Debug   Configuration = "debug"
	Release Configuration = "release"
)

// Environment pairs a canonical platform tag with a build configuration.
// It is the (platform, configuration) pair against which dependency
// conditions are evaluated.
type Environment struct {
	Platform      string
	Configuration Configuration
}

// FromTriple derives the Environment for a given triple/configuration pair.
func FromTriple(t Triple, cfg Configuration) Environment {
	return Environment{Platform: t.CanonicalPlatformName(), Configuration: cfg}
}
