package planner

// Destination distinguishes artifacts meant to run on the target platform
// from artifacts (macros, plugins, code-generation tools) that run during
// the build itself, on the host platform. spec.md §3.2/§4.4.
type Destination string

const (
	Target Destination = "target"
	Host   Destination = "host"
)

// Flip returns Host for Target and vice versa. Used when a dependency edge
// crosses a macro/plugin boundary (spec.md §4.4.2).
func (d Destination) Flip() Destination {
	if d == Target {
		return Host
	}
	return Target
}
