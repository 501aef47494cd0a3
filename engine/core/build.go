package core

// BuildConfiguration selects how much developer tooling is compiled
// into the runtime. Shipping builds drop validation layers and debug
// instrumentation entirely.
type BuildConfiguration uint8

const (
	BuildDebug BuildConfiguration = iota
	BuildRelease
	BuildShipping
)

func (b BuildConfiguration) String() string {
	switch b {
	case BuildDebug:
		return "debug"
	case BuildRelease:
		return "release"
	case BuildShipping:
		return "shipping"
	}
	return "unknown"
}

// Debug reports whether debug instrumentation (shader debug symbols,
// verbose diagnostics) should be produced.
func (b BuildConfiguration) Debug() bool {
	return b == BuildDebug
}

// Validation reports whether driver validation layers and debug-utils
// extensions should be requested. Everything but shipping keeps them.
func (b BuildConfiguration) Validation() bool {
	return b != BuildShipping
}

// ActiveBuild is the configuration this binary was compiled for. The
// default comes from build tags; tooling may override it before any
// subsystem reads it.
var ActiveBuild = defaultBuild
