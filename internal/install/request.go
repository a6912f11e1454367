package install

import (
	"fmt"
	"net/url"
	"strings"
)

// Environment variables that must be set (or supplied through flags / the
// config file) before anything else runs.
const (
	EnvConsole = "TWISTLOCK_CONSOLE"
	EnvAPI     = "TWISTLOCK_API"
	EnvToken   = "TWISTLOCK_TOKEN"
)

type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceArchive
	SourceExistingImage
	SourceRegistry
)

// ImageSource identifies where the pinned defender image should come from
// when it isn't already in the local image store.
type ImageSource struct {
	Kind  SourceKind
	Value string // archive path, local image reference, or registry URL
}

func (s ImageSource) String() string {
	switch s.Kind {
	case SourceArchive:
		return fmt.Sprintf("archive %q", s.Value)
	case SourceExistingImage:
		return fmt.Sprintf("image %q", s.Value)
	case SourceRegistry:
		return fmt.Sprintf("registry %q", s.Value)
	}
	return "none"
}

type ResourceLimits struct {
	CPUSet string // value for the runtime's --cpuset-cpus flag
	Memory string // value for the runtime's --memory flag
}

// Request is the validated configuration for one install run. It is built
// once from flags/env/config file and never mutated afterwards.
type Request struct {
	Console string // console address forwarded to the installer via -c
	APIBase string // console API base URL (script download endpoint)
	Token   string // bearer credential - never logged in full

	Tag           string // pinned version tag, empty when not pinning
	Source        ImageSource
	KeepWorkFiles bool
	Limits        ResourceLimits

	Runtime     string // container runtime binary, e.g. "docker"
	Fingerprint string // pinned sha256 of the console's TLS cert
	Insecure    bool   // skip TLS verification entirely

	Passthrough []string // forwarded verbatim to the installer
}

// Validate reports every problem it can find up front so the user doesn't
// have to fix them one at a time. It runs before any network or disk access.
func (r *Request) Validate() error {
	missing := []string{}
	if r.Console == "" {
		missing = append(missing, EnvConsole)
	}
	if r.APIBase == "" {
		missing = append(missing, EnvAPI)
	}
	if r.Token == "" {
		missing = append(missing, EnvToken)
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}

	if _, err := url.Parse(r.APIBase); err != nil {
		return &ConfigurationError{Reason: fmt.Sprintf("invalid API base URL %q: %s", r.APIBase, err)}
	}

	if r.Tag != "" {
		if strings.TrimSpace(r.Tag) == "" {
			return &ConfigurationError{Reason: "the version tag must not be blank"}
		}
		if r.Source.Kind == SourceNone {
			return &ResolutionError{Reason: MissingImageSource, Detail: r.Tag}
		}
	} else if r.Source.Kind != SourceNone {
		return &ConfigurationError{Reason: "an image source was given without --tag"}
	}

	return nil
}

// RunResult is what one complete run produces.
type RunResult struct {
	ExitCode         int
	InstalledVersion string // the pinned tag, empty when the console chose the version
}
