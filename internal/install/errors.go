package install

import (
	"fmt"
	"strings"
)

// ConfigurationError covers everything wrong with the invocation itself:
// missing environment variables, contradictory flags, malformed URLs.
// It is always raised before any side effect occurs.
type ConfigurationError struct {
	Missing []string // env var names, all of them at once
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Missing, ", "))
	}
	return e.Reason
}

// ResolutionReason identifies which step of image resolution failed.
type ResolutionReason string

const (
	MissingImageSource  ResolutionReason = "MissingImageSource"
	ArchiveNotFound     ResolutionReason = "ArchiveNotFound"
	ArchiveLoadFailed   ResolutionReason = "ArchiveLoadFailed"
	SourceImageNotFound ResolutionReason = "SourceImageNotFound"
	RegistryPullFailed  ResolutionReason = "RegistryPullFailed"
	RetagFailed         ResolutionReason = "RetagFailed"
	ArtifactMismatch    ResolutionReason = "ArtifactMismatch"
)

type ResolutionError struct {
	Reason ResolutionReason
	Detail string
	Err    error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("resolving image (%s)", e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// FetchError means the console answered the script download with something
// other than 200.
type FetchError struct {
	Status int
	URL    string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Status, e.URL)
}

// AnchorNotFoundError means the vendor script no longer contains a line one
// of the patch rules expects. Running the unpatched installer while the user
// believes it is pinned would be worse than failing, so this is fatal.
type AnchorNotFoundError struct {
	Rule string
}

func (e *AnchorNotFoundError) Error() string {
	return fmt.Sprintf("patch rule %q: expected anchor not found in the installer script - the vendor script layout may have changed", e.Rule)
}

// LaunchError relays a nonzero exit from the privileged installer.
type LaunchError struct {
	ExitCode int
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("the installer exited with code %d", e.ExitCode)
}
