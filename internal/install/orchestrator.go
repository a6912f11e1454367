package install

import (
	"context"
	"fmt"
	"log"
)

// The orchestrator walks a fixed sequence of states. Every component error
// short-circuits to Failed; ResolvingImage is skipped when no tag is pinned.
type State string

const (
	StateValidating     State = "Validating"
	StateResolvingImage State = "ResolvingImage"
	StateFetching       State = "Fetching"
	StatePatching       State = "Patching"
	StateLaunching      State = "Launching"
	StateCleaning       State = "Cleaning"
	StateDone           State = "Done"
	StateFailed         State = "Failed"
)

type Resolver interface {
	// Resolve makes the pinned image available locally and returns its
	// deterministic local name.
	Resolve(req *Request) (string, error)
}

type Fetcher interface {
	FetchScript(ctx context.Context) ([]byte, error)
}

type Patcher interface {
	Patch(body []byte, req *Request, localImage string) ([]byte, error)
}

type Launcher interface {
	// Launch runs the patched script under the privilege boundary and
	// returns its exit code. The error is reserved for failures to spawn;
	// the child's own nonzero exit is not an error here.
	Launch(ctx context.Context, script []byte, req *Request) (int, error)
}

type Orchestrator struct {
	Resolver Resolver
	Fetcher  Fetcher
	Patcher  Patcher
	Launcher Launcher

	state State
}

// State returns the last state the orchestrator entered. Useful for tests
// and error reporting, not consulted by the run itself.
func (o *Orchestrator) State() State { return o.state }

func (o *Orchestrator) enter(s State) {
	o.state = s
	log.Printf("%s...", s)
}

// Run drives one install end to end. Scratch resources are owned by the
// launcher and released on every exit path, so a failure in any state leaves
// nothing behind except whatever the installer itself was told to keep.
func (o *Orchestrator) Run(ctx context.Context, req *Request) (*RunResult, error) {
	o.enter(StateValidating)
	if err := req.Validate(); err != nil {
		o.state = StateFailed
		return nil, err
	}

	var localImage string
	if req.Tag != "" {
		o.enter(StateResolvingImage)
		name, err := o.Resolver.Resolve(req)
		if err != nil {
			o.state = StateFailed
			return nil, err
		}
		localImage = name
		log.Printf("image %q is available locally", name)
	}

	o.enter(StateFetching)
	body, err := o.Fetcher.FetchScript(ctx)
	if err != nil {
		o.state = StateFailed
		return nil, fmt.Errorf("fetching installer script: %w", err)
	}

	o.enter(StatePatching)
	patched, err := o.Patcher.Patch(body, req, localImage)
	if err != nil {
		o.state = StateFailed
		return nil, err
	}

	o.enter(StateLaunching)
	code, err := o.Launcher.Launch(ctx, patched, req)

	// the launcher has released its scratch resources by the time it returns,
	// on success and failure alike
	o.enter(StateCleaning)
	if err != nil {
		o.state = StateFailed
		return nil, fmt.Errorf("running installer: %w", err)
	}

	result := &RunResult{ExitCode: code}
	if req.Tag != "" {
		result.InstalledVersion = localImage
	}
	if code != 0 {
		o.state = StateFailed
		return result, &LaunchError{ExitCode: code}
	}

	o.state = StateDone
	return result, nil
}
