package image

import (
	"fmt"
	"os/exec"
)

// CLIRuntime drives a container runtime (docker or podman) over its CLI.
type CLIRuntime struct {
	Bin string // e.g. "docker"
}

func (c *CLIRuntime) ImageExists(ref string) (bool, error) {
	err := exec.Command(c.Bin, "image", "inspect", ref).Run()
	if err == nil {
		return true, nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		return false, nil // inspect exits nonzero for unknown images
	}
	return false, fmt.Errorf("running '%s image inspect': %w", c.Bin, err)
}

func (c *CLIRuntime) Load(archive string) error {
	out, err := exec.Command(c.Bin, "load", "--input", archive).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s", out)
	}
	return nil
}

func (c *CLIRuntime) Tag(src, dst string) error {
	out, err := exec.Command(c.Bin, "tag", src, dst).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s", out)
	}
	return nil
}

func (c *CLIRuntime) Pull(ref string) error {
	out, err := exec.Command(c.Bin, "pull", ref).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s", out)
	}
	return nil
}
