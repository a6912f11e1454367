package image

import (
	"fmt"
	"log"
	"os"

	"github.com/justyntemme/customDefenderInstall/internal/install"
)

// Runtime is the slice of the container runtime the resolver needs.
type Runtime interface {
	ImageExists(ref string) (bool, error)
	Load(archive string) error
	Tag(src, dst string) error
	Pull(ref string) error
}

type Resolver struct {
	Runtime Runtime
}

// Resolve makes sure the image for req.Tag exists in the local store under
// its deterministic name and returns that name. Sources are tried in a fixed
// priority order, short-circuiting on the first success. Running twice with
// the same tag is free: an image already present is never re-fetched.
func (r *Resolver) Resolve(req *install.Request) (string, error) {
	local := LocalName(req.Tag)

	exists, err := r.Runtime.ImageExists(local)
	if err != nil {
		return "", fmt.Errorf("checking local image store: %w", err)
	}
	if exists {
		log.Printf("image %q already present, nothing to do", local)
		return local, nil
	}

	switch req.Source.Kind {
	case install.SourceArchive:
		return local, r.loadArchive(req.Source.Value, local)
	case install.SourceExistingImage:
		return local, r.retag(req.Source.Value, local)
	case install.SourceRegistry:
		return local, r.pull(req.Source.Value, req.Tag, local)
	}

	// Validate catches this before we get here, but resolution must never
	// touch the network or disk without a configured source.
	return "", &install.ResolutionError{Reason: install.MissingImageSource, Detail: req.Tag}
}

func (r *Resolver) loadArchive(path, local string) error {
	if _, err := os.Stat(path); err != nil {
		return &install.ResolutionError{Reason: install.ArchiveNotFound, Detail: path, Err: err}
	}

	log.Printf("loading image archive %q...", path)
	if err := r.Runtime.Load(path); err != nil {
		return &install.ResolutionError{Reason: install.ArchiveLoadFailed, Detail: path, Err: err}
	}

	// The archive's own manifest decides the loaded name - no renaming
	// happens on this path, so verify it actually carried the expected one.
	ok, err := r.Runtime.ImageExists(local)
	if err != nil {
		return fmt.Errorf("checking local image store after load: %w", err)
	}
	if !ok {
		return &install.ResolutionError{
			Reason: install.ArtifactMismatch,
			Detail: fmt.Sprintf("archive %q did not contain %q", path, local),
		}
	}

	log.Printf("loaded image %q from archive", local)
	return nil
}

func (r *Resolver) retag(src, local string) error {
	ok, err := r.Runtime.ImageExists(src)
	if err != nil {
		return fmt.Errorf("checking local image store: %w", err)
	}
	if !ok {
		return &install.ResolutionError{Reason: install.SourceImageNotFound, Detail: src}
	}

	// Additive: src keeps its original name.
	if err := r.Runtime.Tag(src, local); err != nil {
		return &install.ResolutionError{Reason: install.RetagFailed, Detail: src, Err: err}
	}

	log.Printf("tagged image %q as %q", src, local)
	return nil
}

func (r *Resolver) pull(registry, tag, local string) error {
	remote := RegistryName(registry, tag)

	log.Printf("pulling image %q...", remote)
	if err := r.Runtime.Pull(remote); err != nil {
		return &install.ResolutionError{Reason: install.RegistryPullFailed, Detail: remote, Err: err}
	}

	if err := r.Runtime.Tag(remote, local); err != nil {
		return &install.ResolutionError{Reason: install.RetagFailed, Detail: remote, Err: err}
	}

	log.Printf("pulled image %q as %q", remote, local)
	return nil
}
