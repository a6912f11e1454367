package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justyntemme/customDefenderInstall/internal/console"
	"github.com/justyntemme/customDefenderInstall/internal/image"
	"github.com/justyntemme/customDefenderInstall/internal/install"
	"github.com/justyntemme/customDefenderInstall/internal/launch"
	"github.com/justyntemme/customDefenderInstall/internal/patch"
)

func main() {
	app := &cli.App{
		Name:        "defenderctl",
		Usage:       "install the defender with a pinned image version",
		ArgsUsage:   "[-- args forwarded verbatim to the installer]",
		Description: "Arguments after \"--\" are not interpreted; they are forwarded to the installer verbatim and in order.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "tag",
				Usage: "pin the defender image `version`, e.g. _32_01_128",
			},
			&cli.StringFlag{
				Name:  "image",
				Usage: "`path` to an image archive to load the pinned version from",
			},
			&cli.StringFlag{
				Name:  "source-image",
				Usage: "existing local image `reference` to re-tag as the pinned version",
			},
			&cli.StringFlag{
				Name:  "registry",
				Usage: "registry `url` to pull the pinned version from",
			},
			&cli.BoolFlag{
				Name:  "keep-files",
				Usage: "retain the installer's working directory after it finishes",
			},
			&cli.StringFlag{
				Name:  "cpu-limit",
				Usage: "cpuset `spec` forwarded into the defender container launch",
			},
			&cli.StringFlag{
				Name:  "memory-limit",
				Usage: "memory limit `spec` forwarded into the defender container launch",
			},
			&cli.StringFlag{
				Name:  "runtime",
				Usage: "container runtime binary",
				Value: "docker",
			},
			&cli.StringFlag{
				Name:  "fingerprint",
				Usage: "pin the console's TLS certificate by its sha256 `fingerprint`",
			},
			&cli.BoolFlag{
				Name:  "insecure",
				Usage: "skip TLS verification of the console",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "`path` to an optional defaults file",
				Value: "defenderctl.toml",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "timeout for the script download",
				Value: time.Minute,
			},
			&cli.StringFlag{
				Name:    "console",
				Usage:   "console `address` passed to the installer via -c",
				EnvVars: []string{install.EnvConsole},
			},
			&cli.StringFlag{
				Name:    "api",
				Usage:   "console API base `url`",
				EnvVars: []string{install.EnvAPI},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "bearer `credential` for the console API",
				EnvVars: []string{install.EnvToken},
			},
		},
		Action: run,
	}

	err := app.Run(os.Args)
	if err == nil {
		return
	}

	fmt.Fprint(os.Stderr, getErrorString(err))
	os.Exit(getExitCode(err))
}

func run(c *cli.Context) error {
	req, err := buildRequest(c)
	if err != nil {
		return err
	}

	orch := &install.Orchestrator{
		Resolver: &image.Resolver{Runtime: &image.CLIRuntime{Bin: req.Runtime}},
		Fetcher: console.NewClient(req.APIBase, req.Token, console.Options{
			Fingerprint: req.Fingerprint,
			Insecure:    req.Insecure,
			Timeout:     c.Duration("timeout"),
		}),
		Patcher:  patch.New(),
		Launcher: launch.New(),
	}

	result, err := orch.Run(c.Context, req)
	if err != nil {
		return err
	}
	if result.InstalledVersion != "" {
		fmt.Printf("installed defender %s\n", result.InstalledVersion)
	}
	return nil
}

// buildRequest merges the config file with flags and env vars (flags and env
// win) into one immutable request. Validation itself happens inside the
// orchestrator before anything else runs.
func buildRequest(c *cli.Context) (*install.Request, error) {
	conf, err := install.LoadFileConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	source, err := imageSource(c)
	if err != nil {
		return nil, err
	}

	req := &install.Request{
		Console:       firstOf(c.String("console"), conf.Console),
		APIBase:       firstOf(c.String("api"), conf.API),
		Token:         firstOf(c.String("token"), conf.Token),
		Tag:           c.String("tag"),
		Source:        source,
		KeepWorkFiles: c.Bool("keep-files"),
		Limits: install.ResourceLimits{
			CPUSet: c.String("cpu-limit"),
			Memory: c.String("memory-limit"),
		},
		Runtime:     firstOf(c.String("runtime"), conf.Runtime),
		Fingerprint: firstOf(c.String("fingerprint"), conf.Fingerprint),
		Insecure:    c.Bool("insecure"),
		Passthrough: c.Args().Slice(),
	}
	return req, nil
}

func imageSource(c *cli.Context) (install.ImageSource, error) {
	sources := []install.ImageSource{}
	if v := c.String("image"); v != "" {
		sources = append(sources, install.ImageSource{Kind: install.SourceArchive, Value: v})
	}
	if v := c.String("source-image"); v != "" {
		sources = append(sources, install.ImageSource{Kind: install.SourceExistingImage, Value: v})
	}
	if v := c.String("registry"); v != "" {
		sources = append(sources, install.ImageSource{Kind: install.SourceRegistry, Value: v})
	}

	switch len(sources) {
	case 0:
		return install.ImageSource{}, nil
	case 1:
		return sources[0], nil
	}
	return install.ImageSource{}, &install.ConfigurationError{
		Reason: "--image, --source-image and --registry are mutually exclusive",
	}
}

func firstOf(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func getErrorString(err error) string {
	uc := &console.ErrUntrustedConsole{}
	if errors.As(err, &uc) {
		return fmt.Sprintf("The certificate presented by the console is not trusted. To pin it, re-run with:\n\n  --fingerprint %s\n\n", uc.Fingerprint)
	}

	return fmt.Sprintf("error: %s\n", err)
}

func getExitCode(err error) int {
	le := &install.LaunchError{}
	if errors.As(err, &le) {
		return le.ExitCode // relay the installer's own exit code unchanged
	}
	return 1
}
