package patch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/justyntemme/customDefenderInstall/internal/image"
	"github.com/justyntemme/customDefenderInstall/internal/install"
)

// Anchors are keyed to the layout of the defender install script served by
// the console. They tolerate variable leading whitespace but nothing else:
// if the vendor changes the script these fail and the run aborts.
var (
	// the curl that downloads the install configuration, capturing its -o target
	reConfigFetch = regexp.MustCompile(`^\s*curl\b.*-o\s+(\S*defender\.ya?ml\S*)`)

	// the image download, capturing the marker statement chained onto it
	reImagePull = regexp.MustCompile(`^\s*(?:docker|podman) pull\b.*twistlock/private.*&&\s*(touch\s+\S+)\s*$`)

	// the failure check expected on the line after the download
	reFailCheck = regexp.MustCompile(`\|\||\$\?`)

	// removal of the installer's working directory
	reCleanup = regexp.MustCompile(`^\s*rm -rf\b.*(\$\{?WORK_DIR\}?|\.twistlock)`)

	// every container-launch invocation
	reLaunch = regexp.MustCompile(`^(\s*)((?:docker|podman) run\b)(.*)$`)
)

const (
	RuleInjectTag    = "inject-tag"
	RuleKeepWorkdir  = "keep-workdir"
	RuleSkipDownload = "skip-download"
	RuleCPULimit     = "cpu-limit"
	RuleMemoryLimit  = "memory-limit"
)

// DefaultRules is the static rule table, in application order. Later rules
// never depend on anchors introduced or removed by earlier ones.
var DefaultRules = []Rule{
	{
		ID:      RuleInjectTag,
		Applies: func(r *install.Request) bool { return r.Tag != "" },
		Apply:   injectTag,
	},
	{
		ID:      RuleKeepWorkdir,
		Applies: func(r *install.Request) bool { return r.KeepWorkFiles },
		Apply:   keepWorkdir,
	},
	{
		ID:      RuleSkipDownload,
		Applies: func(r *install.Request) bool { return r.Tag != "" },
		Apply:   skipDownload,
	},
	{
		ID:      RuleCPULimit,
		Applies: func(r *install.Request) bool { return r.Limits.CPUSet != "" },
		Apply: func(in Input, lines []string) ([]string, error) {
			return addLaunchFlag(RuleCPULimit, lines, "--cpuset-cpus="+in.Req.Limits.CPUSet)
		},
	},
	{
		ID:      RuleMemoryLimit,
		Applies: func(r *install.Request) bool { return r.Limits.Memory != "" },
		Apply: func(in Input, lines []string) ([]string, error) {
			return addLaunchFlag(RuleMemoryLimit, lines, "--memory="+in.Req.Limits.Memory)
		},
	},
}

// injectTag pins the version by rewriting the image_tag field of the
// configuration file right after the script downloads it. Nothing else in
// the configuration is touched.
func injectTag(in Input, lines []string) ([]string, error) {
	idx := findLine(lines, reConfigFetch)
	if idx < 0 {
		return nil, &install.AnchorNotFoundError{Rule: RuleInjectTag}
	}

	dest := reConfigFetch.FindStringSubmatch(lines[idx])[1]
	sed := fmt.Sprintf(`%ssed -i 's|^image_tag:.*|image_tag: %s|' %s`,
		indentOf(lines[idx]), image.NormalizeTag(in.Req.Tag), dest)

	return insertAfter(lines, idx, sed), nil
}

// keepWorkdir turns the cleanup statement into a no-op, leaving every other
// line untouched.
func keepWorkdir(in Input, lines []string) ([]string, error) {
	idx := findLine(lines, reCleanup)
	if idx < 0 {
		return nil, &install.AnchorNotFoundError{Rule: RuleKeepWorkdir}
	}

	out := append([]string{}, lines...)
	out[idx] = indentOf(lines[idx]) + ": # work directory retained by defenderctl"
	return out, nil
}

// skipDownload wraps the image download in an existence check. When the
// pinned image is already local the download is skipped and the marker the
// script checks for afterwards is synthesized; otherwise the original
// download and its failure check run unchanged, exactly once.
func skipDownload(in Input, lines []string) ([]string, error) {
	idx := findLine(lines, reImagePull)
	if idx < 0 || idx+1 >= len(lines) || !reFailCheck.MatchString(lines[idx+1]) {
		return nil, &install.AnchorNotFoundError{Rule: RuleSkipDownload}
	}

	var (
		indent  = indentOf(lines[idx])
		marker  = reImagePull.FindStringSubmatch(lines[idx])[1]
		runtime = in.Req.Runtime
	)
	if runtime == "" {
		runtime = "docker"
	}

	wrapped := []string{
		fmt.Sprintf(`%sif %s image inspect "%s" >/dev/null 2>&1; then`, indent, runtime, in.LocalImage),
		indent + "    " + marker,
		indent + "else",
		indent + "    " + strings.TrimSpace(lines[idx]),
		indent + "    " + strings.TrimSpace(lines[idx+1]),
		indent + "fi",
	}

	out := make([]string, 0, len(lines)+4)
	out = append(out, lines[:idx]...)
	out = append(out, wrapped...)
	return append(out, lines[idx+2:]...), nil
}

// addLaunchFlag inserts one runtime flag into every container-launch line.
// Lines already carrying the flag are left alone, so the pass is idempotent
// and composes with the other launch-flag pass in either order.
func addLaunchFlag(rule string, lines []string, flag string) ([]string, error) {
	name := flag[:strings.Index(flag, "=")+1]

	found := false
	out := append([]string{}, lines...)
	for i, line := range out {
		m := reLaunch.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		found = true
		if strings.Contains(line, name) {
			continue // already applied
		}
		out[i] = m[1] + m[2] + " " + flag + m[3]
	}

	if !found {
		return nil, &install.AnchorNotFoundError{Rule: rule}
	}
	return out, nil
}
