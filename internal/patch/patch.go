// Package patch rewrites the vendor-supplied installer script in memory.
// The patcher is a pure function from one script body to another and never
// touches the filesystem. Rules fail closed: a missing anchor aborts the run
// instead of letting an unpatched installer through.
package patch

import (
	"regexp"
	"strings"

	"github.com/justyntemme/customDefenderInstall/internal/install"
)

// Input carries everything a rule may substitute into the script.
type Input struct {
	Req        *install.Request
	LocalImage string // deterministic local image name, set when a tag is pinned
}

// Rule is one textual rewrite. Rules run in declared order; a rule whose
// Applies predicate is false is skipped entirely.
type Rule struct {
	ID      string
	Applies func(*install.Request) bool
	Apply   func(Input, []string) ([]string, error)
}

type Patcher struct {
	Rules []Rule
}

func New() *Patcher {
	return &Patcher{Rules: DefaultRules}
}

// Patch applies every applicable rule to the script body, in order.
func (p *Patcher) Patch(body []byte, req *install.Request, localImage string) ([]byte, error) {
	in := Input{Req: req, LocalImage: localImage}
	lines := strings.Split(string(body), "\n")

	for _, rule := range p.Rules {
		if !rule.Applies(req) {
			continue
		}
		var err error
		lines, err = rule.Apply(in, lines)
		if err != nil {
			return nil, err
		}
	}

	return []byte(strings.Join(lines, "\n")), nil
}

func findLine(lines []string, re *regexp.Regexp) int {
	for i, line := range lines {
		if re.MatchString(line) {
			return i
		}
	}
	return -1
}

var reIndent = regexp.MustCompile(`^\s*`)

func indentOf(line string) string {
	return reIndent.FindString(line)
}

func insertAfter(lines []string, idx int, inserted string) []string {
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:idx+1]...)
	out = append(out, inserted)
	return append(out, lines[idx+1:]...)
}
