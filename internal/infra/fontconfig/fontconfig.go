// Package fontconfig inspects the fonts installed on the host through fc-list.
// The result is advisory: the browser's own answer (see render.FontProber) is
// what decides whether a font is usable.
package fontconfig

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
	"sort"
	"strings"
)

// ErrUnavailable means fc-list is not installed.
var ErrUnavailable = errors.New("fc-list not available")

// Lister runs fc-list with args and returns its output. Tests replace it.
type Lister func(ctx context.Context, args ...string) ([]byte, error)

// ExecLister runs the fc-list binary found on PATH.
func ExecLister(ctx context.Context, args ...string) ([]byte, error) {
	path, err := exec.LookPath("fc-list")
	if err != nil {
		return nil, ErrUnavailable
	}
	return exec.CommandContext(ctx, path, args...).Output()
}

// Families returns the sorted, de-duplicated family names known to fontconfig.
func Families(ctx context.Context, list Lister) ([]string, error) {
	out, err := list(ctx, ":", "family")
	if err != nil {
		return nil, err
	}
	return parseFamilies(out), nil
}

// Installed reports whether family is among the installed families, ignoring case.
func Installed(ctx context.Context, list Lister, family string) (bool, error) {
	families, err := Families(ctx, list)
	if err != nil {
		return false, err
	}
	for _, f := range families {
		if strings.EqualFold(f, family) {
			return true, nil
		}
	}
	return false, nil
}

// parseFamilies splits fc-list output. A line may carry several comma
// separated names, e.g. localized aliases.
func parseFamilies(out []byte) []string {
	seen := map[string]bool{}
	var families []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		for _, name := range strings.Split(sc.Text(), ",") {
			name = strings.TrimSpace(strings.ReplaceAll(name, `\-`, "-"))
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			families = append(families, name)
		}
	}
	sort.Strings(families)
	return families
}
