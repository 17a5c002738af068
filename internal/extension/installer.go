package extension

import (
	"context"
	"sort"
	"strings"
)

// InstallResult lists what InstallSelected did with each extension.
type InstallResult struct {
	Installed []string `yaml:"installed"`
	Skipped   []string `yaml:"skipped"`
	Failed    []string `yaml:"failed"`
	// Errors maps failed IDs to the failure message.
	Errors map[string]string `yaml:"errors,omitempty"`
}

// Total returns the number of extensions considered.
func (r InstallResult) Total() int {
	return len(r.Installed) + len(r.Skipped) + len(r.Failed)
}

// Progress receives per-extension install events.
type Progress interface {
	Start(label string)
	Success(detail string)
	Skip(detail string)
	Fail(detail string)
}

// Installer installs extensions through a CodeCLI.
type Installer struct {
	CLI      *CodeCLI
	Progress Progress
}

// InstallSelected installs the union of selected and common IDs, in sorted
// order. Extensions already installed (compared case-insensitively) are
// skipped. If the installed list cannot be read every extension is attempted.
// In a dry run nothing is installed and pending IDs count as installed.
func (in *Installer) InstallSelected(ctx context.Context, selected, common []string, dryRun bool) (InstallResult, error) {
	res := InstallResult{Installed: []string{}, Skipped: []string{}, Failed: []string{}}

	ids := Plan(selected, common)
	if len(ids) == 0 {
		return res, nil
	}

	installed, err := in.CLI.ListInstalled(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		installed = map[string]bool{}
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		in.start(id)

		if installed[strings.ToLower(id)] {
			res.Skipped = append(res.Skipped, id)
			in.skip("already installed")
			continue
		}
		if dryRun {
			res.Installed = append(res.Installed, id)
			in.success("dry run")
			continue
		}
		if err := in.CLI.Install(ctx, id); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed = append(res.Failed, id)
			if res.Errors == nil {
				res.Errors = make(map[string]string)
			}
			res.Errors[id] = err.Error()
			in.fail(err.Error())
			continue
		}
		res.Installed = append(res.Installed, id)
		in.success("")
	}
	return res, nil
}

// Plan returns the sorted IDs InstallSelected would consider. IDs differing
// only in case count once; the first spelling wins.
func Plan(selected, common []string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, group := range [][]string{selected, common} {
		for _, id := range group {
			id = strings.TrimSpace(id)
			key := strings.ToLower(id)
			if id != "" && !seen[key] {
				seen[key] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids
}

func (in *Installer) start(id string) {
	if in.Progress != nil {
		in.Progress.Start(id)
	}
}

func (in *Installer) success(detail string) {
	if in.Progress != nil {
		in.Progress.Success(detail)
	}
}

func (in *Installer) skip(detail string) {
	if in.Progress != nil {
		in.Progress.Skip(detail)
	}
}

func (in *Installer) fail(detail string) {
	if in.Progress != nil {
		in.Progress.Fail(detail)
	}
}
