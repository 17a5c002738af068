package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/profilesync/profilesync/internal/extension"
	"github.com/profilesync/profilesync/internal/output"
	"github.com/profilesync/profilesync/internal/profile"
)

// prompter reads answers line by line. One prompter is shared by all prompts
// of a command so buffered input is not lost between questions.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask prints question and returns the trimmed answer. End of input counts
// as an empty answer.
func (p *prompter) ask(question string) (string, error) {
	fmt.Fprintf(p.out, "%s ", question)
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// parseNumbers parses a comma separated list of 1-based choices. Numbers out
// of range are reported through warn and skipped.
func parseNumbers(input string, limit int, warn func(int)) ([]int, error) {
	var out []int
	for _, field := range strings.Split(input, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", field)
		}
		if n < 1 || n > limit {
			warn(n)
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// selectExtensions lets the user pick extensions from the selectable rows.
// Empty input cancels the selection. Common extensions are not listed; they
// are always installed.
func (p *prompter) selectExtensions(rows []extension.Row) (ids []string, cancelled bool, err error) {
	cyan := color.New(color.FgCyan).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(p.out, "\n%s\n", cyan("Select extensions to install"))
	output.PrintWarning(p.out, "extensions of the common profile are always included")
	if len(rows) == 0 {
		output.PrintInfo(p.out, "no selectable extensions")
		return []string{}, false, nil
	}
	for i, r := range rows {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, r.ID)
		if r.Explanation != "" {
			fmt.Fprintf(p.out, "     %s\n", dim(r.Explanation))
		}
	}

	answer, err := p.ask("\nNumbers to install (comma separated, 'all' for everything, Enter to cancel):")
	if err != nil {
		return nil, false, err
	}
	switch {
	case answer == "":
		return nil, true, nil
	case strings.EqualFold(answer, "all"):
		for _, r := range rows {
			ids = append(ids, r.ID)
		}
		return ids, false, nil
	}

	nums, err := parseNumbers(answer, len(rows), func(n int) {
		output.PrintWarning(p.out, "skipping invalid number %d", n)
	})
	if err != nil {
		output.PrintWarning(p.out, "%v: enter numbers separated by commas", err)
		return []string{}, false, nil
	}
	ids = []string{}
	for _, n := range nums {
		ids = append(ids, rows[n-1].ID)
	}
	return ids, false, nil
}

// selectProfiles lets the user pick profiles to apply on top of the common
// profile, in the order given. Enter or 0 selects none.
func (p *prompter) selectProfiles(repo *profile.Repository, names []string) ([]string, error) {
	cyan := color.New(color.FgCyan).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(p.out, "\n%s\n", cyan("Select profiles to apply"))
	fmt.Fprintf(p.out, "  0. %s\n", dim("(common profile only)"))
	for i, name := range names {
		s, err := repo.Summary(name)
		if err != nil {
			fmt.Fprintf(p.out, "  %d. %s  %s\n", i+1, name, dim("(unreadable settings)"))
			continue
		}
		fmt.Fprintf(p.out, "  %d. %-20s %s\n", i+1, name,
			dim(fmt.Sprintf("theme: %s, icons: %s", s.ColorTheme, s.IconTheme)))
	}

	for {
		answer, err := p.ask("\nProfile numbers (comma separated, later wins; Enter for common only):")
		if err != nil {
			return nil, err
		}
		if answer == "" || answer == "0" {
			return nil, nil
		}
		nums, err := parseNumbers(answer, len(names), func(n int) {
			output.PrintWarning(p.out, "skipping invalid number %d", n)
		})
		if err != nil {
			output.PrintWarning(p.out, "%v", err)
			continue
		}
		var selected []string
		for _, n := range nums {
			selected = append(selected, names[n-1])
		}
		return selected, nil
	}
}

// askAlias prompts until a valid profile alias is entered. An empty answer
// aborts.
func (p *prompter) askAlias() (string, error) {
	for {
		alias, err := p.ask("Profile alias (lowercase letters, digits, hyphens):")
		if err != nil {
			return "", err
		}
		if alias == "" {
			return "", errors.New("no alias given")
		}
		if err := profile.ValidateAlias(alias); err != nil {
			output.PrintWarning(p.out, "%v", err)
			continue
		}
		return alias, nil
	}
}

// confirm asks a yes/no question; the default is no.
func (p *prompter) confirm(question string) (bool, error) {
	answer, err := p.ask(question + " [y/N]:")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}
