// Package testutil provides test helpers for code that shells out to the
// editor CLI: a helper-process stand-in for the binary, an argument validator
// for the flags profilesync passes, and a recorder for scripted command calls.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
)

// HelperProcessConfig scripts one run of the fake editor process.
type HelperProcessConfig struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	// EchoArgs appends the received arguments, space separated, as a final
	// stdout line.
	EchoArgs bool `json:"echo_args,omitempty"`
	// EchoEnv writes "NAME=value" to stdout for each listed variable.
	EchoEnv []string `json:"echo_env,omitempty"`
}

const (
	envFakeEditor = "PROFILESYNC_FAKE_EDITOR"
	envFakeConfig = "PROFILESYNC_FAKE_EDITOR_CONFIG"
	envFakeArgs   = "PROFILESYNC_FAKE_EDITOR_ARGS"
)

// TestHelperProcess turns the test binary into the fake editor when it was
// started by a CommandFunc command, and returns immediately otherwise. Call
// it from a test function in the package under test:
//
//	func TestHelperProcess(t *testing.T) {
//	    testutil.TestHelperProcess(t)
//	}
func TestHelperProcess(t *testing.T) {
	if os.Getenv(envFakeEditor) != "1" {
		return
	}

	var config HelperProcessConfig
	_ = json.Unmarshal([]byte(os.Getenv(envFakeConfig)), &config)

	fmt.Fprint(os.Stdout, config.Stdout)
	for _, name := range config.EchoEnv {
		fmt.Fprintf(os.Stdout, "%s=%s\n", name, os.Getenv(name))
	}
	if config.EchoArgs {
		fmt.Fprintln(os.Stdout, strings.Join(HelperArgs(os.Environ()), " "))
	}
	fmt.Fprint(os.Stderr, config.Stderr)
	os.Exit(config.ExitCode)
}

// CommandFunc returns a replacement for exec.CommandContext that starts the
// test binary as the fake editor, running the test named testName. The
// command name is dropped and the arguments travel in the environment.
func CommandFunc(t *testing.T, testName string, config HelperProcessConfig) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	t.Helper()

	bin, err := os.Executable()
	if err != nil {
		t.Fatalf("locating test binary: %v", err)
	}
	configJSON, err := json.Marshal(config)
	if err != nil {
		t.Fatalf("encoding helper config: %v", err)
	}

	return func(ctx context.Context, _ string, args ...string) *exec.Cmd {
		argsJSON, _ := json.Marshal(args)
		cmd := exec.CommandContext(ctx, bin, "-test.run=^"+testName+"$")
		cmd.Env = append(os.Environ(),
			envFakeEditor+"=1",
			envFakeConfig+"="+string(configJSON),
			envFakeArgs+"="+string(argsJSON),
		)
		return cmd
	}
}

// HelperArgs returns the editor arguments recorded in a fake editor
// environment, or nil when there are none.
func HelperArgs(env []string) []string {
	for i := len(env) - 1; i >= 0; i-- {
		value, ok := strings.CutPrefix(env[i], envFakeArgs+"=")
		if !ok {
			continue
		}
		var args []string
		if err := json.Unmarshal([]byte(value), &args); err != nil {
			return nil
		}
		return args
	}
	return nil
}
