package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/qiniu/x/gsh"
	"github.com/qiniu/x/log"
)

// Runner starts external tools one at a time. Commands inherit the
// runner's stdio and are dispatched through gsh.Sys so they can be
// intercepted.
type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// DryRun prints command lines to Stdout instead of running them.
	DryRun bool

	env map[string]string
}

// New creates a Runner wired to the process stdio.
func New() *Runner {
	return &Runner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		env:    map[string]string{},
	}
}

// Env sets an environment override applied to every command.
func (r *Runner) Env(key, val string) {
	if r.env == nil {
		r.env = map[string]string{}
	}
	r.env[key] = val
}

// Run runs name with args and waits for it to exit.
func (r *Runner) Run(ctx context.Context, name string, args ...string) error {
	return r.RunEnv(ctx, nil, name, args...)
}

// RunEnv is like Run with extra environment overrides for this command only.
func (r *Runner) RunEnv(ctx context.Context, env map[string]string, name string, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line := CommandLine(name, args...)
	if r.DryRun {
		log.Debugf("dry-run: %s", line)
		_, err := fmt.Fprintln(r.Stdout, line)
		return err
	}
	log.Debugf("exec: %s", line)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if len(r.env) > 0 || len(env) > 0 {
		cmd.Env = mergeEnv(gsh.Sys.Environ(), r.env, env)
	}
	if err := gsh.Sys.Run(cmd); err != nil {
		return fmt.Errorf("%s: %w", line, err)
	}
	return nil
}

// CommandLine renders a command for logs, quoting arguments that need it.
func CommandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, s := range append([]string{name}, args...) {
		if s == "" || strings.ContainsAny(s, " \t\n\"'\\$") {
			s = strconv.Quote(s)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

func mergeEnv(base []string, overrides ...map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for _, override := range overrides {
		for k, v := range override {
			envMap[k] = v
		}
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
