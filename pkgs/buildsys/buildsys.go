package buildsys

import "context"

// BuildSystem captures what the installer needs from a wheel build tool.
// Implementations add their own option setters.
type BuildSystem interface {
	// Bootstrap makes sure the tool itself is installed at version.
	// An empty version leaves the tool as found on PATH.
	Bootstrap(ctx context.Context, version string) error

	// Env sets an environment variable for the tool's commands.
	Env(key, val string)

	// Build produces installable artifacts.
	Build(ctx context.Context, args ...string) error

	// Where artifacts land.
	OutputDir() string
}

// Runner starts one external command and waits for it.
type Runner interface {
	RunEnv(ctx context.Context, env map[string]string, name string, args ...string) error
}
