package workspace

import (
	"maps"
	"sort"
)

// Options are the construction parameters shared by all variants.
// Variants ignore options they do not support.
type Options struct {
	// Image is the container image (docker) or template (remote).
	Image string
	Env   map[string]string
	// WorkingDir is adopted as-is by host workspaces and used as the
	// container working directory by docker workspaces.
	WorkingDir string
	Labels     map[string]string
	// SourceRepo makes a host workspace check out an isolated copy of
	// the repository instead of starting from an empty directory.
	SourceRepo string
}

// Option configures Options.
type Option func(*Options)

// NewOptions applies opts to a zero Options.
func NewOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithImage(image string) Option {
	return func(o *Options) { o.Image = image }
}

// WithEnv merges env into the workspace environment.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if len(env) == 0 {
			return
		}
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}
		maps.Copy(o.Env, env)
	}
}

func WithEnvVar(key, value string) Option {
	return WithEnv(map[string]string{key: value})
}

func WithWorkingDir(dir string) Option {
	return func(o *Options) { o.WorkingDir = dir }
}

func WithLabel(key, value string) Option {
	return func(o *Options) {
		if o.Labels == nil {
			o.Labels = make(map[string]string)
		}
		o.Labels[key] = value
	}
}

func WithSourceRepo(path string) Option {
	return func(o *Options) { o.SourceRepo = path }
}

// envList renders env as sorted KEY=VALUE entries.
func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

// mergeEnv returns base overlaid with extra without modifying either.
func mergeEnv(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	maps.Copy(out, base)
	maps.Copy(out, extra)
	return out
}
