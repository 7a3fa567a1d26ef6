package system

import (
	"os"
	"sort"
	"strings"
)

// sensitiveMarkers flag environment variables that must not leak into
// sandboxed processes.
var sensitiveMarkers = []string{
	"TOKEN",
	"SECRET",
	"PASSWORD",
	"PASSWD",
	"API_KEY",
	"APIKEY",
	"PRIVATE_KEY",
	"CREDENTIAL",
}

// IsSensitiveEnv reports whether an environment variable name looks like
// it carries a credential.
func IsSensitiveEnv(name string) bool {
	upper := strings.ToUpper(name)
	for _, marker := range sensitiveMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// SafeEnviron returns the current environment without credential-like
// variables, with extra applied on top. Entries in extra are never
// scrubbed since the caller asked for them explicitly.
func SafeEnviron(extra map[string]string) []string {
	return ScrubEnv(os.Environ(), extra)
}

// ScrubEnv filters base (KEY=VALUE entries) and overlays extra.
// The result is sorted by key.
func ScrubEnv(base []string, extra map[string]string) []string {
	merged := make(map[string]string, len(base)+len(extra))
	for _, kv := range base {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" || IsSensitiveEnv(key) {
			continue
		}
		merged[key] = value
	}
	for key, value := range extra {
		merged[key] = value
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, key := range keys {
		env = append(env, key+"="+merged[key])
	}
	return env
}
