package workspace

import (
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/errors"
)

// Kind selects which workspace variant to construct.
type Kind string

const (
	KindHost   Kind = "host"
	KindDocker Kind = "docker"
	KindRemote Kind = "remote"

	// Recognized for compatibility; no constructor ships for them.
	KindFlyio Kind = "flyio"
	KindE2B   Kind = "e2b"
)

var kindDescriptions = map[Kind]string{
	KindHost:   "Local process groups in a private directory",
	KindDocker: "A container started from an image",
	KindRemote: "A sandbox on a remote sandbox service",
	KindFlyio:  "Fly.io machine (not implemented)",
	KindE2B:    "E2B sandbox (not implemented)",
}

// AllKinds lists every recognized kind in display order.
func AllKinds() []Kind {
	return []Kind{KindHost, KindDocker, KindRemote, KindFlyio, KindE2B}
}

// ParseKind maps a case-insensitive name to a Kind. Unknown names fail
// with an unsupported-environment error naming the input.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := kindDescriptions[k]; ok {
		return k, nil
	}
	return "", errors.UnsupportedEnvironment(name)
}

func (k Kind) String() string {
	return string(k)
}

// Description is a one-line summary for listings.
func (k Kind) Description() string {
	if d, ok := kindDescriptions[k]; ok {
		return d
	}
	return "unknown"
}
