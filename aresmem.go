// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package aresmem is a read-only query service over the ARES memory dataset.
package aresmem

import (
	"github.com/maloquacious/semver"
)

var (
	version = semver.Version{
		Major: 1,
		Minor: 1,
		Patch: 0,
		Build: semver.Commit(),
	}
)

func Version() semver.Version {
	return version
}
