package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckSchemaCompatibility checks whether code expecting schema version supported can use a
// database stamped with version stored.
// Returns nil if compatible, error with details if not.
//
// Compatibility Rules:
//   - Major versions must match exactly
//   - The stored minor version must not be newer than the supported one
//   - Patch versions can differ
//
// Examples:
//   - Supported 1.2.0, Stored 1.2.3 -> OK (patch differs)
//   - Supported 1.2.0, Stored 1.1.0 -> OK (older additive layout)
//   - Supported 1.2.0, Stored 1.3.0 -> ERROR (written by a newer release)
//   - Supported 2.0.0, Stored 1.2.0 -> ERROR (major differs)
func CheckSchemaCompatibility(supported, stored string) error {
	supported = strings.TrimPrefix(supported, "v")
	stored = strings.TrimPrefix(stored, "v")

	supportedSemver, err := semver.NewVersion(supported)
	if err != nil {
		return fmt.Errorf("invalid supported schema version '%s': %w", supported, err)
	}

	storedSemver, err := semver.NewVersion(stored)
	if err != nil {
		return fmt.Errorf("invalid stored schema version '%s': %w", stored, err)
	}

	if supportedSemver.Major() != storedSemver.Major() {
		return fmt.Errorf("major version mismatch: database schema is %d.x.x but %d.x.x is supported",
			storedSemver.Major(), supportedSemver.Major())
	}

	if storedSemver.Minor() > supportedSemver.Minor() {
		return fmt.Errorf("database schema %d.%d.x is newer than the supported %d.%d.x",
			storedSemver.Major(), storedSemver.Minor(),
			supportedSemver.Major(), supportedSemver.Minor())
	}

	return nil
}
