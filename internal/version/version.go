package version

// Version is the current version of the klines command.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/argo-klines/internal/version.Version=1.2.3"
// The default value "main" indicates a development build.
var Version = "main"

// SchemaVersion is the version of the relational layout written by the DuckDB store.
// Bump the minor version for additive changes and the major version for breaking ones.
const SchemaVersion = "1.0.0"

// GetVersion returns the current version of the command.
func GetVersion() string {
	return Version
}
