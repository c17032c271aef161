package config

import "fmt"

// Variables overridden at build time via -ldflags "-X ...".
var (
	// ModuleName is the go module path of this service.
	ModuleName = "github/chapool/go-chapay"
	// Commit is the git commit hash the binary was built from.
	Commit = "> 40 chars hash"
	// BuildDate is an RFC3339 formatted build timestamp.
	BuildDate = "1970-01-01T00:00:00+00:00"
)

// GetFormattedBuildArgs returns "<module> @ <commit> (<build date>)".
func GetFormattedBuildArgs() string {
	return fmt.Sprintf("%v @ %v (%v)", ModuleName, Commit, BuildDate)
}
