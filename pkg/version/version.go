// Package version provides version information for the pricefeed binary.
package version

// Version is the current version of pricefeed. Overridden at build time with
// -ldflags "-X github.com/StrathCole/pricefeed/pkg/version.Version=...".
var Version = "0.1.0-dev"

// AgentString returns the User-Agent sent by HTTP sources.
// Format: pricefeed/v{version}
func AgentString() string {
	return "pricefeed/v" + Version
}
