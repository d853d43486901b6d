package config

// Version is the tracker binary version.
// Set at build time via: -ldflags "-X github.com/persistorai/tracker/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
