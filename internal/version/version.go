package version

// AppVersion is replaced at release time via
// -ldflags "-X distserve/internal/version.AppVersion=...".
var AppVersion = "0.1.0-dev"
