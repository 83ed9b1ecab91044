package config

import "os"

// Environment variables read once at start-up.
const (
	EnvHost    = "SFTP_APPEND_HOST"
	EnvUser    = "SFTP_APPEND_USER"
	EnvBaseDir = "SFTP_APPEND_BASE_DIR"
	EnvRecents = "SFTP_APPEND_RECENTS"
)

// Defaults pre-fills the connection form.
type Defaults struct {
	Host        string
	User        string
	BaseDir     string
	RecentsPath string
}

// DefaultsFromEnv returns the form defaults from the environment, falling
// back to the current user name and DefaultPath for the recents file.
func DefaultsFromEnv() Defaults {
	d := Defaults{
		Host:        os.Getenv(EnvHost),
		User:        os.Getenv(EnvUser),
		BaseDir:     os.Getenv(EnvBaseDir),
		RecentsPath: os.Getenv(EnvRecents),
	}
	if d.User == "" {
		d.User = os.Getenv("USER")
	}
	if d.RecentsPath == "" {
		d.RecentsPath = DefaultPath()
	}
	return d
}
