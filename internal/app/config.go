package app

// Settings holds everything an App instance needs to run. Environment
// variables override the zero or CLI-provided values at construction time.
type Settings struct {
	// RunPath points at an .hcl run-description file or directory. Empty
	// means defaults: default parameters and the standard pipeline.
	RunPath string `env:"GALAXEVO_RUN_PATH"`

	LogFormat string `env:"GALAXEVO_LOG_FORMAT"`
	LogLevel  string `env:"GALAXEVO_LOG_LEVEL"`
}
