package config

const (
	defaultConfigPath     = "~/.config/transformrecorder/config.toml"
	defaultOutputDir      = "~/.local/share/transformrecorder/SavedData"
	defaultLogDir         = "~/.local/share/transformrecorder/logs"
	defaultFilePrefix     = "TransformRecorder"
	defaultEventQueueSize = 256
	defaultCatalogFile    = "catalog.db"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"

	// OutputDirEnv overrides paths.output_dir when the file does not set it.
	OutputDirEnv = "TRANSFORMRECORDER_OUTPUT_DIR"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Recorder: Recorder{
			PersistOnStop:  true,
			FilePrefix:     defaultFilePrefix,
			EventQueueSize: defaultEventQueueSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
