package config

const (
	defaultConfigPath  = "~/.config/kaldiark/config.toml"
	defaultDuplicates  = "reject"
	defaultPrecision   = -1
	defaultStorePath   = "~/.local/share/kaldiark/archives.db"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
	defaultLogFileName = "kaldiark.log"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Reader: Reader{
			Duplicates: defaultDuplicates,
		},
		Writer: Writer{
			Precision: defaultPrecision,
		},
		Store: Store{
			Path: defaultStorePath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// LogFileName is the file created inside logging.dir when it is set.
func LogFileName() string {
	return defaultLogFileName
}
