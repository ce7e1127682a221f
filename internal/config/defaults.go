package config

const (
	defaultConfigPath    = "~/.config/topeology/config.toml"
	defaultDataDir       = "~/.local/share/topeology"
	defaultLogDir        = "~/.local/share/topeology/logs"
	defaultPositiveRatio = 0.6
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
)

// Comparison modes.
const (
	ModeMutant   = "mutant"
	ModeWildtype = "wildtype"
)

// Scoring backends.
const (
	BackendAuto     = "auto"
	BackendPortable = "portable"
	BackendNative   = "native"
)

// DefaultEpitopeLengths lists the class I epitope lengths compared by default.
func DefaultEpitopeLengths() []int {
	return []int{8, 9, 10, 11}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Curation: Curation{
			PositiveRatio: defaultPositiveRatio,
		},
		Comparison: Comparison{
			EpitopeLengths: DefaultEpitopeLengths(),
			Mode:           ModeMutant,
		},
		Scoring: Scoring{
			Backend: BackendAuto,
		},
		Store: Store{
			CacheReferenceSets: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
