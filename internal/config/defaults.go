package config

const (
	defaultLogDir         = "~/.local/share/credence/logs"
	defaultCacheDir       = "~/.cache/credence"
	defaultAnchorsURL     = "https://contentcredentials.org/trust/anchors.pem"
	defaultAllowedListURL = "https://contentcredentials.org/trust/allowed.sha256.txt"
	defaultPolicyURL      = "https://contentcredentials.org/trust/store.cfg"
	defaultFetchTimeout   = 30
	defaultReaderBinary   = "c2patool"
	defaultReaderTimeout  = 60
	defaultRuntime        = "python3"
	defaultScript         = "~/.local/share/credence/scripts/trustmark-decode.py"
	defaultModelVariant   = "P"
	defaultDecodeTimeout  = 120
	defaultMaxOutputKiB   = 1024
	defaultDownloadTime   = 30
	defaultDownloadMaxMiB = 256
	defaultHistoryPath    = "~/.local/share/credence/history.db"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			CacheDir: defaultCacheDir,
		},
		Trust: Trust{
			AnchorsURL:           defaultAnchorsURL,
			AllowedListURL:       defaultAllowedListURL,
			PolicyURL:            defaultPolicyURL,
			FetchTimeout:         defaultFetchTimeout,
			VerifyOnRead:         true,
			VerifyTimestampTrust: true,
			AllowRemoteManifests: false,
			StrictV1:             false,
		},
		Reader: Reader{
			Binary:       defaultReaderBinary,
			Timeout:      defaultReaderTimeout,
			MaxOutputKiB: defaultMaxOutputKiB,
		},
		Watermark: Watermark{
			Runtime:      defaultRuntime,
			Script:       defaultScript,
			ModelVariant: defaultModelVariant,
			Timeout:      defaultDecodeTimeout,
			MaxOutputKiB: defaultMaxOutputKiB,
		},
		Download: Download{
			Timeout: defaultDownloadTime,
			MaxMiB:  defaultDownloadMaxMiB,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
