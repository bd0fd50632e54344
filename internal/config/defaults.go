package config

const (
	defaultConfigPath      = "~/.config/lpupload/config.toml"
	defaultInstance        = "production"
	defaultAPIVersion      = "devel"
	defaultApplicationName = "lpupload"
	defaultCredentialsDir  = "~/.launchpadlib/lpupload"
	defaultStateDir        = "~/.local/share/lpupload"
	defaultLedgerFile      = "ledger.db"
	defaultRequestTimeout  = 30
	defaultUploadTimeout   = 1800
	defaultLoginTimeout    = 600
	defaultDescription     = "Uploaded file: {filename}"
	defaultFileType        = "Code Release Tarball"
	defaultSignatureSuffix = ".sig"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Instance roots for the public Launchpad deployments.
var instanceRoots = map[string]struct {
	service string
	web     string
}{
	"production": {service: "https://api.launchpad.net", web: "https://launchpad.net"},
	"staging":    {service: "https://api.staging.launchpad.net", web: "https://staging.launchpad.net"},
	"qastaging":  {service: "https://api.qastaging.launchpad.net", web: "https://qastaging.launchpad.net"},
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Launchpad: Launchpad{
			Instance:        defaultInstance,
			APIVersion:      defaultAPIVersion,
			ApplicationName: defaultApplicationName,
			CredentialsDir:  defaultCredentialsDir,
			RequestTimeout:  defaultRequestTimeout,
			UploadTimeout:   defaultUploadTimeout,
			LoginTimeout:    defaultLoginTimeout,
		},
		Upload: Upload{
			Description:     defaultDescription,
			FileType:        defaultFileType,
			SignatureSuffix: defaultSignatureSuffix,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Ledger: Ledger{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
