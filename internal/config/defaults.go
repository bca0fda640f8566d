package config

const (
	defaultDataDir                 = "~/.local/share/segue"
	defaultLogDir                  = "~/.local/share/segue/logs"
	defaultAPIBind                 = "127.0.0.1:7519"
	defaultRemoteTable             = "album_ratings"
	defaultRemoteTimeoutSeconds    = 10
	defaultNavigationMinIntervalMS = 2000
	defaultNotifyRequestTimeout    = 10
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		RemoteCache: RemoteCache{
			Table:          defaultRemoteTable,
			TimeoutSeconds: defaultRemoteTimeoutSeconds,
		},
		Sync: Sync{
			NavigationMinIntervalMS: defaultNavigationMinIntervalMS,
			SearchFallback:          true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			ManualMatch:    true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
