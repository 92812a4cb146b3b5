package config

const (
	defaultLibraryDir    = "~/music"
	defaultConsumersDir  = "~/music-consumers"
	defaultStagingDir    = "~/.local/share/cadence/staging"
	defaultQuarantineDir = "~/.local/share/cadence/quarantine"
	defaultLogDir        = "~/.local/share/cadence/logs"

	defaultMinConfidence = 0.75
	defaultInFlightLimit = 64

	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 30
	defaultHeartbeatInterval  = 15
	defaultHeartbeatTimeout   = 120

	defaultNotifyRequestTimeout = 10
	defaultRescanTimeoutSeconds = 30

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

func defaultAudioExtensions() []string {
	return []string{".flac", ".mp3", ".m4a", ".ogg", ".opus", ".wav", ".aiff"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir:    defaultLibraryDir,
			ConsumersDir:  defaultConsumersDir,
			StagingDir:    defaultStagingDir,
			QuarantineDir: defaultQuarantineDir,
			LogDir:        defaultLogDir,
		},
		Importer: Importer{
			MinConfidence:   defaultMinConfidence,
			AudioExtensions: defaultAudioExtensions(),
			InFlightLimit:   defaultInFlightLimit,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Downloads:      true,
			Imports:        true,
			Library:        true,
			Errors:         true,
		},
		Rescan: Rescan{
			TimeoutSeconds: defaultRescanTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
