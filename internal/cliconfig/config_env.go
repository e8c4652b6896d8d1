package cliconfig

import "os"

// Environment variable names. The first three keep the names used by
// existing deployments.
const (
	EnvFolderPath  = "FILES_FOLDER_PATH"
	EnvReceiveURL  = "FILE_RECEIVE_URL"
	EnvBulk        = "SEND_FILES_BULK"
	EnvPaceDelay   = "DROPSHIP_PACE_DELAY"
	EnvHTTPTimeout = "DROPSHIP_HTTP_TIMEOUT"
	EnvStoreDriver = "DROPSHIP_STORE_DRIVER"
	EnvStorePath   = "DROPSHIP_STORE_PATH"
	EnvStateDir    = "DROPSHIP_STATE_DIR"
	EnvListenAddr  = "DROPSHIP_LISTEN_ADDR"
	EnvLogLevel    = "DROPSHIP_LOG_LEVEL"
)

// ApplyEnvConfig applies configuration from environment variables.
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("folder", os.Getenv(EnvFolderPath), &cfg.FolderPath)
	s.setString("receive-url", os.Getenv(EnvReceiveURL), &cfg.ReceiveURL)
	s.setString("store-driver", os.Getenv(EnvStoreDriver), &cfg.StoreDriver)
	s.setString("store-path", os.Getenv(EnvStorePath), &cfg.StorePath)
	s.setString("state-dir", os.Getenv(EnvStateDir), &cfg.StateDir)
	s.setString("listen", os.Getenv(EnvListenAddr), &cfg.ListenAddr)
	s.setString("log-level", os.Getenv(EnvLogLevel), &cfg.LogLevel)

	if err := s.setDuration("pace", os.Getenv(EnvPaceDelay), &cfg.PaceDelay); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv(EnvHTTPTimeout), &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setBoolFromString("bulk", os.Getenv(EnvBulk), &cfg.Bulk)

	return nil
}
