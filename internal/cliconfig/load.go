package cliconfig

// Load layers file and environment values over base and validates the result.
// base already carries defaults and any flag values; changed names the flags
// the user set, which neither layer may override. A missing file is skipped.
func Load(base Config, path string, changed map[string]bool) (Config, error) {
	cfg := base

	if path != "" && FileExists(path) {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return Config{}, err
		}
		if err := ApplyFileConfig(&cfg, fc, changed); err != nil {
			return Config{}, err
		}
	}

	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
