package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/openrange/elkhorn/errors"
)

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var config Config
	// Unmarshal of pure defaults cannot fail; guard anyway.
	if err := v.Unmarshal(&config); err != nil {
		panic(err)
	}
	return &config
}

// WriteDefault renders the default configuration as TOML at path.
// Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Newf("config file already exists: %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create config directory %s", dir)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create config file %s", path)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(Default()); err != nil {
		return errors.Wrapf(err, "encode config to %s", path)
	}
	return nil
}
