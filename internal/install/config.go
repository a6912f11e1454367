package install

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig supplies defaults for values that rarely change between runs.
// Flags and environment variables always win over the file.
type FileConfig struct {
	Console     string `toml:"console"`
	API         string `toml:"api"`
	Token       string `toml:"token"`
	Runtime     string `toml:"runtime"`
	Fingerprint string `toml:"fingerprint"`
}

// LoadFileConfig reads the optional config file. A missing file is not an
// error - it just means there are no defaults.
func LoadFileConfig(path string) (*FileConfig, error) {
	conf := &FileConfig{}
	_, err := toml.DecodeFile(path, conf)
	if os.IsNotExist(err) {
		return conf, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decoding config file %q: %w", path, err)
	}
	return conf, nil
}
