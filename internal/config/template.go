package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const starterHeader = `# tally configuration.
# Set remote.owner and remote.repo to enable mirror sync, and export
# TALLY_TOKEN (preferred over storing the token here).
`

// WriteStarter writes a starter configuration file with defaults to
// path. It refuses to overwrite an existing file.
func WriteStarter(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	out, err := yaml.Marshal(defaults())
	if err != nil {
		return fmt.Errorf("rendering starter config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory %s: %w", dir, err)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(starterHeader)
	buf.Write(out)

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}
