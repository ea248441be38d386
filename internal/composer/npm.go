package composer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"
)

// PackageJSON is the subset of an npm package.json sake reads. The
// framework ships one to advertise its own version.
type PackageJSON struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// LoadPackageJSON reads package.json at filePath. Returns (nil, nil) when
// the file does not exist.
func LoadPackageJSON(fsys afero.Fs, filePath string) (*PackageJSON, error) {
	data, err := afero.ReadFile(fsys, filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	var p PackageJSON
	if err := json.Unmarshal(jsonc.ToJSON(data), &p); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	return &p, nil
}
