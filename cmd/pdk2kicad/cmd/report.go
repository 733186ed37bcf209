package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
	"github.com/OpenTraceLab/pdk2kicad/pkg/pipeline"
)

// writeReport stores the run summary as JSON when path ends in .json and
// as YAML otherwise.
func writeReport(path string, sum *pipeline.Summary) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(sum, "", "  ")
	} else {
		data, err = yaml.Marshal(sum)
	}
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write report %s", path)
	}
	return nil
}
