package main

import (
	"bytes"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/fieldmap/internal/config"
)

// batchManifest lists the fields a batch run builds. Unset job fields fall
// back to the field config.
type batchManifest struct {
	Workers int           `yaml:"workers"`
	Jobs    []manifestJob `yaml:"jobs"`
}

type manifestJob struct {
	Name       string   `yaml:"name"`
	Input      string   `yaml:"input"`
	Sheet      string   `yaml:"sheet"`
	Attribute  string   `yaml:"attribute"`
	Method     string   `yaml:"method"`
	Resolution float64  `yaml:"resolution"`
	ULC        string   `yaml:"ulc"`
	LRC        string   `yaml:"lrc"`
	NoData     *float64 `yaml:"nodata"`
	CRS        string   `yaml:"crs"`
	Classes    int      `yaml:"classes"`
}

func loadManifest(path string) (*batchManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "manifest: read")
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var m batchManifest
	if err := dec.Decode(&m); err != nil {
		return nil, eris.Wrapf(err, "manifest: parse %s", path)
	}

	if len(m.Jobs) == 0 {
		return nil, eris.Errorf("manifest: %s has no jobs", path)
	}
	seen := make(map[string]bool, len(m.Jobs))
	for i := range m.Jobs {
		j := &m.Jobs[i]
		if j.Input == "" {
			return nil, eris.Errorf("manifest: job %d has no input", i+1)
		}
		if j.Name == "" {
			j.Name = datasetName(j.Input)
		}
		if seen[j.Name] {
			return nil, eris.Errorf("manifest: duplicate job name %q", j.Name)
		}
		seen[j.Name] = true
	}
	return &m, nil
}

// fieldConfig overlays the job's settings on base.
func (j manifestJob) fieldConfig(base config.FieldConfig) config.FieldConfig {
	fc := base
	if j.Attribute != "" {
		fc.Attribute = j.Attribute
	}
	if j.Method != "" {
		fc.Method = j.Method
	}
	if j.Resolution != 0 {
		fc.Resolution = j.Resolution
	}
	if j.ULC != "" || j.LRC != "" {
		fc.ULC, fc.LRC = j.ULC, j.LRC
	}
	if j.NoData != nil {
		fc.NoData = *j.NoData
	}
	if j.CRS != "" {
		fc.CRS = j.CRS
	}
	return fc
}
