package metrics

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/mutker/cpapflow/internal/errors"
)

const (
	artifactExt     = ".json"
	defaultFilePerm = 0o644
	jsonIndent      = "    "
)

// ArtifactPath returns where the record for input is written: "<stem>.json"
// next to input, or in dir when dir is set.
func ArtifactPath(input, dir string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, stem+artifactExt)
}

// WriteArtifact writes rec to path as indented JSON. The file is replaced
// atomically so readers never see a partial record.
func WriteArtifact(path string, rec Record) error {
	errFactory := errors.New()

	if rec.BreathTimes == nil {
		rec.BreathTimes = []float64{}
	}

	data, err := json.MarshalIndent(rec, "", jsonIndent)
	if err != nil {
		return errFactory.Wrap(errors.ErrArtifactWrite, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return errFactory.Wrap(errors.ErrArtifactWrite, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return errFactory.Wrap(errors.ErrArtifactWrite, err)
	}
	if err := tmp.Chmod(defaultFilePerm); err != nil {
		tmp.Close()
		return errFactory.Wrap(errors.ErrArtifactWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return errFactory.Wrap(errors.ErrArtifactWrite, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errFactory.Wrap(errors.ErrArtifactWrite, err)
	}

	return nil
}

// ReadArtifact parses a record written by WriteArtifact.
func ReadArtifact(path string) (Record, error) {
	errFactory := errors.New()

	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, errFactory.Wrap(errors.ErrArtifactRead, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return Record{}, errFactory.Wrap(errors.ErrArtifactRead, err)
	}
	return rec, nil
}
