// Package plot exports the flow signal and detected breaths as CSV for an
// external plotting tool.
package plot

import (
	"bufio"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/mutker/cpapflow/internal/breath"
	"codeberg.org/mutker/cpapflow/internal/errors"
	"codeberg.org/mutker/cpapflow/internal/flow"
)

const (
	fileSuffix      = "_flow.csv"
	defaultFilePerm = 0o644
)

var header = []string{"time_s", "flow_m3s", "breath"}

// PathFor returns "<stem>_flow.csv" next to input, or in dir when set.
func PathFor(input, dir string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, stem+fileSuffix)
}

// Write stores one row per sample. The breath column is 1 on samples where
// a breath was detected.
func Write(path string, s flow.Series, events []breath.Event) error {
	errFactory := errors.New()

	if err := s.Validate(); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, defaultFilePerm)
	if err != nil {
		return errFactory.Wrap(errors.ErrArtifactWrite, err)
	}

	marked := make(map[int]struct{}, len(events))
	for _, e := range events {
		marked[e.Index] = struct{}{}
	}

	bw := bufio.NewWriter(f)
	w := csv.NewWriter(bw)
	if err := w.Write(header); err != nil {
		f.Close()
		return errFactory.Wrap(errors.ErrArtifactWrite, err)
	}

	row := make([]string, len(header))
	for i := range s.Flow {
		row[0] = strconv.FormatFloat(s.Time[i], 'g', -1, 64)
		row[1] = strconv.FormatFloat(s.Flow[i], 'g', -1, 64)
		row[2] = "0"
		if _, ok := marked[i]; ok {
			row[2] = "1"
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return errFactory.Wrap(errors.ErrArtifactWrite, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return errFactory.Wrap(errors.ErrArtifactWrite, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return errFactory.Wrap(errors.ErrArtifactWrite, err)
	}
	if err := f.Close(); err != nil {
		return errFactory.Wrap(errors.ErrArtifactWrite, err)
	}

	return nil
}
