package recording

import (
	"bufio"
	"io"
	"os"
	"strings"

	"codeberg.org/mutker/cpapflow/internal/errors"
	"codeberg.org/mutker/cpapflow/internal/logger"
)

const (
	maxLineBytes    = 1 << 20
	readBufferBytes = 64 * 1024
)

// Recording is the validated content of one input source.
type Recording struct {
	Header   []string
	Records  []RawRecord
	Rejected []Rejection
}

// Load opens path and reads it with Read.
func Load(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrReadInput, err)
	}
	defer f.Close()

	return Read(f)
}

// Read consumes r line by line. The first line is the header. Malformed rows,
// including rows longer than maxLineBytes, are logged and skipped; only a read
// failure aborts the load.
func Read(r io.Reader) (*Recording, error) {
	errFactory := errors.New()

	br := bufio.NewReaderSize(r, readBufferBytes)

	rec := &Recording{}
	line := 0
	for {
		text, tooLong, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errFactory.Wrap(errors.ErrReadInput, err)
		}

		line++
		if line == 1 {
			rec.Header = strings.Split(text, ",")
			continue
		}

		if tooLong {
			rec.reject(Rejection{Line: line, Reason: ReasonTooLong})
			continue
		}

		raw, err := ParseRecord(line, text)
		if err != nil {
			rej, ok := RejectionOf(err)
			if !ok {
				return nil, errFactory.Wrap(errors.ErrInternal, err)
			}
			rec.reject(rej)
			continue
		}
		rec.Records = append(rec.Records, raw)
	}

	logger.Debug().
		Int("accepted", len(rec.Records)).
		Int("rejected", len(rec.Rejected)).
		Msg("Recording loaded")

	return rec, nil
}

func (rec *Recording) reject(rej Rejection) {
	logger.Error().
		Int("line", rej.Line).
		Strs("tokens", rej.Tokens).
		Str("reason", string(rej.Reason)).
		Msg("Rejected record")
	rec.Rejected = append(rec.Rejected, rej)
}

// readLine returns the next line without its terminator. A line over
// maxLineBytes is drained and reported as tooLong with empty text.
func readLine(br *bufio.Reader) (string, bool, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			return "", false, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxLineBytes {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}
