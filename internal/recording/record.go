// Package recording loads raw CPAP sensor recordings and validates them row by row.
package recording

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"codeberg.org/mutker/cpapflow/internal/errors"
)

// FieldCount is the number of comma-separated tokens in every data row.
const FieldCount = 7

const (
	fieldTime = iota
	fieldConstriction
	fieldInspiratory
	fieldExpiratory
)

// nanLiteral is rejected verbatim even though it parses as a float.
const nanLiteral = "NaN"

// Reason classifies why a row was rejected.
type Reason string

const (
	ReasonFieldCount Reason = "missing_value"
	ReasonNonNumeric Reason = "non_numeric"
	ReasonNaN        Reason = "nan_value"
	ReasonNonFinite  Reason = "non_finite"
	ReasonTooLong    Reason = "line_too_long"
)

// RawRecord is one accepted data row.
type RawRecord struct {
	Line   int // 1-based line number in the source
	Fields [FieldCount]float64
}

func (r RawRecord) Time() float64         { return r.Fields[fieldTime] }
func (r RawRecord) Constriction() float64 { return r.Fields[fieldConstriction] }
func (r RawRecord) Inspiratory() float64  { return r.Fields[fieldInspiratory] }
func (r RawRecord) Expiratory() float64   { return r.Fields[fieldExpiratory] }

// Rejection describes a discarded row.
type Rejection struct {
	Line   int
	Tokens []string
	Reason Reason
}

func (r Rejection) String() string {
	return fmt.Sprintf("line %d: %s: %v", r.Line, r.Reason, r.Tokens)
}

// ParseRecord validates the text of one data row. A row is accepted only if it
// has exactly FieldCount tokens, each parses as a finite float and none is the
// literal "NaN". The returned error is an errors.Error with code
// ErrMalformedRecord carrying a Rejection.
func ParseRecord(line int, text string) (RawRecord, error) {
	tokens := strings.Split(text, ",")

	reject := func(reason Reason) (RawRecord, error) {
		return RawRecord{}, errors.New().WithData(errors.ErrMalformedRecord, Rejection{
			Line:   line,
			Tokens: tokens,
			Reason: reason,
		})
	}

	if len(tokens) != FieldCount {
		return reject(ReasonFieldCount)
	}

	rec := RawRecord{Line: line}
	for i, tok := range tokens {
		tok = strings.TrimSpace(tok)
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return reject(ReasonNonNumeric)
		}
		if tok == nanLiteral {
			return reject(ReasonNaN)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return reject(ReasonNonFinite)
		}
		rec.Fields[i] = v
	}

	return rec, nil
}

// RejectionOf extracts the Rejection from an error returned by ParseRecord.
func RejectionOf(err error) (Rejection, bool) {
	var e errors.Error
	if !errors.As(err, &e) || e.Code() != errors.ErrMalformedRecord {
		return Rejection{}, false
	}
	r, ok := e.GetData().(Rejection)
	return r, ok
}
