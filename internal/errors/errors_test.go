package errors_test

import (
	"fmt"
	"testing"

	"codeberg.org/mutker/cpapflow/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	f := errors.New()

	assert.Equal(t, "Recording contains no valid records", f.New(errors.ErrNoRecords).Error())
	assert.Equal(t, "custom", f.WithMessage(errors.ErrNoRecords, "custom").Error())
	assert.Equal(t, "Malformed record: line 3", f.WithData(errors.ErrMalformedRecord, "line 3").Error())
	assert.Equal(t, "unknown_code", errors.GetErrorMessage("unknown_code"))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := errors.New().Wrap(errors.ErrArtifactWrite, cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, errors.ErrArtifactWrite, err.Code())
	assert.Contains(t, err.Error(), "disk full")
}

func TestHasCode(t *testing.T) {
	f := errors.New()
	inner := f.New(errors.ErrFlowDomain)
	outer := f.Wrap(errors.ErrInternal, fmt.Errorf("compute: %w", inner))

	assert.True(t, errors.HasCode(outer, errors.ErrFlowDomain))
	assert.True(t, errors.HasCode(outer, errors.ErrInternal))
	assert.False(t, errors.HasCode(outer, errors.ErrNoRecords))
	assert.False(t, errors.HasCode(nil, errors.ErrInternal))
	assert.Equal(t, errors.ErrInternal, errors.CodeOf(outer))
	assert.Equal(t, errors.ErrorCode(""), errors.CodeOf(fmt.Errorf("plain")))
}
