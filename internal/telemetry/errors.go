package telemetry

import "codeberg.org/mutker/cpapflow/internal/errors"

const (
	ErrRegisterMetrics = errors.ErrorCode("telemetry_register_failed")
	ErrWriteTextfile   = errors.ErrorCode("telemetry_write_textfile_failed")
)
