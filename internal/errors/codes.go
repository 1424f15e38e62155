package errors

const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrCanceled        ErrorCode = "operation_canceled"

	// Configuration errors
	ErrInvalidConfig      ErrorCode = "invalid_configuration"
	ErrBindFlags          ErrorCode = "bind_flags_failed"
	ErrReadConfig         ErrorCode = "read_config_failed"
	ErrInvalidLogLevel    ErrorCode = "invalid_log_level"
	ErrInvalidDetector    ErrorCode = "invalid_detector_parameters"
	ErrInvalidCPAPSetting ErrorCode = "invalid_cpap_pressure"

	// Input errors
	ErrReadInput       ErrorCode = "read_input_failed"
	ErrMalformedRecord ErrorCode = "malformed_record"
	ErrNoRecords       ErrorCode = "no_records"

	// Computation errors
	ErrInvalidADC         ErrorCode = "invalid_adc_code"
	ErrFlowDomain         ErrorCode = "flow_domain_error"
	ErrMisalignedSeries   ErrorCode = "misaligned_series"
	ErrDegenerateDuration ErrorCode = "degenerate_duration"
	ErrNegativeDuration   ErrorCode = "negative_duration"

	// Artifact errors
	ErrArtifactWrite ErrorCode = "artifact_write_failed"
	ErrArtifactRead  ErrorCode = "artifact_read_failed"
	ErrArtifactBusy  ErrorCode = "artifact_busy"

	// Logging errors
	ErrOpenLogFile ErrorCode = "open_log_file_failed"
)

var errorMessages = map[ErrorCode]string{
	ErrInternal:           "Internal error occurred",
	ErrInvalidArgument:    "Invalid argument provided",
	ErrCanceled:           "Operation canceled",
	ErrInvalidConfig:      "Invalid configuration",
	ErrBindFlags:          "Failed to bind flags",
	ErrReadConfig:         "Failed to read config file",
	ErrInvalidLogLevel:    "Invalid log level",
	ErrInvalidDetector:    "Invalid breath detector parameters",
	ErrInvalidCPAPSetting: "CPAP pressure out of range, must be between 4 and 25 inclusive",
	ErrReadInput:          "Failed to read recording",
	ErrMalformedRecord:    "Malformed record",
	ErrNoRecords:          "Recording contains no valid records",
	ErrInvalidADC:         "Invalid ADC code",
	ErrFlowDomain:         "Flow equation undefined for pressure ordering",
	ErrMisalignedSeries:   "Time and flow series are not aligned",
	ErrDegenerateDuration: "Recording spans no time",
	ErrNegativeDuration:   "Recording ends before it starts",
	ErrArtifactWrite:      "Failed to write artifact",
	ErrArtifactRead:       "Failed to read artifact",
	ErrArtifactBusy:       "Artifact is locked by another process",
	ErrOpenLogFile:        "Failed to open log file",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
