package domain

import "errors"

var (
	// ErrMissingTimeVariable means none of the recognised time variables exist.
	ErrMissingTimeVariable = errors.New("missing time variable")

	// ErrDateResolution means no date resolution strategy produced a date.
	ErrDateResolution = errors.New("date resolution failed")

	// ErrUnknownParameterCode means a legacy code is not in the translation table.
	ErrUnknownParameterCode = errors.New("unknown parameter code")

	// ErrNoTimestampColumn means a record set has no usable join key.
	ErrNoTimestampColumn = errors.New("no timestamp column")

	// ErrDestinationExists is returned when an export target exists and
	// overwriting was not requested. It is not fatal to a pipeline run.
	ErrDestinationExists = errors.New("destination exists")

	// ErrUnsupportedVariable marks a source variable that cannot be held as a
	// numeric Variable (character data, unsupported rank). Such variables are
	// skipped during normalization.
	ErrUnsupportedVariable = errors.New("unsupported variable")

	// ErrUnorderedIndex means the time index decreases somewhere, usually
	// because a Time sample was missing. Secondary records cannot be binned
	// against it.
	ErrUnorderedIndex = errors.New("time index out of order")

	// ErrUnknownVariable is returned when a named variable is not in the dataset.
	ErrUnknownVariable = errors.New("unknown variable")
)
