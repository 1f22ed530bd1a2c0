package ml

import "errors"

var (
	ErrSchemaMismatch       = errors.New("row does not match schema")
	ErrMalformedCSV         = errors.New("malformed csv")
	ErrInvalidValue         = errors.New("invalid numeric value")
	ErrEmptyDataset         = errors.New("dataset has no rows")
	ErrColumnNotFound       = errors.New("column not found")
	ErrLengthMismatch       = errors.New("column length mismatch")
	ErrFeatureMismatch      = errors.New("feature vector size does not match model")
	ErrModelNotLoaded       = errors.New("model is not loaded")
	ErrInvalidModelArtifact = errors.New("invalid model artifact")
	ErrUnknownAverage       = errors.New("unknown f1 averaging strategy")
)

// IsInputError reports whether err was caused by the uploaded data rather
// than by the service.
func IsInputError(err error) bool {
	return errors.Is(err, ErrSchemaMismatch) ||
		errors.Is(err, ErrMalformedCSV) ||
		errors.Is(err, ErrInvalidValue) ||
		errors.Is(err, ErrEmptyDataset)
}
