// Package apperr defines the error taxonomy shared by the training pipeline and the
// serving layer. Every failure that reaches a client is reported as a kind plus a
// human readable message.
package apperr

import "errors"

var (
	ErrDataSourceMissing   = errors.New("data source missing")
	ErrSchemaViolation     = errors.New("schema violation")
	ErrInsufficientData    = errors.New("insufficient data")
	ErrNoCandidatesTrained = errors.New("no candidates trained")
	ErrModelNotReady       = errors.New("model not ready")
	ErrMalformedRecord     = errors.New("malformed record")
)

// Kind is the stable identifier sent to clients.
type Kind string

const (
	KindDataSourceMissing   Kind = "DataSourceMissing"
	KindSchemaViolation     Kind = "SchemaViolation"
	KindInsufficientData    Kind = "InsufficientData"
	KindNoCandidatesTrained Kind = "NoCandidatesTrained"
	KindModelNotReady       Kind = "ModelNotReady"
	KindMalformedRecord     Kind = "MalformedRecord"
	KindInternal            Kind = "Internal"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrDataSourceMissing, KindDataSourceMissing},
	{ErrSchemaViolation, KindSchemaViolation},
	{ErrInsufficientData, KindInsufficientData},
	{ErrNoCandidatesTrained, KindNoCandidatesTrained},
	{ErrModelNotReady, KindModelNotReady},
	{ErrMalformedRecord, KindMalformedRecord},
}

// KindOf returns the kind of the first taxonomy sentinel found in err's chain,
// or KindInternal when err carries none.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
