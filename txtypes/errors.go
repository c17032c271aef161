package txtypes

import "github.com/pkg/errors"

// Sentinel errors of the envelope codec and signing flow. Callers match them
// with errors.Is; the wrapped messages carry the offending field or value.
var (
	// ErrTxTypeMismatch marks input whose leading byte is not FeeTokenTxType.
	ErrTxTypeMismatch = errors.New("not a fee token transaction")

	// ErrMalformedEnvelope marks payloads with the wrong outer arity or a
	// field of the wrong shape.
	ErrMalformedEnvelope = errors.New("malformed fee token transaction")

	// ErrEncoding marks serialization attempts of inconsistent signature
	// combinations, such as a sponsor slot without a sender signature.
	ErrEncoding = errors.New("unencodable signature state")

	// ErrSignState marks signing or recovery requests whose prerequisites
	// are not met.
	ErrSignState = errors.New("signature prerequisites not met")

	// ErrValidation marks missing or malformed user supplied fields.
	ErrValidation = errors.New("invalid transaction field")
)
