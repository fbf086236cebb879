package wire

import "errors"

// Framing errors (spec.md §4.1, §7). Each is a distinct, recoverable
// error: the subscribe driver logs and drops the frame, it never
// propagates further.
var (
	// ErrShortFrame is returned when a frame is not long enough to hold
	// node_id || signature (spec.md §8 invariant 3: every input of length
	// <= 96 bytes yields a framing error).
	ErrShortFrame = errors.New("wire: frame shorter than node_id||signature")

	// ErrMalformedPayload is returned when the payload cannot be decoded
	// as a canonical-CBOR Envelope.
	ErrMalformedPayload = errors.New("wire: malformed payload")

	// ErrInvalidSignature is returned when the Ed25519 signature does not
	// verify over the payload under the claimed node id.
	ErrInvalidSignature = errors.New("wire: invalid signature")

	// ErrInvalidTimestamp is returned when the envelope's `at` field is
	// negative, i.e. before the Unix epoch. An `at` of the wrong CBOR type
	// fails decoding and yields ErrMalformedPayload instead. Note that
	// spec.md §9 treats `at` as advisory only; no clock-skew check is
	// performed here.
	ErrInvalidTimestamp = errors.New("wire: invalid timestamp")

	// ErrOversizeContent names a SendFile variant whose content exceeds
	// the inline size cap. Open does not return it: an oversize payload in
	// a validly signed frame is rejected on the receive side by pkg/chat,
	// before anything is written to disk.
	ErrOversizeContent = errors.New("wire: inline file content exceeds size cap")

	// ErrInvalidTicket is returned when ticket text cannot be decoded.
	ErrInvalidTicket = errors.New("wire: invalid ticket")
)
