package superdense

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMessageLength   = errors.New("message must be exactly 2 bits")
	ErrInvalidMessageSymbol   = errors.New("message may only contain '0' or '1'")
	ErrIndexOutOfRange        = errors.New("index out of range")
	ErrNormalizationViolation = errors.New("state vector is no longer normalized")
	ErrSameQubit              = errors.New("control and target must be different qubits")
	ErrMeasureArity           = errors.New("measure needs one classical bit per qubit")
	ErrClassicalBitReused     = errors.New("classical bit already bound by a measurement")
	ErrGateAfterMeasure       = errors.New("gates cannot follow a measurement")
	ErrNoMeasurement          = errors.New("circuit has no measurement")
	ErrAlreadyMeasured        = errors.New("execution already measured")
	ErrInvalidShots           = errors.New("shot count must be at least 1")
	ErrBackendUnavailable     = errors.New("backend circuit breaker is open")
	ErrPoolLimited            = errors.New("pool is not accepting jobs")
	ErrPoolClosed             = errors.New("pool is closed")
)

/*
IndexError reports a qubit or classical bit index that falls outside the
dimensions a circuit was declared with.
*/
type IndexError struct {
	Register string // "qubit" or "clbit"
	Index    int
	Size     int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %d outside [0, %d)", e.Register, e.Index, e.Size)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}

// MessageError carries the rejected message and, for symbol errors, the offending position.
type MessageError struct {
	Message  string
	Position int
	Err      error
}

func (e *MessageError) Error() string {
	if errors.Is(e.Err, ErrInvalidMessageSymbol) {
		return fmt.Sprintf("message %q: %v (position %d)", e.Message, e.Err, e.Position)
	}

	return fmt.Sprintf("message %q: %v", e.Message, e.Err)
}

func (e *MessageError) Unwrap() error {
	return e.Err
}
