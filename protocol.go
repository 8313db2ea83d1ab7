package superdense

import (
	"context"
	"fmt"
)

const (
	// AliceQubit is the half of the pair Alice encodes on and sends to Bob.
	AliceQubit = 1
	// BobQubit stays with Bob from the start.
	BobQubit = 0

	// MessageLength is the number of classical bits carried by one qubit.
	MessageLength = 2
)

/*
NewBellPair returns a two-qubit, two-bit circuit preparing the shared Bell
state (|00⟩ + |11⟩)/√2 with H on Alice's qubit followed by CNOT(Alice, Bob).
*/
func NewBellPair() *Circuit {
	c, err := NewCircuit(2, 2)
	if err != nil {
		panic(err)
	}

	if err := c.H(AliceQubit); err != nil {
		panic(err)
	}

	if err := c.CNOT(AliceQubit, BobQubit); err != nil {
		panic(err)
	}

	return c
}

// ValidateMessage checks that msg is exactly two characters from {'0','1'}.
func ValidateMessage(msg string) error {
	if len(msg) != MessageLength {
		return &MessageError{Message: msg, Position: -1, Err: ErrInvalidMessageLength}
	}

	for i := 0; i < len(msg); i++ {
		if msg[i] != '0' && msg[i] != '1' {
			return &MessageError{Message: msg, Position: i, Err: ErrInvalidMessageSymbol}
		}
	}

	return nil
}

/*
Encode is Alice's step. It appends the gates that turn the shared Bell pair
into the Bell state labelling msg:

	"00" → nothing
	"01" → X
	"10" → Z
	"11" → Z, then X

all on Alice's qubit. The message is validated before anything is appended,
so a rejected message leaves c untouched. Callers wanting value semantics can
encode into c.Clone().
*/
func Encode(c *Circuit, msg string) error {
	if err := ValidateMessage(msg); err != nil {
		return err
	}

	if msg[0] == '1' {
		if err := c.Z(AliceQubit); err != nil {
			return err
		}
	}

	if msg[1] == '1' {
		if err := c.X(AliceQubit); err != nil {
			return err
		}
	}

	return nil
}

/*
AppendDecoder is Bob's disentangling step: CNOT(Alice, Bob) and H on Alice's
qubit undo the Bell preparation, then qubit 0 and qubit 1 are measured into
classical bits 0 and 1.
*/
func AppendDecoder(c *Circuit) error {
	if err := c.CNOT(AliceQubit, BobQubit); err != nil {
		return err
	}

	if err := c.H(AliceQubit); err != nil {
		return err
	}

	return c.Measure([]int{0, 1}, []int{0, 1})
}

// Decode appends Bob's decoder to c and runs it on backend.
func Decode(ctx context.Context, backend Backend, c *Circuit, shots int) (Counts, error) {
	if err := AppendDecoder(c); err != nil {
		return nil, err
	}

	return backend.Run(ctx, c, shots)
}

/*
Transmit sends msg through the whole protocol on a fresh circuit: Bell pair,
Alice's encoding, Bob's decoding and measurement. On a noiseless backend the
counts are {msg: shots}.
*/
func Transmit(ctx context.Context, backend Backend, msg string, shots int) (Counts, error) {
	c := NewBellPair()

	if err := Encode(c, msg); err != nil {
		return nil, err
	}

	return Decode(ctx, backend, c, shots)
}

// Received is the message Bob reads off the counts: the most frequent outcome.
func Received(counts Counts) (string, error) {
	msg, ok := counts.MostFrequent()
	if !ok {
		return "", fmt.Errorf("no outcomes to decode")
	}

	return msg, ValidateMessage(msg)
}

// BellState names the Bell state Alice's encoding of msg produces.
func BellState(msg string) (string, error) {
	if err := ValidateMessage(msg); err != nil {
		return "", err
	}

	return map[string]string{
		"00": "Φ+",
		"01": "Ψ+",
		"10": "Φ-",
		"11": "Ψ-",
	}[msg], nil
}
