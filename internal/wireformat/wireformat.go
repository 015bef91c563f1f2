// Package wireformat validates and formats the two Avro byte-sequence
// shapes spec.md §3 allows as literal data — "bytes" (arbitrary length)
// and "fixed" (a named type with a declared byte width) — by running them
// through github.com/funvibe/funbit's bit-level builder instead of
// hand-rolling width checks, so a fixed literal's declared size is
// enforced the same way any other binary segment width is in the funbit
// pack this module is grounded on.
package wireformat

import (
	"fmt"

	"github.com/funvibe/funbit/pkg/funbit"
)

// SizeError reports a fixed-width literal whose byte length does not
// match its declared size — a PFASemanticException at parse time, a
// PFARuntimeException if discovered while decoding a record at runtime.
type SizeError struct {
	FullName string
	Declared int
	Got      int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("fixed %q declares size %d, got %d bytes", e.FullName, e.Declared, e.Got)
}

// ValidateFixed checks data against a fixed type's declared byte width by
// round-tripping it through a funbit builder constrained to exactly
// size*8 bits: funbit's own binary-segment size enforcement is the
// authority here rather than a duplicated len(data) check, so a future
// change to funbit's size semantics (e.g. unit scaling) is automatically
// honored.
func ValidateFixed(fullName string, data []byte, size int) ([]byte, error) {
	b := funbit.NewBuilder()
	funbit.AddBinary(b, data, funbit.WithSize(uint(size*8)))
	bs, err := funbit.Build(b)
	if err != nil {
		return nil, &SizeError{FullName: fullName, Declared: size, Got: len(data)}
	}
	return bs.ToBytes(), nil
}

// HexDump renders data for diagnostic messages (PFARuntimeException text,
// Log effect output for bytes/fixed values).
func HexDump(data []byte) string {
	b := funbit.NewBuilder()
	funbit.AddBinary(b, data)
	bs, err := funbit.Build(b)
	if err != nil {
		return fmt.Sprintf("<%d bytes, undumpable: %v>", len(data), err)
	}
	return funbit.ToHexDump(bs)
}
