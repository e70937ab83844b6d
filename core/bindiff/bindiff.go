// Package bindiff reads diff-result stores produced by an external
// binary-differencing engine. A diff-result store is a SQLite database
// recording address correspondences between two related executables at
// three granularities (functions, basic blocks, instructions), plus one
// metadata record per compared binary.
//
// The package streams each match table through a caller-supplied Sink
// without materializing the result set; see ParseDiffResult.
package bindiff

import "fmt"

// Address identifies a byte or instruction offset within one binary's
// address space.
type Address uint64

// String renders the address in hexadecimal for diagnostics.
func (a Address) String() string {
	return fmt.Sprintf("0x%08X", uint64(a))
}

// AddressPair is one match: a pair of addresses, one per compared binary,
// that the differencing engine determined correspond to the same logical
// code unit. Primary and Secondary follow the store's own binary-role
// ordering, never caller preference.
type AddressPair struct {
	Primary   Address
	Secondary Address
}

func (p AddressPair) String() string {
	return fmt.Sprintf("(%s, %s)", p.Primary, p.Secondary)
}

// Granularity names which match table is being read. Each granularity has
// its own independent row set; nothing links rows across granularities.
type Granularity int

const (
	// GranularityFunction matches whole functions.
	GranularityFunction Granularity = iota
	// GranularityBasicBlock matches basic blocks.
	GranularityBasicBlock
	// GranularityInstruction matches individual instructions.
	GranularityInstruction
)

// String returns the granularity's table name in the store.
func (g Granularity) String() string {
	switch g {
	case GranularityFunction:
		return "function"
	case GranularityBasicBlock:
		return "basicblock"
	case GranularityInstruction:
		return "instruction"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// table returns the name of the match table backing this granularity.
// Identical to String; kept separate so diagnostics and SQL cannot drift
// apart silently.
func (g Granularity) table() string {
	return g.String()
}

// BinaryMetadata describes one of the two compared binaries.
type BinaryMetadata struct {
	// Name is the label the binary carried in the differencing run.
	Name string
	// OriginalName is the label recorded when the binary was first
	// captured or exported.
	OriginalName string
	// ContentHash is a hex digest of the binary's content. The hash
	// algorithm is chosen by the producer and opaque to this layer.
	ContentHash string
}

// MetadataPair holds the metadata records of both compared binaries,
// assigned strictly from the store's two metadata rows in canonical
// order.
type MetadataPair struct {
	Primary   BinaryMetadata
	Secondary BinaryMetadata
}

// Sink accepts dispatched address pairs, one at a time. Accept is called
// exactly once per stored row, synchronously, in storage order; returning
// a non-nil error aborts the whole parse with that error attached to a
// CallbackError.
type Sink interface {
	Accept(match AddressPair) error
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(match AddressPair) error

// Accept calls f(match).
func (f SinkFunc) Accept(match AddressPair) error {
	return f(match)
}
