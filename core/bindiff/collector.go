package bindiff

// MatchCollector accumulates dispatched pairs per granularity, in arrival
// order. It is the bridge between ingestion and downstream consumers that
// need the matches materialized, such as signature synthesis.
type MatchCollector struct {
	Functions    []AddressPair
	BasicBlocks  []AddressPair
	Instructions []AddressPair
}

// FunctionSink returns a sink appending to Functions.
func (c *MatchCollector) FunctionSink() Sink {
	return SinkFunc(func(match AddressPair) error {
		c.Functions = append(c.Functions, match)
		return nil
	})
}

// BasicBlockSink returns a sink appending to BasicBlocks.
func (c *MatchCollector) BasicBlockSink() Sink {
	return SinkFunc(func(match AddressPair) error {
		c.BasicBlocks = append(c.BasicBlocks, match)
		return nil
	})
}

// InstructionSink returns a sink appending to Instructions.
func (c *MatchCollector) InstructionSink() Sink {
	return SinkFunc(func(match AddressPair) error {
		c.Instructions = append(c.Instructions, match)
		return nil
	})
}
