package bindiff

// ParseDiffResult opens the diff-result store at path, streams its three
// match tables through the given sinks, and optionally extracts the two
// binary metadata records.
//
// The stages run in a fixed order: open, validate schema, extract
// metadata (only if withMetadata is set), then dispatch functions, basic
// blocks and instructions. An aborted run therefore always leaves behind
// a deterministic prefix of that sequence. The store handle is released
// on every exit path.
//
// A nil sink skips its granularity entirely: no query is issued for that
// table. When withMetadata is false, no metadata query is issued and the
// returned pair is nil. The result is all-or-nothing: the metadata pair
// is either fully populated or nil, never partial.
//
// The call is synchronous and single-threaded; independent calls may run
// concurrently as each opens its own store handle. A caller wanting early
// termination has a sink return an error, which surfaces as a
// CallbackError.
//
// Errors are one of NotFoundError, IOError, SchemaError or CallbackError
// from core/errors; none are retried internally.
func ParseDiffResult(path string, functions, basicBlocks, instructions Sink, withMetadata bool) (*MetadataPair, error) {
	s, err := openStore(path)
	if err != nil {
		return nil, err
	}
	defer s.close()

	var meta *MetadataPair
	if withMetadata {
		meta, err = s.readMetadata()
		if err != nil {
			return nil, err
		}
	}

	// Fixed dispatch order: function, basicblock, instruction.
	stages := []struct {
		granularity Granularity
		sink        Sink
	}{
		{GranularityFunction, functions},
		{GranularityBasicBlock, basicBlocks},
		{GranularityInstruction, instructions},
	}
	for _, stage := range stages {
		if stage.sink == nil {
			continue
		}
		if err := s.dispatch(stage.granularity, stage.sink); err != nil {
			return nil, err
		}
	}
	return meta, nil
}

// dispatch queries one granularity and drains it into sink.
func (s *store) dispatch(g Granularity, sink Sink) error {
	cur, err := s.queryMatches(g)
	if err != nil {
		return err
	}
	defer cur.close()
	_, err = dispatchMatches(cur, g, sink)
	return err
}
