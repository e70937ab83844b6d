package bindiff

import "github.com/FocuswithJustin/diffsig/core/errors"

// dispatchMatches drains the cursor and hands every pair to sink: exactly
// once per row, synchronously, in cursor order. No batching, reordering
// or retries. The first sink failure stops dispatch immediately and is
// returned as a CallbackError carrying the offending pair; pairs already
// delivered are not retracted. Returns the number of pairs delivered.
func dispatchMatches(c *matchCursor, g Granularity, sink Sink) (int, error) {
	count := 0
	for {
		pair, ok, err := c.next()
		if err != nil {
			return count, err
		}
		if !ok {
			return count, nil
		}
		if err := sink.Accept(pair); err != nil {
			return count, errors.NewCallback(g.String(),
				uint64(pair.Primary), uint64(pair.Secondary), err)
		}
		count++
	}
}
