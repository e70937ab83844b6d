// Package signature renders synthesized detection signatures as Yara
// rules. A signature is an ordered list of byte pieces common to a set
// of related binaries, plus provenance describing where the pieces came
// from. Piece selection itself happens upstream; this package only
// formats the result.
package signature

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/zeebo/blake3"
)

// Provenance records one input binary a signature was derived from.
type Provenance struct {
	Name         string // label the binary carried in the differencing run
	OriginalName string // label recorded at capture/export time
	ContentHash  string // producer-supplied hex digest of the binary
}

// Signature is one detection signature ready for formatting.
type Signature struct {
	// DetectionName names the rule. It is sanitized to a valid Yara
	// identifier on output.
	DetectionName string
	// Pieces are the byte sequences the rule matches on, in order.
	Pieces [][]byte
	// Sources lists the binaries the pieces were derived from.
	Sources []Provenance
}

// Digest returns a stable hex digest over the signature's piece content.
// Two signatures with identical pieces in identical order share a
// digest regardless of naming, which is what database-level dedup keys
// on. Piece boundaries are part of the digest.
func (s *Signature) Digest() string {
	h := blake3.New()
	for _, piece := range s.Pieces {
		// Length prefix keeps {AB, CD} distinct from {ABCD}.
		fmt.Fprintf(h, "%d:", len(piece))
		h.Write(piece)
	}
	return hex.EncodeToString(h.Sum(nil))
}

var identifierRe = regexp.MustCompile(`[^A-Za-z0-9_]`)

// RuleName returns the sanitized Yara identifier for the signature.
func (s *Signature) RuleName() string {
	name := identifierRe.ReplaceAllString(s.DetectionName, "_")
	if name == "" {
		name = "unnamed"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "sig_" + name
	}
	return name
}

// YaraFormatter renders signatures in Yara 2.0 rule syntax.
// See https://yara.readthedocs.io/ for the grammar.
type YaraFormatter struct{}

// Format renders a single signature as one Yara rule.
func (f *YaraFormatter) Format(sig *Signature) (string, error) {
	if len(sig.Pieces) == 0 {
		return "", fmt.Errorf("signature %q has no pieces", sig.DetectionName)
	}
	for i, piece := range sig.Pieces {
		if len(piece) == 0 {
			return "", fmt.Errorf("signature %q has empty piece %d", sig.DetectionName, i)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "rule %s {\n", sig.RuleName())

	if len(sig.Sources) > 0 {
		b.WriteString("  meta:\n")
		for i, src := range sig.Sources {
			fmt.Fprintf(&b, "    source_name_%d = %q\n", i, src.Name)
			if src.OriginalName != "" {
				fmt.Fprintf(&b, "    source_original_%d = %q\n", i, src.OriginalName)
			}
			if src.ContentHash != "" {
				fmt.Fprintf(&b, "    source_hash_%d = %q\n", i, src.ContentHash)
			}
		}
	}

	b.WriteString("  strings:\n")
	for i, piece := range sig.Pieces {
		fmt.Fprintf(&b, "    $p%d = { %s }\n", i, hexBytes(piece))
	}

	b.WriteString("  condition:\n")
	b.WriteString("    all of them\n")
	b.WriteString("}\n")
	return b.String(), nil
}

// FormatDatabase renders a set of signatures as one rule database.
// Signatures with identical piece content are emitted once; later
// duplicates are skipped.
func (f *YaraFormatter) FormatDatabase(sigs []*Signature) (string, error) {
	var b strings.Builder
	seen := make(map[string]bool)
	for _, sig := range sigs {
		digest := sig.Digest()
		if seen[digest] {
			continue
		}
		seen[digest] = true

		rule, err := f.Format(sig)
		if err != nil {
			return "", err
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(rule)
	}
	return b.String(), nil
}

func hexBytes(piece []byte) string {
	parts := make([]string, len(piece))
	for i, c := range piece {
		parts[i] = fmt.Sprintf("%02x", c)
	}
	return strings.Join(parts, " ")
}
