// Package sigdef parses signature definition files. A definition names
// one detection to synthesize and carries the per-signature knobs the
// synthesis stage needs:
//
//	# one block per detection
//	signature "sshd.trojan1" {
//	    variant: "1"
//	    min_piece_length: 4
//	    max_piece_count: 16
//	}
//
// Keys may appear in any order; unknown keys are errors.
package sigdef

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Default values for omitted keys.
const (
	DefaultMinPieceLength = 4
)

// Definition configures the synthesis of one detection signature.
type Definition struct {
	// Name is the detection name, used as the rule name after
	// sanitization.
	Name string
	// Variant distinguishes multiple definitions for the same family.
	Variant string
	// MinPieceLength is the minimum byte-piece length worth emitting.
	MinPieceLength int
	// MaxPieceCount caps the number of pieces per signature; 0 means
	// unlimited.
	MaxPieceCount int
}

// defFile is the participle grammar for a definition file.
//
//nolint:govet // participle grammar tags are not standard struct tags
type defFile struct {
	Blocks []*defBlock `parser:"@@*"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type defBlock struct {
	Name    string      `parser:"\"signature\" @String \"{\""`
	Entries []*defEntry `parser:"@@* \"}\""`
}

//nolint:govet // participle grammar tags are not standard struct tags
type defEntry struct {
	Key   string    `parser:"@Ident \":\""`
	Value *defValue `parser:"@@"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type defValue struct {
	Str *string `parser:"  @String"`
	Int *int64  `parser:"| @Int"`
}

// defLexer tokenizes definition files. Comments run from # to end of line.
var defLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[a-z_][a-z0-9_]*`},
	{Name: "Punct", Pattern: `[{}:]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var defParser = participle.MustBuild[defFile](
	participle.Lexer(defLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
)

// Parse parses definition file content.
func Parse(content string) ([]Definition, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty definition file")
	}

	parsed, err := defParser.ParseString("", content)
	if err != nil {
		return nil, fmt.Errorf("invalid definition syntax: %w", err)
	}

	defs := make([]Definition, 0, len(parsed.Blocks))
	seen := make(map[string]bool)
	for _, block := range parsed.Blocks {
		def, err := buildDefinition(block)
		if err != nil {
			return nil, err
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("duplicate definition for %q", def.Name)
		}
		seen[def.Name] = true
		defs = append(defs, def)
	}
	return defs, nil
}

// ParseFile parses the definition file at path.
func ParseFile(path string) ([]Definition, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading definition file: %w", err)
	}
	defs, err := Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

func buildDefinition(block *defBlock) (Definition, error) {
	def := Definition{
		Name:           block.Name,
		MinPieceLength: DefaultMinPieceLength,
	}
	if def.Name == "" {
		return def, fmt.Errorf("definition with empty name")
	}

	for _, entry := range block.Entries {
		switch entry.Key {
		case "variant":
			s, err := stringValue(def.Name, entry)
			if err != nil {
				return def, err
			}
			def.Variant = s
		case "min_piece_length":
			n, err := intValue(def.Name, entry)
			if err != nil {
				return def, err
			}
			if n < 1 {
				return def, fmt.Errorf("definition %q: min_piece_length must be positive, got %d", def.Name, n)
			}
			def.MinPieceLength = n
		case "max_piece_count":
			n, err := intValue(def.Name, entry)
			if err != nil {
				return def, err
			}
			def.MaxPieceCount = n
		default:
			return def, fmt.Errorf("definition %q: unknown key %q", def.Name, entry.Key)
		}
	}
	return def, nil
}

func stringValue(name string, entry *defEntry) (string, error) {
	if entry.Value == nil || entry.Value.Str == nil {
		return "", fmt.Errorf("definition %q: key %q wants a quoted string", name, entry.Key)
	}
	return *entry.Value.Str, nil
}

func intValue(name string, entry *defEntry) (int, error) {
	if entry.Value == nil || entry.Value.Int == nil {
		return 0, fmt.Errorf("definition %q: key %q wants an integer", name, entry.Key)
	}
	return int(*entry.Value.Int), nil
}
