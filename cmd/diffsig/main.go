// Command diffsig ingests diff results produced by a binary-differencing
// engine and turns them into match reports and Yara rule databases.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/diffsig/core/bindiff"
	"github.com/FocuswithJustin/diffsig/core/sigdef"
	"github.com/FocuswithJustin/diffsig/core/signature"
	"github.com/FocuswithJustin/diffsig/internal/logging"
)

const version = "0.1.0"

// runEnv carries per-run state into command Run methods via kong's
// binding mechanism.
type runEnv struct {
	ctx context.Context
}

// CLI defines the command-line interface for diffsig.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" default:"text" enum:"json,text" help:"Log format (json, text)"`

	Inspect InspectCmd `cmd:"" help:"Report match counts and binary metadata of a diff result"`
	Yara    YaraCmd    `cmd:"" help:"Synthesize a Yara rule database from a diff result"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// InspectCmd reports what a diff-result store contains.
type InspectCmd struct {
	Path     string `arg:"" help:"Path to the diff-result file" type:"existingfile"`
	Metadata bool   `name:"metadata" short:"m" help:"Also print the two binary metadata records"`
}

func (c *InspectCmd) Run(env *runEnv) error {
	ctx := env.ctx
	start := time.Now()

	var collector bindiff.MatchCollector
	meta, err := bindiff.ParseDiffResult(c.Path,
		collector.FunctionSink(), collector.BasicBlockSink(), collector.InstructionSink(),
		c.Metadata)
	if err != nil {
		logging.ParseFailure(ctx, c.Path, err)
		return err
	}
	logging.ParseResult(ctx, c.Path,
		len(collector.Functions), len(collector.BasicBlocks), len(collector.Instructions),
		time.Since(start))

	fmt.Printf("function matches:    %d\n", len(collector.Functions))
	fmt.Printf("basic block matches: %d\n", len(collector.BasicBlocks))
	fmt.Printf("instruction matches: %d\n", len(collector.Instructions))
	if meta != nil {
		printMetadata("primary", meta.Primary)
		printMetadata("secondary", meta.Secondary)
	}
	return nil
}

func printMetadata(role string, m bindiff.BinaryMetadata) {
	fmt.Printf("%s binary:\n", role)
	fmt.Printf("  name:          %s\n", m.Name)
	fmt.Printf("  original name: %s\n", m.OriginalName)
	fmt.Printf("  content hash:  %s\n", m.ContentHash)
}

// YaraCmd synthesizes Yara rules from a diff result. Byte pieces are
// sampled from the primary binary at each matched function's address;
// the raw file offset is computed as address minus the image base.
type YaraCmd struct {
	Path        string `arg:"" help:"Path to the diff-result file" type:"existingfile"`
	Binary      string `name:"binary" short:"b" required:"" help:"Primary binary to sample pieces from" type:"existingfile"`
	Definitions string `name:"def" short:"d" help:"Signature definition file" type:"existingfile"`
	Name        string `name:"name" help:"Definition to use (defaults to the first)"`
	Base        uint64 `name:"base" help:"Image base of the primary binary" default:"0"`
	Output      string `name:"output" short:"o" required:"" help:"Output rule database path"`
	Compress    bool   `name:"compress" help:"Write the database xz-compressed"`
}

func (c *YaraCmd) Run(env *runEnv) error {
	ctx := env.ctx
	def, err := c.definition()
	if err != nil {
		return err
	}

	start := time.Now()
	var collector bindiff.MatchCollector
	meta, err := bindiff.ParseDiffResult(c.Path,
		collector.FunctionSink(), nil, nil, true)
	if err != nil {
		logging.ParseFailure(ctx, c.Path, err)
		return err
	}
	logging.ParseResult(ctx, c.Path, len(collector.Functions), 0, 0, time.Since(start))

	binary, err := os.ReadFile(c.Binary)
	if err != nil {
		return fmt.Errorf("reading primary binary: %w", err)
	}

	sig := &signature.Signature{
		DetectionName: def.Name,
		Pieces:        samplePieces(binary, collector.Functions, c.Base, def),
		Sources: []signature.Provenance{
			{Name: meta.Primary.Name, OriginalName: meta.Primary.OriginalName, ContentHash: meta.Primary.ContentHash},
			{Name: meta.Secondary.Name, OriginalName: meta.Secondary.OriginalName, ContentHash: meta.Secondary.ContentHash},
		},
	}
	if len(sig.Pieces) == 0 {
		return fmt.Errorf("no usable pieces: no matched function lies within %s (check --base)", c.Binary)
	}

	var formatter signature.YaraFormatter
	database, err := formatter.FormatDatabase([]*signature.Signature{sig})
	if err != nil {
		return err
	}
	if err := c.write(database); err != nil {
		return err
	}

	logging.InfoContext(ctx, "database_written",
		"path", c.Output, "rules", 1, "pieces", len(sig.Pieces), "compressed", c.Compress)
	return nil
}

// definition resolves which signature definition to synthesize. Without
// a definition file, the diff-result file name serves as detection name.
func (c *YaraCmd) definition() (sigdef.Definition, error) {
	if c.Definitions == "" {
		name := c.Name
		if name == "" {
			name = "detection"
		}
		return sigdef.Definition{Name: name, MinPieceLength: sigdef.DefaultMinPieceLength}, nil
	}

	defs, err := sigdef.ParseFile(c.Definitions)
	if err != nil {
		return sigdef.Definition{}, err
	}
	if c.Name == "" {
		return defs[0], nil
	}
	for _, def := range defs {
		if def.Name == c.Name {
			return def, nil
		}
	}
	return sigdef.Definition{}, fmt.Errorf("no definition named %q in %s", c.Name, c.Definitions)
}

// samplePieces reads one byte piece per matched function from the raw
// binary. Matches outside the file and duplicate pieces are skipped;
// the definition's knobs bound piece length and count.
func samplePieces(binary []byte, matches []bindiff.AddressPair, base uint64, def sigdef.Definition) [][]byte {
	var pieces [][]byte
	seen := make(map[string]bool)
	for _, match := range matches {
		if def.MaxPieceCount > 0 && len(pieces) >= def.MaxPieceCount {
			break
		}
		addr := uint64(match.Primary)
		if addr < base {
			continue
		}
		offset := addr - base
		end := offset + uint64(def.MinPieceLength)
		if end > uint64(len(binary)) {
			continue
		}
		piece := binary[offset:end]
		if seen[string(piece)] {
			continue
		}
		seen[string(piece)] = true
		pieces = append(pieces, piece)
	}
	return pieces
}

func (c *YaraCmd) write(database string) error {
	out, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	if !c.Compress {
		_, err = out.WriteString(database)
		return err
	}

	w, err := xz.NewWriter(out)
	if err != nil {
		return fmt.Errorf("initializing xz writer: %w", err)
	}
	if _, err := w.Write([]byte(database)); err != nil {
		return err
	}
	return w.Close()
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(*runEnv) error {
	fmt.Printf("diffsig %s\n", version)
	return nil
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("diffsig"),
		kong.Description("diffsig - diff-result ingestion and signature synthesis"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	logging.InitLogger(parseLevel(CLI.LogLevel), parseFormat(CLI.LogFormat))
	ctx := logging.WithRunID(context.Background(), uuid.NewString())

	kctx.FatalIfErrorf(kctx.Run(&runEnv{ctx: ctx}))
}

func parseLevel(s string) logging.Level {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func parseFormat(s string) logging.Format {
	if s == "json" {
		return logging.FormatJSON
	}
	return logging.FormatText
}
