package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/FocuswithJustin/diffsig/core/bindiff"
	"github.com/FocuswithJustin/diffsig/core/sigdef"
)

func TestSamplePieces(t *testing.T) {
	binary := []byte{0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18, 0x19}
	def := sigdef.Definition{Name: "t", MinPieceLength: 4}

	matches := []bindiff.AddressPair{
		{Primary: 0x1000, Secondary: 0x2000}, // offset 0
		{Primary: 0x1004, Secondary: 0x2004}, // offset 4
		{Primary: 0x1000, Secondary: 0x2abc}, // duplicate piece, skipped
		{Primary: 0x1008, Secondary: 0x2008}, // would read past EOF, skipped
		{Primary: 0x0800, Secondary: 0x2100}, // below image base, skipped
	}

	pieces := samplePieces(binary, matches, 0x1000, def)
	if len(pieces) != 2 {
		t.Fatalf("got %d pieces, want 2", len(pieces))
	}
	if !bytes.Equal(pieces[0], []byte{0x10, 0x11, 0x12, 0x13}) {
		t.Errorf("piece 0 = %x, unexpected", pieces[0])
	}
	if !bytes.Equal(pieces[1], []byte{0x14, 0x15, 0x16, 0x17}) {
		t.Errorf("piece 1 = %x, unexpected", pieces[1])
	}
}

func TestSamplePiecesMaxCount(t *testing.T) {
	binary := make([]byte, 64)
	for i := range binary {
		binary[i] = byte(i)
	}
	def := sigdef.Definition{Name: "t", MinPieceLength: 4, MaxPieceCount: 3}

	var matches []bindiff.AddressPair
	for i := 0; i < 10; i++ {
		matches = append(matches, bindiff.AddressPair{Primary: bindiff.Address(i * 4)})
	}

	pieces := samplePieces(binary, matches, 0, def)
	if len(pieces) != 3 {
		t.Errorf("got %d pieces, want max_piece_count cap of 3", len(pieces))
	}
}

func TestYaraCmdDefinition(t *testing.T) {
	defsPath := filepath.Join(t.TempDir(), "defs.sigdef")
	content := `
		signature "family.a" { variant: "1" }
		signature "family.b" { min_piece_length: 6 }
	`
	if err := os.WriteFile(defsPath, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	t.Run("defaults to first definition", func(t *testing.T) {
		cmd := &YaraCmd{Definitions: defsPath}
		def, err := cmd.definition()
		if err != nil {
			t.Fatalf("definition() failed: %v", err)
		}
		if def.Name != "family.a" {
			t.Errorf("Name = %q, want %q", def.Name, "family.a")
		}
	})

	t.Run("selects by name", func(t *testing.T) {
		cmd := &YaraCmd{Definitions: defsPath, Name: "family.b"}
		def, err := cmd.definition()
		if err != nil {
			t.Fatalf("definition() failed: %v", err)
		}
		if def.MinPieceLength != 6 {
			t.Errorf("MinPieceLength = %d, want 6", def.MinPieceLength)
		}
	})

	t.Run("unknown name is an error", func(t *testing.T) {
		cmd := &YaraCmd{Definitions: defsPath, Name: "family.z"}
		if _, err := cmd.definition(); err == nil {
			t.Error("definition() succeeded for unknown name")
		}
	})

	t.Run("no definition file falls back to defaults", func(t *testing.T) {
		cmd := &YaraCmd{}
		def, err := cmd.definition()
		if err != nil {
			t.Fatalf("definition() failed: %v", err)
		}
		if def.MinPieceLength != sigdef.DefaultMinPieceLength {
			t.Errorf("MinPieceLength = %d, want default", def.MinPieceLength)
		}
	})
}
