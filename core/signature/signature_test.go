package signature

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

func testSignature() *Signature {
	return &Signature{
		DetectionName: "sshd.trojan1",
		Pieces: [][]byte{
			{0x56, 0x8b, 0x74, 0x24},
			{0x85, 0xc0, 0x74, 0x0c},
		},
		Sources: []Provenance{
			{Name: "sshd.korg", OriginalName: "sshd.korg.hera.zeus1", ContentHash: "F705209F5671A2F85336717908007769B9FAFE54"},
			{Name: "sshd.trojan1", OriginalName: "sshd", ContentHash: "86781CF0DF581B166A9ACAE32373BEB465704B54"},
		},
	}
}

func TestRuleName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"dots become underscores", "sshd.trojan1", "sshd_trojan1"},
		{"spaces become underscores", "evil dropper v2", "evil_dropper_v2"},
		{"leading digit gets prefix", "3proxy variant", "sig_3proxy_variant"},
		{"empty name", "", "unnamed"},
		{"already valid", "clean_name_42", "clean_name_42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := &Signature{DetectionName: tt.in}
			if got := sig.RuleName(); got != tt.want {
				t.Errorf("RuleName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDigest(t *testing.T) {
	sig := testSignature()

	digest := sig.Digest()
	if len(digest) != 64 {
		t.Fatalf("Digest() length = %d, want 64 hex chars", len(digest))
	}
	if digest != testSignature().Digest() {
		t.Error("Digest() is not stable for identical pieces")
	}

	renamed := testSignature()
	renamed.DetectionName = "something else"
	renamed.Sources = nil
	if renamed.Digest() != digest {
		t.Error("Digest() should depend on piece content only")
	}

	merged := &Signature{Pieces: [][]byte{{0x56, 0x8b, 0x74, 0x24, 0x85, 0xc0, 0x74, 0x0c}}}
	if merged.Digest() == digest {
		t.Error("Digest() must distinguish piece boundaries")
	}
}

func TestFormat(t *testing.T) {
	var f YaraFormatter
	out, err := f.Format(testSignature())
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	g := goldie.New(t)
	g.Assert(t, "rule", []byte(out))
}

func TestFormatNoSources(t *testing.T) {
	var f YaraFormatter
	out, err := f.Format(&Signature{
		DetectionName: "bare",
		Pieces:        [][]byte{{0xe8, 0x00, 0x00, 0x00, 0x00, 0x5d}},
	})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if strings.Contains(out, "meta:") {
		t.Errorf("rule without sources should have no meta section:\n%s", out)
	}
}

func TestFormatErrors(t *testing.T) {
	var f YaraFormatter

	if _, err := f.Format(&Signature{DetectionName: "empty"}); err == nil {
		t.Error("Format accepted signature with no pieces")
	}
	if _, err := f.Format(&Signature{
		DetectionName: "holey",
		Pieces:        [][]byte{{0x90}, {}},
	}); err == nil {
		t.Error("Format accepted signature with an empty piece")
	}
}

func TestFormatDatabase(t *testing.T) {
	duplicate := testSignature()
	duplicate.DetectionName = "sshd.trojan1.copy"

	other := &Signature{
		DetectionName: "3proxy variant",
		Pieces:        [][]byte{{0xe8, 0x00, 0x00, 0x00, 0x00, 0x5d}},
	}

	var f YaraFormatter
	out, err := f.FormatDatabase([]*Signature{testSignature(), duplicate, other})
	if err != nil {
		t.Fatalf("FormatDatabase failed: %v", err)
	}

	if strings.Contains(out, "sshd_trojan1_copy") {
		t.Error("duplicate piece content was not deduplicated")
	}

	g := goldie.New(t)
	g.Assert(t, "database", []byte(out))
}
