package adapter

import (
	"context"
	"strings"
	"testing"

	m "weave.dev/pkg/weave/internal/model"
)

// These tests run the real go vet and are skipped when no toolchain is
// installed.

func vetUnit(body string) m.SourceUnit {
	return m.SourceUnit{
		Package:    "vetted",
		ImportPath: m.GeneratedImportRoot + "/vetted",
		TypeName:   "Vetted",
		Text:       "package vetted\n\nimport \"fmt\"\n\ntype Vetted struct{}\n\n" + body,
	}
}

func TestLocalVetRunner_Vet(t *testing.T) {
	runner := NewLocalVetRunner()
	if !runner.Available() {
		t.Skip("go toolchain not available")
	}

	t.Run("clean unit", func(t *testing.T) {
		diags, err := runner.Vet(context.Background(), vetUnit("func (v *Vetted) Hello() {\n\tfmt.Println(\"hello\")\n}\n"))
		if err != nil {
			t.Fatalf("Vet() error = %v", err)
		}

		if len(diags) != 0 {
			t.Fatalf("Vet() = %v, want no findings", diags)
		}
	})

	t.Run("printf misuse", func(t *testing.T) {
		diags, err := runner.Vet(context.Background(), vetUnit("func (v *Vetted) Hello() {\n\tfmt.Printf(\"%d\\n\", \"hello\")\n}\n"))
		if err != nil {
			t.Fatalf("Vet() error = %v", err)
		}

		if len(diags) == 0 {
			t.Fatal("Vet() reported no findings for a bad format verb")
		}

		if diags[0].Severity != m.SeverityWarning || !strings.Contains(diags[0].Message, "%d") {
			t.Fatalf("Vet() = %+v", diags[0])
		}
	})
}

func TestLocalVetRunner_Unavailable(t *testing.T) {
	runner := &LocalVetRunner{goBin: "weave-no-such-go-binary"}
	if runner.Available() {
		t.Fatal("Available() = true for a missing binary")
	}

	if _, err := runner.Vet(context.Background(), vetUnit("")); err == nil {
		t.Fatal("Vet() expected error for a missing binary")
	}
}
