package template

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/netdiagram/internal/testutil"
	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/geometry"
)

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(testutil.Skeleton))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Root().Tag != "root" {
		t.Errorf("Root().Tag = %q, want root", doc.Root().Tag)
	}

	r, ok := doc.Geometry("control#panel#group")
	if !ok {
		t.Fatal("control panel not found")
	}
	if r.W != 120 || r.H != 24 {
		t.Errorf("Geometry = %+v, want 120x24", r)
	}

	if !doc.SetPosition("control#panel#group", geometry.Position{X: 40, Y: -30}) {
		t.Fatal("SetPosition returned false")
	}
	r, _ = doc.Geometry("control#panel#group")
	if r.X != 40 || r.Y != -30 {
		t.Errorf("after SetPosition = %+v", r)
	}
	if doc.SetPosition("missing", geometry.Position{}) {
		t.Error("SetPosition on a missing cell returned true")
	}
}

func TestParseRejectsBadSkeletons(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{"not xml", "<<<"},
		{"no root", `<mxfile><diagram><mxGraphModel/></diagram></mxfile>`},
		{"two roots", `<mxfile><diagram><mxGraphModel><root/></mxGraphModel></diagram><diagram><mxGraphModel><root/></mxGraphModel></diagram></mxfile>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.xml))
			if !errors.Is(err, errors.ErrCodeTemplate) {
				t.Errorf("Parse() error = %v, want %s", err, errors.ErrCodeTemplate)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network.xml")
	if err := os.WriteFile(path, []byte(testutil.Skeleton), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !strings.Contains(string(out), `id="control#panel#group"`) {
		t.Errorf("serialized skeleton lost the control panel:\n%s", out)
	}

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.xml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, path); err == nil {
		t.Error("Load with cancelled context succeeded")
	}
}
