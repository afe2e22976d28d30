package overview

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/netdiagram/internal/testutil"
)

func TestToDOT(t *testing.T) {
	g := testutil.OrdersGraph(t)
	dot := ToDOT(g, Options{Detailed: true})

	for _, want := range []string{
		"subgraph cluster_0 {",
		`label="core";`,
		`"kafka" [label="kafka", shape=cylinder`,
		`"a" -> "kafka" [label="topic x1"];`,
		`"kafka" -> "b" [label="topic x1"];`,
		`"c" -> "a" [style=dashed, label="grpc"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, `"d"`) {
		t.Errorf("unavailable service d should be left out:\n%s", dot)
	}
}

func TestToDOTUnavailable(t *testing.T) {
	dot := ToDOT(testutil.OrdersGraph(t), Options{Unavailable: true})
	if !strings.Contains(dot, `"d" [label="d", style="rounded,dashed"`) {
		t.Errorf("unavailable service not drawn dashed:\n%s", dot)
	}
	if !strings.Contains(dot, `"c" -> "d" [style=dashed];`) {
		t.Errorf("edge to unavailable service missing:\n%s", dot)
	}
}

func TestRenderDOT(t *testing.T) {
	out, err := Render(context.Background(), "digraph G {}", FormatDOT)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(out) != "digraph G {}" {
		t.Errorf("DOT passthrough = %q", out)
	}
}

func TestRenderSVG(t *testing.T) {
	dot := ToDOT(testutil.OrdersGraph(t), Options{})
	out, err := Render(context.Background(), dot, FormatSVG)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Contains(out, []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `)) {
		t.Errorf("SVG root not normalized: %.200s", out)
	}
}

func TestRenderUnsupported(t *testing.T) {
	if _, err := Render(context.Background(), "digraph G {}", "pdf"); err == nil {
		t.Error("expected error for pdf")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no viewbox", `<svg width="1pt">`, `<svg width="1pt">`},
		{"zero size", `<svg viewBox="0 0 0 10">`, `<svg viewBox="0 0 0 10">`},
		{"rewritten", `<svg width="80pt" viewBox="0.00 0.00 80.00 40.00">`,
			`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 80.00 40.00" width="80" height="40">`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(normalizeViewBox([]byte(tt.in))); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
