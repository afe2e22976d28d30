package prom

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/netdiagram/pkg/observability"
)

func textfile(t *testing.T, m *Metrics) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netdiagram.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestMetricsRecord(t *testing.T) {
	ctx := context.Background()
	m := New()

	m.OnLoad(ctx, 7, 10*time.Millisecond, nil)
	m.OnDiagramComplete(ctx, "", observability.DiagramResult{Arrows: 4, DisabledLinks: 1, Bytes: 100}, time.Millisecond, nil)
	m.OnDiagramComplete(ctx, "orders", observability.DiagramResult{Arrows: 2}, time.Millisecond, nil)
	m.OnDiagramComplete(ctx, "billing", observability.DiagramResult{Arrows: 9}, time.Millisecond, errors.New("boom"))
	m.OnCacheHit(ctx, "diagram")
	m.OnCacheMiss(ctx, "diagram")
	m.OnCacheMiss(ctx, "diagram")
	m.OnCacheSet(ctx, "diagram", 10)

	out := textfile(t, m)
	for _, want := range []string{
		"netdiagram_services 7",
		"netdiagram_arrows_total 6",
		"netdiagram_disabled_links_total 1",
		"netdiagram_output_bytes_total 100",
		`netdiagram_diagrams_total{kind="service",result="error"} 1`,
		`netdiagram_diagrams_total{kind="service",result="ok"} 1`,
		`netdiagram_diagrams_total{kind="system",result="ok"} 1`,
		`netdiagram_cache_operations_total{key_type="diagram",op="miss"} 2`,
		`netdiagram_cache_operations_total{key_type="diagram",op="set"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}

func TestLoadFailureKeepsServiceGauge(t *testing.T) {
	ctx := context.Background()
	m := New()
	m.OnLoad(ctx, 3, time.Millisecond, nil)
	m.OnLoad(ctx, 0, time.Millisecond, errors.New("bad graph"))
	if out := textfile(t, m); !strings.Contains(out, "netdiagram_services 3") {
		t.Errorf("service gauge overwritten by failed load:\n%s", out)
	}
}
