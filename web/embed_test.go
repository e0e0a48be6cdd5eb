package web

import (
	"io/fs"
	"strings"
	"testing"
)

func TestTemplatesEmbedded(t *testing.T) {
	b, err := fs.ReadFile(Templates(), DashboardFile)
	if err != nil {
		t.Fatalf("reading %s: %v", DashboardFile, err)
	}
	if !strings.Contains(string(b), "vega-embed") {
		t.Error("dashboard template does not load vega-embed")
	}
}
