package ibge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andreguimel/salesloop-kit-sub001/internal/lookup"
)

func TestFetchCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cnae/classes" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[
			{"id": 62015, "descricao": "Desenvolvimento de programas de computador sob encomenda"},
			{"id": "47113", "descricao": "Comércio varejista de mercadorias em geral"}
		]`))
	}))
	defer server.Close()

	client := NewClient()
	client.SetBaseURL(server.URL)

	catalog, err := client.FetchCatalog(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(catalog) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(catalog))
	}
	// ids arrive as numbers or strings depending on the endpoint version
	if catalog[0].ID != "62015" || catalog[1].ID != "47113" {
		t.Errorf("unexpected ids: %q, %q", catalog[0].ID, catalog[1].ID)
	}
}

func TestFetchCatalogUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient()
	client.SetBaseURL(server.URL)

	_, err := client.FetchCatalog(context.Background())
	if lookup.CodeOf(err) != lookup.CodeUpstream {
		t.Errorf("expected upstream_error, got %v", err)
	}
}
