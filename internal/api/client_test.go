package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 0, hclog.NewNullLogger())
}

func TestFetchBlocos(t *testing.T) {
	t.Run("envelope response is decoded", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/blocos", r.URL.Path)
			assert.Equal(t, "2026-02-14", r.URL.Query().Get("data"))
			w.Write([]byte(`{"total": 12, "blocos": [{"id": 1, "nome": "Bloco do Peixe", "hora": "10:00:00"}]}`))
		})

		resp, err := client.FetchBlocos(context.Background(), BlocoQuery{Date: "2026-02-14"})
		require.NoError(t, err)
		assert.Equal(t, 12, resp.Total)
		require.Len(t, resp.Blocos, 1)
		assert.Equal(t, "1", resp.Blocos[0].ID, "numeric id should decode as string")
		assert.Equal(t, "Bloco do Peixe", resp.Blocos[0].Nome)
	})

	t.Run("bare array response is decoded", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"id": "abc", "nome": "Primeiro"}, {"id": "def", "nome": "Segundo"}]`))
		})

		resp, err := client.FetchBlocos(context.Background(), BlocoQuery{})
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Total, "total should default to the record count")
		assert.Len(t, resp.Blocos, 2)
	})

	t.Run("query parameters are encoded", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "-19.932", q.Get("lat"))
			assert.Equal(t, "-43.938", q.Get("lng"))
			assert.Equal(t, "10", q.Get("raio"), "zero radius should fall back to 10")
			assert.Equal(t, "galo", q.Get("busca"))
			assert.Equal(t, "true", q.Get("proximo"))
			assert.Equal(t, "50", q.Get("limit"))
			w.Write([]byte(`[]`))
		})

		_, err := client.FetchBlocos(context.Background(), BlocoQuery{
			Latitude:    -19.932,
			Longitude:   -43.938,
			Search:      "galo",
			Limit:       50,
			ByProximity: true,
		})
		require.NoError(t, err)
	})

	t.Run("error statuses surface the backend message", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"erro": "data inválida"}`))
		})

		_, err := client.FetchBlocos(context.Background(), BlocoQuery{Date: "not-a-date"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "data inválida")
	})

	t.Run("rate limiting is reported as such", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := client.FetchBlocos(context.Background(), BlocoQuery{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limit")
	})

	t.Run("unexpected status is an error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.FetchBlocos(context.Background(), BlocoQuery{})
		assert.Error(t, err)
	})
}

func TestFetchBloco(t *testing.T) {
	t.Run("detail record round-trips", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/blocos/42", r.URL.Path)
			w.Write([]byte(`{
				"id": 42,
				"nome": "Então, Brilha!",
				"resumo_proximidade": {"qtd_banheiros": 4, "qtd_hospitais": 2},
				"links_transporte": {"uber": "uber://..."}
			}`))
		})

		bloco, err := client.FetchBloco(context.Background(), "42")
		require.NoError(t, err)
		assert.Equal(t, "42", bloco.ID)
		require.NotNil(t, bloco.Proximity)
		assert.Equal(t, 4, bloco.Proximity.RestroomCount)
		assert.Equal(t, "uber://...", bloco.TransitLinks["uber"])
	})

	t.Run("missing bloco reports not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"erro": "bloco não encontrado"}`))
		})

		_, err := client.FetchBloco(context.Background(), "missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bloco não encontrado")
	})
}

func TestFetchServices(t *testing.T) {
	t.Run("restroom lookup defaults its radius", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/banheiros", r.URL.Path)
			assert.Equal(t, "2", r.URL.Query().Get("raio"))
			w.Write([]byte(`[{"nome": "Banheiro Praça Sete", "quantidade_cabines": 8}]`))
		})

		services, err := client.FetchRestrooms(context.Background(), -19.9, -43.9, 0)
		require.NoError(t, err)
		require.Len(t, services, 1)
		assert.Equal(t, 8, services[0].CabinCount)
	})

	t.Run("hospital lookup defaults to a wider radius", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/hospitais", r.URL.Path)
			assert.Equal(t, "5", r.URL.Query().Get("raio"))
			w.Write([]byte(`[]`))
		})

		_, err := client.FetchHospitals(context.Background(), -19.9, -43.9, 0)
		require.NoError(t, err)
	})
}

func TestBlocoUnmarshal(t *testing.T) {
	t.Run("string and numeric identifiers both decode", func(t *testing.T) {
		var fromNumber Bloco
		require.NoError(t, fromNumber.UnmarshalJSON([]byte(`{"id": 7, "numero": 120}`)))
		assert.Equal(t, "7", fromNumber.ID)
		assert.Equal(t, "120", fromNumber.Numero)

		var fromString Bloco
		require.NoError(t, fromString.UnmarshalJSON([]byte(`{"id": "7a", "numero": "120b"}`)))
		assert.Equal(t, "7a", fromString.ID)
		assert.Equal(t, "120b", fromString.Numero)
	})

	t.Run("null and absent identifiers decode empty", func(t *testing.T) {
		var bloco Bloco
		require.NoError(t, bloco.UnmarshalJSON([]byte(`{"id": null, "nome": "Sem ID"}`)))
		assert.Empty(t, bloco.ID)
		assert.Empty(t, bloco.Numero)
	})
}
