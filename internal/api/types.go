package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Bloco is a raw street-party record as returned by the Carnival backend.
// JSON tags follow the backend's Portuguese field names. The record is
// read-only input for the feed pipeline; fallbacks for missing fields are
// applied during normalization, never here.
type Bloco struct {
	ID           string            `json:"-"` // decoded from "id", number or string
	Nome         string            `json:"nome"`
	Hora         string            `json:"hora"` // HH:MM or HH:MM:SS
	Logradouro   string            `json:"logradouro"`
	Numero       string            `json:"-"` // decoded from "numero", number or string
	Bairro       string            `json:"bairro"`
	Data         string            `json:"data"` // ISO YYYY-MM-DD
	Status       string            `json:"status"`
	Latitude     float64           `json:"lat"`
	Longitude    float64           `json:"lng"`
	DistanceKm   float64           `json:"distancia_usuario_km"`
	Proximity    *ProximitySummary `json:"resumo_proximidade,omitempty"`
	TransitLinks map[string]string `json:"links_transporte,omitempty"`
}

// ProximitySummary carries the backend-computed nearby service counts.
type ProximitySummary struct {
	RestroomCount int `json:"qtd_banheiros"`
	HospitalCount int `json:"qtd_hospitais"`
}

// UnmarshalJSON implements custom JSON unmarshaling for Bloco.
// The backend is inconsistent about numeric identifiers: "id" and "numero"
// arrive as JSON numbers from some routes and as strings from others.
func (b *Bloco) UnmarshalJSON(data []byte) error {
	// Create type alias to avoid infinite recursion when calling json.Unmarshal
	type Alias Bloco
	aux := &struct {
		IDRaw     json.RawMessage `json:"id"`
		NumeroRaw json.RawMessage `json:"numero"`
		*Alias
	}{
		Alias: (*Alias)(b),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	b.ID = flexibleString(aux.IDRaw)
	b.Numero = flexibleString(aux.NumeroRaw)
	return nil
}

// flexibleString renders a raw JSON scalar as a plain string.
// Strings are unquoted, numbers are kept as their literal text,
// null/absent values become "".
func flexibleString(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	if s, err := strconv.Unquote(trimmed); err == nil {
		return s
	}
	return trimmed
}

// BlocosResponse is the normalized result of a bloco listing request.
// The backend returns either a bare JSON array of records or an envelope
// {"total": N, "blocos": [...]}. Both shapes are resolved here, at the fetch
// boundary, so the rest of the pipeline sees exactly one internal shape.
type BlocosResponse struct {
	Total  int
	Blocos []Bloco
}

// UnmarshalJSON accepts both response shapes.
func (r *BlocosResponse) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []Bloco
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		r.Blocos = list
		r.Total = len(list)
		return nil
	}

	var envelope struct {
		Total  int     `json:"total"`
		Blocos []Bloco `json:"blocos"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}

	r.Blocos = envelope.Blocos
	r.Total = envelope.Total
	if r.Total == 0 {
		r.Total = len(r.Blocos)
	}
	return nil
}

// Service is a proximity service record (restroom point or hospital).
type Service struct {
	Nome         string  `json:"nome"`
	Endereco     string  `json:"endereco"`
	Latitude     float64 `json:"lat"`
	Longitude    float64 `json:"lng"`
	DistanceKm   float64 `json:"distancia_km"`
	CabinCount   int     `json:"quantidade_cabines,omitempty"`
	LocationLink string  `json:"link_localizacao,omitempty"`
}

// APIError represents an error response body from the Carnival backend.
// Format: {"erro": "mensagem"}
type APIError struct {
	Message string `json:"erro"`
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unknown API error"
}
