package dto

import (
	"bytes"
	"encoding/json"
)

// RawValue valor crudo de una celda de importación: acepta string, número, booleano o null en JSON
// y conserva su texto para que el saneador lo interprete.
type RawValue string

// UnmarshalJSON guarda el texto del valor sin interpretarlo.
func (v *RawValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*v = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = RawValue(s)
		return nil
	}
	*v = RawValue(b)
	return nil
}

func (v RawValue) String() string { return string(v) }

// ImportLineRequest línea cruda de una importación masiva (planilla u otra fuente no confiable).
type ImportLineRequest struct {
	ProductName   RawValue `json:"productName"`
	CategoryName  RawValue `json:"categoryName,omitempty"`
	SupplierName  RawValue `json:"supplierName,omitempty"`
	Cost          RawValue `json:"cost"`
	Price         RawValue `json:"price"`
	Quantity      RawValue `json:"quantity"`
	IsConsignment RawValue `json:"isConsignment,omitempty"`
}

// ImportBatchRequest body para POST /api/inventory/import.
type ImportBatchRequest struct {
	LocationID string              `json:"location_id"`
	Items      []ImportLineRequest `json:"items"`
}

// ImportLineError motivos de rechazo de una fila (índice 1-based).
type ImportLineError struct {
	Row     int      `json:"row"`
	Reasons []string `json:"reasons"`
}

// ImportChunk rango de filas procesado en una transacción.
type ImportChunk struct {
	Index   int `json:"index"`
	FromRow int `json:"from_row"`
	ToRow   int `json:"to_row"`
}

// ImportChunkFailure detalle del bloque que falló; sus filas no se guardaron.
type ImportChunkFailure struct {
	ImportChunk
	Reason    string `json:"reason"`
	Retryable bool   `json:"retryable"`
}

// ImportResult resultado agregado de una importación.
// Los bloques confirmados (CommittedChunks) permanecen guardados aunque un bloque posterior falle.
type ImportResult struct {
	Success           bool                `json:"success"`
	TotalLines        int                 `json:"total_lines"`
	ProcessedCount    int                 `json:"processed_count"`
	TotalChunks       int                 `json:"total_chunks"`
	CommittedChunks   []ImportChunk       `json:"committed_chunks"`
	FailedChunk       *ImportChunkFailure `json:"failed_chunk,omitempty"`
	SkippedChunks     int                 `json:"skipped_chunks"`
	Errors            []ImportLineError   `json:"errors,omitempty"`
	Duplicates        []string            `json:"duplicates,omitempty"`
	CreatedCategories int                 `json:"created_categories"`
	CreatedProducts   int                 `json:"created_products"`
	CreatedSuppliers  int                 `json:"created_suppliers"`
	MovementsCreated  int                 `json:"movements_created"`
}

// ImportBatchResponse forma que consume la pantalla de resultados de importación.
type ImportBatchResponse struct {
	Success    bool          `json:"success"`
	Message    string        `json:"message"`
	ErrorCause string        `json:"errorCause,omitempty"`
	Data       *ImportResult `json:"data,omitempty"`
}
