package postgres

import (
	"context"
	"fmt"

	"github.com/invosell/factura-api/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo asigna consecutivos por emisor y tipo de comprobante.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next devuelve el siguiente número de la serie de forma atómica.
// El UPSERT con RETURNING garantiza que dos llamadas concurrentes nunca
// reciban el mismo valor.
func (r *SequenceRepo) Next(companyID, docType string) (int64, error) {
	const query = `
		INSERT INTO document_sequences (company_id, doc_type, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (company_id, doc_type)
		DO UPDATE SET last_number = document_sequences.last_number + 1
		RETURNING last_number`
	var n int64
	if err := r.q.QueryRow(context.Background(), query, companyID, docType).Scan(&n); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return n, nil
}
