package repository

// SequenceRepository asigna consecutivos por emisor y tipo de comprobante.
type SequenceRepository interface {
	// Next devuelve el siguiente número de la serie de forma atómica.
	// Dos llamadas concurrentes nunca reciben el mismo valor.
	Next(companyID, docType string) (int64, error)
}
