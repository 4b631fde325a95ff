// Package hacienda interpreta las respuestas del validador de comprobantes.
package hacienda

import (
	"strings"

	"github.com/invosell/factura-api/internal/domain/entity"
)

// Valores de ind-estado devueltos por la consulta de estado. El API
// responde en español o en inglés según la versión del servicio.
const (
	IndAceptado   = "aceptado"
	IndAccepted   = "accepted"
	IndRechazado  = "rechazado"
	IndRejected   = "rejected"
	IndRecibido   = "recibido"
	IndProcesando = "procesando"
)

// Interpretation es el veredicto normalizado de una consulta de estado.
type Interpretation struct {
	Status string // estado de entity.Document resultante
	Final  bool   // true cuando nuevas consultas ya no cambian nada
}

// Interpret traduce el ind-estado crudo del API a un estado del dominio.
// Solo aceptado/accepted y rechazado/rejected son finales; cualquier otro
// valor, incluidos estados desconocidos o vacíos, se trata como en proceso.
func Interpret(indEstado string) Interpretation {
	switch strings.ToLower(strings.TrimSpace(indEstado)) {
	case IndAceptado, IndAccepted:
		return Interpretation{Status: entity.StatusAccepted, Final: true}
	case IndRechazado, IndRejected:
		return Interpretation{Status: entity.StatusRejected, Final: true}
	default:
		return Interpretation{Status: entity.StatusProcessing, Final: false}
	}
}
