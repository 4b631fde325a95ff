package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
)

// Errores criptográficos del material de firma.
var (
	// ErrInvalidKeystore el archivo .p12 no se pudo decodificar.
	ErrInvalidKeystore = errors.New("keystore inválido o corrupto")
	// ErrInvalidPassphrase el PIN del keystore es incorrecto.
	ErrInvalidPassphrase = errors.New("pin del keystore incorrecto")
	// ErrExpiredCertificate el certificado está fuera de su ventana de validez.
	ErrExpiredCertificate = errors.New("certificado expirado o aún no vigente")
)

// Errores de autenticación ante el IDP de Hacienda.
var (
	// ErrBadCredentials usuario o contraseña ATV rechazados (invalid_grant).
	ErrBadCredentials = errors.New("credenciales ATV inválidas")
	// ErrBadClientConfig el client_id configurado no es válido (invalid_client).
	ErrBadClientConfig = errors.New("configuración de cliente OAuth inválida")
)

// Errores del ciclo de vida del comprobante.
var (
	// ErrTransient fallo temporal (red, 5xx); la operación se puede reintentar.
	ErrTransient = errors.New("fallo transitorio del servicio externo")
	// ErrRejected Hacienda rechazó el comprobante de forma definitiva.
	ErrRejected = errors.New("comprobante rechazado por Hacienda")
	// ErrIntegrity los datos almacenados violan un supuesto del dominio.
	ErrIntegrity = errors.New("inconsistencia de integridad en los datos")
)
