package domain

import "errors"

var (
	// ErrInvalidRepresentation se devuelve cuando un OddsFormat no es reconocido.
	ErrInvalidRepresentation = errors.New("invalid odds representation")

	// ErrNotImplemented se devuelve para combinaciones no soportadas
	// (p.ej. CDF por convolución).
	ErrNotImplemented = errors.New("not implemented")

	// ErrInvalidPosition se devuelve cuando una Position tiene probabilidad fuera de [0,1].
	ErrInvalidPosition = errors.New("invalid position")

	// ErrMarketUnavailable indica que el snapshot del mercado no pudo obtenerse.
	ErrMarketUnavailable = errors.New("market unavailable")
)
