package domain

import "errors"

var (
	// ErrDataUnavailable means the record source was unreachable or yielded no usable records.
	ErrDataUnavailable = errors.New("complaint data unavailable")

	// ErrModelUnavailable means no model has been trained successfully yet.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrUnknownLocality means a locality is absent from a model's encoder.
	ErrUnknownLocality = errors.New("locality not recognized")

	// ErrInvalidInput means an inference request carried an out-of-range or malformed value.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRefreshInProgress means another training run holds the refresh lock.
	ErrRefreshInProgress = errors.New("refresh already in progress")

	// ErrTemperatureUnavailable means the weather source could not supply a temperature.
	ErrTemperatureUnavailable = errors.New("temperature unavailable")
)
