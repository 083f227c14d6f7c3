package domain

import "errors"

var (
	ErrInvalidRoute          = errors.New("invalid route")
	ErrRobotNotFound         = errors.New("robot not found")
	ErrCapacityExceeded      = errors.New("package capacity exceeded")
	ErrLargeCapacityExceeded = errors.New("large package capacity exceeded")
	ErrSmallCapacityExceeded = errors.New("small package capacity exceeded")
	ErrInvalidPackageSize    = errors.New("invalid package size")
	ErrInvalidBattery        = errors.New("battery must be between 0 and 100")
	ErrInvalidLED            = errors.New("led channels must be between 0 and 255")
	ErrInvalidTickInterval   = errors.New("seconds per tick must be at least 1")
	ErrRouteProviderMissing  = errors.New("route provider not configured")
	ErrFleetIndexMissing     = errors.New("fleet position index not configured")
	ErrAddressNotFound       = errors.New("address not found")
	ErrNoRoute               = errors.New("no route between points")
)
