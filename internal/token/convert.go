// internal/token/convert.go
package token

import (
	"errors"
	"math"
)

// ErrInvalidArgument сигнализирует о некорректных входных данных конвертации.
var ErrInvalidArgument = errors.New("invalid argument")

// ToRaw converts a human-readable token amount into the smallest on-chain unit
// (lamport semantics). The scaled value is truncated toward zero.
func ToRaw(human float64, decimals int) (uint64, error) {
	if math.IsNaN(human) || math.IsInf(human, 0) || human < 0 {
		return 0, ErrInvalidArgument
	}
	if decimals < 0 {
		return 0, ErrInvalidArgument
	}

	// math.MaxUint64 rounds up to 2^64 as a float, so >= is required: a
	// scaled value of exactly 2^64 is already out of range.
	scaled := human * math.Pow10(decimals)
	if scaled >= math.MaxUint64 {
		return 0, ErrInvalidArgument
	}
	return uint64(math.Trunc(scaled)), nil
}

// ToHuman converts a raw smallest-unit amount into a human-readable quantity.
func ToHuman(raw uint64, decimals int) (float64, error) {
	if decimals < 0 {
		return 0, ErrInvalidArgument
	}
	return float64(raw) / math.Pow10(decimals), nil
}
