package models

import "errors"

var (
	ErrInvalidSymbol    = errors.New("invalid symbol")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidCandle    = errors.New("invalid candle (high < low)")
	ErrInvalidVolume    = errors.New("invalid volume")
	ErrUnknownFrame     = errors.New("unknown frame type")
)
