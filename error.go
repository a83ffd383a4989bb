package dex

import "errors"

var (
	ErrUnknownAsset             = errors.New("asset is not registered")
	ErrForbiddenAsset           = errors.New("asset is quote asset")
	ErrDuplicateAsset           = errors.New("asset is already registered")
	ErrInsufficientBalance      = errors.New("insufficient balance")
	ErrInsufficientQuoteBalance = errors.New("insufficient quote balance")
	ErrUnauthorized             = errors.New("caller is not the exchange admin")
	ErrInvalidParam             = errors.New("the param is invalid")
	ErrSequenceGap              = errors.New("book log sequence gap detected")
)
