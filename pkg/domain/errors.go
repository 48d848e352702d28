package domain

import "errors"

// 呼び出し側の契約違反を表すエラー群です。コンポーザー自体はエラーを返しません。
var (
	ErrEmptyPrompt       = errors.New("prompt is empty")
	ErrNoApprovedImages  = errors.New("at least one approved image is required")
	ErrOutOfRange        = errors.New("value out of range")
	ErrGuideNotApproved  = errors.New("composition guide must be an approved image")
	ErrUnknownStyle      = errors.New("unknown style")
	ErrUnknownPalette    = errors.New("unknown color palette")
	ErrUnknownQuizAnswer = errors.New("unknown quiz question or choice")
	ErrImageNotFound     = errors.New("image not found")
	ErrInvalidImage      = errors.New("image id is required")
	ErrUnsupportedURL    = errors.New("reference url must be http or https")
)
