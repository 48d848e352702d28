package imgutil

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const dataURLPrefix = "data:"

// ErrNotDataURL は base64 の data URL ではない文字列を渡したときのエラーです。
var ErrNotDataURL = errors.New("not a base64 data URL")

// EncodeDataURL は画像データを data:{mime};base64,... 形式にします。
func EncodeDataURL(mimeType string, data []byte) string {
	return dataURLPrefix + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsDataURL は文字列が data URL かどうかを返します。
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, dataURLPrefix)
}

// DecodeDataURL は data URL を MIME タイプとバイト列に戻します。
func DecodeDataURL(s string) (string, []byte, error) {
	if !IsDataURL(s) {
		return "", nil, ErrNotDataURL
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(s, dataURLPrefix), ",")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, ErrNotDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("data URL のデコードに失敗しました: %w", err)
	}
	return mimeType, data, nil
}
