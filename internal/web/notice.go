package web

import "encoding/base64"

// Cookie values may not hold arbitrary UTF-8, so notices are encoded.
func encodeNotice(msg string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(msg))
}

func decodeNotice(v string) string {
	b, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return ""
	}
	return string(b)
}
