package resource

import (
	"bytes"
	"strings"

	"golang.org/x/net/html/charset"
)

// DecodeText converts a fetched stylesheet to UTF-8, honoring a byte
// order mark, an @charset rule, or contentType, in that order.
func DecodeText(data []byte, contentType string) string {
	if name := cssCharset(data); name != "" {
		if enc, _ := charset.Lookup(name); enc != nil {
			if out, err := enc.NewDecoder().Bytes(data); err == nil {
				return string(out)
			}
		}
	}
	if contentType == "" {
		contentType = "text/css"
	}
	enc, _, _ := charset.DetermineEncoding(data, contentType)
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return strings.TrimPrefix(string(out), "\ufeff")
}

func cssCharset(data []byte) string {
	const prefix = `@charset "`
	if !bytes.HasPrefix(data, []byte(prefix)) {
		return ""
	}
	rest := data[len(prefix):]
	end := bytes.IndexByte(rest, '"')
	if end <= 0 || end > 40 {
		return ""
	}
	return string(rest[:end])
}
