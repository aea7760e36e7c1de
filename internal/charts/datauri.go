package charts

import (
	"encoding/base64"
	"errors"
	"strings"
)

// PNGDataURIPrefix starts every chart URI returned to clients.
const PNGDataURIPrefix = "data:image/png;base64,"

func DataURI(png []byte) string {
	return PNGDataURIPrefix + base64.StdEncoding.EncodeToString(png)
}

// Base64 returns the bare payload of a PNG, as used by MCP image content.
func Base64(png []byte) string {
	return base64.StdEncoding.EncodeToString(png)
}

// DecodeDataURI returns the PNG bytes held by a URI produced by DataURI.
func DecodeDataURI(uri string) ([]byte, error) {
	payload, ok := strings.CutPrefix(uri, PNGDataURIPrefix)
	if !ok {
		return nil, errors.New("not a PNG data URI")
	}
	return base64.StdEncoding.DecodeString(payload)
}
