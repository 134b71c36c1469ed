package netevent

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// maxDecodedBody caps how much of a payload is decoded into an event.
// Larger payloads are represented by a BinaryPlaceholder.
const maxDecodedBody = 64 * 1024

// BinaryPlaceholder stands in for a body that could not be decoded as
// JSON or text. Only the byte count survives.
type BinaryPlaceholder struct {
	Size int64  `json:"size"`
	Note string `json:"note"`
}

// DecodeBody converts a raw payload into its best-effort decoded form:
// parsed JSON when it parses, raw text when it is valid UTF-8, otherwise a
// size-only placeholder. It never fails; a nil payload yields nil.
// The returned size is always the original byte count.
func DecodeBody(data []byte, contentType string) (any, int64) {
	size := int64(len(data))
	if len(data) == 0 {
		return nil, 0
	}
	if size > maxDecodedBody {
		return BinaryPlaceholder{Size: size, Note: "body too large to decode"}, size
	}

	if looksLikeJSON(data, contentType) {
		var v any
		if err := json.Unmarshal(data, &v); err == nil {
			return v, size
		}
	}

	if utf8.Valid(data) {
		return string(data), size
	}

	return BinaryPlaceholder{Size: size, Note: "binary body"}, size
}

func looksLikeJSON(data []byte, contentType string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "json") {
		return true
	}
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{', '[', '"':
			return true
		default:
			// Bare JSON numbers/booleans are indistinguishable from text;
			// treat them as text unless the content type says otherwise.
			return false
		}
	}
	return false
}
