package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

// DecodeJSONRequest decodes exactly one JSON value from the body, refusing
// unknown fields and trailing data.
func DecodeJSONRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := decoder.Token(); err != io.EOF {
		return fmt.Errorf("invalid JSON: trailing data after value")
	}
	return nil
}
