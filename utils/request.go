package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"wanderlist/globals"
)

const maxBodyBytes = 1 << 20

func GetUserIDFromRequest(r *http.Request) string {
	userID, _ := r.Context().Value(globals.UserIDKey).(string)
	return userID
}

// DecodeJSON reads a JSON body into v, rejecting unknown fields and
// bodies over 1MB.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid request body: trailing data")
	}
	return nil
}

// QueryInt parses a positive integer query parameter, returning def when
// absent or malformed and capping the result at ceiling.
func QueryInt(r *http.Request, name string, def, ceiling int) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(name)))
	if err != nil || n < 1 {
		return def
	}
	if ceiling > 0 && n > ceiling {
		return ceiling
	}
	return n
}

var SupportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

func ValidateImageFileType(header *multipart.FileHeader) bool {
	return SupportedImageTypes[header.Header.Get("Content-Type")]
}
