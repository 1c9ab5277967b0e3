package middleware

import (
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Input validation and sanitization utilities

var fileIDPattern = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`)

// ValidFileID reports whether id looks like a stored-file identifier (UUID).
func ValidFileID(id string) bool {
	return fileIDPattern.MatchString(id)
}

// RequireFileID rejects malformed {id} route params with the same 404 body a missing
// file gets, without touching storage.
func RequireFileID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ValidFileID(chi.URLParam(r, "id")) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"File not found"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// SanitizeFileName keeps the base name of an uploaded file, without control characters
// or quotes, so it is safe to echo back in Content-Disposition.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(SanitizeString(name))
	name = strings.Map(func(r rune) rune {
		if r == '"' || r == '\n' || r == '\t' {
			return -1
		}
		return r
	}, name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
