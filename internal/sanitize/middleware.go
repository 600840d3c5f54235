package sanitize

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
)

const maxBodyBytes = 1 << 20

// Middleware sanitizes the JSON body, query string, and any named path
// values of a request, then runs the injection heuristic over the sanitized
// copy. A request carrying a signature match is rejected before any later
// stage sees it.
func Middleware(next http.Handler, pathParams ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sanitizeBody(w, r) {
			return
		}
		if !sanitizeQuery(w, r) {
			return
		}

		for _, name := range pathParams {
			value := r.PathValue(name)
			if value == "" {
				continue
			}
			cleaned := Clean(value)
			if LooksMalicious(cleaned) {
				reject(w)
				return
			}
			r.SetPathValue(name, cleaned)
		}

		next.ServeHTTP(w, r)
	})
}

func sanitizeBody(w http.ResponseWriter, r *http.Request) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		reject(w)
		return false
	}
	_ = r.Body.Close()

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// Not valid JSON; the handler's decoder reports that with its own
		// error, so hand the original bytes through untouched.
		r.Body = io.NopCloser(bytes.NewReader(raw))
		return true
	}

	cleaned := CleanValue(decoded)
	if AnyMalicious(cleaned) {
		reject(w)
		return false
	}

	encoded, err := json.Marshal(cleaned)
	if err != nil {
		reject(w)
		return false
	}

	r.Body = io.NopCloser(bytes.NewReader(encoded))
	r.ContentLength = int64(len(encoded))
	return true
}

func sanitizeQuery(w http.ResponseWriter, r *http.Request) bool {
	if r.URL.RawQuery == "" {
		return true
	}

	query := r.URL.Query()
	cleaned := make(url.Values, len(query))
	for key, values := range query {
		for _, value := range values {
			safe := Clean(value)
			if LooksMalicious(safe) {
				reject(w)
				return false
			}
			cleaned.Add(key, safe)
		}
	}

	r.URL.RawQuery = cleaned.Encode()
	return true
}

func reject(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "SQL_INJECTION_DETECTED",
		"message": "possible SQL injection detected",
	})
}
