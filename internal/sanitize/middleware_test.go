package sanitize

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddlewareRejectsInjectionInBody(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run for a rejected request")
	})
	handler := Middleware(next)

	body := `{"email":"user@example.com","password":"xp_cmdshell"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["code"] != "SQL_INJECTION_DETECTED" {
		t.Fatalf("code = %q, want SQL_INJECTION_DETECTED", resp["code"])
	}
}

func TestMiddlewareSanitizesBodyForNextHandler(t *testing.T) {
	var seen map[string]any
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if err := json.Unmarshal(raw, &seen); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	})

	body := `{"email":"o'brien@example.com","password":"Pass<w>ord1!"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	Middleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if seen["email"] != "o''brien@example.com" {
		t.Errorf("email = %q, want quote doubled", seen["email"])
	}
	if seen["password"] != "Password1!" {
		t.Errorf("password = %q, want angle brackets stripped", seen["password"])
	}
}

func TestMiddlewareSanitizesQuery(t *testing.T) {
	var gotQuery string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("redirect")
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login?redirect=%3Cscript%3Ealert(1)%3C%2Fscript%3Ehome", nil)
	rec := httptest.NewRecorder()
	Middleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotQuery != "home" {
		t.Fatalf("query = %q, want script stripped", gotQuery)
	}
}

func TestMiddlewareRejectsInjectionInQuery(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run for a rejected request")
	})

	req := httptest.NewRequest(http.MethodGet, "/users?orderBy=name%20WAITFOR%20DELAY%20'0:0:5'", nil)
	rec := httptest.NewRecorder()
	Middleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestMiddlewarePassesNonJSONBodyThrough(t *testing.T) {
	var body string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	Middleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body != "not json" {
		t.Fatalf("body = %q, want original bytes preserved", body)
	}
}
