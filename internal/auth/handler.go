package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/getsentry/sentry-go"

	"auth-api/internal/observability"
	"auth-api/internal/password"
)

const maxJSONBodyBytes = 1 << 20

var (
	emailFormatRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	credCharacterRe = regexp.MustCompile(`(?i)['";]|(--)|\b(SELECT|INSERT|UPDATE|DELETE|DROP|UNION|ALTER)\b`)
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body registerRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeAPIError(w, ValidationError("invalid json body"))
		return
	}

	if apiErr := validateCredentials(body.Email, body.Password); apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}
	if apiErr := validatePolicy(body.Password); apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}
	if body.Name != "" && len(body.Name) < 2 {
		writeAPIError(w, ValidationError("name must be at least 2 characters"))
		return
	}
	role := Role(body.Role)
	if body.Role != "" && !role.Valid() {
		writeAPIError(w, ValidationError("role must be one of admin, editor, user"))
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput{
		Email:    body.Email,
		Password: body.Password,
		Name:     body.Name,
		Role:     role,
	}, requestOrigin(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body loginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeAPIError(w, ValidationError("invalid json body"))
		return
	}

	if apiErr := validateCredentials(body.Email, body.Password); apiErr != nil {
		writeAPIError(w, apiErr)
		return
	}

	result, err := h.service.Login(r.Context(), body.Email, body.Password, requestOrigin(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Me returns the record behind a verified token. The JWT middleware put
// the subject id in the request context.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeAPIError(w, ErrInvalidToken)
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// validateCredentials runs the ordered field checks shared by register and
// login: presence, disallowed characters, email shape.
func validateCredentials(email, pass string) *Error {
	if email == "" {
		return ErrEmailRequired
	}
	if pass == "" {
		return ErrPasswordRequired
	}
	if credCharacterRe.MatchString(email) || credCharacterRe.MatchString(pass) {
		return ErrInvalidCharacters
	}
	if !emailFormatRe.MatchString(email) {
		return ErrInvalidEmailFormat
	}
	return nil
}

// validatePolicy maps policy violations onto their stable codes. Length
// comes first, then composition, then the common-password denylist, so a
// short password reports PASSWORD_TOO_SHORT even when other rules also
// failed.
func validatePolicy(pass string) *Error {
	violations := password.Validate(pass)
	if len(violations) == 0 {
		return nil
	}

	var complexity, common bool
	for _, v := range violations {
		switch v {
		case password.TooShort:
			return ErrPasswordTooShort
		case password.Common:
			common = true
		default:
			complexity = true
		}
	}
	if complexity {
		return ErrPasswordComplexity
	}
	if common {
		return ErrCommonPassword
	}
	return nil
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.RetryAfter > 0 {
			seconds := int(apiErr.RetryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
		}
		writeAPIError(w, apiErr)
		return
	}

	sentry.CaptureException(err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"code":    "INTERNAL_ERROR",
		"message": "internal server error",
	})
}

func requestOrigin(r *http.Request) Origin {
	return Origin{
		IP:        observability.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeAPIError(w http.ResponseWriter, apiErr *Error) {
	writeJSON(w, apiErr.Status, map[string]string{
		"code":    apiErr.Code,
		"message": apiErr.Message,
	})
}
