package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nyashahama/diabetes-risk-planner/internal/features"
	"github.com/nyashahama/diabetes-risk-planner/internal/session"
	"github.com/nyashahama/diabetes-risk-planner/internal/store"
)

// ─── CONTEXT KEYS ─────────────────────────────────────────────────────────────

type contextKey string

const (
	ctxKeyUserID    contextKey = "user_id"
	ctxKeySessionID contextKey = "session_id"
)

// SessionHeader carries the session id in both directions.
const SessionHeader = "X-Session-ID"

// ─── BEARER TOKEN AUTH ────────────────────────────────────────────────────────

// requireUser is chi middleware that verifies the Authorization: Bearer token
// and stores its subject as the user id. Only HS256 tokens signed with
// cfg.JWTSecret are accepted; expiry is enforced when the token carries one.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			respondErr(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := s.parseToken(raw)
		if err != nil {
			s.logger.Debug("rejected token", "error", err, logField(r))
			respondErr(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) parseToken(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.cfg.JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("token not valid")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// ─── SESSION ──────────────────────────────────────────────────────────────────

// withSession reads the X-Session-ID header, minting a new id when it is
// absent or malformed, and echoes it on the response. Sessions are scoped to
// the authenticated user, so a leaked id is useless to anyone else.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(strings.TrimSpace(r.Header.Get(SessionHeader)))
		if err != nil {
			id = uuid.New()
		}
		w.Header().Set(SessionHeader, id.String())

		key := userID(r) + "/" + id.String()
		ctx := context.WithValue(r.Context(), ctxKeySessionID, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKeyUserID).(string)
	return id
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKeySessionID).(string)
	return id
}

// ─── CORS ─────────────────────────────────────────────────────────────────────

// corsMiddleware handles preflight OPTIONS requests and sets CORS headers.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		allowed := "*"
		if s.cfg.Env != "production" {
			allowed = origin
		}

		w.Header().Set("Access-Control-Allow-Origin", allowed)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Session-ID, X-Request-ID")
		w.Header().Set("Access-Control-Expose-Headers", SessionHeader)
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ─── LOGGER MIDDLEWARE ────────────────────────────────────────────────────────

// loggerMiddleware logs each request with method, path, status, and duration.
func (s *Server) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// ─── RESPONSE HELPERS ─────────────────────────────────────────────────────────

// respond writes a JSON body with the given status code.
func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// respondErr writes a standard JSON error envelope.
func respondErr(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}

// respondInternalErr logs an unexpected error and returns a 500 to the client
// without leaking internal details.
func (s *Server) respondInternalErr(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("internal error",
		"error", err,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
	)
	respondErr(w, http.StatusInternalServerError, "internal server error")
}

type fieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type validationResponse struct {
	Error  string       `json:"error"`
	Fields []fieldError `json:"fields"`
}

type retryableResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
	Plan      any    `json:"plan,omitempty"`
}

// respondPlannerErr maps a planner error to its status code:
//
//	validation        → 422 with every rejected field
//	no assessment     → 409, the client must submit first
//	persistence       → 503, retryable; partial carries what was generated
//	cancelled/timeout → 503, retryable; nothing was saved
//	anything else     → 500
func (s *Server) respondPlannerErr(w http.ResponseWriter, r *http.Request, err error, partial any) {
	switch {
	case features.IsValidation(err):
		fes := features.FieldErrors(err)
		body := validationResponse{Error: "invalid assessment", Fields: make([]fieldError, len(fes))}
		for i, fe := range fes {
			body.Fields[i] = fieldError{Field: fe.Field, Reason: fe.Reason}
		}
		respond(w, http.StatusUnprocessableEntity, body)

	case errors.Is(err, session.ErrNoAssessment):
		respondErr(w, http.StatusConflict, "no assessment submitted: submit one first")

	case errors.Is(err, store.ErrPersistence):
		s.logger.Warn("health record not saved", "error", err, logField(r))
		msg := "your plan was generated but could not be saved; please retry"
		if partial == nil {
			msg = "your session could not be saved; please retry"
		}
		respond(w, http.StatusServiceUnavailable, retryableResponse{
			Error:     msg,
			Retryable: true,
			Plan:      partial,
		})

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("request interrupted", "error", err, logField(r))
		respond(w, http.StatusServiceUnavailable, retryableResponse{
			Error:     "the request was interrupted before anything was saved; please retry",
			Retryable: true,
			Plan:      partial,
		})

	default:
		s.respondInternalErr(w, r, err)
	}
}

// ─── REQUEST PARSING HELPERS ─────────────────────────────────────────────────

// decode JSON-decodes r.Body into dst. Returns false and writes 400 if the
// body is missing, malformed, or too large. Callers should return immediately
// on false.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB max
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// decodeFields reads a flat object of form fields, either as JSON (string or
// number values) or as a url-encoded form. Returns false and writes 400 on a
// malformed body.
func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			respondErr(w, http.StatusBadRequest, "invalid form body: "+err.Error())
			return nil, false
		}
		out := make(map[string]string, len(r.PostForm))
		for k := range r.PostForm {
			out[k] = r.PostForm.Get(k)
		}
		return out, true
	}

	var body map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return nil, false
	}

	out := make(map[string]string, len(body))
	for k, v := range body {
		switch v := v.(type) {
		case string:
			out[k] = v
		case json.Number:
			out[k] = v.String()
		case nil:
			// Treated as missing.
		default:
			respondErr(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: field %q must be a string or number", k))
			return nil, false
		}
	}
	return out, true
}

// logField returns a slog.Attr using the request ID for correlation.
func logField(r *http.Request) slog.Attr {
	return slog.String("request_id", middleware.GetReqID(r.Context()))
}
