package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/mini-banking-ledger/internal/auth"
	"github.com/josh-kwaku/mini-banking-ledger/internal/handler"
	"github.com/josh-kwaku/mini-banking-ledger/internal/logging"
	"github.com/josh-kwaku/mini-banking-ledger/internal/repository"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	maxIdempotencyKeyLen = 255
)

// IdempotencyStore is implemented by the Postgres and Redis backends.
type IdempotencyStore interface {
	Get(ctx context.Context, key string, userID uuid.UUID) (*repository.IdempotencyCacheEntry, error)
	Reserve(ctx context.Context, entry *repository.IdempotencyCacheEntry) (bool, error)
	Set(ctx context.Context, entry *repository.IdempotencyCacheEntry) error
	Release(ctx context.Context, key string, userID uuid.UUID) error
}

// Idempotency replays the stored response of a completed request with the
// same key and body. Responses with status 409 or 5xx are not stored, so the
// client may retry them under the same key.
func Idempotency(store IdempotencyStore, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(idempotencyKeyHeader)
			if key == "" {
				handler.RespondAppError(w, handler.ErrMissingIdempotencyKey, nil)
				return
			}
			if len(key) > maxIdempotencyKeyLen {
				handler.RespondValidationError(w, []handler.FieldError{{Field: idempotencyKeyHeader, Message: "must be at most 255 characters"}})
				return
			}

			userID, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, handler.MaxBodyBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					handler.RespondAppError(w, handler.ErrRequestTooLarge, nil)
					return
				}
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			log := logging.FromContext(r.Context()).With("idempotency_key", key)
			reqHash := computeHash(r.Method, r.URL.Path, body)

			cached, err := store.Get(r.Context(), key, userID)
			if err != nil {
				log.Error("idempotency cache lookup failed", "error", err)
				handler.RespondAppError(w, handler.ErrStoreFailure, nil)
				return
			}
			if cached != nil {
				replay(w, r, cached, reqHash)
				return
			}

			now := time.Now().UTC()
			entry := &repository.IdempotencyCacheEntry{
				Key:         key,
				UserID:      userID,
				RequestHash: reqHash,
				CreatedAt:   now,
				ExpiresAt:   now.Add(ttl),
			}
			reserved, err := store.Reserve(r.Context(), entry)
			if err != nil {
				log.Error("idempotency reservation failed", "error", err)
				handler.RespondAppError(w, handler.ErrStoreFailure, nil)
				return
			}
			if !reserved {
				// Another request claimed the key between Get and Reserve.
				cached, err := store.Get(r.Context(), key, userID)
				if err != nil || cached == nil {
					handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
					return
				}
				replay(w, r, cached, reqHash)
				return
			}

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			func() {
				defer func() {
					if p := recover(); p != nil {
						releaseKey(r.Context(), store, key, userID)
						panic(p)
					}
				}()
				next.ServeHTTP(rec, r)
			}()

			ctx := context.WithoutCancel(r.Context())
			if !cacheable(rec.statusCode) {
				releaseKey(ctx, store, key, userID)
				return
			}

			entry.StatusCode = rec.statusCode
			entry.ResponseBody = rec.body.Bytes()
			if err := store.Set(ctx, entry); err != nil {
				log.Error("idempotency cache store failed", "error", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, r *http.Request, cached *repository.IdempotencyCacheEntry, reqHash string) {
	if cached.RequestHash != reqHash {
		handler.RespondAppError(w, handler.ErrIdempotencyConflict, nil)
		return
	}
	if cached.InProgress() {
		handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	if _, err := w.Write(cached.ResponseBody); err != nil {
		logging.FromContext(r.Context()).Error("failed to write idempotent replay", "error", err, "idempotency_key", cached.Key)
	}
}

func releaseKey(ctx context.Context, store IdempotencyStore, key string, userID uuid.UUID) {
	if err := store.Release(context.WithoutCancel(ctx), key, userID); err != nil {
		logging.FromContext(ctx).Error("idempotency release failed", "error", err, "idempotency_key", key)
	}
}

func cacheable(status int) bool {
	return status < http.StatusInternalServerError && status != http.StatusConflict
}

func computeHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
