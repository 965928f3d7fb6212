package server

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"catalog/storefront/internal/config"
)

type ctxKey string

const ctxKeySession ctxKey = "session"

// Sessions issues and verifies the signed cookie that identifies a browser.
// The cookie only carries an opaque id; the selection lives in the state store.
type Sessions struct {
	cookieName string
	signKey    []byte
	secure     bool
	ttl        time.Duration
}

func NewSessions(cfg config.SessionConfig) *Sessions {
	key := []byte(cfg.SigningKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			log.Fatalf("Failed to generate session signing key: %v", err)
		}
		log.Warn("⚠️ No session.signing_key configured, using an ephemeral key")
	}

	ttl := time.Duration(cfg.TTL) * time.Hour
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}

	return &Sessions{
		cookieName: cfg.CookieName,
		signKey:    key,
		secure:     cfg.Secure,
		ttl:        ttl,
	}
}

// Middleware loads the session id from the cookie, or starts a new session.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.read(r)
		if !ok {
			id = randID()
			s.write(w, id)
		}
		ctx := context.WithValue(r.Context(), ctxKeySession, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionID returns the session id attached by Sessions.Middleware.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeySession).(string)
	return id
}

func (s *Sessions) read(r *http.Request) (string, bool) {
	c, err := r.Cookie(s.cookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	payload, sig, found := strings.Cut(c.Value, ".")
	if !found {
		return "", false
	}
	id, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil || len(id) == 0 {
		return "", false
	}
	sigB, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(sigB, s.sign(id)) {
		return "", false
	}
	return string(id), true
}

func (s *Sessions) write(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    s.encode(id),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(s.ttl),
	})
}

func (s *Sessions) encode(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id)) + "." +
		base64.RawURLEncoding.EncodeToString(s.sign([]byte(id)))
}

func (s *Sessions) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.signKey)
	mac.Write(payload)
	return mac.Sum(nil)
}

func randID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
