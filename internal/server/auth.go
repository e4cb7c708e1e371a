package server

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/storagedesk/internal/observability/context"
	"golang.org/x/crypto/bcrypt"
)

const (
	headerAuthorization = "Authorization"
	headerAPIKey        = "X-API-Key"
	bearerPrefix        = "bearer "
)

// tokenVerifier checks operator tokens against a bcrypt hash. Digests of
// tokens that already matched are remembered so bcrypt runs once per token.
type tokenVerifier struct {
	hash     []byte
	mu       sync.RWMutex
	verified map[string]struct{}
}

func newTokenVerifier(hash string) *tokenVerifier {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil
	}
	return &tokenVerifier{
		hash:     []byte(hash),
		verified: make(map[string]struct{}),
	}
}

// Verify reports whether token matches the configured hash and returns a
// short fingerprint of it for logs.
func (v *tokenVerifier) Verify(token string) (string, bool) {
	if v == nil {
		return "", true
	}
	if token == "" {
		return "", false
	}

	sum := sha256.Sum256([]byte(token))
	digest := hex.EncodeToString(sum[:])
	fingerprint := digest[:12]

	v.mu.RLock()
	_, ok := v.verified[digest]
	v.mu.RUnlock()
	if ok {
		return fingerprint, true
	}

	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(token)); err != nil {
		return "", false
	}

	v.mu.Lock()
	v.verified[digest] = struct{}{}
	v.mu.Unlock()
	return fingerprint, true
}

// TokenRequired guards /api when an operator token hash is configured and
// tags the request with the operator actor.
func (s *Server) TokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.tokens == nil {
			c.Next()
			return
		}

		fingerprint, ok := s.tokens.Verify(requestToken(c))
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Request = c.Request.WithContext(obscontext.WithActor(c.Request.Context(), "operator", fingerprint))
		c.Next()
	}
}

func requestToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader(headerAuthorization))
	if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(header[len(bearerPrefix):])
	}
	return strings.TrimSpace(c.GetHeader(headerAPIKey))
}
