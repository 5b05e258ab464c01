package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/api/response"
)

// APIKeyEnv names the environment variable holding the internal API key.
const APIKeyEnv = "INTERNAL_API_KEY"

// TimeTokenTTL is how long a time token stays valid.
const TimeTokenTTL = 5 * time.Minute

// APIKeyMiddleware protects internal endpoints such as the snapshot trigger.
// Callers send the key in X-API-Key and a fresh fernet token from GenerateTimeToken in
// X-Time-Token. The key is read from INTERNAL_API_KEY on every request.
func APIKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := os.Getenv(APIKeyEnv)
		if apiKey == "" {
			response.RespondError(w, http.StatusInternalServerError, "authentication error", "Authentication not loaded")
			return
		}

		provided := r.Header.Get("X-API-Key")
		if provided == "" {
			response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing API key")
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
			return
		}

		token := r.Header.Get("X-Time-Token")
		if token == "" {
			response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing Time token")
			return
		}
		if fernet.VerifyAndDecrypt([]byte(token), TimeTokenTTL, []*fernet.Key{deriveKey(apiKey)}) == nil {
			response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Time token is invalid or expired")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GenerateTimeToken returns a fernet token signed with a key derived from apiKey.
// It is accepted by APIKeyMiddleware for TimeTokenTTL. An empty string is returned
// only if encryption fails.
func GenerateTimeToken(apiKey string) string {
	payload := []byte(strconv.FormatInt(time.Now().Unix(), 10))
	token, err := fernet.EncryptAndSign(payload, deriveKey(apiKey))
	if err != nil {
		return ""
	}
	return string(token)
}

func deriveKey(apiKey string) *fernet.Key {
	sum := sha256.Sum256([]byte(apiKey))
	key := fernet.Key(sum)
	return &key
}
