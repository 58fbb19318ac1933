package webserver

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func newAuthRig(t *testing.T) (*gin.Engine, Auth) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	auth := NewAuth(rdb, []byte("test-secret"))

	r := gin.New()
	r.POST("/auth/challenge", auth.Challenge)
	r.POST("/auth/verify", auth.Verify)
	return r, auth
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthChallengeVerifyRoundTrip(t *testing.T) {
	r, auth := newAuthRig(t)

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	addr := "0x" + hex.EncodeToString(pub)

	w := postJSON(t, r, "/auth/challenge", gin.H{"address": addr, "scheme": "ed25519"})
	if w.Code != http.StatusOK {
		t.Fatalf("challenge status = %d: %s", w.Code, w.Body)
	}
	var challenge struct {
		Nonce string `json:"nonce"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &challenge); err != nil || challenge.Nonce == "" {
		t.Fatalf("challenge body = %s", w.Body)
	}

	sig := ed25519.Sign(priv, []byte(challenge.Nonce))
	w = postJSON(t, r, "/auth/verify", gin.H{
		"address":   addr,
		"scheme":    "ed25519",
		"signature": hex.EncodeToString(sig),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("verify status = %d: %s", w.Code, w.Body)
	}
	var verified struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &verified); err != nil || verified.Token == "" {
		t.Fatalf("verify body = %s", w.Body)
	}

	// The issued token passes the middleware and carries the address.
	secured := gin.New()
	secured.GET("/whoami", JWTMiddleware(auth.jwtSecret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("addr"))
	})
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+verified.Token)
	rec := httptest.NewRecorder()
	secured.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != addr {
		t.Fatalf("whoami = %d %q", rec.Code, rec.Body)
	}
}

func TestAuthVerifyBadSignature(t *testing.T) {
	r, _ := newAuthRig(t)

	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	addr := "0x" + hex.EncodeToString(pub)

	w := postJSON(t, r, "/auth/challenge", gin.H{"address": addr, "scheme": "ed25519"})
	if w.Code != http.StatusOK {
		t.Fatalf("challenge status = %d", w.Code)
	}

	w = postJSON(t, r, "/auth/verify", gin.H{
		"address":   addr,
		"scheme":    "ed25519",
		"signature": hex.EncodeToString(make([]byte, 64)),
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("verify status = %d, want 401", w.Code)
	}
}

func TestAuthVerifyWithoutChallenge(t *testing.T) {
	r, _ := newAuthRig(t)
	w := postJSON(t, r, "/auth/verify", gin.H{
		"address":   "0xno-challenge",
		"scheme":    "ed25519",
		"signature": hex.EncodeToString(make([]byte, 64)),
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("verify status = %d, want 401", w.Code)
	}
}

func TestAuthChallengeStoreFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	auth := NewAuth(rdb, []byte("test-secret"))

	r := gin.New()
	r.POST("/auth/challenge", auth.Challenge)

	// A nonce the store never accepted must not be handed to the client.
	mr.SetError("store offline")
	w := postJSON(t, r, "/auth/challenge", gin.H{"address": "0xabc", "scheme": "ed25519"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500: %s", w.Code, w.Body)
	}
}

func TestAuthChallengeRejectsUnknownScheme(t *testing.T) {
	r, _ := newAuthRig(t)
	w := postJSON(t, r, "/auth/challenge", gin.H{"address": "0xabc", "scheme": "rsa"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestJWTMiddlewareRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", JWTMiddleware([]byte("secret")), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
