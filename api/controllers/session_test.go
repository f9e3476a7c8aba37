package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/naritchaphan/talad-backend/pkg/auth"
	"github.com/naritchaphan/talad-backend/pkg/auth/session"
	"github.com/naritchaphan/talad-backend/pkg/config"
	"github.com/naritchaphan/talad-backend/pkg/enums"
)

type stubRotator struct {
	rotateErr   error
	revoked     []string
	newAccessID string
	newRefresh  string
}

func (s *stubRotator) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	return s.newAccessID, s.newRefresh, nil
}

func (s *stubRotator) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func sessionTestConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "session-test-secret",
		Issuer:            "talad-test",
		ExpirationMinutes: 15,
	}
}

func sessionToken(t *testing.T, cfg config.JWTConfig, jti string) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleCustomer,
		JTI:    jti,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthRefresh(t *testing.T) {
	logg := testLogger()
	cfg := sessionTestConfig()

	t.Run("issues new token pair", func(t *testing.T) {
		rotator := &stubRotator{newAccessID: uuid.NewString(), newRefresh: "fresh-refresh"}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh",
			strings.NewReader(`{"refresh_token":"old-refresh"}`))
		req.Header.Set("Authorization", "Bearer "+sessionToken(t, cfg, uuid.NewString()))
		rec := httptest.NewRecorder()
		AuthRefresh(rotator, cfg, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		var envelope struct {
			Data refreshResponse `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if envelope.Data.RefreshToken != "fresh-refresh" {
			t.Fatalf("expected rotated refresh token, got %q", envelope.Data.RefreshToken)
		}
		if envelope.Data.AccessToken == "" {
			t.Fatalf("expected a minted access token")
		}
		if rec.Header().Get("X-Talad-Token") != envelope.Data.AccessToken {
			t.Fatalf("token header should match body")
		}
	})

	t.Run("invalid refresh token yields 401", func(t *testing.T) {
		rotator := &stubRotator{rotateErr: session.ErrInvalidRefreshToken}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh",
			strings.NewReader(`{"refresh_token":"stolen"}`))
		req.Header.Set("Authorization", "Bearer "+sessionToken(t, cfg, uuid.NewString()))
		rec := httptest.NewRecorder()
		AuthRefresh(rotator, cfg, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("missing bearer token yields 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh",
			strings.NewReader(`{"refresh_token":"x"}`))
		rec := httptest.NewRecorder()
		AuthRefresh(&stubRotator{}, cfg, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestAuthLogoutRevokesSession(t *testing.T) {
	logg := testLogger()
	cfg := sessionTestConfig()
	jti := uuid.NewString()

	rotator := &stubRotator{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, cfg, jti))
	rec := httptest.NewRecorder()
	AuthLogout(rotator, cfg, logg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(rotator.revoked) != 1 || rotator.revoked[0] != jti {
		t.Fatalf("expected session %s revoked, got %v", jti, rotator.revoked)
	}
}
