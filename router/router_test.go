// file: router/router_test.go

package router_test

import (
	"card-game-api/handler"
	"card-game-api/logger"
	"card-game-api/model"
	"card-game-api/repository"
	"card-game-api/router"
	"card-game-api/service"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

const testAudience = "http://localhost:5173"

func TestMain(m *testing.M) {
	logger.Init()
	exitCode := m.Run()
	os.Exit(exitCode)
}

// testStack wires the real repository/service/handler layers over a sqlmock
// database so the full request path is exercised without Postgres.
type testStack struct {
	router http.Handler
	dbMock sqlmock.Sqlmock
	codec  *service.TokenCodec
	close  func()
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	codec := service.NewTokenCodec([]byte("test-secret-key-0123456789abcdef"), "card-game-api", []string{testAudience}, time.Hour)
	authService := service.NewAuthService(userRepo, tokenRepo, codec, nil, 30*24*time.Hour)
	authHandler := handler.NewAuthHandler(authService, userRepo)

	return &testStack{
		router: router.NewRouter(authHandler, authService),
		dbMock: dbMock,
		codec:  codec,
		close:  func() { db.Close() },
	}
}

func userRow(t *testing.T, password string) *sqlmock.Rows {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return sqlmock.NewRows([]string{"id", "username", "display_name", "password_hash", "created_at"}).
		AddRow(1, "test", "Test Player", string(hash), time.Now())
}

func postJSON(stack *testStack, path, body, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rr := httptest.NewRecorder()
	stack.router.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	stack := newTestStack(t)
	defer stack.close()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	stack.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"API is healthy and running"}`, rr.Body.String())
}

func TestSignIn(t *testing.T) {
	body := `{"username":"test","password":"password123"}`

	t.Run("valid credentials return a token pair", func(t *testing.T) {
		stack := newTestStack(t)
		defer stack.close()

		stack.dbMock.ExpectQuery("SELECT (.+) FROM users WHERE username").
			WithArgs("test").
			WillReturnRows(userRow(t, "password123"))
		stack.dbMock.ExpectQuery("INSERT INTO refresh_tokens").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		rr := postJSON(stack, "/signin", body, testAudience)

		assert.Equal(t, http.StatusOK, rr.Code)
		var pair model.TokenPair
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pair))
		assert.Len(t, pair.RefreshToken, 32)

		claims, err := stack.codec.Validate(pair.AccessToken)
		assert.NoError(t, err)
		assert.Equal(t, "test", claims.Name)
		assert.NoError(t, stack.dbMock.ExpectationsWereMet())
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		stack := newTestStack(t)
		defer stack.close()

		stack.dbMock.ExpectQuery("SELECT (.+) FROM users WHERE username").
			WithArgs("test").
			WillReturnRows(userRow(t, "somethingelse"))

		rr := postJSON(stack, "/signin", body, testAudience)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown username is unauthorized", func(t *testing.T) {
		stack := newTestStack(t)
		defer stack.close()

		stack.dbMock.ExpectQuery("SELECT (.+) FROM users WHERE username").
			WithArgs("test").
			WillReturnError(sql.ErrNoRows)

		rr := postJSON(stack, "/signin", body, testAudience)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("disallowed origin is rejected before any lookup", func(t *testing.T) {
		stack := newTestStack(t)
		defer stack.close()

		rr := postJSON(stack, "/signin", body, "https://somewhere-else.example")

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.NoError(t, stack.dbMock.ExpectationsWereMet())
	})

	t.Run("missing origin is rejected", func(t *testing.T) {
		stack := newTestStack(t)
		defer stack.close()

		rr := postJSON(stack, "/signin", body, "")

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRefresh(t *testing.T) {
	oldToken := "11111111111111111111111111111111"
	body := fmt.Sprintf(`{"refresh_token":"%s"}`, oldToken)

	refreshRow := func(revoked bool, expiresAt time.Time) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"token", "user_id", "is_revoked", "expires_at", "created_at"}).
			AddRow(oldToken, 1, revoked, expiresAt, time.Now())
	}

	t.Run("active token rotates into a new pair", func(t *testing.T) {
		stack := newTestStack(t)
		defer stack.close()

		stack.dbMock.ExpectQuery("SELECT (.+) FROM refresh_tokens WHERE token").
			WithArgs(oldToken).
			WillReturnRows(refreshRow(false, time.Now().Add(24*time.Hour)))
		stack.dbMock.ExpectExec("UPDATE refresh_tokens SET is_revoked = TRUE WHERE token = (.+) AND is_revoked = FALSE").
			WithArgs(oldToken).
			WillReturnResult(sqlmock.NewResult(0, 1))
		stack.dbMock.ExpectQuery("SELECT (.+) FROM users WHERE id").
			WithArgs(1).
			WillReturnRows(userRow(t, "password123"))
		stack.dbMock.ExpectQuery("INSERT INTO refresh_tokens").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		rr := postJSON(stack, "/refresh", body, testAudience)

		assert.Equal(t, http.StatusOK, rr.Code)
		var pair model.TokenPair
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pair))
		assert.NotEqual(t, oldToken, pair.RefreshToken)
		assert.NoError(t, stack.dbMock.ExpectationsWereMet())
	})

	t.Run("revoked token is unauthorized", func(t *testing.T) {
		stack := newTestStack(t)
		defer stack.close()

		stack.dbMock.ExpectQuery("SELECT (.+) FROM refresh_tokens WHERE token").
			WithArgs(oldToken).
			WillReturnRows(refreshRow(true, time.Now().Add(24*time.Hour)))

		rr := postJSON(stack, "/refresh", body, testAudience)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("expired token is unauthorized", func(t *testing.T) {
		stack := newTestStack(t)
		defer stack.close()

		stack.dbMock.ExpectQuery("SELECT (.+) FROM refresh_tokens WHERE token").
			WithArgs(oldToken).
			WillReturnRows(refreshRow(false, time.Now().Add(-time.Minute)))

		rr := postJSON(stack, "/refresh", body, testAudience)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown token is unauthorized", func(t *testing.T) {
		stack := newTestStack(t)
		defer stack.close()

		stack.dbMock.ExpectQuery("SELECT (.+) FROM refresh_tokens WHERE token").
			WithArgs(oldToken).
			WillReturnError(sql.ErrNoRows)

		rr := postJSON(stack, "/refresh", body, testAudience)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRevoke(t *testing.T) {
	token := "11111111111111111111111111111111"
	body := fmt.Sprintf(`{"refresh_token":"%s"}`, token)

	t.Run("known token", func(t *testing.T) {
		stack := newTestStack(t)
		defer stack.close()

		stack.dbMock.ExpectExec("UPDATE refresh_tokens SET is_revoked").
			WithArgs(token).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rr := postJSON(stack, "/revoke", body, "")

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("unknown token still reports success", func(t *testing.T) {
		stack := newTestStack(t)
		defer stack.close()

		stack.dbMock.ExpectExec("UPDATE refresh_tokens SET is_revoked").
			WithArgs(token).
			WillReturnResult(sqlmock.NewResult(0, 0))

		rr := postJSON(stack, "/revoke", body, "")

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestMe(t *testing.T) {
	t.Run("valid bearer token resolves the account", func(t *testing.T) {
		stack := newTestStack(t)
		defer stack.close()

		tokenString, err := stack.codec.Issue(&model.User{ID: 1, Username: "test", DisplayName: "Test Player"}, testAudience)
		assert.NoError(t, err)

		stack.dbMock.ExpectQuery("SELECT (.+) FROM users WHERE username").
			WithArgs("test").
			WillReturnRows(userRow(t, "password123"))

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		rr := httptest.NewRecorder()
		stack.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var user model.User
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &user))
		assert.Equal(t, "test", user.Username)
		assert.NotContains(t, rr.Body.String(), "password")
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		stack := newTestStack(t)
		defer stack.close()

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rr := httptest.NewRecorder()
		stack.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing header is unauthorized", func(t *testing.T) {
		stack := newTestStack(t)
		defer stack.close()

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		rr := httptest.NewRecorder()
		stack.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
