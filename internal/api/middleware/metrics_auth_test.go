package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metricsAuthRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "metrics")
	})
	return rec, handler(c)
}

func basicAuthHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestMetricsBasicAuth(t *testing.T) {
	t.Run("認証設定がない場合はスキップされる", func(t *testing.T) {
		rec, err := metricsAuthRequest(t, MetricsBasicAuth("", ""), "")

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "metrics", rec.Body.String())
	})

	t.Run("ユーザーのみ設定されている場合もスキップされる", func(t *testing.T) {
		rec, err := metricsAuthRequest(t, MetricsBasicAuth("user", ""), "")

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("正しい認証情報でアクセスできる", func(t *testing.T) {
		mw := MetricsBasicAuth("testuser", "testpass")
		rec, err := metricsAuthRequest(t, mw, basicAuthHeader("testuser", "testpass"))

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("誤った認証情報は401になる", func(t *testing.T) {
		mw := MetricsBasicAuth("testuser", "testpass")
		rec, err := metricsAuthRequest(t, mw, basicAuthHeader("wronguser", "wrongpass"))

		if err != nil {
			he, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, http.StatusUnauthorized, he.Code)
		} else {
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		}
	})

	t.Run("認証ヘッダーなしは401になる", func(t *testing.T) {
		mw := MetricsBasicAuth("testuser", "testpass")
		rec, err := metricsAuthRequest(t, mw, "")

		if err != nil {
			he, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, http.StatusUnauthorized, he.Code)
		} else {
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		}
	})
}
