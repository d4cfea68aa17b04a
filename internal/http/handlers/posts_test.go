package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"scamfeed/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImageData(t *testing.T) {
	raw := []byte("\x89PNG")
	enc := base64.StdEncoding.EncodeToString(raw)

	got, err := decodeImageData(enc)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = decodeImageData("data:image/png;base64," + enc)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = decodeImageData("not base64!")
	assert.Error(t, err)
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", service.ErrValidation), http.StatusBadRequest},
		{service.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("get post: %w", service.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("register: %w", service.ErrConflict), http.StatusConflict},
		{fmt.Errorf("redeem: %w", service.ErrInsufficientFunds), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: publish post: %w", service.ErrStorage, errors.New("conn reset")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		respondError(c, tc.err)
		assert.Equal(t, tc.want, w.Code, tc.err.Error())
		assert.Contains(t, w.Body.String(), `"error"`)
	}
}
