package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxchat/internal/config"
	"voxchat/internal/domain"
)

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadStoresPerUserWithServerName(t *testing.T) {
	cfg := &config.Config{UploadDir: t.TempDir()}
	routes := UploadRoutes(cfg)

	content := []byte("fake image bytes")
	body, contentType := multipartBody(t, "holiday.png", content)

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(WithUser(req.Context(), &domain.User{ID: "u1", IsActive: true}))

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		FileURL  string `json:"file_url"`
		FileType string `json:"file_type"`
		Filename string `json:"filename"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.Equal(t, "image", resp.FileType)
	assert.True(t, strings.HasPrefix(resp.FileURL, "/api/uploads/u1/"))

	// The stored name is server-assigned, not the client's.
	assert.True(t, strings.HasSuffix(resp.Filename, ".png"))
	assert.NotContains(t, resp.Filename, "holiday")
	_, err := uuid.Parse(strings.TrimSuffix(resp.Filename, ".png"))
	assert.NoError(t, err)

	// Serving it back goes through the per-user path.
	getReq := httptest.NewRequest(http.MethodGet, "/u1/"+resp.Filename, nil)
	getRec := httptest.NewRecorder()
	routes.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)
	served, err := io.ReadAll(getRec.Body)
	require.NoError(t, err)
	assert.Equal(t, content, served)
}

func TestUploadRejectsTraversal(t *testing.T) {
	cfg := &config.Config{UploadDir: t.TempDir()}
	routes := UploadRoutes(cfg)

	// A ".." filename segment would resolve to the uploads root.
	req := httptest.NewRequest(http.MethodGet, "/u1/..", nil)
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRequiresExtension(t *testing.T) {
	cfg := &config.Config{UploadDir: t.TempDir()}
	routes := UploadRoutes(cfg)

	body, contentType := multipartBody(t, "noextension", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(WithUser(req.Context(), &domain.User{ID: "u1", IsActive: true}))

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
