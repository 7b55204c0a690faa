package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aleister1102/robotswatch/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscordNotifier_Send(t *testing.T) {
	var payload models.DiscordMessagePayload
	var fileNames []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Error(err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := json.Unmarshal([]byte(r.FormValue("payload_json")), &payload); err != nil {
			t.Error(err)
		}
		for _, files := range r.MultipartForm.File {
			for _, fh := range files {
				fileNames = append(fileNames, fh.Filename)
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	attachment := filepath.Join(t.TempDir(), "diff.html")
	require.NoError(t, os.WriteFile(attachment, []byte("<html></html>"), 0o644))

	dn, err := NewDiscordNotifier(server.URL, "robotswatch", server.Client(), zerolog.Nop())
	require.NoError(t, err)

	err = dn.Send(context.Background(), models.Message{
		Address:     "admin@x.com",
		Subject:     "Robots.txt monitor run summary (05-03-24)",
		Body:        strings.Repeat("x", 5000),
		Attachments: []string{attachment, filepath.Join(t.TempDir(), "missing.txt")},
	})
	require.NoError(t, err)

	assert.Equal(t, "robotswatch", payload.Username)
	require.Len(t, payload.Embeds, 1)
	assert.Equal(t, "Robots.txt monitor run summary (05-03-24)", payload.Embeds[0].Title)
	assert.Len(t, payload.Embeds[0].Description, maxEmbedDescriptionLength)
	assert.Equal(t, []string{"diff.html"}, fileNames)
}

func TestDiscordNotifier_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"rate limited"}`))
	}))
	defer server.Close()

	dn, err := NewDiscordNotifier(server.URL, "", nil, zerolog.Nop())
	require.NoError(t, err)

	err = dn.Send(context.Background(), models.Message{Subject: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestNewDiscordNotifier_InvalidURL(t *testing.T) {
	_, err := NewDiscordNotifier("not a url", "", nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", truncateString("abc", 5))
	assert.Equal(t, "ab...", truncateString("abcdefgh", 5))
}
