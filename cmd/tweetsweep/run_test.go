package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetsweep/pkg/auth"
	"tweetsweep/pkg/config"
	"tweetsweep/pkg/logger"
	"tweetsweep/pkg/metrics"
	"tweetsweep/pkg/processor"
)

func TestSelection(t *testing.T) {
	kind, err := selection(false, true, processor.Options{Archive: true, Media: true})
	require.NoError(t, err)
	assert.Equal(t, processor.Liked, kind)

	kind, err = selection(true, false, processor.Options{Destroy: true})
	require.NoError(t, err)
	assert.Equal(t, processor.Posted, kind)

	_, err = selection(false, false, processor.Options{Archive: true})
	assert.ErrorContains(t, err, "--posted or --liked")

	_, err = selection(true, true, processor.Options{Archive: true})
	assert.Error(t, err)

	_, err = selection(true, false, processor.Options{})
	assert.ErrorContains(t, err, "--archive or --delete")

	_, err = selection(true, false, processor.Options{Destroy: true, Media: true})
	assert.ErrorContains(t, err, "only save media if you're archiving")
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", mask(""))
	assert.Equal(t, "***", mask("short"))
	assert.Equal(t, "abcd...6789", mask("abcdef0123456789"))
}

// likesServer serves two liked tweets until they are un-liked
type likesServer struct {
	mu       sync.Mutex
	liked    map[string]bool
	unliked  []string
	unsigned int
}

func (s *likesServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !strings.HasPrefix(r.Header.Get("Authorization"), "OAuth ") {
		s.unsigned++
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/application/rate_limit_status.json"):
		reset := time.Now().Add(time.Minute).Unix()
		fmt.Fprintf(w, `{"resources": {"favorites": {"/favorites/list": {"limit": 75, "remaining": 75, "reset": %d}}}}`, reset)

	case strings.HasSuffix(r.URL.Path, "/favorites/list.json"):
		var tweets []string
		for _, id := range []string{"20", "10"} {
			if s.liked[id] {
				tweets = append(tweets, fmt.Sprintf(
					`{"id": %s, "id_str": %q, "created_at": "Wed Jan 01 00:00:00 +0000 2020", "text": "liked %s", "entities": {}}`,
					id, id, id))
			}
		}
		fmt.Fprint(w, "["+strings.Join(tweets, ",")+"]")

	case strings.HasSuffix(r.URL.Path, "/favorites/destroy.json"):
		id := r.URL.Query().Get("id")
		delete(s.liked, id)
		s.unliked = append(s.unliked, id)
		fmt.Fprintf(w, `{"id_str": %q}`, id)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestNewProcessorRunsAgainstAPI(t *testing.T) {
	api := &likesServer{liked: map[string]bool{"10": true, "20": true}}
	srv := httptest.NewServer(api)
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.Twitter.APIBaseURL = srv.URL
	cfg.Archive.BaseDirectory = t.TempDir()
	cfg.Retry.Enabled = false

	account := &auth.Account{
		Name:              auth.DefaultAccount,
		ConsumerKey:       "consumer-key",
		ConsumerSecret:    "consumer-secret",
		AccessTokenKey:    "token-key",
		AccessTokenSecret: "token-secret",
	}

	p := newProcessor(cfg, account, metrics.Nop{}, nil, logger.NewTestLogger())
	summary, err := p.Run(context.Background(), processor.Liked, processor.Options{Archive: true, Destroy: true})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Archived)
	assert.Equal(t, 2, summary.Destroyed)
	assert.ElementsMatch(t, []string{"10", "20"}, api.unliked)
	assert.Zero(t, api.unsigned, "every API request should carry an OAuth header")

	entries, err := os.ReadDir(filepath.Join(cfg.Archive.BaseDirectory, "Archive-Liked-Items"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
