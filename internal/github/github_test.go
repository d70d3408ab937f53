package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient("test-token", srv.URL, nil)
	require.NoError(t, err)
	return c
}

var testRepo = Repo{Owner: "owner", Name: "repo"}

func TestPullRequestDiff(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer test-token")
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github.v3.diff" {
			t.Errorf("Accept = %q, want %q", got, "application/vnd.github.v3.diff")
		}
		if r.URL.Path != "/repos/owner/repo/pulls/42" {
			t.Errorf("Path = %q, want %q", r.URL.Path, "/repos/owner/repo/pulls/42")
		}
		fmt.Fprint(w, "diff --git a/file.go b/file.go\n")
	}))

	diff, err := c.PullRequestDiff(context.Background(), testRepo, 42)
	require.NoError(t, err)
	assert.Equal(t, "diff --git a/file.go b/file.go\n", diff)
}

func TestPullRequestNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	}))

	_, err := c.PullRequestDiff(context.Background(), testRepo, 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound), "err = %v", err)

	_, err = c.PullRequest(context.Background(), testRepo, 99)
	assert.True(t, errors.Is(err, ErrNotFound), "err = %v", err)
}

func TestPullRequestUnauthorized(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Bad credentials"}`)
	}))

	_, err := c.PullRequestDiff(context.Background(), testRepo, 1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestPullRequest(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number":7,"title":"Add login","body":"Adds a login form","head":{"sha":"abc123"},"base":{"ref":"main"}}`)
	}))

	pr, err := c.PullRequest(context.Background(), testRepo, 7)
	require.NoError(t, err)
	assert.Equal(t, &PullRequest{Number: 7, Title: "Add login", Body: "Adds a login form", HeadSHA: "abc123", BaseRef: "main"}, pr)
}

func TestFileContent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/contents/app/main.go" {
			t.Errorf("Path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("ref"); got != "abc123" {
			t.Errorf("ref = %q, want %q", got, "abc123")
		}
		content := base64.StdEncoding.EncodeToString([]byte("package main\n"))
		fmt.Fprintf(w, `{"type":"file","encoding":"base64","path":"app/main.go","content":%q}`, content)
	}))

	got, err := c.Files(testRepo).FileContent(context.Background(), "app/main.go", "abc123")
	require.NoError(t, err)
	assert.Equal(t, "package main\n", got)
}

type reviewPayload struct {
	CommitID string `json:"commit_id"`
	Body     string `json:"body"`
	Event    string `json:"event"`
	Comments []struct {
		Path string `json:"path"`
		Line int    `json:"line"`
		Side string `json:"side"`
		Body string `json:"body"`
	} `json:"comments"`
}

func TestPostReview(t *testing.T) {
	var got reviewPayload
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %q, want POST", r.Method)
		}
		if r.URL.Path != "/repos/owner/repo/pulls/5/reviews" {
			t.Errorf("Path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		fmt.Fprint(w, `{"id":1}`)
	}))

	err := c.PostReview(context.Background(), testRepo, 5, ReviewRequest{
		CommitID: "abc123",
		Body:     "summary",
		Comments: []ReviewComment{{Path: "a.go", Line: 3, Body: "inline"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "abc123", got.CommitID)
	assert.Equal(t, "summary", got.Body)
	assert.Equal(t, "COMMENT", got.Event)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "a.go", got.Comments[0].Path)
	assert.Equal(t, 3, got.Comments[0].Line)
	assert.Equal(t, "RIGHT", got.Comments[0].Side)
}

func TestPostReviewRetriesWithoutComments(t *testing.T) {
	var mu sync.Mutex
	var payloads []reviewPayload
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p reviewPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		mu.Lock()
		payloads = append(payloads, p)
		first := len(payloads) == 1
		mu.Unlock()
		if first {
			w.WriteHeader(http.StatusUnprocessableEntity)
			fmt.Fprint(w, `{"message":"Line could not be resolved"}`)
			return
		}
		fmt.Fprint(w, `{"id":2}`)
	}))

	err := c.PostReview(context.Background(), testRepo, 5, ReviewRequest{
		Body:     "summary",
		Comments: []ReviewComment{{Path: "a.go", Line: 300, Body: "inline"}},
	})
	require.NoError(t, err)
	require.Len(t, payloads, 2)
	assert.Len(t, payloads[0].Comments, 1)
	assert.Empty(t, payloads[1].Comments)
	assert.Equal(t, "summary", payloads[1].Body)
}

func TestParseRepo(t *testing.T) {
	tests := []struct {
		in      string
		want    Repo
		wantErr bool
	}{
		{"dshills/sift", Repo{"dshills", "sift"}, false},
		{" acme/api ", Repo{"acme", "api"}, false},
		{"acme", Repo{}, true},
		{"acme/", Repo{}, true},
		{"a/b/c", Repo{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRepo(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRepo(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "HTTPS", url: "https://github.com/dshills/sift.git", want: "dshills/sift"},
		{name: "HTTPS no .git", url: "https://github.com/dshills/sift", want: "dshills/sift"},
		{name: "SSH", url: "git@github.com:dshills/sift.git", want: "dshills/sift"},
		{name: "dotted name", url: "git@github.com:acme/api.v2.git", want: "acme/api.v2"},
		{name: "invalid", url: "not-a-url", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := ParseRemoteURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if repo.String() != tt.want {
				t.Errorf("repo = %q, want %q", repo.String(), tt.want)
			}
		})
	}
}
