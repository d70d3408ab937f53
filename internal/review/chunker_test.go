package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/sift/internal/cache"
	"github.com/dshills/sift/internal/diff"
	"github.com/dshills/sift/internal/providers"
)

// mockReviewer implements providers.Reviewer for testing.
type mockReviewer struct {
	mu       sync.Mutex
	respond  func(req providers.ReviewRequest) (providers.ReviewResponse, error)
	requests []providers.ReviewRequest
}

func (m *mockReviewer) Review(_ context.Context, req providers.ReviewRequest) (providers.ReviewResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.respond(req)
}

func (m *mockReviewer) Name() string { return "mock" }

func (m *mockReviewer) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func fixedReply(content string) func(providers.ReviewRequest) (providers.ReviewResponse, error) {
	return func(req providers.ReviewRequest) (providers.ReviewResponse, error) {
		return providers.ReviewResponse{Content: content, Model: req.Model, TokensIn: 10, TokensOut: 5}, nil
	}
}

func group(path string, lines ...string) diff.FileGroup {
	h := diff.ExtractedHunk{FilePath: path, Language: "python", StartLine: 1, EndLine: len(lines)}
	for i, l := range lines {
		h.Added = append(h.Added, diff.Line{Number: i + 1, Text: l})
	}
	return diff.FileGroup{Path: path, Language: "python", Hunks: []diff.ExtractedHunk{h}}
}

func TestSplitIntoChunks(t *testing.T) {
	groups := []diff.FileGroup{
		group("a.py", strings.Repeat("a", 100)),
		group("b.py", strings.Repeat("b", 100)),
		group("c.py", strings.Repeat("c", 100)),
	}
	one := SplitIntoChunks(groups, 10000)
	require.Len(t, one, 1)
	assert.Equal(t, []string{"a.py", "b.py", "c.py"}, one[0].Paths())

	each := SplitIntoChunks(groups, 150)
	require.Len(t, each, 3)
	for i, c := range each {
		if c.Index != i {
			t.Errorf("chunk %d Index = %d", i, c.Index)
		}
	}

	assert.Empty(t, SplitIntoChunks(nil, 100))
}

func TestAIReviewer_MergesInChunkOrder(t *testing.T) {
	mock := &mockReviewer{respond: func(req providers.ReviewRequest) (providers.ReviewResponse, error) {
		for _, p := range []string{"a.py", "b.py", "c.py"} {
			if strings.Contains(req.UserPrompt, "### "+p+":") {
				return providers.ReviewResponse{
					Content: fmt.Sprintf(`[{"file":%q,"line":1,"title":"t-%s","message":"m"}]`, p, p),
					Model:   req.Model,
				}, nil
			}
		}
		return providers.ReviewResponse{Content: "[]"}, nil
	}}
	r := NewAIReviewer(mock, AIOptions{MaxConcurrency: 2, PromptTokens: 40}, nil)

	out, err := r.Review(context.Background(), AIRequest{
		Model: "m1",
		Groups: []diff.FileGroup{
			group("a.py", strings.Repeat("a", 120)),
			group("b.py", strings.Repeat("b", 120)),
			group("c.py", strings.Repeat("c", 120)),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Chunks)
	assert.Equal(t, 3, mock.calls())
	require.Len(t, out.Findings, 3)
	assert.Equal(t, "a.py", out.Findings[0].FilePath)
	assert.Equal(t, "b.py", out.Findings[1].FilePath)
	assert.Equal(t, "c.py", out.Findings[2].FilePath)
	assert.Equal(t, "m1", out.Model)
}

func TestAIReviewer_RepairPass(t *testing.T) {
	mock := &mockReviewer{}
	mock.respond = func(req providers.ReviewRequest) (providers.ReviewResponse, error) {
		if strings.HasPrefix(req.UserPrompt, "Your previous response was not valid JSON") {
			return providers.ReviewResponse{Content: `[{"file":"a.py","title":"t","message":"m"}]`}, nil
		}
		return providers.ReviewResponse{Content: "I think it is fine"}, nil
	}
	r := NewAIReviewer(mock, AIOptions{}, nil)

	out, err := r.Review(context.Background(), AIRequest{Groups: []diff.FileGroup{group("a.py", "x = 1")}})
	require.NoError(t, err)
	assert.Equal(t, 2, mock.calls())
	assert.Len(t, out.Findings, 1)
	assert.Zero(t, out.ParseErrors)
}

func TestAIReviewer_ParseErrorCounted(t *testing.T) {
	mock := &mockReviewer{respond: fixedReply("no json here")}
	r := NewAIReviewer(mock, AIOptions{}, nil)

	out, err := r.Review(context.Background(), AIRequest{Groups: []diff.FileGroup{group("a.py", "x = 1")}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.ParseErrors)
	assert.Empty(t, out.Findings)
}

func TestAIReviewer_Errors(t *testing.T) {
	groups := []diff.FileGroup{group("a.py", "x = 1")}

	authMock := &mockReviewer{respond: func(providers.ReviewRequest) (providers.ReviewResponse, error) {
		return providers.ReviewResponse{}, fmt.Errorf("%w: bad key", providers.ErrAuth)
	}}
	_, err := NewAIReviewer(authMock, AIOptions{}, nil).Review(context.Background(), AIRequest{Groups: groups})
	require.Error(t, err)
	assert.True(t, providers.IsAuthError(err))

	flaky := &mockReviewer{respond: func(providers.ReviewRequest) (providers.ReviewResponse, error) {
		return providers.ReviewResponse{}, errors.New("server exploded")
	}}
	out, err := NewAIReviewer(flaky, AIOptions{}, nil).Review(context.Background(), AIRequest{Groups: groups})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Failures)
}

func TestAIReviewer_UsesCache(t *testing.T) {
	c, err := cache.New(true, t.TempDir(), 0, nil)
	require.NoError(t, err)
	mock := &mockReviewer{respond: fixedReply(`[{"file":"a.py","title":"t","message":"m"}]`)}
	r := NewAIReviewer(mock, AIOptions{Cache: c}, nil)
	req := AIRequest{Model: "m1", Groups: []diff.FileGroup{group("a.py", "x = 1")}}

	first, err := r.Review(context.Background(), req)
	require.NoError(t, err)
	second, err := r.Review(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, mock.calls())
	assert.Zero(t, first.CacheHits)
	assert.Equal(t, 1, second.CacheHits)
	assert.Len(t, second.Findings, 1)
}
