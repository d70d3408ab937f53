package review

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/sift/internal/diff"
)

type mapFetcher struct {
	files map[string]string
	calls []string
}

func (m *mapFetcher) FileContent(_ context.Context, path, ref string) (string, error) {
	m.calls = append(m.calls, path+"@"+ref)
	content, ok := m.files[path]
	if !ok {
		return "", errors.New("not found")
	}
	return content, nil
}

func TestOutline_Python(t *testing.T) {
	content := "import os\nfrom x import y\n\nclass Foo:\n    def bar(self):\n        pass\n\ndef top():\n    return 1\n"
	fc := Outline("a.py", "python", content)
	assert.Equal(t, []string{"import os", "from x import y"}, fc.Imports)
	assert.Equal(t, []string{"class Foo:"}, fc.Types)
	assert.Equal(t, []string{"def bar(self):", "def top():"}, fc.Functions)
}

func TestOutline_TypeScriptAndLimits(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 15; i++ {
		b.WriteString("import x from 'y'\n")
	}
	b.WriteString("export const handler = async (req) => {\n")
	fc := Outline("a.ts", "typescript", b.String())
	assert.Len(t, fc.Imports, maxOutlineImports)
	assert.Equal(t, []string{"export const handler = async (req) => {"}, fc.Functions)
}

func TestOutline_OnlyHeadScanned(t *testing.T) {
	content := strings.Repeat("x = 1\n", outlineScanLines) + "def late():\n"
	fc := Outline("a.py", "python", content)
	assert.Empty(t, fc.Functions)
}

func TestBuildFileContext(t *testing.T) {
	fetcher := &mapFetcher{files: map[string]string{
		"big.py":   "import os\n",
		"small.go": "package x\n\nfunc F() {}\n",
	}}
	files := []diff.File{
		{Path: "small.go", Language: "go", Additions: 1},
		{Path: "gone.py", Language: "python", Status: diff.StatusDeleted, Additions: 0},
		{Path: "img.png", IsBinary: true, Additions: 50},
		{Path: "big.py", Language: "python", Additions: 30},
		{Path: "missing.py", Language: "python", Additions: 5},
	}
	got := BuildFileContext(context.Background(), fetcher, files, "abc123", nil)
	require.Len(t, got, 2)
	assert.Equal(t, "big.py", got[0].Path)
	assert.Equal(t, "small.go", got[1].Path)
	assert.Equal(t, []string{"func F() {}"}, got[1].Functions)
	assert.Equal(t, []string{"big.py@abc123", "missing.py@abc123", "small.go@abc123"}, fetcher.calls)

	assert.Nil(t, BuildFileContext(context.Background(), nil, files, "", nil))
}
