package diff

// Status describes how a file changed.
type Status string

const (
	StatusAdded    Status = "added"
	StatusModified Status = "modified"
	StatusDeleted  Status = "deleted"
	StatusRenamed  Status = "renamed"
)

// Line is a single diff line with the number it carries in its image.
// Added and context lines use post-image numbers; removed lines use pre-image numbers.
type Line struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Hunk is a contiguous block of changes within a file.
type Hunk struct {
	OldStart  int    `json:"oldStart"`
	OldLines  int    `json:"oldLines"`
	NewStart  int    `json:"newStart"`
	NewLines  int    `json:"newLines"`
	Additions []Line `json:"additions"`
	Deletions []Line `json:"deletions"`
	Context   []Line `json:"context"`
	Raw       string `json:"raw"`
}

// File is one changed file in a diff.
type File struct {
	Path         string `json:"path"`
	PreviousPath string `json:"previousPath,omitempty"`
	Status       Status `json:"status"`
	Language     string `json:"language"`
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
	IsBinary     bool   `json:"isBinary"`
	Hunks        []Hunk `json:"hunks"`
}

// Analyzable reports whether the file has reviewable text content.
func (f File) Analyzable() bool {
	return !f.IsBinary && f.Status != StatusDeleted && len(f.Hunks) > 0
}

// TotalAdditions sums added lines over files.
func TotalAdditions(files []File) int {
	n := 0
	for _, f := range files {
		n += f.Additions
	}
	return n
}
