package diff

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// ErrMalformedDiff is returned when the input cannot be read as a unified diff.
var ErrMalformedDiff = errors.New("malformed diff")

const devNull = "/dev/null"

// Parse reads unified diff text into files, dropping paths matched by the
// default exclusions or by exclude. Text that cannot be parsed yields an empty
// list together with an error wrapping ErrMalformedDiff; callers decide
// whether that is fatal.
func Parse(text string, exclude []string) ([]File, error) {
	files := []File{}
	if strings.TrimSpace(text) == "" {
		return files, nil
	}

	parsed, err := godiff.ParseMultiFileDiff([]byte(text))
	if err != nil {
		return files, fmt.Errorf("%w: %v", ErrMalformedDiff, err)
	}

	excluder := NewExcluder(exclude)
	for _, fd := range parsed {
		if fd == nil {
			continue
		}
		f := convertFile(fd)
		if f.Path == "" || excluder.Excluded(f.Path) {
			continue
		}
		files = append(files, f)
	}
	return files, nil
}

func convertFile(fd *godiff.FileDiff) File {
	oldName, newName := fd.OrigName, fd.NewName
	extOld, extNew := namesFromExtended(fd.Extended)
	if oldName == "" {
		oldName = extOld
	}
	if newName == "" {
		newName = extNew
	}

	oldPath := stripPrefix(oldName, "a/")
	newPath := stripPrefix(newName, "b/")

	f := File{IsBinary: isBinary(fd.Extended)}
	switch {
	case oldName == devNull || hasExtended(fd.Extended, "new file mode"):
		f.Status = StatusAdded
		f.Path = newPath
	case newName == devNull || hasExtended(fd.Extended, "deleted file mode"):
		f.Status = StatusDeleted
		f.Path = oldPath
	case oldPath != "" && newPath != "" && oldPath != newPath:
		f.Status = StatusRenamed
		f.Path = newPath
		f.PreviousPath = oldPath
	default:
		f.Status = StatusModified
		f.Path = newPath
		if f.Path == "" {
			f.Path = oldPath
		}
	}
	f.Language = DetectLanguage(f.Path)

	if f.IsBinary {
		return f
	}
	for _, h := range fd.Hunks {
		if h == nil {
			continue
		}
		hunk := convertHunk(h)
		f.Additions += len(hunk.Additions)
		f.Deletions += len(hunk.Deletions)
		f.Hunks = append(f.Hunks, hunk)
	}
	return f
}

func convertHunk(h *godiff.Hunk) Hunk {
	hunk := Hunk{
		OldStart: int(h.OrigStartLine),
		OldLines: int(h.OrigLines),
		NewStart: int(h.NewStartLine),
		NewLines: int(h.NewLines),
	}
	walkBody(&hunk, h.Body)

	var raw strings.Builder
	fmt.Fprintf(&raw, "@@ -%d,%d +%d,%d @@", hunk.OldStart, hunk.OldLines, hunk.NewStart, hunk.NewLines)
	if h.Section != "" {
		raw.WriteString(" ")
		raw.WriteString(h.Section)
	}
	raw.WriteString("\n")
	raw.Write(h.Body)
	hunk.Raw = raw.String()
	return hunk
}

// walkBody assigns line numbers by advancing the old and new counters from
// the hunk header. Lines beyond the header's declared counts are kept. An
// empty body line is a blank context line whose leading space was stripped.
func walkBody(hunk *Hunk, body []byte) {
	oldLine, newLine := hunk.OldStart, hunk.NewStart
	lines := bytes.Split(body, []byte("\n"))
	if n := len(lines); n > 0 && len(lines[n-1]) == 0 {
		lines = lines[:n-1]
	}
	for _, raw := range lines {
		if len(raw) == 0 {
			hunk.Context = append(hunk.Context, Line{Number: newLine})
			oldLine++
			newLine++
			continue
		}
		text := string(raw[1:])
		switch raw[0] {
		case '+':
			hunk.Additions = append(hunk.Additions, Line{Number: newLine, Text: text})
			newLine++
		case '-':
			hunk.Deletions = append(hunk.Deletions, Line{Number: oldLine, Text: text})
			oldLine++
		case '\\':
			// "\ No newline at end of file"
		default:
			hunk.Context = append(hunk.Context, Line{Number: newLine, Text: text})
			oldLine++
			newLine++
		}
	}
}

func stripPrefix(name, prefix string) string {
	if name == devNull {
		return ""
	}
	return strings.TrimPrefix(name, prefix)
}

func isBinary(extended []string) bool {
	for _, line := range extended {
		if strings.HasPrefix(line, "Binary files ") || strings.HasPrefix(line, "GIT binary patch") {
			return true
		}
	}
	return false
}

func hasExtended(extended []string, prefix string) bool {
	for _, line := range extended {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// namesFromExtended recovers paths for entries without ---/+++ headers,
// such as pure renames and binary files.
func namesFromExtended(extended []string) (oldName, newName string) {
	for _, line := range extended {
		switch {
		case strings.HasPrefix(line, "rename from "):
			oldName = "a/" + strings.TrimPrefix(line, "rename from ")
		case strings.HasPrefix(line, "rename to "):
			newName = "b/" + strings.TrimPrefix(line, "rename to ")
		case strings.HasPrefix(line, "diff --git "):
			fields := strings.Fields(strings.TrimPrefix(line, "diff --git "))
			if len(fields) == 2 && oldName == "" && newName == "" {
				oldName, newName = fields[0], fields[1]
			}
		}
	}
	return oldName, newName
}
