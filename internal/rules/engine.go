package rules

import (
	"github.com/hashicorp/go-hclog"

	"github.com/dshills/sift/internal/diff"
	"github.com/dshills/sift/internal/finding"
)

// Selection narrows the rule set. Empty Enabled means every rule.
type Selection struct {
	Enabled  []string
	Disabled []string
}

func (s Selection) allows(id string) bool {
	id = normalizeID(id)
	if len(s.Enabled) > 0 && !containsID(s.Enabled, id) {
		return false
	}
	return !containsID(s.Disabled, id)
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if normalizeID(candidate) == id {
			return true
		}
	}
	return false
}

// Engine runs registered rules over parsed files.
type Engine struct {
	registry *Registry
	logger   hclog.Logger
}

// NewEngine creates an engine over registry. A nil logger discards output.
func NewEngine(registry *Registry, logger hclog.Logger) *Engine {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Engine{registry: registry, logger: logger}
}

// RulesFor returns the rules that apply to file under sel, in registry order.
func (e *Engine) RulesFor(file diff.File, sel Selection) []Rule {
	var out []Rule
	for _, rule := range e.registry.rules {
		m := rule.Meta()
		if m.AppliesTo(file.Language) && sel.allows(m.ID) {
			out = append(out, rule)
		}
	}
	return out
}

// Run checks every added line of every text file. A rule that panics on a
// line is logged and skipped for that line only.
func (e *Engine) Run(files []diff.File, sel Selection) []finding.RawFinding {
	var out []finding.RawFinding
	for i := range files {
		file := &files[i]
		if file.IsBinary {
			continue
		}
		applicable := e.RulesFor(*file, sel)
		if len(applicable) == 0 {
			continue
		}
		for j := range file.Hunks {
			hunk := &file.Hunks[j]
			for _, line := range hunk.Additions {
				for _, rule := range applicable {
					if raw := e.check(rule, file, hunk, line); raw != nil {
						out = append(out, *raw)
					}
				}
			}
		}
	}
	e.logger.Debug("static analysis complete", "files", len(files), "findings", len(out))
	return out
}

func (e *Engine) check(rule Rule, file *diff.File, hunk *diff.Hunk, line diff.Line) (raw *finding.RawFinding) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("rule failed", "rule", rule.Meta().ID, "path", file.Path, "line", line.Number, "error", r)
			raw = nil
		}
	}()
	return rule.Check(file, hunk, line.Number, line.Text)
}
