package healthcheck

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jingkaihe/skill-doctor/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func messages(findings []Finding) []string {
	result := make([]string, 0, len(findings))
	for _, f := range findings {
		result = append(result, string(f.Category)+" "+string(f.Severity)+" "+f.Message)
	}
	return result
}

func TestCheckOrphans(t *testing.T) {
	ctx := context.Background()

	t.Run("ancestor directory mentions cover nested files", func(t *testing.T) {
		for _, mention := range []string{"scripts/sub/tool.py", "scripts/sub/", "scripts/"} {
			t.Run(mention, func(t *testing.T) {
				skillDir := t.TempDir()
				writeFile(t, filepath.Join(skillDir, "scripts", "sub", "tool.py"), "print('hi')")

				findings := CheckOrphans(ctx, skillDir, "Run "+mention+" when needed.", nil)
				assert.Empty(t, findings)
			})
		}
	})

	t.Run("unmentioned file is an orphan", func(t *testing.T) {
		skillDir := t.TempDir()
		writeFile(t, filepath.Join(skillDir, "scripts", "sub", "tool.py"), "print('hi')")

		findings := CheckOrphans(ctx, skillDir, "No resources mentioned.", nil)
		assert.Equal(t, []string{"orphan WARN scripts/sub/tool.py -- not referenced in SKILL.md"}, messages(findings))
	})

	t.Run("partial paths do not cover", func(t *testing.T) {
		skillDir := t.TempDir()
		writeFile(t, filepath.Join(skillDir, "references", "api", "auth.md"), "auth")

		findings := CheckOrphans(ctx, skillDir, "See api/auth.md or the references folder", nil)
		assert.Equal(t, []string{"orphan WARN references/api/auth.md -- not referenced in SKILL.md"}, messages(findings))
	})

	t.Run("scan order is directory order then lexical path order", func(t *testing.T) {
		skillDir := t.TempDir()
		writeFile(t, filepath.Join(skillDir, "assets", "logo.png"), "png")
		writeFile(t, filepath.Join(skillDir, "references", "guide.md"), "guide")
		writeFile(t, filepath.Join(skillDir, "scripts", "b.py"), "b")
		writeFile(t, filepath.Join(skillDir, "scripts", "a", "z.py"), "z")
		writeFile(t, filepath.Join(skillDir, "scripts", "a-b.py"), "ab")

		findings := CheckOrphans(ctx, skillDir, "", nil)
		assert.Equal(t, []string{
			"orphan WARN scripts/a/z.py -- not referenced in SKILL.md",
			"orphan WARN scripts/a-b.py -- not referenced in SKILL.md",
			"orphan WARN scripts/b.py -- not referenced in SKILL.md",
			"orphan WARN references/guide.md -- not referenced in SKILL.md",
			"orphan WARN assets/logo.png -- not referenced in SKILL.md",
		}, messages(findings))
	})

	t.Run("scripts mention exempts assets", func(t *testing.T) {
		skillDir := t.TempDir()
		writeFile(t, filepath.Join(skillDir, "scripts", "render.py"), "render")
		writeFile(t, filepath.Join(skillDir, "assets", "template", "page.html"), "<html>")

		findings := CheckOrphans(ctx, skillDir, "Run `scripts/render.py`.", nil)
		assert.Empty(t, findings)
	})

	t.Run("references mention does not exempt assets", func(t *testing.T) {
		skillDir := t.TempDir()
		writeFile(t, filepath.Join(skillDir, "references", "guide.md"), "guide")
		writeFile(t, filepath.Join(skillDir, "assets", "logo.png"), "png")

		findings := CheckOrphans(ctx, skillDir, "Read `references/guide.md`.", nil)
		assert.Equal(t, []string{"orphan WARN assets/logo.png -- not referenced in SKILL.md"}, messages(findings))
	})

	t.Run("ignore patterns", func(t *testing.T) {
		skillDir := t.TempDir()
		writeFile(t, filepath.Join(skillDir, "references", ".DS_Store"), "junk")
		writeFile(t, filepath.Join(skillDir, "references", "deep", ".DS_Store"), "junk")
		writeFile(t, filepath.Join(skillDir, "references", "notes.md"), "notes")

		findings := CheckOrphans(ctx, skillDir, "", []string{"**/.DS_Store"})
		assert.Equal(t, []string{"orphan WARN references/notes.md -- not referenced in SKILL.md"}, messages(findings))
	})

	t.Run("no resource directories", func(t *testing.T) {
		skillDir := t.TempDir()
		writeFile(t, filepath.Join(skillDir, "other", "file.txt"), "x")

		assert.Empty(t, CheckOrphans(ctx, skillDir, "", nil))
	})

	t.Run("symlinked resource directory is scanned", func(t *testing.T) {
		base := t.TempDir()
		skillDir := filepath.Join(base, "skill")
		writeFile(t, filepath.Join(base, "shared", "orphan.py"), "print('orphan')")
		writeFile(t, filepath.Join(base, "shared", "lib", "util.py"), "print('util')")
		require.NoError(t, os.MkdirAll(skillDir, 0o755))
		require.NoError(t, os.Symlink(filepath.Join("..", "shared"), filepath.Join(skillDir, "scripts")))

		findings := CheckOrphans(ctx, skillDir, "Mentions `scripts/lib/util.py` only.", nil)
		assert.Equal(t, []string{"orphan WARN scripts/orphan.py -- not referenced in SKILL.md"}, messages(findings))
	})
}

func TestCheckReferences(t *testing.T) {
	skillDir := t.TempDir()
	writeFile(t, filepath.Join(skillDir, "scripts", "run.sh"), "#!/bin/sh")
	writeFile(t, filepath.Join(skillDir, "references", "present.md"), "present")

	t.Run("missing reference cites its line", func(t *testing.T) {
		lines := make([]string, 0, 12)
		for i := 1; i < 12; i++ {
			lines = append(lines, "filler line")
		}
		lines = append(lines, "Consult `references/missing.md` for details.")
		text := strings.Join(lines, "\n") + "\n"

		findings := CheckReferences(skillDir, text)
		assert.Equal(t, []string{"broken ERR references/missing.md -- referenced at line 12 but missing"}, messages(findings))
	})

	t.Run("existing references are fine", func(t *testing.T) {
		text := "Run `scripts/run.sh` then read `references/present.md`.\n"
		assert.Empty(t, CheckReferences(skillDir, text))
	})

	t.Run("repeated references are reported per occurrence", func(t *testing.T) {
		text := "`assets/a.png` and `assets/a.png`\nagain `assets/a.png`\n"
		assert.Equal(t, []string{
			"broken ERR assets/a.png -- referenced at line 1 but missing",
			"broken ERR assets/a.png -- referenced at line 1 but missing",
			"broken ERR assets/a.png -- referenced at line 2 but missing",
		}, messages(CheckReferences(skillDir, text)))
	})

	t.Run("only backticked resource paths without whitespace count", func(t *testing.T) {
		text := strings.Join([]string{
			"plain references/missing.md",
			"`docs/missing.md`",
			"`scripts/has space.py`",
			"`scripts/`",
			"`myscripts/missing.py`",
		}, "\n")
		assert.Empty(t, CheckReferences(skillDir, text))
	})

	t.Run("unicode whitespace ends a path and unicode line breaks count as lines", func(t *testing.T) {
		text := "`scripts/no\u00a0break.py`\nfirst\u2028second\u0085`references/gone.md`\n"
		assert.Equal(t, []string{"broken ERR references/gone.md -- referenced at line 4 but missing"},
			messages(CheckReferences(skillDir, text)))
	})

	t.Run("paths resolve relative to the skill root", func(t *testing.T) {
		assert.Empty(t, CheckReferences(skillDir, "Everything in `references/` and `scripts/.`"))
	})
}

func TestCheckBudget(t *testing.T) {
	thresholds := DefaultThresholds()

	lines := func(count, width int) string {
		return strings.Repeat(strings.Repeat("x", width)+"\n", count)
	}

	tests := []struct {
		name     string
		text     string
		severity Severity
		message  string
	}{
		{
			name:     "exactly at the line ceiling",
			text:     lines(500, 1),
			severity: SeverityOK,
			message:  "500/500 lines, ~250/5000 tokens",
		},
		{
			name:     "one line over the ceiling",
			text:     lines(501, 1),
			severity: SeverityError,
			message:  "501/500 lines, ~250/5000 tokens",
		},
		{
			name:     "token estimate exactly at the ceiling",
			text:     lines(500, 39),
			severity: SeverityOK,
			message:  "500/500 lines, ~5000/5000 tokens",
		},
		{
			name:     "token estimate over the ceiling",
			text:     lines(499, 39) + strings.Repeat("x", 43) + "\n",
			severity: SeverityWarn,
			message:  "500/500 lines, ~5001/5000 tokens",
		},
		{
			name:     "line ceiling wins over token ceiling",
			text:     lines(600, 60),
			severity: SeverityError,
			message:  "600/500 lines, ~9150/5000 tokens",
		},
		{
			name:     "empty manifest",
			text:     "",
			severity: SeverityOK,
			message:  "0/500 lines, ~0/5000 tokens",
		},
		{
			name:     "characters are counted, not bytes",
			text:     strings.Repeat("é", 8),
			severity: SeverityOK,
			message:  "1/500 lines, ~2/5000 tokens",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finding := CheckBudget(tt.text, thresholds)
			assert.Equal(t, CategoryBudget, finding.Category)
			assert.Equal(t, tt.severity, finding.Severity)
			assert.Equal(t, tt.message, finding.Message)
		})
	}

	t.Run("custom thresholds", func(t *testing.T) {
		custom := thresholds
		custom.MaxLines = 10
		finding := CheckBudget(lines(11, 1), custom)
		assert.Equal(t, SeverityError, finding.Severity)
		assert.Equal(t, "11/10 lines, ~5/5000 tokens", finding.Message)
	})
}

func TestCheckTriggerOverlap(t *testing.T) {
	thresholds := DefaultThresholds()

	t.Run("single shared token", func(t *testing.T) {
		triggers := TriggerMap{
			"tidy": manifest.ExtractTriggers(`"refactor" "cleanup code"`, 3),
			"lint": manifest.ExtractTriggers(`"cleanup" "lint"`, 3),
		}

		findings := CheckTriggerOverlap("tidy", triggers, thresholds)
		assert.Equal(t, []string{"trigger INFO overlap with lint: cleanup (0.25)"}, messages(findings))
	})

	t.Run("overlap is symmetric", func(t *testing.T) {
		triggers := TriggerMap{
			"a": manifest.NewTriggerSet("refactor", "cleanup", "code"),
			"b": manifest.NewTriggerSet("cleanup", "lint"),
		}

		fromA := CheckTriggerOverlap("a", triggers, thresholds)
		fromB := CheckTriggerOverlap("b", triggers, thresholds)
		assert.Equal(t, []string{"trigger INFO overlap with b: cleanup (0.25)"}, messages(fromA))
		assert.Equal(t, []string{"trigger INFO overlap with a: cleanup (0.25)"}, messages(fromB))

		sharedAB, ratioAB := Similarity(triggers["a"], triggers["b"])
		sharedBA, ratioBA := Similarity(triggers["b"], triggers["a"])
		assert.Equal(t, sharedAB, sharedBA)
		assert.Equal(t, ratioAB, ratioBA)
	})

	t.Run("ratio above threshold warns", func(t *testing.T) {
		triggers := TriggerMap{
			"deploy":  manifest.NewTriggerSet("deploy", "release"),
			"shipper": manifest.NewTriggerSet("deploy", "release", "ship"),
		}
		findings := CheckTriggerOverlap("deploy", triggers, thresholds)
		assert.Equal(t, []string{"trigger WARN overlap with shipper: deploy, release (0.67)"}, messages(findings))
	})

	t.Run("ratio equal to threshold is info", func(t *testing.T) {
		triggers := TriggerMap{
			"one": manifest.NewTriggerSet("alpha", "bravo", "charlie", "delta", "echo", "foxtrot"),
			"two": manifest.NewTriggerSet("alpha", "bravo", "charlie", "golf", "hotel", "india", "juliet"),
		}
		findings := CheckTriggerOverlap("one", triggers, thresholds)
		assert.Equal(t, []string{"trigger INFO overlap with two: alpha, bravo, charlie (0.30)"}, messages(findings))
	})

	t.Run("long overlap lists are truncated", func(t *testing.T) {
		shared := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}
		triggers := TriggerMap{
			"one": manifest.NewTriggerSet(shared...),
			"two": manifest.NewTriggerSet(append([]string{"golf"}, shared...)...),
		}
		findings := CheckTriggerOverlap("one", triggers, thresholds)
		assert.Equal(t, []string{"trigger WARN overlap with two: alpha, bravo, charlie, delta, echo (+1 more) (0.86)"}, messages(findings))
	})

	t.Run("siblings are compared in name order and disjoint ones skipped", func(t *testing.T) {
		triggers := TriggerMap{
			"mid":   manifest.NewTriggerSet("build", "test"),
			"zeta":  manifest.NewTriggerSet("test"),
			"alpha": manifest.NewTriggerSet("build"),
			"other": manifest.NewTriggerSet("unrelated"),
		}
		findings := CheckTriggerOverlap("mid", triggers, thresholds)
		assert.Equal(t, []string{
			"trigger WARN overlap with alpha: build (0.50)",
			"trigger WARN overlap with zeta: test (0.50)",
		}, messages(findings))
	})

	t.Run("skill without triggers gets no findings", func(t *testing.T) {
		triggers := TriggerMap{
			"quiet":  manifest.NewTriggerSet(),
			"loud":   manifest.NewTriggerSet("deploy"),
			"louder": manifest.NewTriggerSet("deploy", "ship"),
		}
		assert.Empty(t, CheckTriggerOverlap("quiet", triggers, thresholds))
		assert.Empty(t, CheckTriggerOverlap("unknown", triggers, thresholds))
	})
}

func TestSimilarityEmptySets(t *testing.T) {
	shared, ratio := Similarity(manifest.NewTriggerSet(), manifest.NewTriggerSet())
	assert.Equal(t, 0, shared.Len())
	assert.Equal(t, 0.0, ratio)
}
