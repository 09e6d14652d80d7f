package report

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	ReportFileName    = "report.json"
	ChecksumsFileName = "checksums.sha256"
	RunLogFileName    = "answer-highlight.run.log"
)

func DefaultReportPath(outDir string) string {
	return filepath.Join(outDirOrDot(outDir), ReportFileName)
}

func DefaultChecksumsPath(outDir string) string {
	return filepath.Join(outDirOrDot(outDir), ChecksumsFileName)
}

func DefaultRunLogPath(outDir string) string {
	return filepath.Join(outDirOrDot(outDir), RunLogFileName)
}

func outDirOrDot(dir string) string {
	if strings.TrimSpace(dir) == "" {
		return "."
	}
	return dir
}

// WriteChecksums writes "<sha256>  <path>" lines for every artifact, sorted by
// path. Paths are relative to the checksums file's directory.
func WriteChecksums(checksumsPath string, artifactPaths []string) error {
	base := filepath.Dir(checksumsPath)
	type entry struct{ name, path string }
	entries := make([]entry, 0, len(artifactPaths))
	for _, p := range artifactPaths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		name, err := filepath.Rel(base, p)
		if err != nil || strings.HasPrefix(name, "..") {
			name = filepath.Base(p)
		}
		entries = append(entries, entry{name: filepath.ToSlash(name), path: p})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		sum, err := fileSHA256(e.path)
		if err != nil {
			return fmt.Errorf("checksum read failed for %s: %w", e.path, err)
		}
		lines = append(lines, fmt.Sprintf("%s  %s", sum, e.name))
	}
	content := strings.Join(lines, "\n")
	if content != "" {
		content += "\n"
	}
	return WriteFile(checksumsPath, []byte(content))
}

func fileSHA256(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
