package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/TowneMJ/gpqa-train/internal/models"
)

// SaveReport describes where a save landed and what it contained.
type SaveReport struct {
	VerifiedPath  string
	RejectedPath  string
	VerifiedCount int
	RejectedCount int
	TagCounts     map[string]int
}

// SaveResults writes the verified and rejected sets to timestamped JSON
// files under verifiedDir and rejectedDir. Each invocation produces new
// files; existing output is never overwritten. Files are written to a temp
// path and renamed into place so a failure mid-save cannot leave a
// half-written result at the destination.
func SaveResults(verifiedDir, rejectedDir string, verified []models.VerifiedQuestion, rejected []models.RejectedQuestion) (*SaveReport, error) {
	timestamp := time.Now().Format("20060102_150405")

	report := &SaveReport{
		VerifiedCount: len(verified),
		RejectedCount: len(rejected),
		TagCounts:     map[string]int{},
	}
	for _, v := range verified {
		report.TagCounts[v.VerificationTag]++
	}

	if len(verified) > 0 {
		path := filepath.Join(verifiedDir, fmt.Sprintf("reviewed_%s.json", timestamp))
		if err := writeJSON(path, verified); err != nil {
			return nil, fmt.Errorf("save verified set: %w", err)
		}
		report.VerifiedPath = path
	}

	if len(rejected) > 0 {
		path := filepath.Join(rejectedDir, fmt.Sprintf("rejected_%s.json", timestamp))
		if err := writeJSON(path, rejected); err != nil {
			return nil, fmt.Errorf("save rejected set: %w", err)
		}
		report.RejectedPath = path
	}

	return report, nil
}

// writeJSON atomically writes v as indented JSON to path, creating parent
// directories as needed.
func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// WriteBatch writes a raw generation batch to a timestamped file under dir
// and returns its path.
func WriteBatch(dir string, records []BatchRecord) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("batch_%s.json", timestamp))
	if err := writeJSON(path, records); err != nil {
		return "", fmt.Errorf("save batch: %w", err)
	}
	return path, nil
}

// Compile merges the verified question sets from multiple reviewed files
// into a single training file.
func Compile(inputs []string, output string) (int, error) {
	var all []models.VerifiedQuestion
	for _, in := range inputs {
		data, err := os.ReadFile(in)
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", in, err)
		}
		var qs []models.VerifiedQuestion
		if err := json.Unmarshal(data, &qs); err != nil {
			return 0, fmt.Errorf("parse %s: %w", in, err)
		}
		all = append(all, qs...)
	}
	if err := writeJSON(output, all); err != nil {
		return 0, err
	}
	return len(all), nil
}
