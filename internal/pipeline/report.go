package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReportName is the file name of the YAML summary written next to the
// variants of inputPath.
func (n Naming) ReportName(inputPath string) string {
	if n == NamingPrefixed {
		base := filepath.Base(inputPath)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		return fmt.Sprintf("processed_%s_report.yaml", base)
	}
	return "report.yaml"
}

// WriteReport writes result as YAML into dir/name and returns the path.
func WriteReport(dir, name string, result *Result) (string, error) {
	data, err := yaml.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
