package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abigailhaddad/apportionment/internal/shared/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFileFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "sf133.toml", `
output_dir = "site/data"
skip_files = ["a.xlsx", "b.xlsx"]

[years.12]
required_months = ["Nov", "Jul", "Aug"]
expected_files = 24

[publish]
s3_bucket = "budget-site"
`},
		{"yaml", "sf133.yaml", `
output_dir: site/data
skip_files: [a.xlsx, b.xlsx]
years:
  12:
    required_months: [Nov, Jul, Aug]
    expected_files: 24
publish:
  s3_bucket: budget-site
`},
		{"json", "sf133.json", `{
  "output_dir": "site/data",
  "skip_files": ["a.xlsx", "b.xlsx"],
  "years": {"12": {"required_months": ["Nov", "Jul", "Aug"], "expected_files": 24}},
  "publish": {"s3_bucket": "budget-site"}
}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewConfigRepository().LoadConfigFile(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("LoadConfigFile() error = %v", err)
			}
			if cfg.OutputDir != "site/data" || cfg.Publish.S3Bucket != "budget-site" {
				t.Errorf("cfg = %+v", cfg)
			}
			if len(cfg.SkipFiles) != 2 {
				t.Errorf("SkipFiles = %v", cfg.SkipFiles)
			}
			yc, ok := cfg.YearConfigFor(2012)
			if !ok || yc.ExpectedFiles != 24 || len(yc.RequiredMonths) != 3 {
				t.Errorf("YearConfigFor(2012) = %+v, %v", yc, ok)
			}
			// defaults survive for keys the file does not mention
			if cfg.Sheets.RawData != "Raw Data" || cfg.Lines.UnobligatedBalance != 2490 || len(cfg.MonthColumns) == 0 {
				t.Errorf("defaults lost: sheets=%+v lines=%+v", cfg.Sheets, cfg.Lines)
			}
		})
	}
}

func TestLoadConfigFileDefaults(t *testing.T) {
	cfg, err := NewConfigRepository().LoadConfigFile("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CompressionWarningRatio != types.DefaultConfig().CompressionWarningRatio {
		t.Errorf("CompressionWarningRatio = %v", cfg.CompressionWarningRatio)
	}
}

func TestLoadConfigFileEnvOverrides(t *testing.T) {
	t.Setenv("SF133_PUBLISH_S3_BUCKET", "from-env")
	t.Setenv("SF133_AS_OF_MONTH", "Jun")
	t.Setenv("SF133_REPORT_TYPE", "csv,json,pdf")
	t.Setenv("SF133_GATE_MIN_COVERAGE_PCT", "75.5")
	t.Setenv("SF133_GATE_BASELINE_YEAR", "2022")

	path := writeFile(t, "sf133.json", `{"publish": {"s3_bucket": "from-file"}}`)
	cfg, err := NewConfigRepository().LoadConfigFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Publish.S3Bucket != "from-env" || cfg.AsOfMonth != "Jun" {
		t.Errorf("publish = %+v as_of = %q", cfg.Publish, cfg.AsOfMonth)
	}
	if len(cfg.ReportType) != 3 || cfg.ReportType[2] != "pdf" {
		t.Errorf("ReportType = %v", cfg.ReportType)
	}
	if cfg.Gate.MinCoveragePct != 75.5 || cfg.Gate.BaselineYear != 2022 {
		t.Errorf("Gate = %+v", cfg.Gate)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	repo := NewConfigRepository()

	if _, err := repo.LoadConfigFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := repo.LoadConfigFile(t.TempDir()); err == nil {
		t.Error("expected error for directory")
	}
	if _, err := repo.LoadConfigFile(writeFile(t, "sf133.ini", "x=1")); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if _, err := repo.LoadConfigFile(writeFile(t, "bad.json", "{")); err == nil {
		t.Error("expected error for malformed JSON")
	}

	invalid := writeFile(t, "ratio.json", `{"compression_warning_ratio": -1}`)
	if _, err := repo.LoadConfigFile(invalid); !errors.Is(err, types.ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}

	t.Setenv("SF133_COMPRESSION_WARNING_RATIO", "lots")
	if _, err := NewConfigRepository().LoadConfigFile(""); !errors.Is(err, types.ErrInvalidConfig) {
		t.Errorf("env error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadConfigFileEnvNumbers(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		value string
	}{
		{name: "percent sign", env: "SF133_GATE_MIN_COVERAGE_PCT", value: "75.5%"},
		{name: "word", env: "SF133_GATE_MIN_COVERAGE_PCT", value: "abc"},
		{name: "trailing text", env: "SF133_GATE_MIN_MONTH_TOTAL", value: "12abc"},
		{name: "fractional year", env: "SF133_GATE_BASELINE_YEAR", value: "2022.5"},
		{name: "year word", env: "SF133_GATE_BASELINE_YEAR", value: "last"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := NewConfigRepository().LoadConfigFile("")
			if !errors.Is(err, types.ErrInvalidConfig) {
				t.Fatalf("error = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.env) {
				t.Errorf("error %q does not name %s", err, tt.env)
			}
		})
	}

	t.Run("padded values", func(t *testing.T) {
		t.Setenv("SF133_COMPRESSION_WARNING_RATIO", " 20 ")
		t.Setenv("SF133_GATE_BASELINE_YEAR", "2021")
		cfg, err := NewConfigRepository().LoadConfigFile("")
		if err != nil {
			t.Fatal(err)
		}
		if cfg.CompressionWarningRatio != 20 || cfg.Gate.BaselineYear != 2021 {
			t.Errorf("ratio = %v baseline = %d", cfg.CompressionWarningRatio, cfg.Gate.BaselineYear)
		}
	})
}
