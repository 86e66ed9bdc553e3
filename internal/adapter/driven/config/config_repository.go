package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/abigailhaddad/apportionment/internal/domain/repository"
	"github.com/abigailhaddad/apportionment/internal/shared/types"
)

// EnvPrefix prefixa as variáveis de ambiente que sobrescrevem o arquivo.
const EnvPrefix = "SF133"

// ConfigRepositoryImpl implementa o ConfigRepository.
type ConfigRepositoryImpl struct {
	env *viper.Viper
}

// NewConfigRepository cria uma nova implementação do ConfigRepository.
func NewConfigRepository() repository.ConfigRepository {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	return &ConfigRepositoryImpl{env: v}
}

// envKeys são as chaves aceitas via ambiente, ex.: SF133_PUBLISH_S3_BUCKET.
var envKeys = []string{
	"output_dir",
	"as_of_month",
	"report_type",
	"compression_warning_ratio",
	"gate.min_month_total",
	"gate.baseline_year",
	"gate.min_coverage_pct",
	"publish.dir",
	"publish.s3_bucket",
	"publish.s3_prefix",
	"publish.aws_profile",
	"publish.aws_region",
}

// LoadConfigFile carrega um arquivo TOML, YAML ou JSON sobre os valores
// padrão, aplica o ambiente e valida. Caminho vazio usa só os padrões.
func (r *ConfigRepositoryImpl) LoadConfigFile(filePath string) (*types.Config, error) {
	config := types.DefaultConfig()

	if filePath != "" {
		if err := decodeFile(filePath, config); err != nil {
			return nil, err
		}
	}
	if err := r.applyEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func decodeFile(filePath string, config *types.Config) error {
	fileExtension := strings.ToLower(filepath.Ext(filePath))

	// Verifica se o arquivo existe
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("error accessing config file: %w", err)
	}
	if fileInfo.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", filePath)
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	switch fileExtension {
	case ".toml":
		// go-toml v1 substitui a struct inteira; passa por JSON para
		// preservar os padrões das chaves ausentes.
		tree, err := toml.LoadBytes(fileData)
		if err != nil {
			return fmt.Errorf("error parsing TOML file: %w", err)
		}
		data, err := json.Marshal(tree.ToMap())
		if err != nil {
			return fmt.Errorf("error parsing TOML file: %w", err)
		}
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("error parsing TOML file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(fileData, config); err != nil {
			return fmt.Errorf("error parsing YAML file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(fileData, config); err != nil {
			return fmt.Errorf("error parsing JSON file: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s", fileExtension)
	}
	return nil
}

func (r *ConfigRepositoryImpl) applyEnv(config *types.Config) error {
	v := r.env
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	str("output_dir", &config.OutputDir)
	str("as_of_month", &config.AsOfMonth)
	str("publish.dir", &config.Publish.Dir)
	str("publish.s3_bucket", &config.Publish.S3Bucket)
	str("publish.s3_prefix", &config.Publish.S3Prefix)
	str("publish.aws_profile", &config.Publish.AWSProfile)
	str("publish.aws_region", &config.Publish.AWSRegion)

	if v.IsSet("report_type") {
		config.ReportType = strings.FieldsFunc(v.GetString("report_type"), func(r rune) bool { return r == ',' || r == ' ' })
	}
	for key, dst := range map[string]*float64{
		"compression_warning_ratio": &config.CompressionWarningRatio,
		"gate.min_month_total":      &config.Gate.MinMonthTotal,
		"gate.min_coverage_pct":     &config.Gate.MinCoveragePct,
	} {
		if !v.IsSet(key) {
			continue
		}
		f, err := cast.ToFloat64E(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return envError(key, err)
		}
		*dst = f
	}
	if v.IsSet("gate.baseline_year") {
		n, err := cast.ToIntE(strings.TrimSpace(v.GetString("gate.baseline_year")))
		if err != nil {
			return envError("gate.baseline_year", err)
		}
		config.Gate.BaselineYear = n
	}
	return nil
}

// envError names the variable as the user wrote it, e.g. SF133_GATE_MIN_COVERAGE_PCT.
func envError(key string, err error) error {
	return fmt.Errorf("%w: %s_%s: %v", types.ErrInvalidConfig, EnvPrefix, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), err)
}
