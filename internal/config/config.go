// Package config loads besttest settings from config.yaml, the process
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/besttest/besttest/internal/evidence"
	"github.com/besttest/besttest/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envFileName    = ".env"
)

// Environment names.
const (
	EnvDev  = "dev"
	EnvUAT  = "uat"
	EnvProd = "prod"
)

// Executor kinds.
const (
	ExecutorSimulated = "simulated"
	ExecutorHTTP      = "http"
)

// Defaults.
const (
	DefaultListen    = "127.0.0.1:8000"
	DefaultPassRatio = 0.8
)

// Validation errors.
var (
	ErrUnknownEnv      = errors.New("unknown environment")
	ErrPassRatio       = errors.New("pass_ratio must be between 0 and 1")
	ErrUnknownExecutor = errors.New("unknown executor")
	ErrMissingURL      = errors.New("environment url is required for the http executor")
)

// Environment is the backend endpoint of one deployment stage.
type Environment struct {
	URL    string `mapstructure:"url" yaml:"url" json:"url"`
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty" json:"api_key,omitempty"`
}

// Environments is the fixed set of deployment stages.
type Environments struct {
	Dev  Environment `mapstructure:"dev" yaml:"dev" json:"dev"`
	UAT  Environment `mapstructure:"uat" yaml:"uat" json:"uat"`
	Prod Environment `mapstructure:"prod" yaml:"prod" json:"prod"`
}

// Get returns the environment called name.
func (e *Environments) Get(name string) (*Environment, error) {
	switch strings.ToLower(name) {
	case EnvDev:
		return &e.Dev, nil
	case EnvUAT:
		return &e.UAT, nil
	case EnvProd:
		return &e.Prod, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownEnv)
}

// Settings is the full configuration.
type Settings struct {
	Backend string `mapstructure:"backend" yaml:"backend" json:"backend"`
	DataDir string `mapstructure:"data_dir" yaml:"data_dir,omitempty" json:"data_dir,omitempty"`
	DSN     string `mapstructure:"dsn" yaml:"dsn,omitempty" json:"dsn,omitempty"`

	ActiveEnv    string       `mapstructure:"active_env" yaml:"active_env" json:"active_env"`
	Environments Environments `mapstructure:"environments" yaml:"environments" json:"environments"`

	Executor  string  `mapstructure:"executor" yaml:"executor" json:"executor"`
	PassRatio float64 `mapstructure:"pass_ratio" yaml:"pass_ratio" json:"pass_ratio"`
	// StatusPath and MessagePath are JSONPath expressions applied to
	// responses of the http executor.
	StatusPath  string `mapstructure:"status_path" yaml:"status_path,omitempty" json:"status_path,omitempty"`
	MessagePath string `mapstructure:"message_path" yaml:"message_path,omitempty" json:"message_path,omitempty"`

	Listen string `mapstructure:"listen" yaml:"listen" json:"listen"`
	// EvidenceDir holds run screenshots. Empty means <data dir>/evidence.
	EvidenceDir string `mapstructure:"evidence_dir" yaml:"evidence_dir,omitempty" json:"evidence_dir,omitempty"`
}

// Default returns the settings written on first run.
func Default() Settings {
	return Settings{
		Backend:   types.BackendSQLite,
		ActiveEnv: EnvDev,
		Environments: Environments{
			Dev:  Environment{URL: "http://localhost:8000"},
			UAT:  Environment{},
			Prod: Environment{},
		},
		Executor:  ExecutorSimulated,
		PassRatio: DefaultPassRatio,
		Listen:    DefaultListen,
	}
}

// Active returns the selected environment.
func (s *Settings) Active() Environment {
	env, err := s.Environments.Get(s.ActiveEnv)
	if err != nil {
		return Environment{}
	}
	return *env
}

// Validate checks the settings.
func (s *Settings) Validate() error {
	if _, err := s.Environments.Get(s.ActiveEnv); err != nil {
		return err
	}
	if s.PassRatio < 0 || s.PassRatio > 1 {
		return ErrPassRatio
	}
	switch s.Executor {
	case ExecutorSimulated:
	case ExecutorHTTP:
		if s.Active().URL == "" {
			return fmt.Errorf("%s: %w", s.ActiveEnv, ErrMissingURL)
		}
	default:
		return fmt.Errorf("%q: %w", s.Executor, ErrUnknownExecutor)
	}
	return s.Store(s.DataDir).Validate()
}

// Store returns the repository config for dataDir.
func (s *Settings) Store(dataDir string) types.Config {
	return types.Config{Backend: s.Backend, DataDir: dataDir, DSN: s.DSN}
}

// EvidencePath returns the evidence directory for dataDir.
func (s *Settings) EvidencePath(dataDir string) string {
	if s.EvidenceDir != "" {
		return s.EvidenceDir
	}
	return filepath.Join(dataDir, evidence.DirName)
}

// Load reads config.yaml from configDir, creating the directory and a
// default file on first run. Variables from configDir/.env are added to the
// process environment without overriding it; BESTTEST_<ENV>_URL and
// BESTTEST_<ENV>_API_KEY then override the file.
func Load(configDir string) (Settings, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return Settings{}, fmt.Errorf("ensure config dir: %w", err)
	}
	path := filepath.Join(configDir, configFileExt)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(configDir, Default()); err != nil {
			return Settings{}, err
		}
	} else if err != nil {
		return Settings{}, fmt.Errorf("stat config file: %w", err)
	}

	if err := godotenv.Load(filepath.Join(configDir, envFileName)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Settings{}, fmt.Errorf("load %s: %w", envFileName, err)
	}

	v := viper.New()
	def := Default()
	v.SetDefault("backend", def.Backend)
	v.SetDefault("active_env", def.ActiveEnv)
	v.SetDefault("executor", def.Executor)
	v.SetDefault("pass_ratio", def.PassRatio)
	v.SetDefault("listen", def.Listen)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	s.ActiveEnv = strings.ToLower(s.ActiveEnv)
	applyEnv(&s.Environments)

	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return s, nil
}

// applyEnv overlays BESTTEST_<ENV>_URL and BESTTEST_<ENV>_API_KEY.
func applyEnv(envs *Environments) {
	for _, name := range []string{EnvDev, EnvUAT, EnvProd} {
		env, _ := envs.Get(name)
		prefix := "BESTTEST_" + strings.ToUpper(name)
		if v := os.Getenv(prefix + "_URL"); v != "" {
			env.URL = v
		}
		if v := os.Getenv(prefix + "_API_KEY"); v != "" {
			env.APIKey = v
		}
	}
}

// Save writes s to configDir/config.yaml.
func Save(configDir string, s Settings) error {
	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	header := "# besttest configuration\n# API keys are better kept in .env as BESTTEST_<ENV>_API_KEY.\n\n"
	path := filepath.Join(configDir, configFileExt)
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Masked returns a copy with API keys hidden, for display.
func (s Settings) Masked() Settings {
	for _, name := range []string{EnvDev, EnvUAT, EnvProd} {
		env, _ := s.Environments.Get(name)
		if env.APIKey != "" {
			env.APIKey = "****"
		}
	}
	return s
}
