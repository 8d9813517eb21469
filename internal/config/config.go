package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides, e.g. VMTOOLS_VSPHERE_HOST.
const EnvPrefix = "VMTOOLS"

// Config represents the application configuration
type Config struct {
	VSphere VSphereConfig `mapstructure:"vsphere" validate:"required"`
	Logging LoggingConfig `mapstructure:"logging" validate:"required"`
	Report  ReportConfig  `mapstructure:"report"`
}

// VSphereConfig contains vSphere connection configuration
type VSphereConfig struct {
	Host               string        `mapstructure:"host" validate:"required,hostname_rfc1123|ip" example:"vcenter.example.com"`
	Port               int           `mapstructure:"port" validate:"min=1,max=65535" example:"443"`
	Username           string        `mapstructure:"username" example:"administrator@vsphere.local"`
	Password           string        `mapstructure:"password" example:"secret"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify" example:"false"`
	ConnectionTimeout  time.Duration `mapstructure:"connection_timeout" validate:"required" example:"30s"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout" validate:"required" example:"5m"`
	RetryAttempts      int           `mapstructure:"retry_attempts" validate:"min=0,max=10" example:"0"`
	RetryDelay         time.Duration `mapstructure:"retry_delay" example:"5s"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `mapstructure:"level" validate:"required,oneof=debug info warn error" example:"warn"`
	Format   string `mapstructure:"format" validate:"required,oneof=json text" example:"text"`
	Output   string `mapstructure:"output" validate:"required,oneof=stdout stderr file" example:"stderr"`
	FilePath string `mapstructure:"file_path" example:"/var/log/vmtools.log"`
}

// ReportConfig controls the operator-facing report
type ReportConfig struct {
	Color bool `mapstructure:"color" example:"true"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		VSphere: VSphereConfig{
			Port:              443,
			ConnectionTimeout: 30 * time.Second,
			// Mount calls block until vCenter answers; keep this generous.
			RequestTimeout: 5 * time.Minute,
			RetryAttempts:  0,
			RetryDelay:     5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
		Report: ReportConfig{
			Color: true,
		},
	}
}

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"host":      "vsphere.host",
	"port":      "vsphere.port",
	"username":  "vsphere.username",
	"password":  "vsphere.password",
	"insecure":  "vsphere.insecure_skip_verify",
	"log-level": "logging.level",
}

// Load loads configuration from multiple sources with the following precedence:
// 1. Command line flags (highest)
// 2. Environment variables
// 3. Configuration file
// 4. Default values (lowest)
//
// flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/vmtools/")
		v.AddConfigPath("$HOME/.vmtools/")
	}

	// Keys must be known to viper for AutomaticEnv to apply on Unmarshal.
	setDefaults(v, config)

	v.AutomaticEnv()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("vsphere.host", cfg.VSphere.Host)
	v.SetDefault("vsphere.port", cfg.VSphere.Port)
	v.SetDefault("vsphere.username", cfg.VSphere.Username)
	v.SetDefault("vsphere.password", cfg.VSphere.Password)
	v.SetDefault("vsphere.insecure_skip_verify", cfg.VSphere.InsecureSkipVerify)
	v.SetDefault("vsphere.connection_timeout", cfg.VSphere.ConnectionTimeout)
	v.SetDefault("vsphere.request_timeout", cfg.VSphere.RequestTimeout)
	v.SetDefault("vsphere.retry_attempts", cfg.VSphere.RetryAttempts)
	v.SetDefault("vsphere.retry_delay", cfg.VSphere.RetryDelay)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)
	v.SetDefault("logging.file_path", cfg.Logging.FilePath)
	v.SetDefault("report.color", cfg.Report.Color)
}

// ValidateConfig validates the configuration using struct tags
func ValidateConfig(config *Config) error {
	validator := validator.New()

	if err := validator.Struct(config); err != nil {
		return err
	}

	if err := validateVSphereConfig(&config.VSphere); err != nil {
		return fmt.Errorf("vsphere config validation failed: %w", err)
	}

	if err := validateLoggingConfig(&config.Logging); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}

	return nil
}

// validateVSphereConfig performs additional validation for vSphere configuration.
// Credentials are not required here since the CLI prompts for them.
func validateVSphereConfig(config *VSphereConfig) error {
	if config.Host == "" {
		return fmt.Errorf("host is required")
	}

	if config.ConnectionTimeout <= 0 {
		return fmt.Errorf("connection_timeout must be positive")
	}

	if config.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}

	if config.RetryAttempts > 0 && config.RetryDelay <= 0 {
		return fmt.Errorf("retry_delay must be positive when retry_attempts is set")
	}

	return nil
}

// validateLoggingConfig performs additional validation for logging configuration
func validateLoggingConfig(config *LoggingConfig) error {
	if config.Output == "file" && config.FilePath == "" {
		return fmt.Errorf("file_path is required when output is set to 'file'")
	}

	return nil
}

// LoadEnvFile exports the VMTOOLS_* variables of a dotenv file into the
// process environment so Load picks them up. Variables already set in the
// environment win. A missing file is not an error.
func LoadEnvFile(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return false, fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	for key, value := range env {
		if !strings.HasPrefix(key, EnvPrefix+"_") {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return false, fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return true, nil
}

// GetAddress returns the endpoint address in host:port format
func (c *VSphereConfig) GetAddress() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// GetSDKURL returns the vSphere SOAP endpoint URL, without credentials
func (c *VSphereConfig) GetSDKURL() string {
	return "https://" + c.GetAddress() + "/sdk"
}

// HasCredentials reports whether both username and password are set
func (c *VSphereConfig) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}
