package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
vsphere:
  host: vcenter.example.com
  port: 8443
  insecure_skip_verify: true
  request_timeout: 90s
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "vcenter.example.com", cfg.VSphere.Host)
	assert.Equal(t, 8443, cfg.VSphere.Port)
	assert.True(t, cfg.VSphere.InsecureSkipVerify)
	assert.Equal(t, 90*time.Second, cfg.VSphere.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.VSphere.ConnectionTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.True(t, cfg.Report.Color)
	assert.Equal(t, "https://vcenter.example.com:8443/sdk", cfg.VSphere.GetSDKURL())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
vsphere:
  host: vcenter.example.com
`)
	t.Setenv("VMTOOLS_VSPHERE_HOST", "10.0.0.5")
	t.Setenv("VMTOOLS_VSPHERE_USERNAME", "svc-tools")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", cfg.VSphere.Host)
	assert.Equal(t, "svc-tools", cfg.VSphere.Username)
	assert.Equal(t, "10.0.0.5:443", cfg.VSphere.GetAddress())
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	path := writeConfig(t, `
vsphere:
  host: vcenter.example.com
  port: 443
`)
	t.Setenv("VMTOOLS_VSPHERE_HOST", "10.0.0.5")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("host", "", "")
	flags.Int("port", 443, "")
	flags.String("username", "", "")
	require.NoError(t, flags.Parse([]string{"--host", "esx01.lab", "--port", "9443", "--username", "root"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "esx01.lab", cfg.VSphere.Host)
	assert.Equal(t, 9443, cfg.VSphere.Port)
	assert.Equal(t, "root", cfg.VSphere.Username)
	assert.False(t, cfg.VSphere.HasCredentials())
}

func TestLoad_UnchangedFlagDoesNotOverrideFile(t *testing.T) {
	path := writeConfig(t, `
vsphere:
  host: vcenter.example.com
  port: 8443
`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 443, "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, 8443, cfg.VSphere.Port)
}

func TestLoad_MissingHost(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: info
`)

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestLoad_UnreadableFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.VSphere.Port = 70000 },
			wantErr: "Port",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: "Level",
		},
		{
			name: "file output without path",
			mutate: func(c *Config) {
				c.Logging.Output = "file"
			},
			wantErr: "file_path is required",
		},
		{
			name: "retries without delay",
			mutate: func(c *Config) {
				c.VSphere.RetryAttempts = 2
				c.VSphere.RetryDelay = 0
			},
			wantErr: "retry_delay must be positive",
		},
		{
			name:    "invalid host",
			mutate:  func(c *Config) { c.VSphere.Host = "not a host!" },
			wantErr: "Host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.VSphere.Host = "vcenter.example.com"
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestVSphereConfig_IPv6Address(t *testing.T) {
	c := VSphereConfig{Host: "fd00::1", Port: 443}
	assert.Equal(t, "[fd00::1]:443", c.GetAddress())
	assert.Equal(t, "https://[fd00::1]:443/sdk", c.GetSDKURL())
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"VMTOOLS_VSPHERE_HOST=vcenter.dotenv.test\n"+
			"VMTOOLS_VSPHERE_USERNAME=from-file\n"+
			"UNRELATED_SETTING=ignored\n"), 0600))

	t.Setenv("VMTOOLS_VSPHERE_USERNAME", "from-env")
	t.Cleanup(func() { os.Unsetenv("VMTOOLS_VSPHERE_HOST") })

	loaded, err := LoadEnvFile(path)
	require.NoError(t, err)
	assert.True(t, loaded)

	_, set := os.LookupEnv("UNRELATED_SETTING")
	assert.False(t, set)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "vcenter.dotenv.test", cfg.VSphere.Host)
	assert.Equal(t, "from-env", cfg.VSphere.Username)
}

func TestLoadEnvFile_Missing(t *testing.T) {
	loaded, err := LoadEnvFile(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.False(t, loaded)

	loaded, err = LoadEnvFile("")
	require.NoError(t, err)
	assert.False(t, loaded)
}
