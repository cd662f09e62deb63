package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  host: "127.0.0.1"
  port: 8080
  mode: "test"
  read_timeout: 10s
  write_timeout: 10s

database:
  mysql:
    host: "127.0.0.1"
    port: 3306
    username: "neoinventory"
    password: "neoinventory"
    database: "neoinventory"
  redis:
    host: "127.0.0.1"
    port: 6379
    database: 0

log:
  level: "info"
  format: "json"
  output: "stdout"

security:
  jwt:
    secret: "unit-test-jwt-secret-0123456789abcdef"
    issuer: "neoinventory"
    access_token_expire: 2h
  credential_key: "dGVzdC1vbmx5LWNyZWRlbnRpYWwta2V5MzJieXRlISE="

inventory:
  max_concurrent_calls: 4
  provider_timeout: 10s
  reset_on_reingest: true
  config_cache_ttl: 15s

app:
  name: "neoinventory"
  environment: "test"
`

// writeConfig 把yaml写到临时目录的config.yaml,返回目录
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	return dir
}

// TestLoadConfig_Valid 正常加载
func TestLoadConfig_Valid(t *testing.T) {
	dir := writeConfig(t, validConfigYAML)

	cfg, err := LoadConfig(dir, "development")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "test", cfg.Server.Mode)
	assert.Equal(t, "neoinventory", cfg.Database.MySQL.Database)
	assert.Equal(t, 4, cfg.Inventory.MaxConcurrentCalls)
	assert.Equal(t, 10*time.Second, cfg.Inventory.ProviderTimeout)
	assert.True(t, cfg.Inventory.ResetOnReingest)
	assert.Equal(t, 15*time.Second, cfg.Inventory.ConfigCacheTTL)
	assert.Equal(t, "test", cfg.App.Environment)

	// 全局配置同步更新
	assert.Same(t, cfg, GetConfig())
}

// TestLoadConfig_InventoryDefaults 流水线配置缺省值
func TestLoadConfig_InventoryDefaults(t *testing.T) {
	content := `
server: {host: "127.0.0.1", port: 8080, mode: "test"}
database:
  mysql: {host: "127.0.0.1", port: 3306, database: "d"}
  redis: {host: "127.0.0.1", port: 6379}
log: {level: "info", format: "json", output: "stdout"}
security:
  jwt: {secret: "unit-test-jwt-secret-0123456789abcdef"}
  credential_key: "dGVzdC1vbmx5LWNyZWRlbnRpYWwta2V5MzJieXRlISE="
app: {environment: "test"}
`
	dir := writeConfig(t, content)

	cfg, err := LoadConfig(dir, "development")
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Inventory.MaxConcurrentCalls)
	assert.Equal(t, 30*time.Second, cfg.Inventory.ProviderTimeout)
	assert.Equal(t, 30*time.Second, cfg.Inventory.ConfigCacheTTL)
}

// TestLoadConfig_ValidationFailures 关键字段缺失或非法时拒绝启动
func TestLoadConfig_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			"JWT密钥太短",
			func(s string) string {
				return replaceLine(s, `    secret: "unit-test-jwt-secret-0123456789abcdef"`, `    secret: "short"`)
			},
			"jwt secret",
		},
		{
			"缺少凭据密钥",
			func(s string) string {
				return replaceLine(s, `  credential_key: "dGVzdC1vbmx5LWNyZWRlbnRpYWwta2V5MzJieXRlISE="`, `  credential_key: ""`)
			},
			"credential key",
		},
		{
			"非法服务模式",
			func(s string) string {
				return replaceLine(s, `  mode: "test"`, `  mode: "fancy"`)
			},
			"invalid server mode",
		},
		{
			"非法日志级别",
			func(s string) string {
				return replaceLine(s, `  level: "info"`, `  level: "verbose"`)
			},
			"invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeConfig(t, tt.mutate(validConfigYAML))
			_, err := LoadConfig(dir, "development")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestLoadConfig_MissingFile 配置文件不存在
func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(t.TempDir(), "development")
	require.Error(t, err)
}

// TestLoadConfig_EnvOverride 环境变量覆盖文件配置
func TestLoadConfig_EnvOverride(t *testing.T) {
	dir := writeConfig(t, validConfigYAML)

	t.Setenv("NEOINV_MYSQL_HOST", "db.internal")
	t.Setenv("NEOINV_JWT_SECRET", "env-override-jwt-secret-0123456789abcdef")

	cfg, err := LoadConfig(dir, "development")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.MySQL.Host)
	assert.Equal(t, "env-override-jwt-secret-0123456789abcdef", cfg.Security.JWT.Secret)
}

// TestGetConfigFileName_EnvSelection 环境到配置文件名的映射与回退
func TestGetConfigFileName_EnvSelection(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("a: 1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.test.yaml"), []byte("a: 1"), 0o644))

	assert.Equal(t, filepath.Join(dir, "config.test.yaml"), getConfigFileName(dir, "test"))
	assert.Equal(t, filepath.Join(dir, "config.yaml"), getConfigFileName(dir, "development"))
	// prod配置不存在时回退到默认文件
	assert.Equal(t, filepath.Join(dir, "config.yaml"), getConfigFileName(dir, "production"))
}

// replaceLine 单行替换,找不到原串时panic,便于定位写错的用例
func replaceLine(content, oldLine, newLine string) string {
	if !strings.Contains(content, oldLine) {
		panic("line not found: " + oldLine)
	}
	return strings.Replace(content, oldLine, newLine, 1)
}
