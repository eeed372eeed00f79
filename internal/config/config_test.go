package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPermissions(t *testing.T) {
	cfg := Default()

	assert.Equal(t, PermAllowAny, cfg.Permission("user_create"))
	assert.Equal(t, PermAllowAny, cfg.Permission("token_create"))
	assert.Equal(t, PermAuthenticated, cfg.Permission("token_destroy"))
	assert.Equal(t, PermCurrentUserOrAdmin, cfg.Permission("set_password"))
	assert.Equal(t, PermCurrentUserOrAdmin, cfg.Permission("user_list"))

	// override explícito
	cfg.Auth.Permissions["user_create"] = PermCurrentUserOrAdmin
	assert.Equal(t, PermCurrentUserOrAdmin, cfg.Permission("user_create"))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(cfg *Config)
		want   string
	}{
		{"missing secret", func(cfg *Config) { cfg.SecretKey = "" }, "secret_key"},
		{"bad login field", func(cfg *Config) { cfg.Auth.LoginField = "mobile" }, "login_field"},
		{"bad driver", func(cfg *Config) { cfg.Storage.Driver = "sqlite" }, "storage.driver"},
		{"postgres without dsn", func(cfg *Config) { cfg.Storage.Driver = "postgres" }, "storage.dsn"},
		{"unknown permission key", func(cfg *Config) { cfg.Auth.Permissions["frobnicate"] = PermAllowAny }, "permission key"},
		{"unknown permission mode", func(cfg *Config) { cfg.Auth.Permissions["user"] = "root_only" }, "permission mode"},
		{"bad passwordless method", func(cfg *Config) { cfg.Passwordless.AllowedMethods = []string{"fax"} }, "allowed_methods"},
		{"zero token uses", func(cfg *Config) { cfg.Passwordless.MaxTokenUses = 0 }, "max_token_uses"},
		{"short >= long", func(cfg *Config) { cfg.Passwordless.ShortTokenLength = 64 }, "long token"},
		{"activation without url", func(cfg *Config) { cfg.Auth.SendActivationEmail = true }, "activation_url"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.SecretKey = "s3cret"
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	cfg := Default()
	cfg.SecretKey = "s3cret"
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
secret_key: from-file
server:
  addr: ":9999"
auth:
  login_field: email
  send_activation_email: true
  activation_url: "activate/{uid}/{token}"
passwordless:
  token_lifetime: 5m
  allowed_methods: [email, mobile]
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.SecretKey)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "email", cfg.Auth.LoginField)
	assert.Equal(t, 5*time.Minute, cfg.Passwordless.TokenLifetime)
	assert.True(t, cfg.PasswordlessAllowed("mobile"))

	// lo no mencionado en el archivo conserva el default
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 64, cfg.Passwordless.LongTokenLength)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ACCOUNTD_SECRET_KEY", "from-env")
	t.Setenv("ACCOUNTD_ADDR", ":7777")
	t.Setenv("ACCOUNTD_REDIS_ADDR", "redis:6379")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.SecretKey)
	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/no/such/config.yaml")
	assert.Error(t, err)
}

func TestPasswordlessAllowed(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.PasswordlessAllowed(MethodEmail))
	assert.True(t, cfg.PasswordlessAllowed("EMAIL"))
	assert.False(t, cfg.PasswordlessAllowed(MethodMobile))
}
