// Package config carga y valida la configuración del servicio.
//
// La configuración viene de un archivo YAML más overrides por variables de
// entorno para secretos (DSN, SMTP password, secret key). Las referencias
// "enchufables" (modos de permiso, métodos passwordless) se resuelven una sola
// vez en el arranque; los handlers reciben la configuración ya resuelta.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Identifier kinds for the passwordless flows.
const (
	MethodEmail  = "email"
	MethodMobile = "mobile"
)

// Permission modes recognized in the permissions map.
const (
	PermAllowAny                   = "allow_any"
	PermAuthenticated              = "authenticated"
	PermCurrentUserOrAdmin         = "current_user_or_admin"
	PermCurrentUserOrAdminReadOnly = "current_user_or_admin_or_read_only"
)

// Operations with a configurable permission mode.
// username_reset_confirm y password_reset_confirm son claves separadas;
// ambas se reconocen aunque normalmente compartan el mismo valor.
var permissionOps = []string{
	"activation",
	"password_reset",
	"password_reset_confirm",
	"username_reset",
	"username_reset_confirm",
	"set_password",
	"set_username",
	"user_create",
	"user_delete",
	"user",
	"user_list",
	"token_create",
	"token_destroy",
}

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int           `yaml:"max_open_conns"`
			MaxIdleConns    int           `yaml:"max_idle_conns"`
			ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	// SecretKey firma los tokens de link (activation / reset). Obligatoria.
	SecretKey string `yaml:"secret_key"`

	Auth struct {
		// LoginField es el atributo del usuario que autentica: "username" | "email".
		LoginField string `yaml:"login_field"`

		SendActivationEmail              bool `yaml:"send_activation_email"`
		SendConfirmationEmail            bool `yaml:"send_confirmation_email"`
		PasswordChangedEmailConfirmation bool `yaml:"password_changed_email_confirmation"`
		UsernameChangedEmailConfirmation bool `yaml:"username_changed_email_confirmation"`

		UserCreatePasswordRetype   bool `yaml:"user_create_password_retype"`
		SetPasswordRetype          bool `yaml:"set_password_retype"`
		PasswordResetConfirmRetype bool `yaml:"password_reset_confirm_retype"`
		SetUsernameRetype          bool `yaml:"set_username_retype"`
		UsernameResetConfirmRetype bool `yaml:"username_reset_confirm_retype"`

		PasswordResetShowEmailNotFound bool `yaml:"password_reset_show_email_not_found"`
		UsernameResetShowEmailNotFound bool `yaml:"username_reset_show_email_not_found"`

		LogoutOnPasswordChange bool `yaml:"logout_on_password_change"`
		// CreateSessionOnLogin se reconoce para no rechazar configs que lo
		// traen de un despliegue con sesión de cookie; acá el login emite
		// solo el token opaco y la clave no tiene efecto.
		CreateSessionOnLogin bool `yaml:"create_session_on_login"`
		HideUsers            bool `yaml:"hide_users"`

		// URL templates con placeholders {uid} y {token}; apuntan al cliente
		// externo, no a este servicio.
		ActivationURL           string `yaml:"activation_url"`
		PasswordResetConfirmURL string `yaml:"password_reset_confirm_url"`
		UsernameResetConfirmURL string `yaml:"username_reset_confirm_url"`

		// TokenMaxAge limita la edad de los tokens de link firmados.
		TokenMaxAge time.Duration `yaml:"token_max_age"`

		Session struct {
			// Enabled=false es el despliegue sin token store: logout es no-op,
			// login responde 400 token_model_none.
			Enabled bool `yaml:"enabled"`
		} `yaml:"session"`

		Password struct {
			MinLength     int  `yaml:"min_length"`
			RequireUpper  bool `yaml:"require_upper"`
			RequireLower  bool `yaml:"require_lower"`
			RequireDigit  bool `yaml:"require_digit"`
			RequireSymbol bool `yaml:"require_symbol"`
		} `yaml:"password"`

		// Permissions mapea operación -> modo (ver constantes Perm*).
		Permissions map[string]string `yaml:"permissions"`
	} `yaml:"auth"`

	Passwordless struct {
		TokenLifetime            time.Duration `yaml:"token_lifetime"`
		MaxTokenUses             int           `yaml:"max_token_uses"`
		LongTokenLength          int           `yaml:"long_token_length"`
		LongTokenChars           string        `yaml:"long_token_chars"`
		ShortTokenLength         int           `yaml:"short_token_length"`
		ShortTokenChars          string        `yaml:"short_token_chars"`
		AllowedMethods           []string      `yaml:"allowed_methods"`
		RegisterNonexistentUsers bool          `yaml:"register_nonexistent_users"`
	} `yaml:"passwordless"`

	WebAuthn struct {
		RPName          string `yaml:"rp_name"`
		RPID            string `yaml:"rp_id"`
		Origin          string `yaml:"origin"`
		ChallengeLength int    `yaml:"challenge_length"`
		UkeyLength      int    `yaml:"ukey_length"`
	} `yaml:"webauthn"`

	Email struct {
		Domain   string `yaml:"domain"`
		SiteName string `yaml:"site_name"`
		Protocol string `yaml:"protocol"`
		From     string `yaml:"from"`
	} `yaml:"email"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		TLS                string `yaml:"tls"` // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`

	Redis struct {
		Addr   string `yaml:"addr"`
		DB     int    `yaml:"db"`
		Prefix string `yaml:"prefix"`
	} `yaml:"redis"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Login   struct {
			Limit  int           `yaml:"limit"`
			Window time.Duration `yaml:"window"`
		} `yaml:"login"`
		Reset struct {
			Limit  int           `yaml:"limit"`
			Window time.Duration `yaml:"window"`
		} `yaml:"reset"`
		Passwordless struct {
			Limit  int           `yaml:"limit"`
			Window time.Duration `yaml:"window"`
		} `yaml:"passwordless"`
	} `yaml:"rate"`
}

// Default retorna la configuración con los valores por defecto.
func Default() *Config {
	cfg := &Config{}
	cfg.App.Env = "dev"
	cfg.Server.Addr = ":8080"
	cfg.Storage.Driver = "memory"

	cfg.Auth.LoginField = "username"
	cfg.Auth.HideUsers = true
	cfg.Auth.Session.Enabled = true
	cfg.Auth.TokenMaxAge = 72 * time.Hour
	cfg.Auth.Password.MinLength = 8
	cfg.Auth.Permissions = map[string]string{}

	cfg.Passwordless.TokenLifetime = 10 * time.Minute
	cfg.Passwordless.MaxTokenUses = 1
	cfg.Passwordless.LongTokenLength = 64
	cfg.Passwordless.LongTokenChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	cfg.Passwordless.ShortTokenLength = 6
	cfg.Passwordless.ShortTokenChars = "0123456789"
	cfg.Passwordless.AllowedMethods = []string{MethodEmail}

	cfg.WebAuthn.RPName = "localhost"
	cfg.WebAuthn.RPID = "localhost"
	cfg.WebAuthn.Origin = "http://localhost:8080"
	cfg.WebAuthn.ChallengeLength = 32
	cfg.WebAuthn.UkeyLength = 20

	cfg.Email.Protocol = "http"
	cfg.Email.SiteName = "accountd"
	cfg.SMTP.Port = 587
	cfg.SMTP.TLS = "auto"
	cfg.Redis.Prefix = "accountd:"

	for _, op := range permissionOps {
		cfg.Auth.Permissions[op] = defaultPermission(op)
	}
	return cfg
}

func defaultPermission(op string) string {
	switch op {
	case "set_password", "set_username", "user_delete", "user", "user_list":
		return PermCurrentUserOrAdmin
	case "token_destroy":
		return PermAuthenticated
	default:
		return PermAllowAny
	}
}

// Load lee el YAML de path (opcional) sobre los defaults y aplica overrides
// de entorno. path vacío = solo defaults + entorno.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv aplica overrides de entorno (solo secretos y direcciones).
func (c *Config) applyEnv() {
	if v := os.Getenv("ACCOUNTD_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("ACCOUNTD_SECRET_KEY"); v != "" {
		c.SecretKey = v
	}
	if v := os.Getenv("ACCOUNTD_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("ACCOUNTD_SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("ACCOUNTD_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
}

// Validate verifica invariantes de la configuración.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SecretKey) == "" {
		return fmt.Errorf("config: secret_key is required")
	}
	switch c.Auth.LoginField {
	case "username", "email":
	default:
		return fmt.Errorf("config: auth.login_field must be username or email, got %q", c.Auth.LoginField)
	}
	switch c.Storage.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("config: storage.driver must be memory or postgres, got %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && strings.TrimSpace(c.Storage.DSN) == "" {
		return fmt.Errorf("config: storage.dsn is required for the postgres driver")
	}
	for op, mode := range c.Auth.Permissions {
		if !recognizedOp(op) {
			return fmt.Errorf("config: unknown permission key %q", op)
		}
		switch mode {
		case PermAllowAny, PermAuthenticated, PermCurrentUserOrAdmin, PermCurrentUserOrAdminReadOnly:
		default:
			return fmt.Errorf("config: unknown permission mode %q for %q", mode, op)
		}
	}
	for _, m := range c.Passwordless.AllowedMethods {
		if m != MethodEmail && m != MethodMobile {
			return fmt.Errorf("config: passwordless.allowed_methods entries must be email or mobile, got %q", m)
		}
	}
	if c.Passwordless.MaxTokenUses < 1 {
		return fmt.Errorf("config: passwordless.max_token_uses must be >= 1")
	}
	if c.Passwordless.LongTokenLength <= c.Passwordless.ShortTokenLength {
		return fmt.Errorf("config: passwordless long token must be longer than short token")
	}
	if c.Auth.SendActivationEmail && strings.TrimSpace(c.Auth.ActivationURL) == "" {
		return fmt.Errorf("config: auth.activation_url is required with send_activation_email")
	}
	return nil
}

// Permission retorna el modo configurado para una operación.
// Claves no configuradas caen al default de la operación.
func (c *Config) Permission(op string) string {
	if mode, ok := c.Auth.Permissions[op]; ok && mode != "" {
		return mode
	}
	return defaultPermission(op)
}

// PasswordlessAllowed reporta si el método (email/mobile) está permitido.
func (c *Config) PasswordlessAllowed(method string) bool {
	for _, m := range c.Passwordless.AllowedMethods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

func recognizedOp(op string) bool {
	for _, o := range permissionOps {
		if o == op {
			return true
		}
	}
	return false
}
