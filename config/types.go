package config

import "time"

type AppConfig struct {
	DBDriver   string         `yaml:"db_driver" env:"RSUA_DB_DRIVER" env-default:"sqlite"`
	DBURL      string         `yaml:"db_url" env:"RSUA_DB_URL"`
	DBPath     string         `yaml:"db_path" env:"RSUA_DB_PATH" env-default:"data/rsua.db"`
	ListenAddr string         `yaml:"listen_addr" env:"RSUA_LISTEN_ADDR" env-default:"0.0.0.0:8080"`
	SessionTTL time.Duration  `yaml:"session_ttl" env:"RSUA_SESSION_TTL" env-default:"3h"`
	AppEnv     string         `yaml:"app_env" env:"RSUA_APP_ENV"`
	CSRFKey    string         `yaml:"csrf_key" env:"RSUA_CSRF_KEY"`
	Pepper     string         `yaml:"pepper" env:"RSUA_PEPPER"`
	TLSEnabled bool           `yaml:"tls_enabled" env:"RSUA_TLS_ENABLED" env-default:"false"`
	TLSCert    string         `yaml:"tls_cert" env:"RSUA_TLS_CERT"`
	TLSKey     string         `yaml:"tls_key" env:"RSUA_TLS_KEY"`
	Log        LogConfig      `yaml:"log"`
	Security   SecurityConfig `yaml:"security"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Sweep      SweepConfig    `yaml:"sweep"`
	Bootstrap  BootstrapConfig `yaml:"bootstrap"`
}

type LogConfig struct {
	Level      string `yaml:"level" env:"RSUA_LOG_LEVEL" env-default:"info"`
	FilePath   string `yaml:"file_path" env:"RSUA_LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"RSUA_LOG_MAX_SIZE_MB" env-default:"50"`
	MaxBackups int    `yaml:"max_backups" env:"RSUA_LOG_MAX_BACKUPS" env-default:"5"`
	MaxAgeDays int    `yaml:"max_age_days" env:"RSUA_LOG_MAX_AGE_DAYS" env-default:"30"`
	Console    bool   `yaml:"console" env:"RSUA_LOG_CONSOLE" env-default:"true"`
}

type SecurityConfig struct {
	TrustedProxies    []string `yaml:"trusted_proxies" env:"RSUA_SECURITY_TRUSTED_PROXIES" env-separator:","`
	LoginMaxAttempts  int      `yaml:"login_max_attempts" env:"RSUA_SECURITY_LOGIN_MAX_ATTEMPTS" env-default:"5"`
	LoginLockoutMin   int      `yaml:"login_lockout_minutes" env:"RSUA_SECURITY_LOGIN_LOCKOUT_MINUTES" env-default:"15"`
	LoginRatePerMin   int      `yaml:"login_rate_per_minute" env:"RSUA_SECURITY_LOGIN_RATE_PER_MINUTE" env-default:"20"`
}

type ClassifierConfig struct {
	URL             string `yaml:"url" env:"RSUA_CLASSIFIER_URL"`
	TimeoutSec      int    `yaml:"timeout_sec" env:"RSUA_CLASSIFIER_TIMEOUT_SEC" env-default:"10"`
	FallbackVersion string `yaml:"fallback_version" env:"RSUA_CLASSIFIER_FALLBACK_VERSION" env-default:"heuristic-v1"`
}

type SweepConfig struct {
	Enabled  bool   `yaml:"enabled" env:"RSUA_SWEEP_ENABLED" env-default:"true"`
	CronSpec string `yaml:"cron_spec" env:"RSUA_SWEEP_CRON" env-default:"0 2 * * *"`
}

type BootstrapConfig struct {
	AdminUsername string `yaml:"admin_username" env:"RSUA_BOOTSTRAP_ADMIN_USERNAME" env-default:"admin"`
	AdminPassword string `yaml:"admin_password" env:"RSUA_BOOTSTRAP_ADMIN_PASSWORD"`
}

const maxUserSessionTTL = 3 * time.Hour

func (c *AppConfig) EffectiveSessionTTL() time.Duration {
	ttl := maxUserSessionTTL
	if c != nil && c.SessionTTL > 0 {
		ttl = c.SessionTTL
	}
	if ttl > maxUserSessionTTL {
		return maxUserSessionTTL
	}
	return ttl
}

func (c *ClassifierConfig) EffectiveTimeout() time.Duration {
	if c == nil || c.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}
