package newsletter

import (
	"crypto/rand"
	"encoding/hex"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config represents the main config
type Config struct {
	DB struct {
		Type string // "postgres", "sqlite" or "bolt"
		URL  string
		Path string
	}

	HTTP struct {
		Addr   string
		Domain string
		Secret string

		// SecretGenerated is set when no secret was configured and one was generated at startup.
		SecretGenerated bool `mapstructure:"-"`
	}

	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
	}

	Newsletter struct {
		From    string
		Product struct {
			Name string
		}
	}

	Signup struct {
		PendingTTL time.Duration `mapstructure:"pending_ttl"`
	}

	Redis struct {
		URL string
	}

	Digest struct {
		URL  string
		Cron struct {
			Spec string
		}
	}

	Sentry struct {
		DSN string
	}
}

var defaults = map[string]interface{}{
	"db.type":                 "postgres",
	"db.url":                  "",
	"db.path":                 "newsletter.db",
	"http.addr":               ":8080",
	"http.domain":             "",
	"http.secret":             "",
	"smtp.host":               "smtp.gmail.com",
	"smtp.port":               465,
	"smtp.username":           "",
	"smtp.password":           "",
	"newsletter.from":         "",
	"newsletter.product.name": "Newsletter",
	"signup.pending_ttl":      "15m",
	"redis.url":               "",
	"digest.url":              "https://www.producthunt.com/",
	"digest.cron.spec":        "",
	"sentry.dsn":              "",
}

// LoadConfig reads .env, an optional config.yaml found in paths and the environment.
// DATABASE_URL, SENDER_EMAIL and SENDER_PASSWORD are honoured as-is.
func LoadConfig(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "godotenv.Load")
	}

	v := viper.New()
	v.SetConfigName("config")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range map[string]string{
		"db.url":        "DATABASE_URL",
		"smtp.username": "SENDER_EMAIL",
		"smtp.password": "SENDER_PASSWORD",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errors.Wrapf(err, "failed to bind %s", env)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if config.Newsletter.From == "" {
		config.Newsletter.From = config.SMTP.Username
	}

	if config.HTTP.Secret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		config.HTTP.Secret = secret
		config.HTTP.SecretGenerated = true
	}

	return &config, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "failed to generate secret")
	}
	return hex.EncodeToString(b), nil
}

// SiteURL returns the public address of the web service, used as the product
// link in outgoing mail.
func (c *Config) SiteURL() string {
	if c.HTTP.Domain != "" {
		return "https://" + c.HTTP.Domain
	}
	return "http://localhost" + c.HTTP.Addr
}
