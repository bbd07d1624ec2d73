package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address         string
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RateLimitConfig struct {
		Requests int
		Window   time.Duration
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	Config struct {
		AppName            string
		Env                string
		Build              string
		Debug              bool
		TestMode           bool
		SecretKey          string
		JWTExpirationDelta time.Duration
		CookieExpireDays   int
		DefaultFromEmail   mail.Address
		FrontendBaseURL    string
		RollbarToken       string
		SendgridApiKey     string
		WorkDir            string
		Server             ServerConfig
		Database           DatabaseConfig
		RateLimit          RateLimitConfig
		Redis              RedisConfig
	}
)

func (db DatabaseConfig) Address() string {
	return db.Host + ":" + db.Port
}

// CookieExpiry is the lifetime of the session cookie.
func (c *Config) CookieExpiry() time.Duration {
	return time.Duration(c.CookieExpireDays) * 24 * time.Hour
}

// NewConfig reads the configuration from the environment.
// ENV selects the variables prefix (DEV by default) and the optional `config/.env.<env>` file.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "OnlineEdu")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("secretKey", "k2u!rq7#v0p+3yt$e@9lmz^c8w_x5hs(1dfa=g4)bn6oij")
	v.SetDefault("jwtExpirationDelta", 30*24*time.Hour)
	v.SetDefault("cookieExpireDays", 30)
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("defaultFromName", "OnlineEdu")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("serverAddress", ":8000")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverDebugHost", ":4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbName", "onlineedu")
	v.SetDefault("dbUser", "onlineedu")
	v.SetDefault("dbPassword", "onlineedu")
	v.SetDefault("dbAdminUser", "")
	v.SetDefault("dbAdminPassword", "")
	v.SetDefault("dbDisableTLS", true)
	v.SetDefault("rateLimitRequests", 100)
	v.SetDefault("rateLimitWindow", time.Hour)
	v.SetDefault("redisAddr", "")
	v.SetDefault("redisPassword", "")
	v.SetDefault("redisDB", 0)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "PROD":
		v.SetDefault("debug", false)
	}
	v.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:            v.GetString("appName"),
		Env:                env,
		Build:              v.GetString("build"),
		Debug:              v.GetBool("debug"),
		TestMode:           v.GetBool("testMode"),
		SecretKey:          v.GetString("secretKey"),
		JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		CookieExpireDays:   v.GetInt("cookieExpireDays"),
		DefaultFromEmail:   mail.Address{Name: v.GetString("defaultFromName"), Address: v.GetString("defaultFromEmail")},
		FrontendBaseURL:    v.GetString("frontendBaseURL"),
		RollbarToken:       v.GetString("rollbarToken"),
		SendgridApiKey:     v.GetString("sendgridApiKey"),
		WorkDir:            wd,
		Server: ServerConfig{
			Address:         v.GetString("serverAddress"),
			Host:            v.GetString("serverHost"),
			DebugHost:       v.GetString("serverDebugHost"),
			ShutdownTimeout: v.GetDuration("serverShutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("rateLimitRequests"),
			Window:   v.GetDuration("rateLimitWindow"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redisAddr"),
			Password: v.GetString("redisPassword"),
			DB:       v.GetInt("redisDB"),
		},
	}
	if conf.TestMode {
		conf.Database.Name += "_test"
	}
	return conf
}

// NewTestConfig returns a config suited for unit tests: no env lookups, no remote services.
func NewTestConfig() *Config {
	return &Config{
		AppName:            "OnlineEdu",
		Env:                "TEST",
		Build:              "test",
		TestMode:           true,
		SecretKey:          "test-secret",
		JWTExpirationDelta: 30 * 24 * time.Hour,
		CookieExpireDays:   30,
		DefaultFromEmail:   mail.Address{Name: "OnlineEdu", Address: "noreply@localhost"},
		FrontendBaseURL:    "http://localhost:3000",
		Server:             ServerConfig{Address: ":0", ShutdownTimeout: time.Second},
		RateLimit:          RateLimitConfig{Requests: 1000, Window: time.Hour},
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("%s[%s] build=%s debug=%t", c.AppName, c.Env, c.Build, c.Debug)
}
