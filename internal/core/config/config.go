package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
}

type Log struct {
	Level string
	JSON  bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

// Chat 第三方大模型转发配置（Groq 的 OpenAI 兼容接口）
type Chat struct {
	BaseURL        string
	APIKey         string
	Model          string
	SystemPrompt   string
	Temperature    float64
	MaxTokens      int
	MaxRetries     int
	TimeoutSec     int
	MinIntervalSec int // 同一调用者两次请求的最小间隔
}

type Config struct {
	App   App
	Log   Log
	JWT   JWT
	DB    DB
	Redis Redis `mapstructure:"redis"`
	Chat  Chat
}

func Load(path string) *Config {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("read config: %v", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		log.Fatalf("unmarshal config: %v", err)
	}
	applyChatDefaults(&c.Chat)
	return &c
}

func applyChatDefaults(ch *Chat) {
	if ch.BaseURL == "" {
		ch.BaseURL = "https://api.groq.com/openai/v1"
	}
	if ch.Model == "" {
		ch.Model = "llama-3.1-70b-versatile"
	}
	if ch.Temperature == 0 {
		ch.Temperature = 0.8
	}
	if ch.MaxTokens == 0 {
		ch.MaxTokens = 1024
	}
	if ch.MaxRetries == 0 {
		ch.MaxRetries = 3
	}
	if ch.TimeoutSec == 0 {
		ch.TimeoutSec = 30
	}
	if ch.MinIntervalSec == 0 {
		ch.MinIntervalSec = 2
	}
}
