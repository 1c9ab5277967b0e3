package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int    `yaml:"port"`
		BasePath       string `yaml:"basePath"`
		MaxUploadBytes int64  `yaml:"maxUploadBytes"`
		CORS           struct {
			AllowedOrigins []string `yaml:"allowedOrigins"`
		} `yaml:"cors"`
		RateLimit struct {
			Capacity   int `yaml:"capacity"`
			RefillRate int `yaml:"refillRate"` // tokens per second
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Storage struct {
		Backend string `yaml:"backend"` // minio | s3 | filesystem | memory
		Prefix  string `yaml:"prefix"`

		Minio struct {
			Endpoint     string `yaml:"endpoint"`
			AccessKey    string `yaml:"accessKey"`
			SecretKey    string `yaml:"secretKey"`
			BucketName   string `yaml:"bucketName"`
			Region       string `yaml:"region"`
			UseSSL       bool   `yaml:"useSSL"`
			CreateBucket bool   `yaml:"createBucket"`
		} `yaml:"minio"`

		S3 struct {
			Bucket    string `yaml:"bucket"`
			Region    string `yaml:"region"`
			Endpoint  string `yaml:"endpoint"`
			AccessKey string `yaml:"accessKey"`
			SecretKey string `yaml:"secretKey"`
		} `yaml:"s3"`

		Filesystem struct {
			Dir string `yaml:"dir"`
		} `yaml:"filesystem"`
	} `yaml:"storage"`

	AI struct {
		Provider    string  `yaml:"provider"` // gemini | openai | heuristic
		APIKey      string  `yaml:"apiKey"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"maxTokens"`
		Temperature float32 `yaml:"temperature"`
	} `yaml:"ai"`

	Analysis struct {
		MaxTextChars     int  `yaml:"maxTextChars"`
		StrictValidation bool `yaml:"strictValidation"`
	} `yaml:"analysis"`

	Logging struct {
		Level  string `yaml:"level"`  // debug | info | warn | error
		Format string `yaml:"format"` // json | text
	} `yaml:"logging"`
}

// Load baca .env (kalau ada), file config (kalau ada), lalu override dari env.
// A missing file at path is fine; a malformed one is not.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()
	return &cfg, nil
}

// Path returns CONFIG_PATH or config.yaml.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "config.yaml"
}

func (c *Config) applyEnv(getenv func(string) string) {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	num := func(dst *int, key string) {
		if v, err := strconv.Atoi(getenv(key)); err == nil {
			*dst = v
		}
	}

	num(&c.Server.Port, "PORT")
	str(&c.Server.BasePath, "BASE_PATH")
	if v, err := strconv.ParseInt(getenv("MAX_UPLOAD_BYTES"), 10, 64); err == nil {
		c.Server.MaxUploadBytes = v
	}

	str(&c.Storage.Backend, "STORAGE_BACKEND")
	str(&c.Storage.Minio.Endpoint, "MINIO_ENDPOINT")
	str(&c.Storage.Minio.AccessKey, "MINIO_ACCESS_KEY")
	str(&c.Storage.Minio.SecretKey, "MINIO_SECRET_KEY")
	str(&c.Storage.Minio.BucketName, "MINIO_BUCKET")
	str(&c.Storage.S3.Bucket, "S3_BUCKET")
	str(&c.Storage.S3.Region, "AWS_REGION")
	str(&c.Storage.S3.Endpoint, "S3_ENDPOINT")
	str(&c.Storage.Filesystem.Dir, "STORAGE_DIR")

	str(&c.AI.Provider, "AI_PROVIDER")
	str(&c.AI.Model, "AI_MODEL")
	switch strings.ToLower(c.AI.Provider) {
	case "openai":
		str(&c.AI.APIKey, "OPENAI_API_KEY")
	case "", "gemini":
		str(&c.AI.APIKey, "GOOGLE_AI_API_KEY", "GEMINI_API_KEY")
	}

	str(&c.Logging.Level, "LOG_LEVEL")
	str(&c.Logging.Format, "LOG_FORMAT")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	c.Server.BasePath = strings.TrimRight(c.Server.BasePath, "/")
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		c.Server.BasePath = "/" + c.Server.BasePath
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 25 << 20
	}
	if c.Server.RateLimit.Capacity == 0 {
		c.Server.RateLimit.Capacity = 10
	}
	if c.Server.RateLimit.RefillRate == 0 {
		c.Server.RateLimit.RefillRate = 1
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = "minio"
	}
	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	if c.Storage.Prefix == "" {
		c.Storage.Prefix = "uploads"
	}
	if c.Storage.Filesystem.Dir == "" {
		c.Storage.Filesystem.Dir = "./data"
	}

	if c.AI.Provider == "" {
		c.AI.Provider = "gemini"
	}
	c.AI.Provider = strings.ToLower(c.AI.Provider)
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = 4096
	}

	if c.Analysis.MaxTextChars == 0 {
		c.Analysis.MaxTextChars = 100_000
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate checks that every field the selected backends need is present. It runs once at
// startup so a half-configured service never accepts uploads.
func (c *Config) Validate() error {
	var errs []error
	need := func(v, name string) {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	switch c.Storage.Backend {
	case "minio":
		need(c.Storage.Minio.Endpoint, "storage.minio.endpoint")
		need(c.Storage.Minio.BucketName, "storage.minio.bucketName")
		need(c.Storage.Minio.AccessKey, "storage.minio.accessKey")
		need(c.Storage.Minio.SecretKey, "storage.minio.secretKey")
	case "s3":
		need(c.Storage.S3.Bucket, "storage.s3.bucket")
	case "filesystem":
		need(c.Storage.Filesystem.Dir, "storage.filesystem.dir")
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is not one of minio, s3, filesystem, memory", c.Storage.Backend))
	}

	switch c.AI.Provider {
	case "gemini", "openai":
		need(c.AI.APIKey, "ai.apiKey")
	case "heuristic":
	default:
		errs = append(errs, fmt.Errorf("ai.provider %q is not one of gemini, openai, heuristic", c.AI.Provider))
	}

	if c.Analysis.MaxTextChars < 0 {
		errs = append(errs, errors.New("analysis.maxTextChars must not be negative"))
	}
	if c.Server.MaxUploadBytes < 0 {
		errs = append(errs, errors.New("server.maxUploadBytes must not be negative"))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LogLevel parses logging.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level: %w", err)
	}
	return lvl, nil
}

// NewLogger builds the process logger from the logging section.
func (c *Config) NewLogger() *slog.Logger {
	lvl, _ := c.LogLevel()
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(c.Logging.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// CredentialPresence reports which secrets are configured, never their values.
func (c *Config) CredentialPresence() map[string]bool {
	return map[string]bool{
		"hasAIKey":          c.AI.APIKey != "",
		"hasMinioAccessKey": c.Storage.Minio.AccessKey != "",
		"hasMinioSecretKey": c.Storage.Minio.SecretKey != "",
		"hasS3AccessKey":    c.Storage.S3.AccessKey != "",
	}
}
