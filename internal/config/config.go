package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義
const (
	DefaultTextModel          = "gemini-2.5-flash"
	DefaultImagenModel        = "imagen-3.0-generate-002"
	DefaultGeminiImageModel   = "gemini-2.5-flash-image"
	DefaultImageBackend       = BackendImagen
	DefaultUnsplashBaseURL    = "https://api.unsplash.com"
	DefaultHTTPAddr           = ":8080"
	DefaultHTTPTimeout        = 30 * time.Second
	DefaultSessionTTL         = 2 * time.Hour
	DefaultSearchCacheTTL     = 15 * time.Minute
	DefaultGenerationInterval = 2 * time.Second
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"

	// ConfigPathEnv は設定ファイルのパスを渡す環境変数です。
	ConfigPathEnv = "VISION_WEAVER_CONFIG"
)

// 画像生成バックエンド
const (
	BackendImagen = "imagen"
	BackendGemini = "gemini"
)

// Config はアプリケーション全体の設定です。TOML ファイルの上に環境変数を重ねて作ります。
type Config struct {
	GeminiAPIKey       string        `toml:"gemini_api_key"`
	TextModel          string        `toml:"text_model"`
	ImageModel         string        `toml:"image_model"` // 空ならバックエンドごとの既定
	ImageBackend       string        `toml:"image_backend"`
	UnsplashAccessKey  string        `toml:"unsplash_access_key"`
	UnsplashBaseURL    string        `toml:"unsplash_base_url"`
	HTTPAddr           string        `toml:"http_addr"`
	HTTPTimeout        time.Duration `toml:"-"`
	SessionTTL         time.Duration `toml:"-"`
	SearchCacheTTL     time.Duration `toml:"-"`
	GenerationInterval time.Duration `toml:"-"`
	LogLevel           string        `toml:"log_level"`
	LogFormat          string        `toml:"log_format"`
	TraceStdout        bool          `toml:"trace_stdout"`
}

// fileDurations は TOML 上で "30s" のような文字列で書く項目です。
type fileDurations struct {
	HTTPTimeout        string `toml:"http_timeout"`
	SessionTTL         string `toml:"session_ttl"`
	SearchCacheTTL     string `toml:"search_cache_ttl"`
	GenerationInterval string `toml:"generation_interval"`
}

// DefaultConfig は推奨されるデフォルト設定を返します。
func DefaultConfig() *Config {
	return &Config{
		TextModel:          DefaultTextModel,
		ImageBackend:       DefaultImageBackend,
		UnsplashBaseURL:    DefaultUnsplashBaseURL,
		HTTPAddr:           DefaultHTTPAddr,
		HTTPTimeout:        DefaultHTTPTimeout,
		SessionTTL:         DefaultSessionTTL,
		SearchCacheTTL:     DefaultSearchCacheTTL,
		GenerationInterval: DefaultGenerationInterval,
		LogLevel:           DefaultLogLevel,
		LogFormat:          DefaultLogFormat,
	}
}

// LoadConfig は path の TOML（空なら VISION_WEAVER_CONFIG、それも空ならなし）を読み、
// 環境変数で上書きした設定を返します。
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = envutil.GetEnv(ConfigPathEnv, "")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("設定ファイルの解析に失敗しました (%s): %w", path, err)
	}

	var d fileDurations
	if err := toml.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("設定ファイルの解析に失敗しました (%s): %w", path, err)
	}
	for _, f := range []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"http_timeout", d.HTTPTimeout, &c.HTTPTimeout},
		{"session_ttl", d.SessionTTL, &c.SessionTTL},
		{"search_cache_ttl", d.SearchCacheTTL, &c.SearchCacheTTL},
		{"generation_interval", d.GenerationInterval, &c.GenerationInterval},
	} {
		if f.raw == "" {
			continue
		}
		v, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("%s の値が不正です: %w", f.key, err)
		}
		*f.dst = v
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.GeminiAPIKey = envutil.GetEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.TextModel = envutil.GetEnv("GEMINI_TEXT_MODEL", c.TextModel)
	c.ImageModel = envutil.GetEnv("GEMINI_IMAGE_MODEL", c.ImageModel)
	c.ImageBackend = strings.ToLower(envutil.GetEnv("IMAGE_BACKEND", c.ImageBackend))
	c.UnsplashAccessKey = envutil.GetEnv("UNSPLASH_ACCESS_KEY", c.UnsplashAccessKey)
	c.UnsplashBaseURL = envutil.GetEnv("UNSPLASH_BASE_URL", c.UnsplashBaseURL)
	c.HTTPAddr = envutil.GetEnv("HTTP_ADDR", c.HTTPAddr)
	c.LogLevel = envutil.GetEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = strings.ToLower(envutil.GetEnv("LOG_FORMAT", c.LogFormat))

	var err error
	if c.HTTPTimeout, err = envDuration("HTTP_TIMEOUT", c.HTTPTimeout); err != nil {
		return err
	}
	if c.SessionTTL, err = envDuration("SESSION_TTL", c.SessionTTL); err != nil {
		return err
	}
	if c.SearchCacheTTL, err = envDuration("SEARCH_CACHE_TTL", c.SearchCacheTTL); err != nil {
		return err
	}
	if c.GenerationInterval, err = envDuration("GENERATION_INTERVAL", c.GenerationInterval); err != nil {
		return err
	}

	raw := envutil.GetEnv("TRACE_STDOUT", strconv.FormatBool(c.TraceStdout))
	if c.TraceStdout, err = strconv.ParseBool(raw); err != nil {
		return fmt.Errorf("TRACE_STDOUT の値が不正です: %w", err)
	}
	return nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v, err := time.ParseDuration(envutil.GetEnv(key, def.String()))
	if err != nil {
		return 0, fmt.Errorf("%s の値が不正です: %w", key, err)
	}
	return v, nil
}

// Validate は設定の組み合わせを検証します。
func (c *Config) Validate() error {
	var errs []error
	switch c.ImageBackend {
	case BackendImagen, BackendGemini:
	default:
		errs = append(errs, fmt.Errorf("image_backend は %q か %q です: %q", BackendImagen, BackendGemini, c.ImageBackend))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format は text か json です: %q", c.LogFormat))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.HTTPTimeout <= 0 || c.SessionTTL <= 0 || c.SearchCacheTTL <= 0 {
		errs = append(errs, errors.New("http_timeout, session_ttl, search_cache_ttl は正の値が必要です"))
	}
	if c.GenerationInterval < 0 {
		errs = append(errs, errors.New("generation_interval は負にできません"))
	}
	return errors.Join(errs...)
}

// ResolvedImageModel は画像バックエンドに応じたモデル名を返します。
func (c *Config) ResolvedImageModel() string {
	if c.ImageModel != "" {
		return c.ImageModel
	}
	if c.ImageBackend == BackendGemini {
		return DefaultGeminiImageModel
	}
	return DefaultImagenModel
}

// SlogLevel は LogLevel を slog.Level に変換します。
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level が不正です: %w", err)
	}
	return level, nil
}
