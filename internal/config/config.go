// 包 config 负责加载与校验应用配置（settings.yaml + .env + 环境变量），
// 对外提供结构体 Config 及默认值/合法性校验。
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 默认房间与目标用户，来自常用示例直播间。
const (
	DefaultRoomID     int64 = 92613
	DefaultRUID       int64 = 13046
	DefaultTargetUID  int64 = 9035305
	DefaultOutputFile       = "guard_list.csv"
	DefaultBaseURL          = "https://api.live.bilibili.com"
	DefaultUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultReferer          = "https://live.bilibili.com"
)

type Config struct {
	RoomID     int64   `yaml:"ROOM_ID"`
	RUID       int64   `yaml:"RUID"`
	TargetUID  int64   `yaml:"TARGET_UID"`
	OutputFile string  `yaml:"OUTPUT_FILE"`
	API        API     `yaml:"API"`
	Proxy      Proxy   `yaml:"PROXY"`
	History    History `yaml:"HISTORY"`
	LogLevel   string  `yaml:"LOG_LEVEL"`
	LogFormat  string  `yaml:"LOG_FORMAT"` // text|json|pretty
	LogLocale  string  `yaml:"LOG_LOCALE"` // zh-CN|en
	LogColor   string  `yaml:"LOG_COLOR"`  // auto|always|never
}

type API struct {
	BaseURL   string        `yaml:"BASE_URL"`
	PageSize  int           `yaml:"PAGE_SIZE"`
	PageDelay time.Duration `yaml:"PAGE_DELAY"`
	Timeout   time.Duration `yaml:"TIMEOUT"`
	UserAgent string        `yaml:"USER_AGENT"`
	Referer   string        `yaml:"REFERER"`
}

type Proxy struct {
	HTTP  string `yaml:"http"`
	HTTPS string `yaml:"https"`
}

// History 为可选的运行历史库（仅记录每次运行的摘要）。
type History struct {
	Enabled  bool   `yaml:"ENABLED"`
	DSN      string `yaml:"DSN"`
	KeepDays int    `yaml:"KEEP_DAYS"`
}

// Default 返回全部取默认值的配置。
func Default() *Config {
	c := &Config{}
	_ = c.Validate()
	return c
}

// Load 读取 .env 与 settings.yaml；配置文件不存在时使用默认值，
// 随后应用 GUARD_* 环境变量覆盖并校验。
func Load(path string) (*Config, error) {
	// .env 可选，不存在时忽略
	_ = godotenv.Load()

	var c Config
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		b, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// 没有配置文件时完全依赖默认值与环境变量
	default:
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	if err := c.applyEnv(); err != nil {
		return nil, fmt.Errorf("env override: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// applyEnv 使用 GUARD_* 环境变量覆盖文件中的值。
func (c *Config) applyEnv() error {
	ids := []struct {
		key string
		dst *int64
	}{
		{"GUARD_ROOM_ID", &c.RoomID},
		{"GUARD_RUID", &c.RUID},
		{"GUARD_TARGET_UID", &c.TargetUID},
	}
	for _, it := range ids {
		v := strings.TrimSpace(os.Getenv(it.key))
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", it.key, v, err)
		}
		*it.dst = n
	}
	if v := strings.TrimSpace(os.Getenv("GUARD_OUTPUT_FILE")); v != "" {
		c.OutputFile = v
	}
	return nil
}

func (c *Config) Validate() error {
	// Validate 负责合法性检查与默认值设置，避免在业务层分散判空逻辑。
	if c.RoomID == 0 {
		c.RoomID = DefaultRoomID
	}
	if c.RUID == 0 {
		c.RUID = DefaultRUID
	}
	if c.TargetUID == 0 {
		c.TargetUID = DefaultTargetUID
	}
	if c.RoomID < 0 || c.RUID < 0 || c.TargetUID < 0 {
		return errors.New("ROOM_ID/RUID/TARGET_UID must be > 0")
	}
	if c.OutputFile == "" {
		c.OutputFile = DefaultOutputFile
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.PageSize < 0 {
		return errors.New("API.PAGE_SIZE must be >= 0")
	}
	if c.API.PageSize == 0 {
		c.API.PageSize = 10
	}
	if c.API.PageDelay < 0 {
		return errors.New("API.PAGE_DELAY must be >= 0")
	}
	if c.API.PageDelay == 0 {
		c.API.PageDelay = time.Second
	}
	if c.API.Timeout < 0 {
		return errors.New("API.TIMEOUT must be >= 0")
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = DefaultUserAgent
	}
	if c.API.Referer == "" {
		c.API.Referer = DefaultReferer
	}
	if c.History.KeepDays < 0 {
		return errors.New("HISTORY.KEEP_DAYS must be >= 0")
	}
	if c.History.DSN == "" {
		c.History.DSN = "./guard_history.db"
	}
	if c.LogFormat == "" {
		c.LogFormat = "pretty"
	}
	if c.LogLocale == "" {
		c.LogLocale = "zh-CN"
	}
	if c.LogColor == "" {
		c.LogColor = "auto"
	}
	return nil
}
