// Package config 负责加载和管理应用程序的配置
// 使用 viper 库支持 YAML 配置文件和环境变量覆盖
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultJWTSecret 开发环境使用的默认签名密钥
// release 模式下禁止使用
const DefaultJWTSecret = "codespark-dev-secret-change-in-production"

// 数据库驱动
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config 是应用程序的根配置结构
// 包含所有子配置模块，通过构造函数显式传递，不使用全局变量
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	Database DatabaseConfig `mapstructure:"database"` // 数据库选择
	MySQL    MySQLConfig    `mapstructure:"mysql"`    // MySQL 配置
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`   // SQLite 配置
	Redis    RedisConfig    `mapstructure:"redis"`    // Redis 配置
	JWT      JWTConfig      `mapstructure:"jwt"`      // JWT 配置
	Auth     AuthConfig     `mapstructure:"auth"`     // 认证行为配置
	AI       AIConfig       `mapstructure:"ai"`       // AI 服务配置
	Log      LogConfig      `mapstructure:"log"`      // 日志配置
}

// ServerConfig 服务器相关配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`          // 监听端口，默认 5000
	Mode         string        `mapstructure:"mode"`          // 运行模式: debug / release
	CORS         []string      `mapstructure:"cors"`          // CORS 允许的域名
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`  // 读超时
	WriteTimeout time.Duration `mapstructure:"write_timeout"` // 写超时，需要覆盖一次完整的模型调用
}

// DatabaseConfig 数据库驱动选择
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // mysql / sqlite
}

// MySQLConfig MySQL 数据库连接配置
type MySQLConfig struct {
	Host         string `mapstructure:"host"`           // 数据库主机地址
	Port         int    `mapstructure:"port"`           // 数据库端口
	Username     string `mapstructure:"username"`       // 数据库用户名
	Password     string `mapstructure:"password"`       // 数据库密码
	Database     string `mapstructure:"database"`       // 数据库名称
	Charset      string `mapstructure:"charset"`        // 字符集
	MaxIdleConns int    `mapstructure:"max_idle_conns"` // 最大空闲连接数
	MaxOpenConns int    `mapstructure:"max_open_conns"` // 最大打开连接数
	MaxLifetime  int    `mapstructure:"max_lifetime"`   // 连接最大生命周期（秒）
}

// SQLiteConfig SQLite 配置（本地开发）
type SQLiteConfig struct {
	Path string `mapstructure:"path"` // 数据库文件路径
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`   // 是否启用（关闭时登出不会吊销 Token）
	Host     string `mapstructure:"host"`      // Redis 主机地址
	Port     int    `mapstructure:"port"`      // Redis 端口
	Username string `mapstructure:"username"`  // Redis 用户名
	Password string `mapstructure:"password"`  // Redis 密码
	DB       int    `mapstructure:"db"`        // 数据库索引 (0-15)
	PoolSize int    `mapstructure:"pool_size"` // 连接池大小
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret string        `mapstructure:"secret"` // JWT 签名密钥
	Expire time.Duration `mapstructure:"expire"` // Token 有效期，默认 7 天
	Issuer string        `mapstructure:"issuer"` // 签发者
}

// AuthConfig 认证行为配置
type AuthConfig struct {
	// SkipPasswordCheck 为 true 时登录只校验用户名，不校验密码
	// 仅用于兼容旧客户端，默认关闭
	SkipPasswordCheck bool `mapstructure:"skip_password_check"`
}

// AIConfig AI 服务配置
type AIConfig struct {
	APIKey        string `mapstructure:"api_key"`        // 模型服务 API Key
	BaseURL       string `mapstructure:"base_url"`       // OpenAI 兼容接口地址
	DefaultModel  string `mapstructure:"default_model"`  // chat 默认模型
	CodeModel     string `mapstructure:"code_model"`     // 代码生成模型
	AnalysisModel string `mapstructure:"analysis_model"` // 代码分析模型
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug/info/warn/error
	Format string `mapstructure:"format"` // 日志格式: json/console
}

// Load 从指定路径加载配置文件
// 加载顺序: .env -> config.yaml -> 环境变量，未指定的项使用默认值
// 参数:
//   - configPath: 配置文件目录路径 (如 "./configs")
//
// 返回:
//   - *Config: 配置对象
//   - error: 如果加载失败则返回错误
func Load(configPath string) (*Config, error) {
	// .env 只是开发便利，不存在时忽略
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVariables(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查配置的一致性
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret must not be empty")
	}
	if c.IsRelease() && c.JWT.Secret == DefaultJWTSecret {
		return errors.New("jwt.secret must be set in release mode")
	}
	if c.JWT.Expire <= 0 {
		return errors.New("jwt.expire must be positive")
	}
	return nil
}

// IsRelease 是否为生产模式
func (c *Config) IsRelease() bool {
	return c.Server.Mode == "release"
}

// bindEnvVariables 绑定环境变量到配置项
func bindEnvVariables(v *viper.Viper) {
	// 服务器配置
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// 数据库
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("mysql.host", "MYSQL_HOST")
	v.BindEnv("mysql.port", "MYSQL_PORT")
	v.BindEnv("mysql.username", "MYSQL_USERNAME")
	v.BindEnv("mysql.password", "MYSQL_PASSWORD")
	v.BindEnv("mysql.database", "MYSQL_DATABASE")
	v.BindEnv("sqlite.path", "SQLITE_PATH")

	// Redis 配置
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.username", "REDIS_USERNAME")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// JWT / 认证
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.expire", "JWT_EXPIRE")
	v.BindEnv("auth.skip_password_check", "AUTH_SKIP_PASSWORD_CHECK")

	// AI 配置，沿用 OpenAI SDK 的变量名
	v.BindEnv("ai.api_key", "OPENAI_API_KEY")
	v.BindEnv("ai.base_url", "OPENAI_API_BASE")
	v.BindEnv("ai.default_model", "AI_DEFAULT_MODEL")

	// 日志
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.format", "LOG_FORMAT")
}

// setDefaults 设置配置项的默认值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "120s")

	// 数据库默认配置
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("sqlite.path", "./data/codespark.db")
	v.SetDefault("mysql.host", "localhost")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.database", "codespark")
	v.SetDefault("mysql.charset", "utf8mb4")
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.max_open_conns", 100)
	v.SetDefault("mysql.max_lifetime", 3600)

	// Redis 默认配置
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 100)

	// JWT 默认配置
	v.SetDefault("jwt.secret", DefaultJWTSecret)
	v.SetDefault("jwt.expire", "168h")
	v.SetDefault("jwt.issuer", "codespark")
	v.SetDefault("auth.skip_password_check", false)

	// AI 默认配置
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.default_model", "gpt-3.5-turbo")
	v.SetDefault("ai.code_model", "gpt-3.5-turbo")
	v.SetDefault("ai.analysis_model", "gpt-3.5-turbo")

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
