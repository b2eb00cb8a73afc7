package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	Neo4j    Neo4jConfig
	LLM      LLMConfig
	Drafts   DraftsConfig
	Scoring  ScoringConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled     bool
	Host        string
	Port        int
	Password    string
	DB          int
	WorkoutTTL  int
	DraftTTLHrs int
}

type Neo4jConfig struct {
	Enabled  bool
	URI      string
	Username string
	Password string
	Database string
	Seed     bool
}

type LLMConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type DraftsConfig struct {
	DebounceMS int
}

// ScoringConfig carries the factor weights and level thresholds of the
// confidence scorer. Weights are normalised at scoring time.
type ScoringConfig struct {
	ProfileWeight   float64
	SafetyWeight    float64
	EquipmentWeight float64
	GoalWeight      float64
	StructureWeight float64
	ExcellentAt     float64
	GoodAt          float64
}

type SecurityConfig struct {
	AllowedOrigins       []string
	IsDevelopment        bool
	MaxRequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	return LoadFrom(viper.New(), "")
}

// LoadFrom reads configuration into v. An explicit file path overrides the
// default search locations.
func LoadFrom(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/fitonboard")
	}

	v.SetEnvPrefix("FITONBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Scoring.GoodAt > c.Scoring.ExcellentAt {
		return fmt.Errorf("scoring.goodAt (%.2f) must not exceed scoring.excellentAt (%.2f)",
			c.Scoring.GoodAt, c.Scoring.ExcellentAt)
	}
	weights := []float64{
		c.Scoring.ProfileWeight,
		c.Scoring.SafetyWeight,
		c.Scoring.EquipmentWeight,
		c.Scoring.GoalWeight,
		c.Scoring.StructureWeight,
	}
	var total float64
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("scoring weights must be non-negative")
		}
		total += w
	}
	if total == 0 {
		return fmt.Errorf("at least one scoring weight must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 60)
	v.SetDefault("server.bodyLimit", 1048576)

	v.SetDefault("sqlite.path", "./data/fitonboard.db")

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.workoutTTL", 3600)
	v.SetDefault("redis.draftTTLHrs", 72)

	v.SetDefault("neo4j.enabled", false)
	v.SetDefault("neo4j.uri", "bolt://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "password")
	v.SetDefault("neo4j.database", "neo4j")
	v.SetDefault("neo4j.seed", true)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.4)
	v.SetDefault("llm.maxTokens", 2048)
	v.SetDefault("llm.timeoutSec", 60)

	v.SetDefault("drafts.debounceMS", 500)

	v.SetDefault("scoring.profileWeight", 0.25)
	v.SetDefault("scoring.safetyWeight", 0.25)
	v.SetDefault("scoring.equipmentWeight", 0.20)
	v.SetDefault("scoring.goalWeight", 0.15)
	v.SetDefault("scoring.structureWeight", 0.15)
	v.SetDefault("scoring.excellentAt", 0.80)
	v.SetDefault("scoring.goodAt", 0.60)

	v.SetDefault("security.allowedOrigins", []string{})
	v.SetDefault("security.isDevelopment", false)
	v.SetDefault("security.maxRequestsPerMinute", 120)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
