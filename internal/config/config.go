package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"urgency-service/internal/classifier"
)

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`

	Database struct {
		Type string `yaml:"type"` // "sqlite" or "postgres"
		Path string `yaml:"path"` // SQLite file or PostgreSQL URL
	} `yaml:"database"`

	Training TrainingConfig `yaml:"training"`

	Legacy struct {
		ModelPath   string `yaml:"model_path"`
		EncoderPath string `yaml:"encoder_path"`
	} `yaml:"legacy"`

	Auth struct {
		JWTSecret     string `yaml:"jwt_secret"`
		TokenTTLHours int    `yaml:"token_ttl_hours"`
	} `yaml:"auth"`

	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
}

// TrainingConfig drives the dynamic training pipeline.
type TrainingConfig struct {
	DataPath           string   `yaml:"data_path"`
	LabelColumn        string   `yaml:"label_column"`
	DropColumns        []string `yaml:"drop_columns"`
	CategoricalColumns []string `yaml:"categorical_columns"`

	// NoiseFraction is a pointer so that an explicit 0 disables noise.
	NoiseFraction *float64 `yaml:"noise_fraction"`
	NoiseSeed     int64    `yaml:"noise_seed"`
	TestSize      float64  `yaml:"test_size"`
	SplitSeed     int64    `yaml:"split_seed"`
	Parallelism   int      `yaml:"parallelism"`

	Models struct {
		Logistic struct {
			MaxIter      int     `yaml:"max_iter"`
			LearningRate float64 `yaml:"learning_rate"`
			C            float64 `yaml:"c"`
		} `yaml:"logistic_regression"`
		KNN struct {
			K int `yaml:"k"`
		} `yaml:"knn"`
		RandomForest struct {
			NTrees   int   `yaml:"n_trees"`
			MaxDepth int   `yaml:"max_depth"`
			Seed     int64 `yaml:"seed"`
		} `yaml:"random_forest"`
		GradientBoosting struct {
			NTrees       int     `yaml:"n_trees"`
			LearningRate float64 `yaml:"learning_rate"`
			MaxDepth     int     `yaml:"max_depth"`
		} `yaml:"gradient_boosting"`
	} `yaml:"models"`
}

// Noise returns the configured label-noise fraction.
func (t TrainingConfig) Noise() float64 {
	if t.NoiseFraction == nil {
		return 0.05
	}
	return *t.NoiseFraction
}

// ClassifierParams converts the model section, falling back to the defaults
// for anything unset.
func (t TrainingConfig) ClassifierParams() classifier.Params {
	p := classifier.DefaultParams()
	m := t.Models
	if m.Logistic.MaxIter > 0 {
		p.Logistic.MaxIter = m.Logistic.MaxIter
	}
	if m.Logistic.LearningRate > 0 {
		p.Logistic.LearningRate = m.Logistic.LearningRate
	}
	if m.Logistic.C > 0 {
		p.Logistic.C = m.Logistic.C
	}
	if m.KNN.K > 0 {
		p.KNN.K = m.KNN.K
	}
	if m.RandomForest.NTrees > 0 {
		p.Forest.NTrees = m.RandomForest.NTrees
	}
	if m.RandomForest.MaxDepth > 0 {
		p.Forest.MaxDepth = m.RandomForest.MaxDepth
	}
	if m.RandomForest.Seed != 0 {
		p.Forest.Seed = m.RandomForest.Seed
	}
	if m.GradientBoosting.NTrees > 0 {
		p.Boosting.NTrees = m.GradientBoosting.NTrees
	}
	if m.GradientBoosting.LearningRate > 0 {
		p.Boosting.LearningRate = m.GradientBoosting.LearningRate
	}
	if m.GradientBoosting.MaxDepth > 0 {
		p.Boosting.MaxDepth = m.GradientBoosting.MaxDepth
	}
	return p
}

// TokenTTL is the lifetime of issued session tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

// LoadConfig reads configuration from the specified YAML file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyDefaults()
	config.applyEnv()

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "5000"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Path == "" && c.Database.Type == "sqlite" {
		c.Database.Path = "./data/urgency.db"
	}
	if c.Training.LabelColumn == "" {
		c.Training.LabelColumn = "Urgency"
	}
	if c.Training.DropColumns == nil {
		c.Training.DropColumns = []string{"EstimatedCost"}
	}
	if c.Training.NoiseSeed == 0 {
		c.Training.NoiseSeed = 42
	}
	if c.Training.TestSize == 0 {
		c.Training.TestSize = 0.2
	}
	if c.Training.SplitSeed == 0 {
		c.Training.SplitSeed = 42
	}
	if c.Auth.TokenTTLHours == 0 {
		c.Auth.TokenTTLHours = 24
	}
}

// applyEnv lets the deployment override secrets and the dataset location.
func (c *Config) applyEnv() {
	if path := os.Getenv("ML_DATA_PATH"); path != "" {
		c.Training.DataPath = path
	}
	c.Training.DataPath = os.ExpandEnv(c.Training.DataPath)
	c.Database.Path = os.ExpandEnv(c.Database.Path)
	c.Auth.JWTSecret = os.ExpandEnv(c.Auth.JWTSecret)
	c.Telegram.BotToken = os.ExpandEnv(c.Telegram.BotToken)
}

func (c *Config) validate() error {
	if c.Database.Type != "sqlite" && c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required for %s", c.Database.Type)
	}
	if f := c.Training.Noise(); f < 0 || f > 1 {
		return fmt.Errorf("training.noise_fraction %v outside [0,1]", f)
	}
	if c.Training.TestSize <= 0 || c.Training.TestSize >= 1 {
		return fmt.Errorf("training.test_size %v outside (0,1)", c.Training.TestSize)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == 0) {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id are required when telegram is enabled")
	}
	return nil
}
