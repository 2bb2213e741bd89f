package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"partyquiz-client/internal/protocol"
)

type Config struct {
	Service struct {
		Endpoint    string `yaml:"endpoint"`
		CallTimeout string `yaml:"call_timeout"`
	} `yaml:"service"`
	Quiz struct {
		Name              string `yaml:"name"`
		NumChoices        int    `yaml:"num_choices"`
		MinQuestionLength int    `yaml:"min_question_length"`
		MaxQuestionLength int    `yaml:"max_question_length"`
		MinChoiceLength   int    `yaml:"min_choice_length"`
		MaxChoiceLength   int    `yaml:"max_choice_length"`
		MinNameLength     int    `yaml:"min_name_length"`
		MaxNameLength     int    `yaml:"max_name_length"`
	} `yaml:"quiz"`
	Scoring struct {
		MinAnswers int `yaml:"min_answers"`
		MaxScore   int `yaml:"max_score"`
	} `yaml:"scoring"`
	Preview struct {
		Limit    int    `yaml:"limit"`
		Interval string `yaml:"interval"`
	} `yaml:"preview"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Default returns the built-in settings, matching the backend's limits.
func Default() Config {
	cfg := Config{}
	cfg.Service.Endpoint = "ws://127.0.0.1:8765"
	cfg.Quiz.Name = "Party Quiz"
	cfg.Quiz.NumChoices = 4
	cfg.Quiz.MinQuestionLength = 10
	cfg.Quiz.MaxQuestionLength = 160
	cfg.Quiz.MinChoiceLength = 1
	cfg.Quiz.MaxChoiceLength = 80
	cfg.Quiz.MinNameLength = 2
	cfg.Quiz.MaxNameLength = 20
	cfg.Scoring.MinAnswers = 5
	cfg.Scoring.MaxScore = 5
	cfg.Preview.Limit = 2
	cfg.Preview.Interval = "5s"
	return cfg
}

// Load reads YAML config from path on top of the defaults. A missing file
// is not an error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Limits converts the configured field constraints for validation.
func (c Config) Limits() protocol.Limits {
	return protocol.Limits{
		NumChoices:       c.Quiz.NumChoices,
		QuestionLength:   [2]int{c.Quiz.MinQuestionLength, c.Quiz.MaxQuestionLength},
		ChoiceLength:     [2]int{c.Quiz.MinChoiceLength, c.Quiz.MaxChoiceLength},
		PlayerNameLength: [2]int{c.Quiz.MinNameLength, c.Quiz.MaxNameLength},
	}
}

// Duration parses a duration string or returns the fallback if empty or
// invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
