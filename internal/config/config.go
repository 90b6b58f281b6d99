package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		RequestAddr   string `yaml:"request_addr"`
		PushAddr      string `yaml:"push_addr"`
		PushAdvertise string `yaml:"push_advertise"`
		HTTPAddr      string `yaml:"http_addr"`
	} `yaml:"server"`
	Game struct {
		RoundStartDelay   string `yaml:"round_start_delay"`
		AnswerDelay       string `yaml:"answer_delay"`
		NextQuestionDelay string `yaml:"next_question_delay"`
		QuestionCount     int    `yaml:"question_count"`
		Category          string `yaml:"category"`
		Difficulty        string `yaml:"difficulty"`
	} `yaml:"game"`
	Trivia struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"trivia"`
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

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or
// malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
