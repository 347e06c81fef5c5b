package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Telegram TelegramConfig `yaml:"telegram"`
	SyncBox  SyncBoxConfig  `yaml:"syncbox"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                        string `yaml:"host"`
	Port                        int    `yaml:"port"`
	OrderNotificationsTopicName string `yaml:"order_notifications_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TelegramConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
}

type SyncBoxConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	SyncRateLimitPerMinute int `yaml:"sync_rate_limit_per_minute"`
	NotifyBufferSize       int `yaml:"notify_buffer_size"`
	DownloadLimit          int `yaml:"download_limit"`

	BotHTTPAddr           string `yaml:"bot_http_addr"`
	BotPollTimeoutSeconds int    `yaml:"bot_poll_timeout_seconds"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
