package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
kafka:
  host: "localhost"
  port: 9092
  order_notifications_topic_name: "order.notifications"
redis:
  host: "localhost"
  port: 6379
telegram:
  token: "123:abc"
  chat_id: -100200300
syncbox:
  http_addr: ":8000"
  kafka_consumer_group: "sync-bot"
  sync_rate_limit_per_minute: 30
  bot_http_addr: ":8081"
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "order.notifications", cfg.Kafka.OrderNotificationsTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, int64(-100200300), cfg.Telegram.ChatID)
	require.Equal(t, ":8000", cfg.SyncBox.HTTPAddr)
	require.Equal(t, 30, cfg.SyncBox.SyncRateLimitPerMinute)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/cfg.yaml")
	require.Error(t, err)
}
