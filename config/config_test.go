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
  order_updated_topic_name: "order.updated"
redis:
  host: "localhost"
  port: 6379
storage:
  backend: "redis"
  key: "orders"
provider:
  base_url: "https://apidev.vanilla.digital"
  mode: "vanilla"
  language: "fr"
  timezone: "Europe/Paris"
log:
  level: "debug"
parcelbox:
  http_addr: ":8080"
  kafka_consumer_group: "parcel-api"
  enrich_concurrency: 4
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "order.updated", cfg.Kafka.OrderUpdatedTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, "redis", cfg.Storage.Backend)
	require.Equal(t, "fr", cfg.Provider.Language)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, ":8080", cfg.ParcelBox.HTTPAddr)
	require.Equal(t, 4, cfg.ParcelBox.EnrichConcurrency)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte("database: [oops"), 0o600))
	_, err = LoadConfig(p)
	require.Error(t, err)
}

func TestConfig_Helpers(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Host: "h", Port: 5432, Username: "u", Password: "p", DBName: "db"},
		Redis:    RedisConfig{Host: "r", Port: 6379},
		Kafka:    KafkaConfig{Host: "k", Port: 9092},
	}
	require.Equal(t, "postgres://u:p@h:5432/db?sslmode=disable", cfg.PostgresDSN())
	require.Equal(t, "r:6379", cfg.RedisAddr())
	require.Equal(t, []string{"k:9092"}, cfg.KafkaBrokers())
	require.Equal(t, "order.updated", cfg.OrderUpdatedTopic())
	require.Equal(t, "orders", cfg.StorageKey())

	cfg.Database.SSLMode = "require"
	cfg.Kafka.OrderUpdatedTopicName = "custom"
	cfg.Storage.Key = "k"
	require.Equal(t, "postgres://u:p@h:5432/db?sslmode=require", cfg.PostgresDSN())
	require.Equal(t, "custom", cfg.OrderUpdatedTopic())
	require.Equal(t, "k", cfg.StorageKey())
}
