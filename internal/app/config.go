package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	// PostgresDSN — строка подключения к PostgreSQL. Пустое значение
	// переключает сервис на in-memory хранилище (dev-режим).
	PostgresDSN string
	// RedisAddr — адрес Redis для кэша листингов товаров (опционально).
	RedisAddr string
	// KafkaBrokers — брокеры Kafka для событий заказов (опционально).
	KafkaBrokers []string
	// MetricsAddr — адрес HTTP-сервера метрик и health-проверок.
	MetricsAddr string
}

// DefaultConfig возвращает базовые настройки.
func DefaultConfig() Config {
	return Config{
		MetricsAddr: ":9090",
	}
}

// LoadConfig читает конфигурацию из окружения, подхватывая .env файл,
// если он есть рядом с бинарником.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.PostgresDSN = getEnv("ORDERS_POSTGRES_DSN", cfg.PostgresDSN)
	cfg.RedisAddr = getEnv("ORDERS_REDIS_ADDR", cfg.RedisAddr)
	cfg.MetricsAddr = getEnv("ORDERS_METRICS_ADDR", cfg.MetricsAddr)
	if brokers := getEnv("ORDERS_KAFKA_BROKERS", ""); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
