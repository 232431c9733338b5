package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendElasticsearch = "elasticsearch"
	BackendPostgres      = "postgres"

	EventsSinkNone  = "none"
	EventsSinkRedis = "redis"
	EventsSinkKafka = "kafka"
)

type Config struct {
	Server   ServerConfig
	Search   SearchConfig
	Elastic  ElasticConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Ranking  RankingConfig
	Query    QueryConfig
	City     CityConfig
	Events   EventsConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

// SearchConfig - выбор бэкенда и политика клиента
type SearchConfig struct {
	Backend    string
	Timeout    time.Duration
	MaxQPS     float64
	Burst      int
	ResultCap  int
	RetryAfter time.Duration
}

type ElasticConfig struct {
	Hosts    []string
	Username string
	Password string
	Index    string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	TTL          time.Duration
	MaxEntries   int
	Shards       int
	RedisEnabled bool
	Coalesce     bool
}

// RankingConfig - пороги выбора единственного ответа и веса источников
type RankingConfig struct {
	MinConfidence   float64
	AmbiguityMargin float64
	TextWeight      float64
	GeoWeight       float64
}

// QueryConfig - границы параметров запроса и поддерживаемые локали
type QueryConfig struct {
	Locales         []string
	DefaultLocale   string
	MinTermLen      int
	MaxTermLen      int
	MinRadiusKm     float64
	MaxRadiusKm     float64
	DefaultRadiusKm float64
	MaxLimit        int
	DefaultLimit    int
}

// CityConfig - параметры эндпоинтов /city/v1
type CityConfig struct {
	DefaultCities      map[string]string
	PreferredCountries map[string]string
	SearchLimit        int
	FeaturedLimit      int
}

type EventsConfig struct {
	Sink         string
	Stream       string
	Buffer       int
	KafkaBrokers []string
	KafkaTopic   string
}

type LogConfig struct {
	Level string
}

func setDefaults() {
	viper.SetDefault("API_HOST", "0.0.0.0")
	viper.SetDefault("API_PORT", 8080)
	viper.SetDefault("API_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("SEARCH_BACKEND", BackendElasticsearch)
	viper.SetDefault("BACKEND_TIMEOUT_MS", 2000)
	viper.SetDefault("BACKEND_MAX_QPS", 0)
	viper.SetDefault("BACKEND_BURST", 50)
	viper.SetDefault("BACKEND_RESULT_CAP", 50)
	viper.SetDefault("BACKEND_RETRY_AFTER", 5)

	viper.SetDefault("ELASTIC_HOSTS", "http://localhost:9200")
	viper.SetDefault("ELASTIC_INDEX", "locations")

	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 20)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", 300)
	viper.SetDefault("DB_CONN_MAX_IDLE_TIME", 60)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)

	viper.SetDefault("CACHE_TTL", 300)
	viper.SetDefault("CACHE_MAX_ENTRIES", 10000)
	viper.SetDefault("CACHE_SHARDS", 32)

	viper.SetDefault("RANK_MIN_CONFIDENCE", 0.3)
	viper.SetDefault("RANK_AMBIGUITY_MARGIN", 0.05)
	viper.SetDefault("RANK_TEXT_WEIGHT", 0.7)
	viper.SetDefault("RANK_GEO_WEIGHT", 0.3)

	viper.SetDefault("LOCALES", "cs,de,en,pl,sk")
	viper.SetDefault("DEFAULT_LOCALE", "en")
	viper.SetDefault("QUERY_MIN_TERM_LEN", 2)
	viper.SetDefault("QUERY_MAX_TERM_LEN", 100)
	viper.SetDefault("QUERY_MIN_RADIUS_KM", 0.1)
	viper.SetDefault("QUERY_MAX_RADIUS_KM", 500)
	viper.SetDefault("QUERY_DEFAULT_RADIUS_KM", 25)
	viper.SetDefault("QUERY_MAX_LIMIT", 50)
	viper.SetDefault("QUERY_DEFAULT_LIMIT", 10)

	// Прага, Берлин, Прага, Варшава, Братислава
	viper.SetDefault("CITY_DEFAULTS", "cs:101748113,de:101909779,en:101748113,pl:101752777,sk:1108800123")
	viper.SetDefault("CITY_PREFERRED_COUNTRIES", "cs:CZ,de:DE,en:CZ,pl:PL,sk:SK")
	viper.SetDefault("CITY_SEARCH_LIMIT", 10)
	viper.SetDefault("CITY_FEATURED_LIMIT", 100)

	viper.SetDefault("EVENTS_SINK", EventsSinkNone)
	viper.SetDefault("EVENTS_STREAM", "stream:location:resolutions")
	viper.SetDefault("EVENTS_BUFFER", 1024)
	viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("KAFKA_TOPIC", "location-resolutions")
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("API_HOST"),
			Port: viper.GetInt("API_PORT"),
			Env:  viper.GetString("API_ENV"),
		},
		Search: SearchConfig{
			Backend:    strings.ToLower(viper.GetString("SEARCH_BACKEND")),
			Timeout:    time.Duration(viper.GetInt("BACKEND_TIMEOUT_MS")) * time.Millisecond,
			MaxQPS:     viper.GetFloat64("BACKEND_MAX_QPS"),
			Burst:      viper.GetInt("BACKEND_BURST"),
			ResultCap:  viper.GetInt("BACKEND_RESULT_CAP"),
			RetryAfter: time.Duration(viper.GetInt("BACKEND_RETRY_AFTER")) * time.Second,
		},
		Elastic: ElasticConfig{
			Hosts:    parseList(viper.GetString("ELASTIC_HOSTS")),
			Username: viper.GetString("ELASTIC_USERNAME"),
			Password: viper.GetString("ELASTIC_PASSWORD"),
			Index:    viper.GetString("ELASTIC_INDEX"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			TTL:          time.Duration(viper.GetInt("CACHE_TTL")) * time.Second,
			MaxEntries:   viper.GetInt("CACHE_MAX_ENTRIES"),
			Shards:       viper.GetInt("CACHE_SHARDS"),
			RedisEnabled: viper.GetBool("CACHE_REDIS_ENABLED"),
			Coalesce:     viper.GetBool("CACHE_COALESCE"),
		},
		Ranking: RankingConfig{
			MinConfidence:   viper.GetFloat64("RANK_MIN_CONFIDENCE"),
			AmbiguityMargin: viper.GetFloat64("RANK_AMBIGUITY_MARGIN"),
			TextWeight:      viper.GetFloat64("RANK_TEXT_WEIGHT"),
			GeoWeight:       viper.GetFloat64("RANK_GEO_WEIGHT"),
		},
		Query: QueryConfig{
			Locales:         parseList(strings.ToLower(viper.GetString("LOCALES"))),
			DefaultLocale:   strings.ToLower(viper.GetString("DEFAULT_LOCALE")),
			MinTermLen:      viper.GetInt("QUERY_MIN_TERM_LEN"),
			MaxTermLen:      viper.GetInt("QUERY_MAX_TERM_LEN"),
			MinRadiusKm:     viper.GetFloat64("QUERY_MIN_RADIUS_KM"),
			MaxRadiusKm:     viper.GetFloat64("QUERY_MAX_RADIUS_KM"),
			DefaultRadiusKm: viper.GetFloat64("QUERY_DEFAULT_RADIUS_KM"),
			MaxLimit:        viper.GetInt("QUERY_MAX_LIMIT"),
			DefaultLimit:    viper.GetInt("QUERY_DEFAULT_LIMIT"),
		},
		City: CityConfig{
			DefaultCities:      parsePairs(viper.GetString("CITY_DEFAULTS")),
			PreferredCountries: parsePairs(viper.GetString("CITY_PREFERRED_COUNTRIES")),
			SearchLimit:        viper.GetInt("CITY_SEARCH_LIMIT"),
			FeaturedLimit:      viper.GetInt("CITY_FEATURED_LIMIT"),
		},
		Events: EventsConfig{
			Sink:         strings.ToLower(viper.GetString("EVENTS_SINK")),
			Stream:       viper.GetString("EVENTS_STREAM"),
			Buffer:       viper.GetInt("EVENTS_BUFFER"),
			KafkaBrokers: parseList(viper.GetString("KAFKA_BROKERS")),
			KafkaTopic:   viper.GetString("KAFKA_TOPIC"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate отклоняет заведомо невозможные комбинации настроек
func (c *Config) Validate() error {
	var errs []error

	switch c.Search.Backend {
	case BackendElasticsearch, BackendPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown SEARCH_BACKEND %q", c.Search.Backend))
	}
	switch c.Events.Sink {
	case EventsSinkNone, EventsSinkRedis, EventsSinkKafka:
	default:
		errs = append(errs, fmt.Errorf("unknown EVENTS_SINK %q", c.Events.Sink))
	}
	if c.Search.Timeout <= 0 {
		errs = append(errs, errors.New("BACKEND_TIMEOUT_MS must be positive"))
	}
	if len(c.Query.Locales) == 0 {
		errs = append(errs, errors.New("LOCALES must not be empty"))
	} else if !contains(c.Query.Locales, c.Query.DefaultLocale) {
		errs = append(errs, fmt.Errorf("DEFAULT_LOCALE %q is not in LOCALES", c.Query.DefaultLocale))
	}
	if c.Query.MinTermLen > c.Query.MaxTermLen {
		errs = append(errs, errors.New("QUERY_MIN_TERM_LEN exceeds QUERY_MAX_TERM_LEN"))
	}
	if c.Query.MinRadiusKm > c.Query.MaxRadiusKm {
		errs = append(errs, errors.New("QUERY_MIN_RADIUS_KM exceeds QUERY_MAX_RADIUS_KM"))
	}
	if c.Query.DefaultRadiusKm < c.Query.MinRadiusKm || c.Query.DefaultRadiusKm > c.Query.MaxRadiusKm {
		errs = append(errs, errors.New("QUERY_DEFAULT_RADIUS_KM is outside the radius bounds"))
	}
	if c.Query.MaxLimit < 1 || c.Query.DefaultLimit < 1 || c.Query.DefaultLimit > c.Query.MaxLimit {
		errs = append(errs, errors.New("QUERY_DEFAULT_LIMIT must be within [1, QUERY_MAX_LIMIT]"))
	}
	if c.Cache.MaxEntries < 1 || c.Cache.Shards < 1 {
		errs = append(errs, errors.New("CACHE_MAX_ENTRIES and CACHE_SHARDS must be positive"))
	}
	if c.Ranking.AmbiguityMargin < 0 || c.Ranking.MinConfidence < 0 || c.Ranking.MinConfidence > 1 {
		errs = append(errs, errors.New("ranking thresholds must be within [0, 1]"))
	}
	// при тексте и гео вместе лучший score не выше большего из весов
	if c.Ranking.MinConfidence > max(c.Ranking.TextWeight, c.Ranking.GeoWeight) {
		errs = append(errs, errors.New("RANK_MIN_CONFIDENCE exceeds both RANK_TEXT_WEIGHT and RANK_GEO_WEIGHT"))
	}

	return errors.Join(errs...)
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parsePairs разбирает "cs:CZ,de:DE" в map
func parsePairs(s string) map[string]string {
	result := make(map[string]string)
	for _, item := range parseList(s) {
		key, value, ok := strings.Cut(item, ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key != "" && value != "" {
			result[strings.ToLower(key)] = value
		}
	}
	return result
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
