package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/joho/godotenv"
)

// Поддерживаемые бэкенды хранения.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

type Config struct {
	Storage *StorageCfg
	Http    *HTTPConfig
	Grpc    *GRPCConfig
	Db      *PGDBCfg      // nil, если STORAGE_BACKEND != postgres
	Redis   *RedisCfg     // nil, если REDIS_ADDR не задан
	Minio   *MinIOCfg     // nil, если BUCKET_NAME не задан
	Kafka   *KafkaCfg     // nil, если KAFKA_BROKERS не задан
	Gemini  *GeminiCfg
	Report  *ReportCfg
}

type StorageCfg struct {
	Backend    string
	SQLitePath string
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
	BatchLimit        int
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Название бакета для изображений товаров
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
	MaxImageSize      int64 // Максимальный размер одного изображения в байтах
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type GRPCConfig struct {
	Port        string
	NetworkMode string
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisCfg struct {
	Addr           string
	Password       string
	User           string
	DB             int
	MaxRetries     int
	DialTimeout    time.Duration
	Timeout        time.Duration
	ProductTTL     time.Duration
	IdempotencyTTL time.Duration
}

type GeminiCfg struct {
	APIKey     string // при пустом ключе сервис инсайтов недоступен
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

type ReportCfg struct {
	LowStockThreshold int64
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
// Переменные из .env (если файл есть) не перекрывают уже заданные в окружении.
func Load(log logger.Logger) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Infof("loaded environment from .env")
	}

	storage, err := loadStorageCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var db *PGDBCfg
	if storage.Backend == BackendPostgres {
		db, err = loadPGDBCfg(log)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	gemini, err := loadGeminiCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	report, err := loadReportCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Storage: storage,
		Http:    http,
		Grpc:    loadGRPCConfig(),
		Db:      db,
		Redis:   redis,
		Minio:   minio,
		Kafka:   kafka,
		Gemini:  gemini,
		Report:  report,
	}, nil
}

func loadStorageCfg() (*StorageCfg, error) {
	const (
		defaultBackend    = BackendSQLite
		defaultSQLitePath = "data/pos.db"
	)

	backend := strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", defaultBackend))
	switch backend {
	case BackendPostgres, BackendSQLite, BackendMemory:
	default:
		return nil, fmt.Errorf("STORAGE_BACKEND %q: %w", backend, e.ErrIncorrectEnvVariable)
	}

	return &StorageCfg{
		Backend:    backend,
		SQLitePath: getEnvOrDefault("SQLITE_PATH", defaultSQLitePath),
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultTopic             = "pos.sales"
		defaultBatchLimit        = 10
	)

	brokerStr := getEnv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, nil
	}
	brokers := strings.Split(brokerStr, ",")

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	batchLimit, err := parseIntEnv("OUTBOX_BATCH_LIMIT", defaultBatchLimit)
	if err != nil {
		return nil, e.Wrap("OUTBOX_BATCH_LIMIT", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
		BatchLimit:        batchLimit,
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL       = false
		defaultEndpoint     = "minio:9000"
		defaultMaxImageSize = 15 << 20
	)

	bucket := getEnv("BUCKET_NAME")
	if bucket == "" {
		return nil, nil
	}

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:        bucket,
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		MaxImageSize:      defaultMaxImageSize,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 30 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         getEnvOrDefault("HTTP_PORT", defaultPort),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadGRPCConfig() *GRPCConfig {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	return &GRPCConfig{
		Port:        getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode: getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
	}
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     user,
		Password: password,
		DBName:   dbName,
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultDB             = 0
		defaultMaxRetries     = 3
		defaultDialTimeout    = 5 * time.Second
		defaultReadTimeout    = 3 * time.Second
		defaultWriteTimeout   = 3 * time.Second
		defaultProductTTL     = 3 * time.Minute
		defaultIdempotencyTTL = 24 * time.Hour
	)

	addr := getEnv("REDIS_ADDR")
	if addr == "" {
		return nil, nil
	}

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	productTTL, err := parseDurationEnv("PRODUCT_TTL", defaultProductTTL)
	if err != nil {
		log.Errorf(err, "invalid PRODUCT_TTL")
		return nil, err
	}

	idempotencyTTL, err := parseDurationEnv("IDEMPOTENCY_TTL", defaultIdempotencyTTL)
	if err != nil {
		log.Errorf(err, "invalid IDEMPOTENCY_TTL")
		return nil, err
	}

	return &RedisCfg{
		Addr:           addr,
		Password:       getEnv("REDIS_PASSWORD"),
		User:           getEnv("REDIS_USER"),
		DB:             db,
		MaxRetries:     maxRetries,
		DialTimeout:    dialTimeout,
		Timeout:        max(readTimeout, writeTimeout),
		ProductTTL:     productTTL,
		IdempotencyTTL: idempotencyTTL,
	}, nil
}

func loadGeminiCfg() (*GeminiCfg, error) {
	const (
		defaultModel      = "gemini-2.5-flash"
		defaultMaxRetries = 3
		defaultTimeout    = 60 * time.Second
	)

	maxRetries, err := parseIntEnv("GEMINI_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		return nil, e.Wrap("GEMINI_MAX_RETRIES", err)
	}

	timeout, err := parseDurationEnv("GEMINI_TIMEOUT", defaultTimeout)
	if err != nil {
		return nil, e.Wrap("GEMINI_TIMEOUT", err)
	}

	return &GeminiCfg{
		APIKey:     getEnv("GEMINI_API_KEY"),
		Model:      getEnvOrDefault("GEMINI_MODEL", defaultModel),
		MaxRetries: max(maxRetries, 1),
		Timeout:    timeout,
	}, nil
}

func loadReportCfg() (*ReportCfg, error) {
	const defaultLowStockThreshold = 5

	threshold, err := parseIntEnv("LOW_STOCK_THRESHOLD", defaultLowStockThreshold)
	if err != nil || threshold < 0 {
		return nil, e.Wrap("LOW_STOCK_THRESHOLD", e.ErrIncorrectEnvVariable)
	}

	return &ReportCfg{LowStockThreshold: int64(threshold)}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}
