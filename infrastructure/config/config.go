package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string
	DefaultOrgID  string

	// AWS configuration
	AWSRegion     string
	ActivityTable string
	EventBusName  string

	// Lambda configuration
	IsLambda bool

	// Neo4j graph store
	Neo4jURI      string
	Neo4jUsername string
	Neo4jPassword string

	// External services
	SearchServiceURL     string
	SearchServiceTimeout time.Duration
	ClassifierURL        string
	ClassifierAPIKey     string
	ClassifierModel      string
	ClassifierTimeout    time.Duration
	UseMockClassifier    bool

	// Activity tracking
	EntityThreshold  int
	MemoryThreshold  int
	TriggerCooldown  time.Duration
	ActivityStateTTL time.Duration

	// Fleet-wide job locking
	EnableJobLock bool
	JobLockTTL    time.Duration
	WorkerName    string

	// Community detection
	MinCommunitySize int
	MergeOverlap     float64
	MaxIterations    int

	// Decay calculation
	DecayHalfLifeDays float64
	DecayMinDelta     float64
	DecayBatchSize    int
	DecayMaxBoost     float64

	// Conflict scanning
	MinSimilarity  float64
	MaxCandidates  int
	RateLimitDelay time.Duration

	// Logging and features
	LogLevel      string
	EnableMetrics bool
	EnableCORS    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", "127.0.0.1:8090"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		DefaultOrgID:  getEnv("DEFAULT_ORG_ID", "default"),

		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		ActivityTable: getEnv("ACTIVITY_TABLE", "engram-activity"),
		EventBusName:  getEnv("EVENT_BUS_NAME", "engram-jobs"),

		IsLambda: getEnvBool("IS_LAMBDA", false),

		Neo4jURI:      getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUsername: getEnv("NEO4J_USERNAME", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", ""),

		SearchServiceURL:     getEnv("SEARCH_SERVICE_URL", "http://localhost:8091"),
		SearchServiceTimeout: getEnvDuration("SEARCH_SERVICE_TIMEOUT", 10*time.Second),
		ClassifierURL:        getEnv("CLASSIFIER_URL", "https://api.openai.com/v1"),
		ClassifierAPIKey:     getEnv("CLASSIFIER_API_KEY", ""),
		ClassifierModel:      getEnv("CLASSIFIER_MODEL", "gpt-4o-mini"),
		ClassifierTimeout:    getEnvDuration("CLASSIFIER_TIMEOUT", 30*time.Second),
		UseMockClassifier:    getEnvBool("USE_MOCK_CLASSIFIER", false),

		EntityThreshold:  getEnvInt("ACTIVITY_ENTITY_THRESHOLD", 100),
		MemoryThreshold:  getEnvInt("ACTIVITY_MEMORY_THRESHOLD", 500),
		TriggerCooldown:  getEnvDuration("ACTIVITY_COOLDOWN", 60*time.Minute),
		ActivityStateTTL: getEnvDuration("ACTIVITY_STATE_TTL", 720*time.Hour),

		EnableJobLock: getEnvBool("ENABLE_JOB_LOCK", false),
		JobLockTTL:    getEnvDuration("JOB_LOCK_TTL", 2*time.Hour),
		WorkerName:    getEnv("WORKER_NAME", defaultWorkerName()),

		MinCommunitySize: getEnvInt("COMMUNITY_MIN_SIZE", 3),
		MergeOverlap:     getEnvFloat("COMMUNITY_MERGE_OVERLAP", 0.5),
		MaxIterations:    getEnvInt("COMMUNITY_MAX_ITERATIONS", 20),

		DecayHalfLifeDays: getEnvFloat("DECAY_HALF_LIFE_DAYS", 30),
		DecayMinDelta:     getEnvFloat("DECAY_MIN_DELTA", 0.01),
		DecayBatchSize:    getEnvInt("DECAY_BATCH_SIZE", 100),
		DecayMaxBoost:     getEnvFloat("DECAY_MAX_BOOST", 2.0),

		MinSimilarity:  getEnvFloat("CONFLICT_MIN_SIMILARITY", 0.7),
		MaxCandidates:  getEnvInt("CONFLICT_MAX_CANDIDATES", 5),
		RateLimitDelay: getEnvDuration("CONFLICT_RATE_LIMIT_DELAY", 200*time.Millisecond),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig for backwards compatibility
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.Neo4jPassword == "" {
			return fmt.Errorf("NEO4J_PASSWORD is required in production")
		}
		if c.ActivityTable == "" {
			return fmt.Errorf("ACTIVITY_TABLE is required")
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
		if !c.UseMockClassifier && c.ClassifierAPIKey == "" {
			return fmt.Errorf("CLASSIFIER_API_KEY is required in production")
		}
	}

	if c.MinCommunitySize < 2 {
		return fmt.Errorf("COMMUNITY_MIN_SIZE must be at least 2, got %d", c.MinCommunitySize)
	}
	if c.MergeOverlap <= 0 || c.MergeOverlap > 1 {
		return fmt.Errorf("COMMUNITY_MERGE_OVERLAP must be in (0,1], got %f", c.MergeOverlap)
	}
	if c.DecayBatchSize < 1 {
		return fmt.Errorf("DECAY_BATCH_SIZE must be positive, got %d", c.DecayBatchSize)
	}
	if c.DecayHalfLifeDays <= 0 {
		return fmt.Errorf("DECAY_HALF_LIFE_DAYS must be positive, got %f", c.DecayHalfLifeDays)
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// defaultWorkerName identifies this process in fleet-wide lock records.
func defaultWorkerName() string {
	host, err := os.Hostname()
	if err != nil {
		return fmt.Sprintf("worker-%d", os.Getpid())
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
