package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Environment:       "development",
		MinCommunitySize:  3,
		MergeOverlap:      0.5,
		DecayBatchSize:    100,
		DecayHalfLifeDays: 30,
	}
}

func TestConfig_Validate_DefaultsPass(t *testing.T) {
	// Arrange
	cfg := validConfig()

	// Act & Assert
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_RejectsZeroHalfLife(t *testing.T) {
	// Arrange: a zero half-life would make the decay exponent undefined
	cfg := validConfig()
	cfg.DecayHalfLifeDays = 0

	// Act
	err := cfg.Validate()

	// Assert
	assert.ErrorContains(t, err, "DECAY_HALF_LIFE_DAYS")
}

func TestConfig_Validate_RejectsNegativeHalfLife(t *testing.T) {
	// Arrange
	cfg := validConfig()
	cfg.DecayHalfLifeDays = -1

	// Act
	err := cfg.Validate()

	// Assert
	assert.ErrorContains(t, err, "DECAY_HALF_LIFE_DAYS")
}

func TestConfig_Validate_RejectsOutOfRangeMergeOverlap(t *testing.T) {
	// Arrange
	cfg := validConfig()
	cfg.MergeOverlap = 1.5

	// Act
	err := cfg.Validate()

	// Assert
	assert.ErrorContains(t, err, "COMMUNITY_MERGE_OVERLAP")
}

func TestConfig_Validate_RejectsTooSmallCommunitySize(t *testing.T) {
	// Arrange
	cfg := validConfig()
	cfg.MinCommunitySize = 1

	// Act
	err := cfg.Validate()

	// Assert
	assert.ErrorContains(t, err, "COMMUNITY_MIN_SIZE")
}

func TestConfig_Validate_ProductionRequiresClassifierKey(t *testing.T) {
	// Arrange
	cfg := validConfig()
	cfg.Environment = "production"
	cfg.Neo4jPassword = "secret"
	cfg.ActivityTable = "activity"
	cfg.EventBusName = "bus"
	cfg.UseMockClassifier = false
	cfg.ClassifierAPIKey = ""

	// Act
	err := cfg.Validate()

	// Assert
	assert.ErrorContains(t, err, "CLASSIFIER_API_KEY")
}
