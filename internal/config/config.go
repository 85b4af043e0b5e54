package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config carries every tunable of the lifecycle manager. It is built once
// at startup and passed into each component constructor; no component
// reads process-wide state on its own.
type Config struct {
	// Data sources, tried in order: structured store first, then flat files.
	DBPath   string
	CSVPaths []string

	// Artifact layout
	ArtifactPath    string
	TrainingLogPath string
	ReportDir       string
	LockPath        string

	// Retraining criteria
	PerformanceThreshold float64
	MinNewDataPoints     int64
	ScheduleIntervalDays int

	// Training
	TestFraction       float64
	CVFolds            int
	Seed               int64
	PromotionThreshold float64
	MinImprovement     float64

	// Run control
	RunTimeout time.Duration
	LogLevel   string
}

// LoadConfig reads configuration from the environment (and a .env file if
// present) and applies defaults matching the production deployment.
func LoadConfig() *Config {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("No config file found: %v", err)
	}

	viper.SetDefault("DB_PATH", "equipment_monitoring.db")
	viper.SetDefault("CSV_PATHS", []string{
		"knust_classroom_equipment_dataset.csv",
		"cleaned_equipment_data.csv",
	})
	viper.SetDefault("ARTIFACT_PATH", "models/production_model.json")
	viper.SetDefault("TRAINING_LOG_PATH", "models/model_training_log.json")
	viper.SetDefault("REPORT_DIR", "reports")
	viper.SetDefault("LOCK_PATH", "models/.lifecycle.lock")
	viper.SetDefault("PERFORMANCE_THRESHOLD", 0.80)
	viper.SetDefault("MIN_NEW_DATA_POINTS", 100)
	viper.SetDefault("SCHEDULE_INTERVAL_DAYS", 7)
	viper.SetDefault("TEST_FRACTION", 0.2)
	viper.SetDefault("CV_FOLDS", 5)
	viper.SetDefault("SEED", 42)
	viper.SetDefault("PROMOTION_THRESHOLD", 0.5)
	viper.SetDefault("MIN_IMPROVEMENT", 0.0)
	viper.SetDefault("RUN_TIMEOUT", "30m")
	viper.SetDefault("LOG_LEVEL", "info")

	return &Config{
		DBPath:               viper.GetString("DB_PATH"),
		CSVPaths:             viper.GetStringSlice("CSV_PATHS"),
		ArtifactPath:         viper.GetString("ARTIFACT_PATH"),
		TrainingLogPath:      viper.GetString("TRAINING_LOG_PATH"),
		ReportDir:            viper.GetString("REPORT_DIR"),
		LockPath:             viper.GetString("LOCK_PATH"),
		PerformanceThreshold: viper.GetFloat64("PERFORMANCE_THRESHOLD"),
		MinNewDataPoints:     viper.GetInt64("MIN_NEW_DATA_POINTS"),
		ScheduleIntervalDays: viper.GetInt("SCHEDULE_INTERVAL_DAYS"),
		TestFraction:         viper.GetFloat64("TEST_FRACTION"),
		CVFolds:              viper.GetInt("CV_FOLDS"),
		Seed:                 viper.GetInt64("SEED"),
		PromotionThreshold:   viper.GetFloat64("PROMOTION_THRESHOLD"),
		MinImprovement:       viper.GetFloat64("MIN_IMPROVEMENT"),
		RunTimeout:           viper.GetDuration("RUN_TIMEOUT"),
		LogLevel:             viper.GetString("LOG_LEVEL"),
	}
}
