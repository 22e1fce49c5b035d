// Package config loads pipeline settings from YAML files, a .env file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DateLayout is the layout of configured dates.
const DateLayout = "2006-01-02"

// Config holds every setting of a pipeline run
type Config struct {
	RootDir    string           `yaml:"root_dir"` // Base directory for data/, reports/ and outputs/
	LogLevel   string           `yaml:"log_level"`
	LogPretty  bool             `yaml:"log_pretty"`
	Port       int              `yaml:"port"`
	Data       DataConfig       `yaml:"data"`
	Features   FeaturesConfig   `yaml:"features"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Portfolio  PortfolioConfig  `yaml:"portfolio"`
	Backtest   BacktestConfig   `yaml:"backtest"`
	Publish    PublishConfig    `yaml:"publish"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
}

// DataConfig parameterizes ingestion
type DataConfig struct {
	SourceDB            string            `yaml:"source_db"` // Relative to RootDir
	Table               string            `yaml:"table"`
	Benchmark           string            `yaml:"benchmark"`
	MinObservations     int               `yaml:"min_observations"`
	TrainEnd            string            `yaml:"train_end"` // YYYY-MM-DD, inclusive end of the training window
	FillMethod          domain.FillMethod `yaml:"fill_method"`
	MaxBenchmarkMissing float64           `yaml:"max_benchmark_missing"`
}

// FeaturesConfig parameterizes the feature matrix builder
type FeaturesConfig struct {
	RiskFreeRate   float64 `yaml:"risk_free_rate"`
	MomentumWindow int     `yaml:"momentum_window"`
	MinHistory     int     `yaml:"min_history"`
	VolOfVolWindow int     `yaml:"vol_of_vol_window"`
	Workers        int     `yaml:"workers"` // 0 = GOMAXPROCS
}

// ClusteringConfig parameterizes the segmentation engine
type ClusteringConfig struct {
	Method         domain.ClusterMethod `yaml:"method"`
	Features       []domain.FeatureName `yaml:"features"`
	NClusters      int                  `yaml:"n_clusters"`
	MinSamples     int                  `yaml:"min_samples"`
	EpsPercentile  float64              `yaml:"eps_percentile"`
	Eps            float64              `yaml:"eps"` // > 0 overrides the automatic radius
	Seed           int64                `yaml:"seed"`
	NInit          int                  `yaml:"n_init"`
	MaxIter        int                  `yaml:"max_iter"`
	Linkage        domain.Linkage       `yaml:"linkage"`
	SegmentNames   domain.SegmentNames  `yaml:"segment_names"`
	ElbowMaxK      int                  `yaml:"elbow_max_k"` // 0 disables the elbow scan
	CompareMethods bool                 `yaml:"compare_methods"`
}

// PortfolioConfig parameterizes scoring and selection
type PortfolioConfig struct {
	ScoreWeights        map[domain.FeatureName]float64 `yaml:"score_weights"`
	OutlierMinReturn    float64                        `yaml:"outlier_min_return"`
	Weighting           domain.WeightingScheme         `yaml:"weighting"`
	MaxWeightPerAsset   float64                        `yaml:"max_weight_per_asset"`
	MaxWeightPerSegment float64                        `yaml:"max_weight_per_segment"`
	ProfilesFile        string                         `yaml:"profiles_file"` // Relative to RootDir
}

// BacktestConfig parameterizes the simulator
type BacktestConfig struct {
	InitialCapital  float64                   `yaml:"initial_capital"`
	TransactionCost float64                   `yaml:"transaction_cost"` // Round trip, split evenly between entry and exit
	RiskFreeRate    float64                   `yaml:"risk_free_rate"`
	RollingWindow   int                       `yaml:"rolling_window"`
	Rebalance       domain.RebalanceFrequency `yaml:"rebalance"`
}

// PublishConfig controls optional report artifacts
type PublishConfig struct {
	Charts   bool   `yaml:"charts"`
	S3Bucket string `yaml:"s3_bucket"` // Empty disables uploading
	S3Prefix string `yaml:"s3_prefix"`
	S3Region string `yaml:"s3_region"`
	// S3-compatible endpoint; empty uses AWS
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3AccessKey string `yaml:"-"`
	S3SecretKey string `yaml:"-"`
}

// ScheduleConfig controls periodic retraining
type ScheduleConfig struct {
	Cron string `yaml:"cron"`
}

// Defaults returns a complete configuration with the standard pipeline values.
func Defaults() *Config {
	return &Config{
		RootDir:   ".",
		LogLevel:  "info",
		LogPretty: true,
		Port:      8080,
		Data: DataConfig{
			SourceDB:            "data/raw/trading_data.db",
			Table:               "prices",
			Benchmark:           "SPY",
			MinObservations:     1260,
			TrainEnd:            "2023-12-31",
			FillMethod:          domain.FillForward,
			MaxBenchmarkMissing: 0.05,
		},
		Features: FeaturesConfig{
			RiskFreeRate:   0.05,
			MomentumWindow: 126,
			MinHistory:     60,
			VolOfVolWindow: 21,
		},
		Clustering: ClusteringConfig{
			Method: domain.ClusterHybrid,
			Features: []domain.FeatureName{
				domain.FeatureAnnualizedReturn,
				domain.FeatureAnnualizedVolatility,
				domain.FeatureSharpeRatio,
				domain.FeatureMaxDrawdown,
				domain.FeatureBeta,
				domain.FeatureVaR95,
				domain.FeatureCVaR95,
				domain.FeatureSkewness,
				domain.FeatureMomentum,
			},
			NClusters:     4,
			MinSamples:    5,
			EpsPercentile: 90,
			Seed:          42,
			NInit:         10,
			MaxIter:       300,
			Linkage:       domain.LinkageAverage,
			SegmentNames:  domain.DefaultSegmentNames(),
		},
		Portfolio: PortfolioConfig{
			ScoreWeights: map[domain.FeatureName]float64{
				domain.FeatureAnnualizedReturn: 0.35,
				domain.FeatureMomentum:         0.30,
				domain.FeatureSharpeRatio:      0.15,
				domain.FeatureBeta:             0.20,
			},
			OutlierMinReturn:    0.0,
			Weighting:           domain.WeightingEqual,
			MaxWeightPerAsset:   0.25,
			MaxWeightPerSegment: 0.60,
			ProfilesFile:        "config/profiles.yaml",
		},
		Backtest: BacktestConfig{
			InitialCapital:  10000,
			TransactionCost: 0.001,
			RiskFreeRate:    0.045,
			RollingWindow:   63,
			Rebalance:       domain.RebalanceQuarterly,
		},
		Publish: PublishConfig{
			Charts:   true,
			S3Prefix: "clusterfolio",
			S3Region: "us-east-1",
		},
		Schedule: ScheduleConfig{
			Cron: "0 6 * * 1",
		},
	}
}

// Load reads settingsPath over the defaults, then applies .env and
// environment overrides. An empty settingsPath uses the defaults only.
func Load(settingsPath string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := Defaults()
	if settingsPath != "" {
		data, err := os.ReadFile(settingsPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("settings file %s: %w", settingsPath, domain.ErrInputNotFound)
			}
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
		// Score weights replace the defaults as a whole; yaml.v3 would merge
		// into the existing map. Segment names intentionally merge.
		defaultWeights := cfg.Portfolio.ScoreWeights
		cfg.Portfolio.ScoreWeights = nil
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse settings file %s: %w", settingsPath, err)
		}
		if cfg.Portfolio.ScoreWeights == nil {
			cfg.Portfolio.ScoreWeights = defaultWeights
		}
	}

	cfg.applyEnv()

	absRoot, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory path: %w", err)
	}
	cfg.RootDir = absRoot

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.RootDir = getEnv("CLUSTERFOLIO_DATA_DIR", c.RootDir)
	c.LogLevel = getEnv("CLUSTERFOLIO_LOG_LEVEL", c.LogLevel)
	c.LogPretty = getEnvAsBool("CLUSTERFOLIO_LOG_PRETTY", c.LogPretty)
	c.Port = getEnvAsInt("CLUSTERFOLIO_PORT", c.Port)
	c.Data.Benchmark = getEnv("CLUSTERFOLIO_BENCHMARK", c.Data.Benchmark)
	c.Clustering.Seed = int64(getEnvAsInt("CLUSTERFOLIO_SEED", int(c.Clustering.Seed)))
	c.Features.RiskFreeRate = getEnvAsFloat("CLUSTERFOLIO_RISK_FREE_RATE", c.Features.RiskFreeRate)
	c.Publish.S3Bucket = getEnv("CLUSTERFOLIO_S3_BUCKET", c.Publish.S3Bucket)
	c.Publish.S3Region = getEnv("AWS_REGION", c.Publish.S3Region)
	c.Publish.S3Endpoint = getEnv("CLUSTERFOLIO_S3_ENDPOINT", c.Publish.S3Endpoint)
	c.Publish.S3AccessKey = getEnv("CLUSTERFOLIO_S3_ACCESS_KEY", c.Publish.S3AccessKey)
	c.Publish.S3SecretKey = getEnv("CLUSTERFOLIO_S3_SECRET_KEY", c.Publish.S3SecretKey)
}

// Validate checks value ranges and normalizes closed enumerations
func (c *Config) Validate() error {
	if c.Data.Benchmark == "" {
		return fmt.Errorf("benchmark ticker is required")
	}
	if _, err := c.TrainCutoff(); err != nil {
		return err
	}
	fill, err := domain.ParseFillMethod(string(c.Data.FillMethod))
	if err != nil {
		return err
	}
	c.Data.FillMethod = fill
	if c.Data.MaxBenchmarkMissing < 0 || c.Data.MaxBenchmarkMissing > 1 {
		return fmt.Errorf("max_benchmark_missing must be within [0, 1], got %v", c.Data.MaxBenchmarkMissing)
	}
	if c.Features.MomentumWindow <= 0 {
		return fmt.Errorf("momentum_window must be positive, got %d", c.Features.MomentumWindow)
	}
	if c.Features.MinHistory < 2 {
		return fmt.Errorf("min_history must be at least 2, got %d", c.Features.MinHistory)
	}
	method, err := domain.ParseClusterMethod(string(c.Clustering.Method))
	if err != nil {
		return err
	}
	c.Clustering.Method = method
	linkage, err := domain.ParseLinkage(string(c.Clustering.Linkage))
	if err != nil {
		return err
	}
	c.Clustering.Linkage = linkage
	if c.Clustering.NClusters <= 0 {
		return fmt.Errorf("n_clusters must be positive, got %d", c.Clustering.NClusters)
	}
	if c.Clustering.MinSamples <= 0 {
		return fmt.Errorf("min_samples must be positive, got %d", c.Clustering.MinSamples)
	}
	if c.Clustering.EpsPercentile <= 0 || c.Clustering.EpsPercentile > 100 {
		return fmt.Errorf("eps_percentile must be within (0, 100], got %v", c.Clustering.EpsPercentile)
	}
	if len(c.Clustering.Features) == 0 {
		return fmt.Errorf("at least one clustering feature is required")
	}
	for _, f := range c.Clustering.Features {
		if _, err := domain.ParseFeatureName(string(f)); err != nil {
			return fmt.Errorf("clustering features: %w", err)
		}
	}
	for f := range c.Portfolio.ScoreWeights {
		if _, err := domain.ParseFeatureName(string(f)); err != nil {
			return fmt.Errorf("score weights: %w", err)
		}
	}
	weighting, err := domain.ParseWeightingScheme(string(c.Portfolio.Weighting))
	if err != nil {
		return err
	}
	c.Portfolio.Weighting = weighting
	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("initial_capital must be positive, got %v", c.Backtest.InitialCapital)
	}
	if c.Backtest.TransactionCost < 0 || c.Backtest.TransactionCost >= 1 {
		return fmt.Errorf("transaction_cost must be within [0, 1), got %v", c.Backtest.TransactionCost)
	}
	rebalance, err := domain.ParseRebalanceFrequency(string(c.Backtest.Rebalance))
	if err != nil {
		return err
	}
	c.Backtest.Rebalance = rebalance
	return nil
}

// TrainCutoff parses the inclusive end date of the training window.
func (c *Config) TrainCutoff() (time.Time, error) {
	t, err := time.Parse(DateLayout, c.Data.TrainEnd)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid train_end %q: %w", c.Data.TrainEnd, err)
	}
	return t, nil
}

// Path resolves a path relative to RootDir.
func (c *Config) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.RootDir, rel)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
