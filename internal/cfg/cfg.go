package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mollybeach/ai-rug-checker/internal/common"
	"github.com/mollybeach/ai-rug-checker/internal/features"
	"github.com/mollybeach/ai-rug-checker/internal/ml"
	"github.com/mollybeach/ai-rug-checker/internal/risk"
)

type Settings struct {
	APIKey      string
	APIPort     int
	MetricsPort int
	LogLevel    string
	LogFormat   string

	DataPath      string
	CorpusBackend string
	DatabaseURL   string

	ModelPath           string
	ModelKey            string
	ModelBackend        string
	Epochs              int
	LearningRate        float64
	ProbThreshold       float64
	FallbackToHeuristic bool
	TrainInterval       time.Duration

	ScoringPolicy    string
	ScoringThreshold float64
	ReasonThreshold  float64
	MinFactors       int

	DefaultsPolicy     string
	BundlerThreshold   float64
	BundlerMinGroup    int
	StealthTxThreshold int

	Chains             []string
	ExplorerKeys       map[string]string
	DexScreenerURL     string
	RPCURL             string
	SourceRPS          float64
	RESTTimeout        time.Duration
	ScanInterval       time.Duration
	ScanBlocks         int
	CollectConcurrency int

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	S3 S3Settings
}

type S3Settings struct {
	Endpoint       string `yaml:"endpoint"`
	Region         string `yaml:"region"`
	Bucket         string `yaml:"bucket"`
	AccessKey      string `yaml:"accessKey"`
	SecretKey      string `yaml:"secretKey"`
	ForcePathStyle bool   `yaml:"forcePathStyle"`
}

type ConfigFile struct {
	API struct {
		Key  string `yaml:"key"`
		Port int    `yaml:"port"`
	} `yaml:"api"`

	Scoring struct {
		Policy          string  `yaml:"policy"`
		Threshold       float64 `yaml:"threshold"`
		ReasonThreshold float64 `yaml:"reasonThreshold"`
		MinFactors      int     `yaml:"minFactors"`
	} `yaml:"scoring"`

	Features struct {
		MissingDataPolicy  string  `yaml:"missingDataPolicy"`
		BundlerThreshold   float64 `yaml:"bundlerThreshold"`
		BundlerMinGroup    int     `yaml:"bundlerMinGroup"`
		StealthTxThreshold int     `yaml:"stealthTxThreshold"`
	} `yaml:"features"`

	ML struct {
		ModelPath           string  `yaml:"modelPath"`
		ModelKey            string  `yaml:"modelKey"`
		Backend             string  `yaml:"backend"`
		Epochs              int     `yaml:"epochs"`
		LearningRate        float64 `yaml:"learningRate"`
		ProbThreshold       float64 `yaml:"probThreshold"`
		FallbackToHeuristic *bool   `yaml:"fallbackToHeuristic"`
		TrainInterval       string  `yaml:"trainInterval"`
	} `yaml:"ml"`

	Sources struct {
		Chains             []string          `yaml:"chains"`
		ExplorerKeys       map[string]string `yaml:"explorerKeys"`
		DexScreenerURL     string            `yaml:"dexScreenerURL"`
		RPCURL             string            `yaml:"rpcURL"`
		RequestsPerSecond  float64           `yaml:"requestsPerSecond"`
		RESTTimeout        string            `yaml:"restTimeout"`
		ScanInterval       string            `yaml:"scanInterval"`
		ScanBlocks         int               `yaml:"scanBlocks"`
		CollectConcurrency int               `yaml:"collectConcurrency"`
	} `yaml:"sources"`

	Storage struct {
		CorpusBackend string `yaml:"corpusBackend"`
		DatabaseURL   string `yaml:"databaseURL"`
	} `yaml:"storage"`

	Cache struct {
		RedisAddr     string `yaml:"redisAddr"`
		RedisPassword string `yaml:"redisPassword"`
		TTL           string `yaml:"ttl"`
	} `yaml:"cache"`

	S3 S3Settings `yaml:"s3"`

	System struct {
		DataPath    string `yaml:"dataPath"`
		MetricsPort int    `yaml:"metricsPort"`
		LogLevel    string `yaml:"logLevel"`
		LogFormat   string `yaml:"logFormat"`
	} `yaml:"system"`
}

// Load reads settings from the YAML file named by CONFIG_FILE, or from the
// environment when it is unset. A .env file in the working directory is
// loaded first if present; variables already set are not overwritten.
func Load() (Settings, error) {
	_ = godotenv.Load()

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	fallback := true
	if config.ML.FallbackToHeuristic != nil {
		fallback = *config.ML.FallbackToHeuristic
	}

	settings := Settings{
		APIKey:      getEnvOrDefault(common.EnvAPIKey, config.API.Key),
		APIPort:     getIntFromEnvOrConfig(common.EnvAPIPort, config.API.Port, common.DefaultAPIPort),
		MetricsPort: getIntFromEnvOrConfig(common.EnvMetricsPort, config.System.MetricsPort, common.DefaultMetricsPort),
		LogLevel:    getStringFromEnvOrConfig(common.EnvLogLevel, config.System.LogLevel, common.DefaultLogLevel),
		LogFormat:   getStringFromEnvOrConfig(common.EnvLogFormat, config.System.LogFormat, "json"),

		DataPath:      getStringFromEnvOrConfig(common.EnvDataPath, config.System.DataPath, common.DefaultDataPath),
		CorpusBackend: getStringFromEnvOrConfig(common.EnvCorpusBackend, config.Storage.CorpusBackend, common.DefaultCorpusBackend),
		DatabaseURL:   getEnvOrDefault(common.EnvDatabaseURL, config.Storage.DatabaseURL),

		ModelPath:           getStringFromEnvOrConfig(common.EnvModelPath, config.ML.ModelPath, common.DefaultModelPath),
		ModelKey:            getStringFromEnvOrConfig(common.EnvModelKey, config.ML.ModelKey, common.DefaultModelKey),
		ModelBackend:        getStringFromEnvOrConfig(common.EnvModelBackend, config.ML.Backend, common.DefaultModelBackend),
		Epochs:              getIntFromEnvOrConfig(common.EnvEpochs, config.ML.Epochs, common.DefaultEpochs),
		LearningRate:        getFloatFromEnvOrConfig(common.EnvLearningRate, config.ML.LearningRate, common.DefaultLearningRate),
		ProbThreshold:       getFloatFromEnvOrConfig(common.EnvProbThreshold, config.ML.ProbThreshold, common.DefaultProbThreshold),
		FallbackToHeuristic: getBoolFromEnvOrConfig(common.EnvFallbackHeuristic, fallback),
		TrainInterval:       getDurationFromEnvOrConfig(common.EnvTrainInterval, config.ML.TrainInterval, common.DefaultTrainInterval),

		ScoringPolicy:    getStringFromEnvOrConfig(common.EnvScoringPolicy, config.Scoring.Policy, common.DefaultScoringPolicy),
		ScoringThreshold: getFloatFromEnvOrConfig(common.EnvScoringThreshold, config.Scoring.Threshold, common.DefaultScoringThreshold),
		ReasonThreshold:  getFloatFromEnvOrConfig(common.EnvReasonThreshold, config.Scoring.ReasonThreshold, common.DefaultReasonThreshold),
		MinFactors:       getIntFromEnvOrConfig(common.EnvMinFactors, config.Scoring.MinFactors, common.DefaultMinFactors),

		DefaultsPolicy:     getStringFromEnvOrConfig(common.EnvDefaultsPolicy, config.Features.MissingDataPolicy, common.DefaultDefaultsPolicy),
		BundlerThreshold:   getFloatFromEnvOrConfig(common.EnvBundlerThreshold, config.Features.BundlerThreshold, common.DefaultBundlerThreshold),
		BundlerMinGroup:    getIntFromEnvOrConfig(common.EnvBundlerMinGroup, config.Features.BundlerMinGroup, common.DefaultBundlerMinGroup),
		StealthTxThreshold: getIntFromEnvOrConfig(common.EnvStealthTxThreshold, config.Features.StealthTxThreshold, common.DefaultStealthTxThreshold),

		Chains:             getChainsFromEnvOrConfig(config.Sources.Chains),
		ExplorerKeys:       explorerKeys(config.Sources.ExplorerKeys),
		DexScreenerURL:     getStringFromEnvOrConfig(common.EnvDexScreenerURL, config.Sources.DexScreenerURL, common.DefaultDexScreenerURL),
		RPCURL:             getEnvOrDefault(common.EnvRPCURL, config.Sources.RPCURL),
		SourceRPS:          getFloatFromEnvOrConfig(common.EnvSourceRPS, config.Sources.RequestsPerSecond, common.DefaultSourceRPS),
		RESTTimeout:        getDurationFromEnvOrConfig(common.EnvRESTTimeout, config.Sources.RESTTimeout, common.DefaultRESTTimeout),
		ScanInterval:       getDurationFromEnvOrConfig(common.EnvScanInterval, config.Sources.ScanInterval, common.DefaultScanInterval),
		ScanBlocks:         getIntFromEnvOrConfig(common.EnvScanBlocks, config.Sources.ScanBlocks, common.DefaultScanBlocks),
		CollectConcurrency: getIntFromEnvOrConfig(common.EnvCollectConcurrency, config.Sources.CollectConcurrency, common.DefaultCollectConcurrency),

		RedisAddr:     getEnvOrDefault(common.EnvRedisAddr, config.Cache.RedisAddr),
		RedisPassword: getEnvOrDefault(common.EnvRedisPassword, config.Cache.RedisPassword),
		CacheTTL:      getDurationFromEnvOrConfig(common.EnvAssessmentCacheTTL, config.Cache.TTL, common.DefaultAssessmentCacheTTL),

		S3: s3FromEnv(config.S3),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		APIKey:      os.Getenv(common.EnvAPIKey), // optional
		APIPort:     getIntOrDefault(common.EnvAPIPort, common.DefaultAPIPort),
		MetricsPort: getIntOrDefault(common.EnvMetricsPort, common.DefaultMetricsPort),
		LogLevel:    getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogFormat:   getEnvOrDefault(common.EnvLogFormat, "json"),

		DataPath:      getEnvOrDefault(common.EnvDataPath, common.DefaultDataPath),
		CorpusBackend: getEnvOrDefault(common.EnvCorpusBackend, common.DefaultCorpusBackend),
		DatabaseURL:   os.Getenv(common.EnvDatabaseURL),

		ModelPath:           getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		ModelKey:            getEnvOrDefault(common.EnvModelKey, common.DefaultModelKey),
		ModelBackend:        getEnvOrDefault(common.EnvModelBackend, common.DefaultModelBackend),
		Epochs:              getIntOrDefault(common.EnvEpochs, common.DefaultEpochs),
		LearningRate:        getFloatOrDefault(common.EnvLearningRate, common.DefaultLearningRate),
		ProbThreshold:       getFloatOrDefault(common.EnvProbThreshold, common.DefaultProbThreshold),
		FallbackToHeuristic: getBoolOrDefault(common.EnvFallbackHeuristic, true),
		TrainInterval:       getDurationOrDefault(common.EnvTrainInterval, common.DefaultTrainInterval),

		ScoringPolicy:    getEnvOrDefault(common.EnvScoringPolicy, common.DefaultScoringPolicy),
		ScoringThreshold: getFloatOrDefault(common.EnvScoringThreshold, common.DefaultScoringThreshold),
		ReasonThreshold:  getFloatOrDefault(common.EnvReasonThreshold, common.DefaultReasonThreshold),
		MinFactors:       getIntOrDefault(common.EnvMinFactors, common.DefaultMinFactors),

		DefaultsPolicy:     getEnvOrDefault(common.EnvDefaultsPolicy, common.DefaultDefaultsPolicy),
		BundlerThreshold:   getFloatOrDefault(common.EnvBundlerThreshold, common.DefaultBundlerThreshold),
		BundlerMinGroup:    getIntOrDefault(common.EnvBundlerMinGroup, common.DefaultBundlerMinGroup),
		StealthTxThreshold: getIntOrDefault(common.EnvStealthTxThreshold, common.DefaultStealthTxThreshold),

		Chains:             getChainsFromEnvOrConfig(nil),
		ExplorerKeys:       explorerKeys(nil),
		DexScreenerURL:     getEnvOrDefault(common.EnvDexScreenerURL, common.DefaultDexScreenerURL),
		RPCURL:             os.Getenv(common.EnvRPCURL),
		SourceRPS:          getFloatOrDefault(common.EnvSourceRPS, common.DefaultSourceRPS),
		RESTTimeout:        getDurationOrDefault(common.EnvRESTTimeout, common.DefaultRESTTimeout),
		ScanInterval:       getDurationOrDefault(common.EnvScanInterval, common.DefaultScanInterval),
		ScanBlocks:         getIntOrDefault(common.EnvScanBlocks, common.DefaultScanBlocks),
		CollectConcurrency: getIntOrDefault(common.EnvCollectConcurrency, common.DefaultCollectConcurrency),

		RedisAddr:     os.Getenv(common.EnvRedisAddr),
		RedisPassword: os.Getenv(common.EnvRedisPassword),
		CacheTTL:      getDurationOrDefault(common.EnvAssessmentCacheTTL, common.DefaultAssessmentCacheTTL),

		S3: s3FromEnv(S3Settings{}),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// ExtractorConfig returns the feature extraction settings.
func (s *Settings) ExtractorConfig() features.Config {
	return features.Config{
		Defaults:                 features.DefaultsPolicy(s.DefaultsPolicy),
		BundlerVarianceThreshold: s.BundlerThreshold,
		BundlerMinGroupSize:      s.BundlerMinGroup,
		StealthTxThreshold:       s.StealthTxThreshold,
	}
}

// ScorerConfig returns the heuristic scoring settings.
func (s *Settings) ScorerConfig() risk.Config {
	return risk.Config{
		Policy:          risk.Policy(s.ScoringPolicy),
		Threshold:       s.ScoringThreshold,
		ReasonThreshold: s.ReasonThreshold,
		MinFactors:      s.MinFactors,
	}
}

// TrainerConfig returns the classifier training settings.
func (s *Settings) TrainerConfig() ml.TrainerConfig {
	return ml.TrainerConfig{
		Epochs:       s.Epochs,
		LearningRate: s.LearningRate,
		ModelKey:     s.ModelKey,
	}
}

// ExplorerKey returns the block explorer API key for chain, if any.
func (s *Settings) ExplorerKey(chain string) string {
	return s.ExplorerKeys[chain]
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getStringFromEnvOrConfig(key, configValue, defaultValue string) string {
	if env := os.Getenv(key); env != "" {
		return env
	}
	if configValue != "" {
		return configValue
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

func getDurationFromEnvOrConfig(key, configValue string, defaultValue time.Duration) time.Duration {
	if env := os.Getenv(key); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			return d
		}
	}
	if d, err := time.ParseDuration(configValue); err == nil {
		return d
	}
	return defaultValue
}

func getChainsFromEnvOrConfig(configChains []string) []string {
	if env := os.Getenv(common.EnvChains); env != "" {
		return splitList(env)
	}
	if len(configChains) > 0 {
		return configChains
	}
	return []string{common.ChainEthereum}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(strings.ToLower(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func explorerKeys(configKeys map[string]string) map[string]string {
	keys := make(map[string]string, len(common.ExplorerURLs))
	for chain, key := range configKeys {
		keys[strings.ToLower(chain)] = key
	}
	for chain, env := range map[string]string{
		common.ChainEthereum: common.EnvEtherscanAPIKey,
		common.ChainBSC:      common.EnvBscscanAPIKey,
		common.ChainPolygon:  common.EnvPolygonscanAPIKey,
	} {
		if v := os.Getenv(env); v != "" {
			keys[chain] = v
		}
	}
	return keys
}

func s3FromEnv(c S3Settings) S3Settings {
	return S3Settings{
		Endpoint:       getEnvOrDefault(common.EnvS3Endpoint, c.Endpoint),
		Region:         getEnvOrDefault(common.EnvS3Region, c.Region),
		Bucket:         getEnvOrDefault(common.EnvS3Bucket, c.Bucket),
		AccessKey:      getEnvOrDefault(common.EnvS3AccessKey, c.AccessKey),
		SecretKey:      getEnvOrDefault(common.EnvS3SecretKey, c.SecretKey),
		ForcePathStyle: getBoolFromEnvOrConfig(common.EnvS3ForcePathStyle, c.ForcePathStyle),
	}
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	// Ports
	if settings.APIPort < common.MinPort || settings.APIPort > common.MaxPort {
		return fmt.Errorf("API port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.APIPort)
	}
	if settings.MetricsPort < common.MinPort || settings.MetricsPort > common.MaxPort {
		return fmt.Errorf("metrics port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.MetricsPort)
	}
	if settings.APIPort == settings.MetricsPort {
		return fmt.Errorf("API port and metrics port must differ, both are %d", settings.APIPort)
	}
	switch settings.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be json or console, got %q", settings.LogFormat)
	}

	// Storage
	switch settings.CorpusBackend {
	case "bolt":
		if settings.DataPath == "" {
			return fmt.Errorf("data path is required for the bolt corpus")
		}
	case "postgres":
		if settings.DatabaseURL == "" {
			return fmt.Errorf("database URL is required for the postgres corpus")
		}
	default:
		return fmt.Errorf("corpus backend must be bolt or postgres, got %q", settings.CorpusBackend)
	}
	switch settings.ModelBackend {
	case "file":
		if settings.ModelPath == "" {
			return fmt.Errorf("model path is required for the file model store")
		}
	case "s3":
		if settings.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required for the s3 model store")
		}
	default:
		return fmt.Errorf("model backend must be file or s3, got %q", settings.ModelBackend)
	}
	if settings.ModelKey == "" {
		return fmt.Errorf("model key cannot be empty")
	}

	// Training and inference
	if settings.Epochs < common.MinEpochs || settings.Epochs > common.MaxEpochs {
		return fmt.Errorf("epochs must be between %d and %d, got %d", common.MinEpochs, common.MaxEpochs, settings.Epochs)
	}
	if settings.LearningRate <= 0 || settings.LearningRate > common.MaxLearningRate {
		return fmt.Errorf("learning rate must be between 0 and %g, got %f", common.MaxLearningRate, settings.LearningRate)
	}
	if settings.ProbThreshold < 0 || settings.ProbThreshold > 1 {
		return fmt.Errorf("probability threshold must be between 0 and 1, got %f", settings.ProbThreshold)
	}
	if settings.TrainInterval < 0 {
		return fmt.Errorf("training interval cannot be negative, got %v", settings.TrainInterval)
	}

	// Scoring
	switch risk.Policy(settings.ScoringPolicy) {
	case risk.PolicyMean, risk.PolicyFactors:
	default:
		return fmt.Errorf("scoring policy must be mean or factors, got %q", settings.ScoringPolicy)
	}
	if settings.ScoringThreshold < 0 || settings.ScoringThreshold > 1 {
		return fmt.Errorf("scoring threshold must be between 0 and 1, got %f", settings.ScoringThreshold)
	}
	if settings.ReasonThreshold < 0 || settings.ReasonThreshold > 1 {
		return fmt.Errorf("reason threshold must be between 0 and 1, got %f", settings.ReasonThreshold)
	}
	if settings.MinFactors < 1 || settings.MinFactors > 4 {
		return fmt.Errorf("minimum risk factors must be between 1 and 4, got %d", settings.MinFactors)
	}

	// Features
	switch features.DefaultsPolicy(settings.DefaultsPolicy) {
	case features.DefaultsConservative, features.DefaultsNeutral:
	default:
		return fmt.Errorf("missing data policy must be conservative or neutral, got %q", settings.DefaultsPolicy)
	}
	if settings.BundlerThreshold <= 0 {
		return fmt.Errorf("bundler variance threshold must be positive, got %f", settings.BundlerThreshold)
	}
	if settings.BundlerMinGroup < common.MinBundlerGroup {
		return fmt.Errorf("bundler minimum group size must be at least %d, got %d", common.MinBundlerGroup, settings.BundlerMinGroup)
	}
	if settings.StealthTxThreshold <= 0 {
		return fmt.Errorf("stealth transaction threshold must be positive, got %d", settings.StealthTxThreshold)
	}

	// Sources
	if len(settings.Chains) == 0 {
		return fmt.Errorf("at least one chain must be specified")
	}
	for _, chain := range settings.Chains {
		if _, ok := common.ExplorerURLs[chain]; !ok {
			return fmt.Errorf("unsupported chain %q", chain)
		}
	}
	if settings.DexScreenerURL == "" {
		return fmt.Errorf("DexScreener URL cannot be empty")
	}
	if settings.SourceRPS <= 0 || settings.SourceRPS > 100 {
		return fmt.Errorf("source requests per second must be between 0 and 100, got %f", settings.SourceRPS)
	}
	if settings.RESTTimeout < time.Second || settings.RESTTimeout > time.Minute {
		return fmt.Errorf("REST timeout must be between 1s and 1m, got %v", settings.RESTTimeout)
	}
	if settings.ScanInterval < 10*time.Second {
		return fmt.Errorf("scan interval must be at least 10s, got %v", settings.ScanInterval)
	}
	if settings.ScanBlocks <= 0 || settings.ScanBlocks > 1000 {
		return fmt.Errorf("scan blocks must be between 1 and 1000, got %d", settings.ScanBlocks)
	}
	if settings.CollectConcurrency <= 0 || settings.CollectConcurrency > 64 {
		return fmt.Errorf("collect concurrency must be between 1 and 64, got %d", settings.CollectConcurrency)
	}

	// Cache
	if settings.RedisAddr != "" && settings.CacheTTL <= 0 {
		return fmt.Errorf("assessment cache TTL must be positive, got %v", settings.CacheTTL)
	}

	return nil
}
