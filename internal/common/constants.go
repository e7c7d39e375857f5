package common

import "time"

// Supported chains
const (
	ChainEthereum = "ethereum"
	ChainBSC      = "bsc"
	ChainPolygon  = "polygon"
)

// Environment variable keys
const (
	EnvConfigFile          = "CONFIG_FILE"
	EnvAPIKey              = "API_KEY"
	EnvAPIPort             = "PORT"
	EnvMetricsPort         = "METRICS_PORT"
	EnvLogLevel            = "LOG_LEVEL"
	EnvLogFormat           = "LOG_FORMAT"
	EnvDataPath            = "DATA_PATH"
	EnvCorpusBackend       = "CORPUS_BACKEND"
	EnvDatabaseURL         = "DATABASE_URL"
	EnvModelPath           = "MODEL_PATH"
	EnvModelKey            = "MODEL_KEY"
	EnvModelBackend        = "MODEL_BACKEND"
	EnvEpochs              = "TRAINING_EPOCHS"
	EnvLearningRate        = "LEARNING_RATE"
	EnvProbThreshold       = "PROB_THRESHOLD"
	EnvFallbackHeuristic   = "FALLBACK_TO_HEURISTIC"
	EnvTrainInterval       = "TRAINING_INTERVAL"
	EnvScanInterval        = "SCAN_INTERVAL"
	EnvScoringPolicy       = "SCORING_POLICY"
	EnvScoringThreshold    = "SCORING_THRESHOLD"
	EnvReasonThreshold     = "REASON_THRESHOLD"
	EnvMinFactors          = "MIN_RISK_FACTORS"
	EnvDefaultsPolicy      = "MISSING_DATA_POLICY"
	EnvBundlerThreshold    = "BUNDLER_VARIANCE_THRESHOLD"
	EnvBundlerMinGroup     = "BUNDLER_MIN_GROUP_SIZE"
	EnvStealthTxThreshold  = "STEALTH_TX_THRESHOLD"
	EnvEtherscanAPIKey     = "ETHERSCAN_API_KEY"
	EnvBscscanAPIKey       = "BSCSCAN_API_KEY"
	EnvPolygonscanAPIKey   = "POLYGONSCAN_API_KEY"
	EnvDexScreenerURL      = "DEXSCREENER_URL"
	EnvRPCURL              = "ETH_RPC_URL"
	EnvSourceRPS           = "SOURCE_RPS"
	EnvRESTTimeout         = "REST_TIMEOUT"
	EnvRedisAddr           = "REDIS_ADDR"
	EnvRedisPassword       = "REDIS_PASSWORD"
	EnvAssessmentCacheTTL  = "ASSESSMENT_CACHE_TTL"
	EnvS3Endpoint          = "S3_ENDPOINT"
	EnvS3Region            = "S3_REGION"
	EnvS3Bucket            = "S3_BUCKET"
	EnvS3AccessKey         = "S3_ACCESS_KEY"
	EnvS3SecretKey         = "S3_SECRET_KEY"
	EnvS3ForcePathStyle    = "S3_FORCE_PATH_STYLE"
	EnvCollectConcurrency  = "COLLECT_CONCURRENCY"
	EnvScanBlocks          = "SCAN_BLOCKS"
	EnvChains              = "CHAINS"
)

// Configuration defaults
const (
	DefaultAPIPort            = 3000
	DefaultMetricsPort        = 9090
	DefaultLogLevel           = "info"
	DefaultDataPath           = "data"
	DefaultCorpusBackend      = "bolt"
	DefaultModelPath          = "models"
	DefaultModelKey           = "rug-classifier"
	DefaultModelBackend       = "file"
	DefaultEpochs             = 100
	DefaultLearningRate       = 0.01
	DefaultProbThreshold      = 0.5
	DefaultTrainInterval      = 15 * time.Minute
	DefaultScanInterval       = 5 * time.Minute
	DefaultScoringPolicy      = "mean"
	DefaultScoringThreshold   = 0.6
	DefaultReasonThreshold    = 0.7
	DefaultMinFactors         = 2
	DefaultDefaultsPolicy     = "conservative"
	DefaultBundlerThreshold   = 0.1
	DefaultBundlerMinGroup    = 3
	DefaultStealthTxThreshold = 100
	DefaultDexScreenerURL     = "https://api.dexscreener.com"
	DefaultSourceRPS          = 4.0
	DefaultRESTTimeout        = 10 * time.Second
	DefaultAssessmentCacheTTL = 5 * time.Minute
	DefaultCollectConcurrency = 4
	DefaultScanBlocks         = 20
)

// Explorer API endpoints per chain
var ExplorerURLs = map[string]string{
	ChainEthereum: "https://api.etherscan.io/api",
	ChainBSC:      "https://api.bscscan.com/api",
	ChainPolygon:  "https://api.polygonscan.com/api",
}

// Validation constants
const (
	MinPort         = 1024
	MaxPort         = 65535
	MinEpochs       = 1
	MaxEpochs       = 10000
	MaxLearningRate = 1.0
	MinBundlerGroup = 2
)
