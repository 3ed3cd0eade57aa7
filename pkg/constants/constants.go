// Package constants provides shared constants for the loan-engine application.
package constants

// DateTimeLayout is the month layout used for schedule dates.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 agora)
	CurrencyTolerance = 0.01
)

// Wizard business rules
const (
	// MinTermYears is the shortest loan term the wizard accepts
	MinTermYears = 4

	// MaxTermYears is the longest loan term the wizard accepts
	MaxTermYears = 30

	// NoPropertyFinancingRatio is the maximum LTV for buyers without another property
	NoPropertyFinancingRatio = 0.75

	// HasPropertyFinancingRatio is the maximum LTV for buyers who keep another property
	HasPropertyFinancingRatio = 0.50

	// SellingPropertyFinancingRatio is the maximum LTV for buyers selling their property
	SellingPropertyFinancingRatio = 0.70
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. LOAN_RATES_MORTGAGE
	EnvPrefix = "LOAN"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024

	// DefaultSessionTTLMinutes is how long an idle wizard session is kept, in minutes
	DefaultSessionTTLMinutes = 60
)

// Cache defaults
const (
	// CacheDriverMemory keeps cached quotes in process
	CacheDriverMemory = "memory"

	// CacheDriverRedis keeps cached quotes in Redis
	CacheDriverRedis = "redis"

	// DefaultCacheTTLSeconds is the default lifetime of a cached quote
	DefaultCacheTTLSeconds = 300
)
