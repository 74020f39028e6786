package bootstrap

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	KatagoPath    string `mapstructure:"KATAGO_PATH"`
	KatagoConfig  string `mapstructure:"KATAGO_CONFIG"`
	KatagoModel   string `mapstructure:"KATAGO_MODEL"`
	CalcEnabled   bool   `mapstructure:"CALC_ENABLED"`
	CacheBackend  string `mapstructure:"CACHE_BACKEND"`
	CachePath     string `mapstructure:"CACHE_PATH"`
	CacheCompress bool   `mapstructure:"CACHE_COMPRESS"`
	RedisUrl      string `mapstructure:"REDIS_URL"`
	MongoUri      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`
	OutputCsv     string `mapstructure:"OUTPUT_CSV"`
	OutputReport  string `mapstructure:"OUTPUT_REPORT"`
	OutputPdf     string `mapstructure:"OUTPUT_PDF"`
	SearchSizes   string `mapstructure:"SEARCH_SIZES"`
	Workers       int    `mapstructure:"WORKERS"`
	ServerPort    string `mapstructure:"SERVER_PORT"`
	OracleAddr    string `mapstructure:"ORACLE_ADDR"`
	OraclePort    string `mapstructure:"ORACLE_PORT"`
}

// SizeLimit is one board size of the exhaustive search and the largest stone
// count enumerated on it.
type SizeLimit struct {
	Size      int
	MaxStones int
}

var defaults = map[string]any{
	"KATAGO_PATH":    "katago",
	"KATAGO_CONFIG":  "default_analysis.cfg",
	"KATAGO_MODEL":   "",
	"CALC_ENABLED":   true,
	"CACHE_BACKEND":  "bolt",
	"CACHE_PATH":     "katago.db",
	"CACHE_COMPRESS": false,
	"REDIS_URL":      "localhost:6379",
	"MONGO_URI":      "",
	"MONGO_DATABASE": "komisearch",
	"OUTPUT_CSV":     "out.csv",
	"OUTPUT_REPORT":  "report.md",
	"OUTPUT_PDF":     "",
	"SEARCH_SIZES":   "9:2,19:2",
	"WORKERS":        1,
	"SERVER_PORT":    "8080",
	"ORACLE_ADDR":    "",
	"ORACLE_PORT":    "8082",
}

func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	v.SetConfigFile(cfgPath)
	v.SetConfigType("env")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return &cfg, nil
}

// Sizes parses SEARCH_SIZES ("9:2,19:2") into limits sorted by board size.
func (c *Config) Sizes() ([]SizeLimit, error) {
	var limits []SizeLimit
	for _, part := range strings.Split(c.SearchSizes, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sizeStr, maxStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("bad SEARCH_SIZES entry %q, want size:stones", part)
		}
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return nil, fmt.Errorf("bad board size in %q: %w", part, err)
		}
		maxStones, err := strconv.Atoi(maxStr)
		if err != nil {
			return nil, fmt.Errorf("bad stone count in %q: %w", part, err)
		}
		if size < 1 || size > 25 || maxStones < 0 {
			return nil, fmt.Errorf("SEARCH_SIZES entry %q out of range", part)
		}
		limits = append(limits, SizeLimit{Size: size, MaxStones: maxStones})
	}
	sort.Slice(limits, func(i, j int) bool {
		return limits[i].Size < limits[j].Size
	})
	return limits, nil
}
