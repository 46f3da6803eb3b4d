package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// ListeningPortKey is the port where the HTTP interface will listen on
	ListeningPortKey = "LISTENING_PORT"
	// AllowedOriginsKey is the comma separated list of origins allowed by CORS
	AllowedOriginsKey = "ALLOWED_ORIGINS"
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// OwnerAddressKey is the account that deploys and owns the exchange
	// contracts, the test tokens and the native faucet
	OwnerAddressKey = "OWNER_ADDRESS"
	// TokensKey is the comma separated list of SYMBOL:Name test tokens
	// deployed along with the exchange
	TokensKey = "TOKENS"
	// FaucetAmountKey is the amount of native currency, in base units, the
	// owner account is funded with at first start
	FaucetAmountKey = "FAUCET_AMOUNT"
	// KafkaBrokersKey is the comma separated list of brokers where events are
	// published to. Leave empty to disable
	KafkaBrokersKey = "KAFKA_BROKERS"
	// KafkaTopicKey is the kafka topic events are written to
	KafkaTopicKey = "KAFKA_TOPIC"
	// WebhookRequestTimeoutKey is the timeout in seconds of webhook requests
	WebhookRequestTimeoutKey = "WEBHOOK_REQUEST_TIMEOUT"
	// WebhookRateLimitKey is the max number of webhook requests per second
	WebhookRateLimitKey = "WEBHOOK_RATE_LIMIT"
	// EnableProfilerKey enables profiler that can be used to investigate performance issues
	EnableProfilerKey = "ENABLE_PROFILER"
	// StatsIntervalKey defines interval in seconds for printing basic statistics
	StatsIntervalKey = "STATS_INTERVAL"

	DbLocation       = "db"
	ProfilerLocation = "stats"

	DBBadger   = "badger"
	DBInMemory = "inmemory"
)

var (
	vip            *viper.Viper
	defaultDatadir = btcutil.AppDataDir("dexd", false)

	supportedDBs = map[string]bool{
		DBBadger:   true,
		DBInMemory: true,
	}
)

// Token is a test token to deploy at startup.
type Token struct {
	Symbol string
	Name   string
}

func InitConfig() error {
	// A .env file in the working directory is optional.
	_ = godotenv.Load()

	vip = viper.New()
	vip.SetEnvPrefix("DEX")
	vip.AutomaticEnv()

	vip.SetDefault(ListeningPortKey, 9945)
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DBTypeKey, DBBadger)
	vip.SetDefault(TokensKey, "TTA:Test Token A,TTB:Test Token B")
	vip.SetDefault(FaucetAmountKey, "1000000000000000000000000")
	vip.SetDefault(KafkaTopicKey, "dex-events")
	vip.SetDefault(WebhookRequestTimeoutKey, 15)
	vip.SetDefault(WebhookRateLimitKey, 100)
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

// GetDuration reads key as a number of seconds.
func GetDuration(key string) time.Duration {
	return time.Duration(vip.GetInt(key)) * time.Second
}

// GetList reads key as a comma separated list, skipping empty entries.
func GetList(key string) []string {
	list := make([]string, 0)
	for _, v := range strings.Split(vip.GetString(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}
	return list
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetOwner() common.Address {
	return common.HexToAddress(GetString(OwnerAddressKey))
}

func GetTokens() []Token {
	tokens, _ := parseTokens(GetList(TokensKey))
	return tokens
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	dbType := GetString(DBTypeKey)
	if !supportedDBs[dbType] {
		return fmt.Errorf("unsupported db type %q", dbType)
	}

	owner := GetString(OwnerAddressKey)
	if owner == "" {
		return fmt.Errorf("missing owner address")
	}
	if !common.IsHexAddress(owner) || common.HexToAddress(owner) == (common.Address{}) {
		return fmt.Errorf("invalid owner address %q", owner)
	}

	if _, err := parseTokens(GetList(TokensKey)); err != nil {
		return err
	}

	if GetInt(ListeningPortKey) <= 0 {
		return fmt.Errorf("%s must be a positive number", ListeningPortKey)
	}

	if len(GetList(KafkaBrokersKey)) > 0 && strings.TrimSpace(GetString(KafkaTopicKey)) == "" {
		return fmt.Errorf("missing kafka topic")
	}

	return nil
}

func parseTokens(list []string) ([]Token, error) {
	tokens := make([]Token, 0, len(list))
	symbols := make(map[string]bool)
	for _, v := range list {
		symbol, name, ok := strings.Cut(v, ":")
		symbol, name = strings.TrimSpace(symbol), strings.TrimSpace(name)
		if !ok || symbol == "" || name == "" {
			return nil, fmt.Errorf("invalid token %q, must be in the form SYMBOL:Name", v)
		}
		if symbols[symbol] {
			return nil, fmt.Errorf("duplicated token symbol %s", symbol)
		}
		symbols[symbol] = true
		tokens = append(tokens, Token{symbol, name})
	}
	return tokens, nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if GetString(DBTypeKey) == DBBadger {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
			return err
		}
	}

	profilerEnabled := GetBool(EnableProfilerKey)
	if profilerEnabled {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, ProfilerLocation)); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
