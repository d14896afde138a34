package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/x402-demos/agent-launchpad/chain"
)

func init() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
}

// Config holds every runtime setting, resolved from the environment with
// local-dev defaults.
type Config struct {
	Port    int
	DataDir string

	ChainRPCURL string
	ChainID     int64
	// MasterKey funds freshly created agent wallets. Optional: without it
	// new wallets start empty.
	MasterKey string

	NATSURL   string
	EmbedNATS bool

	OpenAIKey           string
	SerpKey             string
	AmadeusClientID     string
	AmadeusClientSecret string

	// StoreBaseURL is where the auto-buyer reaches the paid store route.
	// Defaults to this process's own server.
	StoreBaseURL string
}

// Load reads the configuration from the environment.
func Load() Config {
	cfg := Config{
		Port:                envInt("PORT", 8080),
		DataDir:             envString("DATA_DIR", "./data"),
		ChainRPCURL:         envString("CHAIN_RPC_URL", chain.DefaultRPCURL),
		ChainID:             int64(envInt("CHAIN_ID", chain.MonadTestnetChainID)),
		MasterKey:           os.Getenv("MASTER_WALLET_KEY"),
		NATSURL:             envString("NATS_URL", "nats://localhost:4222"),
		EmbedNATS:           envBool("EMBED_NATS", true),
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		SerpKey:             os.Getenv("SERP_API_KEY"),
		AmadeusClientID:     os.Getenv("AMADEUS_CLIENT_ID"),
		AmadeusClientSecret: os.Getenv("AMADEUS_CLIENT_SECRET"),
	}
	cfg.StoreBaseURL = envString("STORE_BASE_URL", "http://localhost:"+strconv.Itoa(cfg.Port))
	return cfg
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}
