package common

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	logger "github.com/kthomas/go-logger"
)

var (
	// Log is the configured logger
	Log *logger.Logger

	// ConsumeNATSStreamingSubscriptions when true causes the package consumers
	// to establish their NATS jetstream subscriptions at init
	ConsumeNATSStreamingSubscriptions bool

	// OwnerAddress is the address granted the owner role at bootstrap; the
	// hosting environment is responsible for keeping it bound to a real signer
	OwnerAddress string
)

func init() {
	godotenv.Load()

	requireLogger()
	requireEnvironment()
}

func requireLogger() {
	lvl := os.Getenv("LOG_LEVEL")
	if lvl == "" {
		lvl = "INFO"
	}

	var endpoint *string
	if os.Getenv("SYSLOG_ENDPOINT") != "" {
		endpt := os.Getenv("SYSLOG_ENDPOINT")
		endpoint = &endpt
	}

	Log = logger.NewLogger("nexus", lvl, endpoint)
}

func requireEnvironment() {
	ConsumeNATSStreamingSubscriptions = strings.ToLower(os.Getenv("CONSUME_NATS_STREAMING_SUBSCRIPTIONS")) == "true"
	OwnerAddress = os.Getenv("NEXUS_OWNER_ADDRESS")
}

// RequireOwnerAddress panics unless an owner address has been configured
func RequireOwnerAddress() string {
	if OwnerAddress == "" {
		Log.Panicf("failed to resolve owner address; NEXUS_OWNER_ADDRESS not set")
	}
	return OwnerAddress
}
