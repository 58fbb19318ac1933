package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	MySQLDSN  string
	RedisURL  string
	JWTSecret string
	Port      string

	// Ledger node endpoints and deployed object ids.
	RPCURL        string
	WSURL         string
	PackageID     string
	ClaimHandler  string
	OrgHandler    string
	ClockObjectID string
	SenderAddress string

	PollInterval int

	// Optional Discord announcements.
	DiscordToken   string
	DiscordChannel string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	pi, _ := strconv.Atoi(getenv("POLL_INTERVAL", "60"))
	return Config{
		MySQLDSN:      getenv("MYSQL_DSN", "carbon:carbon@tcp(127.0.0.1:3306)/carbon"),
		RedisURL:      getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		JWTSecret:     getenv("JWT_SECRET", ""),
		Port:          getenv("PORT", "8080"),
		RPCURL:        getenv("LEDGER_RPC_URL", "http://127.0.0.1:9000"),
		WSURL:         getenv("LEDGER_WS_URL", "ws://127.0.0.1:9001"),
		PackageID:     getenv("PACKAGE_ID", ""),
		ClaimHandler:  getenv("CLAIM_HANDLER_ID", ""),
		OrgHandler:    getenv("ORG_HANDLER_ID", ""),
		ClockObjectID: getenv("CLOCK_OBJECT_ID", "0x6"),
		SenderAddress: getenv("SENDER_ADDRESS", ""),
		PollInterval:  pi,
		// Discord announcements are optional; empty disables them.
		DiscordToken:   os.Getenv("DISCORD_TOKEN"),
		DiscordChannel: os.Getenv("DISCORD_CHANNEL_ID"),
	}
}
