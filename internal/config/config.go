package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tsilva/sandbox-fastmcp/internal/logging"
	"github.com/tsilva/sandbox-fastmcp/internal/wandb"
)

func Init(root *cobra.Command) {
	envFile := ".env"
	if f := os.Getenv(EnvFileVar); f != "" {
		envFile = f
	}
	_ = godotenv.Load(envFile)
	viper.AutomaticEnv()
	if root != nil {
		_ = viper.BindPFlags(root.PersistentFlags())
	}
	setDefaults()
}

func setDefaults() {
	viper.SetDefault(KeyBaseURL, wandb.DefaultBaseURL)
	viper.SetDefault(KeyNetrc, wandb.DefaultNetrcPath())
	viper.SetDefault(KeyHTTPTimeout, wandb.DefaultTimeout)
	viper.SetDefault(KeyPageSize, wandb.DefaultPageSize)
	viper.SetDefault(KeyHistorySamples, 500)
	viper.SetDefault(KeyLogLevel, "info")
	viper.SetDefault(KeyTransport, "stdio")
	viper.SetDefault(KeyHost, "0.0.0.0")
	viper.SetDefault(KeyPort, 8000)
	viper.SetDefault(KeyHTTPEndpoint, "/mcp")
	viper.SetDefault(KeyOTelInsecure, false)
}

func APIKey() string             { return viper.GetString(KeyAPIKey) }
func BaseURL() string            { return viper.GetString(KeyBaseURL) }
func AppURL() string             { return viper.GetString(KeyAppURL) }
func NetrcPath() string          { return viper.GetString(KeyNetrc) }
func HTTPTimeout() time.Duration { return viper.GetDuration(KeyHTTPTimeout) }
func PageSize() int              { return viper.GetInt(KeyPageSize) }
func HistorySamples() int        { return viper.GetInt(KeyHistorySamples) }
func LogLevel() string           { return viper.GetString(KeyLogLevel) }
func Transport() string          { return viper.GetString(KeyTransport) }
func Host() string               { return viper.GetString(KeyHost) }
func Port() int                  { return viper.GetInt(KeyPort) }
func HTTPEndpoint() string       { return viper.GetString(KeyHTTPEndpoint) }
func OTelEndpoint() string       { return viper.GetString(KeyOTelEndpoint) }
func OTelInsecure() bool         { return viper.GetBool(KeyOTelInsecure) }

// WandbClient assembles the remote client settings. The API key may still be
// empty here; it is resolved against the netrc file when dialing.
func WandbClient(log logging.Logger) wandb.Config {
	return wandb.Config{
		BaseURL:  BaseURL(),
		AppURL:   AppURL(),
		APIKey:   APIKey(),
		Timeout:  HTTPTimeout(),
		PageSize: PageSize(),
		Logger:   log,
	}
}
