package config

const (
	KeyAPIKey         = "wandb_api_key"
	KeyBaseURL        = "wandb_base_url"
	KeyAppURL         = "wandb_app_url"
	KeyNetrc          = "wandb_netrc"
	KeyHTTPTimeout    = "wandb_http_timeout"
	KeyPageSize       = "wandb_page_size"
	KeyHistorySamples = "wandb_history_samples"
	KeyLogLevel       = "log_level"
	KeyTransport      = "transport"
	KeyHost           = "host"
	KeyPort           = "port"
	KeyHTTPEndpoint   = "http_endpoint"
	KeyOTelEndpoint   = "otel_endpoint"
	KeyOTelInsecure   = "otel_insecure"
)

// EnvFileVar names the variable that overrides the dotenv file location.
const EnvFileVar = "WANDB_MCP_ENV_FILE"
