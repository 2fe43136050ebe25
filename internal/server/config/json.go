package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/taskflow/internal/flagx"
	"github.com/dmitrijs2005/taskflow/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration file.
// Durations accept either strings such as "10m" or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP        string         `json:"endpoint_addr_http"`
	DatabaseDSN             string         `json:"database_dsn"`
	SecretKey               string         `json:"secret_key"`
	SessionValidityDuration timex.Duration `json:"session_validity_duration"`
	OTPValidityDuration     timex.Duration `json:"otp_validity_duration"`
	ShutdownTimeout         timex.Duration `json:"shutdown_timeout"`
	CookieSecure            bool           `json:"cookie_secure"`
	SMTPHost                string         `json:"smtp_host"`
	SMTPPort                int            `json:"smtp_port"`
	SMTPUser                string         `json:"smtp_user"`
	SMTPPassword            string         `json:"smtp_password"`
	MailFrom                string         `json:"mail_from"`
	OpenAIAPIKey            string         `json:"openai_api_key"`
	OpenAIBaseURL           string         `json:"openai_base_url"`
	OpenAIModel             string         `json:"openai_model"`
	AITimeout               timex.Duration `json:"ai_timeout"`
	RateRPS                 float64        `json:"rate_rps"`
	RateBurst               int            `json:"rate_burst"`
	TrustProxy              bool           `json:"trust_proxy"`
	LogLevel                string         `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c or -config.
// Only fields present with a non-zero value replace what is already in
// config. An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlay(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.SecretKey, c.SecretKey)
	overlay(&config.SessionValidityDuration, c.SessionValidityDuration.Duration)
	overlay(&config.OTPValidityDuration, c.OTPValidityDuration.Duration)
	overlay(&config.ShutdownTimeout, c.ShutdownTimeout.Duration)
	overlay(&config.CookieSecure, c.CookieSecure)
	overlay(&config.SMTPHost, c.SMTPHost)
	overlay(&config.SMTPPort, c.SMTPPort)
	overlay(&config.SMTPUser, c.SMTPUser)
	overlay(&config.SMTPPassword, c.SMTPPassword)
	overlay(&config.MailFrom, c.MailFrom)
	overlay(&config.OpenAIAPIKey, c.OpenAIAPIKey)
	overlay(&config.OpenAIBaseURL, c.OpenAIBaseURL)
	overlay(&config.OpenAIModel, c.OpenAIModel)
	overlay(&config.AITimeout, c.AITimeout.Duration)
	overlay(&config.RateRPS, c.RateRPS)
	overlay(&config.RateBurst, c.RateBurst)
	overlay(&config.TrustProxy, c.TrustProxy)
	overlay(&config.LogLevel, c.LogLevel)
}

func overlay[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}
