package config

import (
	"os"
	"strconv"

	"github.com/dmitrijs2005/taskflow/internal/flagx"
	"github.com/joho/godotenv"
)

// parseEnv loads a dotenv file into the process environment and copies the
// recognised variables into config. Variables already set in the environment
// win over the file.
//
// The file is taken from -env; without it ./.env is tried and silently
// skipped when absent. An explicit file that cannot be read panics, as does
// a malformed SMTP_PORT or TRUST_PROXY.
func parseEnv(config *Config) {
	if path := flagx.EnvFileFlag(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else {
		_ = godotenv.Load()
	}

	setString(&config.DatabaseDSN, "DATABASE_URL")
	setString(&config.SecretKey, "SESSION_SECRET")
	setString(&config.SMTPHost, "SMTP_HOST")
	setString(&config.SMTPUser, "EMAIL_USER")
	setString(&config.SMTPPassword, "EMAIL_PASS")
	setString(&config.MailFrom, "MAIL_FROM")
	setString(&config.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&config.OpenAIBaseURL, "OPENAI_BASE_URL")
	setString(&config.OpenAIModel, "OPENAI_MODEL")
	setString(&config.LogLevel, "LOG_LEVEL")

	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		config.EndpointAddrHTTP = ":" + v
	}

	if v, ok := os.LookupEnv("SMTP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.SMTPPort = port
	}

	if v, ok := os.LookupEnv("TRUST_PROXY"); ok && v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		config.TrustProxy = trust
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
