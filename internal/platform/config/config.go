package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// OAuthProviderConfig holds the client credentials for one OAuth provider.
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	FrontendBaseURL string

	// External OAuth providers
	GitHub OAuthProviderConfig
	Google OAuthProviderConfig
	X      OAuthProviderConfig
	Twitch OAuthProviderConfig

	// WebAuthn relying party settings
	WebAuthnRPID          string
	WebAuthnRPDisplayName string
	WebAuthnRPOrigins     []string

	// Strike provider
	StrikeAPIURL  string
	StrikeAPIKey  string // deployment-wide service credential
	StrikeTimeout time.Duration

	// Key material for the encryption service. Base64url, no padding.
	// Missing values are tolerated at load time but fatal at first use of the
	// encryption service.
	StorageEncryptionKey string
	TransitPublicKey     string
	TransitPrivateKey    string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "24h")
	viper.SetDefault("JWT_ISSUER", "tipbit-backend")
	viper.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")
	viper.SetDefault("WEBAUTHN_RP_ID", "localhost")
	viper.SetDefault("WEBAUTHN_RP_DISPLAY_NAME", "Tipbit")
	viper.SetDefault("WEBAUTHN_RP_ORIGINS", "http://localhost:3000")
	viper.SetDefault("STRIKE_API_URL", "https://api.strike.me/v1")
	viper.SetDefault("STRIKE_API_KEY", "")
	viper.SetDefault("STRIKE_TIMEOUT", "10s")
	viper.SetDefault("STORAGE_ENCRYPTION_KEY", "")
	viper.SetDefault("TRANSIT_PUBLIC_KEY", "")
	viper.SetDefault("TRANSIT_PRIVATE_KEY", "")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiryDuration, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiryDuration = 24 * time.Hour
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiryDuration)
	}
	cfg.JWTExpiryDuration = jwtExpiryDuration
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.FrontendBaseURL = viper.GetString("FRONTEND_BASE_URL")

	cfg.GitHub = loadOAuthProvider("GITHUB")
	cfg.Google = loadOAuthProvider("GOOGLE")
	cfg.X = loadOAuthProvider("X")
	cfg.Twitch = loadOAuthProvider("TWITCH")

	cfg.WebAuthnRPID = viper.GetString("WEBAUTHN_RP_ID")
	cfg.WebAuthnRPDisplayName = viper.GetString("WEBAUTHN_RP_DISPLAY_NAME")
	cfg.WebAuthnRPOrigins = viper.GetStringSlice("WEBAUTHN_RP_ORIGINS")

	cfg.StrikeAPIURL = viper.GetString("STRIKE_API_URL")
	cfg.StrikeAPIKey = viper.GetString("STRIKE_API_KEY")
	if cfg.StrikeAPIKey == "" {
		log.Println("Warning: STRIKE_API_KEY not set. Global Strike client will not function.")
	}

	strikeTimeoutStr := viper.GetString("STRIKE_TIMEOUT")
	strikeTimeout, err := time.ParseDuration(strikeTimeoutStr)
	if err != nil {
		strikeTimeout = 10 * time.Second
		log.Printf("Warning: Invalid value for STRIKE_TIMEOUT ('%s'). Defaulting to %s.\n", strikeTimeoutStr, strikeTimeout)
	}
	cfg.StrikeTimeout = strikeTimeout

	cfg.StorageEncryptionKey = viper.GetString("STORAGE_ENCRYPTION_KEY")
	cfg.TransitPublicKey = viper.GetString("TRANSIT_PUBLIC_KEY")
	cfg.TransitPrivateKey = viper.GetString("TRANSIT_PRIVATE_KEY")
	if cfg.StorageEncryptionKey == "" {
		log.Println("Warning: STORAGE_ENCRYPTION_KEY not set. Credential storage will not function.")
	}
	if cfg.TransitPublicKey == "" || cfg.TransitPrivateKey == "" {
		log.Println("Warning: TRANSIT_PUBLIC_KEY / TRANSIT_PRIVATE_KEY not set. Client-encrypted secrets cannot be accepted.")
	}

	return cfg, nil
}

func loadOAuthProvider(prefix string) OAuthProviderConfig {
	viper.SetDefault(prefix+"_CLIENT_ID", "")
	viper.SetDefault(prefix+"_CLIENT_SECRET", "")
	viper.SetDefault(prefix+"_REDIRECT_URL", "")

	p := OAuthProviderConfig{
		ClientID:     viper.GetString(prefix + "_CLIENT_ID"),
		ClientSecret: viper.GetString(prefix + "_CLIENT_SECRET"),
		RedirectURL:  viper.GetString(prefix + "_REDIRECT_URL"),
	}
	if p.ClientID == "" {
		log.Printf("Warning: %s_CLIENT_ID not set. %s OAuth will not function.\n", prefix, prefix)
	}
	return p
}
