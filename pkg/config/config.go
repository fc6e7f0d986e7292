package config

import "github.com/spf13/viper"

// Config carries every externally supplied setting.
type Config struct {
	Port      string
	Env       string
	MongoURI  string
	MongoDB   string
	JWTSecret string

	CloudinaryURL           string
	FirebaseCredentialsPath string

	SMTPHost string
	SMTPPort string
	SMTPFrom string
	SMTPPass string
}

// Load binds environment variables (optionally sourced from .env by the
// caller) with defaults.
func Load() *Config {
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "5000")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("MONGO_DB", "chirp")
	viper.SetDefault("JWT_SECRET", "supersecretjwtkey")
	viper.SetDefault("SMTP_PORT", "587")

	return &Config{
		Port:                    viper.GetString("PORT"),
		Env:                     viper.GetString("ENV"),
		MongoURI:                viper.GetString("MONGO_URI"),
		MongoDB:                 viper.GetString("MONGO_DB"),
		JWTSecret:               viper.GetString("JWT_SECRET"),
		CloudinaryURL:           viper.GetString("CLOUDINARY_URL"),
		FirebaseCredentialsPath: viper.GetString("FIREBASE_CREDENTIALS_PATH"),
		SMTPHost:                viper.GetString("SMTP_HOST"),
		SMTPPort:                viper.GetString("SMTP_PORT"),
		SMTPFrom:                viper.GetString("SMTP_FROM"),
		SMTPPass:                viper.GetString("SMTP_PASS"),
	}
}
