package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Folders struct {
		// Input is where the source *.txt playlist exports live.
		Input string `mapstructure:"input"`
		// Output is where the mixed playlist files are written.
		Output string `mapstructure:"output"`
	} `mapstructure:"folders"`
	Mix struct {
		TotalTracks        int   `mapstructure:"total_tracks"`
		MaxPerArtist       int   `mapstructure:"max_per_artist"`
		SuppressDuplicates bool  `mapstructure:"suppress_duplicates"`
		Randomize          bool  `mapstructure:"randomize"`
		Seed               int64 `mapstructure:"seed"`
	} `mapstructure:"mix"`
	Server struct {
		Port        string `mapstructure:"port"`
		MetricsPort string `mapstructure:"metrics_port"`
		LogLevel    string `mapstructure:"log_level"`
		JWTSecret   string `mapstructure:"jwt_secret"`
	} `mapstructure:"server"`
}

func Load() *Config {
	viper.SetEnvPrefix("MIXER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Register keys
	viper.BindEnv("folders.input")
	viper.BindEnv("folders.output")

	viper.BindEnv("mix.total_tracks")
	viper.BindEnv("mix.max_per_artist")
	viper.BindEnv("mix.suppress_duplicates")
	viper.BindEnv("mix.randomize")
	viper.BindEnv("mix.seed")

	viper.BindEnv("server.port")
	viper.BindEnv("server.metrics_port")
	viper.BindEnv("server.log_level")
	viper.BindEnv("server.jwt_secret")

	// Defaults (match the classic desktop tool)
	viper.SetDefault("folders.input", "playlists")
	viper.SetDefault("folders.output", "mixed_playlists")

	viper.SetDefault("mix.total_tracks", 1000)
	viper.SetDefault("mix.max_per_artist", 5)
	viper.SetDefault("mix.suppress_duplicates", true)
	viper.SetDefault("mix.randomize", false)
	viper.SetDefault("mix.seed", 0)

	viper.SetDefault("server.port", ":8080")
	viper.SetDefault("server.metrics_port", ":9091")
	viper.SetDefault("server.log_level", "error")
	viper.SetDefault("server.jwt_secret", "change-me-mixer-secret")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Config error: %s", err)
		} else {
			log.Println("Info: config.yaml not found, using Environment Variables only.")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	return &cfg
}
