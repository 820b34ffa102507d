// config/config.go
package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Configuration stores all the configurations
type Configuration struct {
	Server   ServerConfiguration
	Decision DecisionConfiguration
	Redis    RedisConfiguration
	Audit    AuditConfiguration
}

// ServerConfiguration stores the port and other web server settings
type ServerConfiguration struct {
	Port string
}

// DecisionConfiguration stores the decision-service connection settings
type DecisionConfiguration struct {
	URL          string
	APIKey       string
	CacheBackend string
	CacheTTL     string
}

// RedisConfiguration stores data for Redis connection
type RedisConfiguration struct {
	Addr string
}

// AuditConfiguration stores settings for the decision audit trail
type AuditConfiguration struct {
	Enabled bool
	URL     string
}

var config *Configuration

func InitConfig() error {
	viper.AddConfigPath("config") // path to look for the config file in
	viper.SetConfigName("config") // name of the config file (without extension)
	viper.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name

	viper.AutomaticEnv() // read in environment variables that match

	// Set default configurations
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("decision.url", "http://localhost:8081")
	viper.SetDefault("decision.cacheBackend", "memory")
	viper.SetDefault("decision.cacheTTL", "60s")
	viper.SetDefault("decision.timeout", "10s")
	viper.SetDefault("admission.enabled", false)
	viper.SetDefault("admission.fallback", "fail")
	viper.SetDefault("admission.blockedStatusCode", 429)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("audit.enabled", false)
	viper.SetDefault("audit.url", "http://localhost:9200")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return err
		}
	}

	// Unmarshal the configuration into the Configuration struct
	err := viper.Unmarshal(&config)
	if err != nil {
		return err
	}

	return nil
}

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// GetString retrieves a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from the configuration
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration retrieves a duration value from the configuration
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
