package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	clowder "github.com/redhatinsights/app-common-go/pkg/api/v1"

	"github.com/spf13/viper"
)

// LedgerConfig represents the runtime configuration
type LedgerConfig struct {
	Hostname             string
	DatabaseHostname     string
	DatabasePort         int
	DatabaseName         string
	DatabaseUsername     string
	DatabasePassword     string
	DatabaseSSLMode      string
	KafkaBrokers         []string
	KafkaGroupID         string
	KafkaTopic           string
	WebPort              int
	MetricsPort          int
	OpenshiftBuildCommit string
	Version              string
	LogGroup             string
	LogLevel             string
	AwsRegion            string
	AwsAccessKeyId       string
	AwsSecretAccessKey   string
	CalculatorURL        string
	CalculatorPSK        string
	CalculatorTimeout    time.Duration
	CORSAllowedOrigins   []string
	Debug                bool
	UseClowder           bool
}

// Get returns an initialized LedgerConfig
func Get() *LedgerConfig {

	options := viper.New()

	if os.Getenv("CLOWDER_ENABLED") == "true" {
		cfg := clowder.LoadedConfig

		options.SetDefault("DatabaseHostname", cfg.Database.Hostname)
		options.SetDefault("DatabasePort", cfg.Database.Port)
		options.SetDefault("DatabaseName", cfg.Database.Name)
		options.SetDefault("DatabaseUsername", cfg.Database.Username)
		options.SetDefault("DatabasePassword", cfg.Database.Password)
		options.SetDefault("DatabaseSSLMode", "prefer")
		options.SetDefault("WebPort", cfg.WebPort)
		options.SetDefault("MetricsPort", cfg.MetricsPort)
		if len(cfg.Kafka.Brokers) > 0 {
			options.SetDefault("KafkaBrokers", []string{fmt.Sprintf("%s:%v", cfg.Kafka.Brokers[0].Hostname, *cfg.Kafka.Brokers[0].Port)})
		}
		options.SetDefault("LogGroup", cfg.Logging.Cloudwatch.LogGroup)
		options.SetDefault("AwsRegion", cfg.Logging.Cloudwatch.Region)
		options.SetDefault("AwsAccessKeyId", cfg.Logging.Cloudwatch.AccessKeyId)
		options.SetDefault("AwsSecretAccessKey", cfg.Logging.Cloudwatch.SecretAccessKey)
	} else {
		options.SetDefault("WebPort", 3000)
		options.SetDefault("MetricsPort", 8080)
		kafkaBroker := fmt.Sprintf("%s:%s", os.Getenv("QUEUE_HOST"), os.Getenv("QUEUE_PORT"))
		options.SetDefault("KafkaBrokers", []string{kafkaBroker})
		options.SetDefault("LogGroup", "platform-dev")
		options.SetDefault("AwsRegion", "us-east-1")
		options.SetDefault("AwsAccessKeyId", os.Getenv("CW_AWS_ACCESS_KEY_ID"))
		options.SetDefault("AwsSecretAccessKey", os.Getenv("CW_AWS_SECRET_ACCESS_KEY"))
		options.SetDefault("DatabaseHostname", os.Getenv("DATABASE_HOST"))
		port, err := strconv.Atoi(os.Getenv("DATABASE_PORT"))
		if err != nil {
			options.SetDefault("DatabasePort", 5432)
		} else {
			options.SetDefault("DatabasePort", port)
		}
		options.SetDefault("DatabaseUsername", os.Getenv("DATABASE_USER"))
		options.SetDefault("DatabasePassword", os.Getenv("DATABASE_PASSWORD"))
		options.SetDefault("DatabaseName", os.Getenv("DATABASE_NAME"))
		options.SetDefault("DatabaseSSLMode", "disable")
	}

	options.SetDefault("KafkaTopic", "platform.carbon.imports")
	options.SetDefault("KafkaGroupID", "carbon_ledger")
	options.SetDefault("LogLevel", "INFO")
	options.SetDefault("CalculatorURL", "http://localhost:8000/api/calculate")
	options.SetDefault("CalculatorPSK", "")
	options.SetDefault("CalculatorTimeout", "30s")
	options.SetDefault("CORSAllowedOrigins", []string{"http://localhost:3001"})
	options.SetDefault("Debug", false)
	options.SetEnvPrefix("CARBON_LEDGER")
	options.AutomaticEnv()
	kubenv := viper.New()
	kubenv.SetDefault("Openshift_Build_Commit", "notrunninginopenshift")
	kubenv.SetDefault("Hostname", "Hostname_Unavailable")
	kubenv.AutomaticEnv()

	return &LedgerConfig{
		Hostname:             kubenv.GetString("Hostname"),
		DatabaseHostname:     options.GetString("DatabaseHostname"),
		DatabasePort:         options.GetInt("DatabasePort"),
		DatabaseName:         options.GetString("DatabaseName"),
		DatabaseUsername:     options.GetString("DatabaseUsername"),
		DatabasePassword:     options.GetString("DatabasePassword"),
		DatabaseSSLMode:      options.GetString("DatabaseSSLMode"),
		KafkaBrokers:         options.GetStringSlice("KafkaBrokers"),
		KafkaGroupID:         options.GetString("KafkaGroupID"),
		KafkaTopic:           options.GetString("KafkaTopic"),
		WebPort:              options.GetInt("WebPort"),
		MetricsPort:          options.GetInt("MetricsPort"),
		Debug:                options.GetBool("Debug"),
		OpenshiftBuildCommit: kubenv.GetString("Openshift_Build_Commit"),
		Version:              "1.0.0",
		LogGroup:             options.GetString("LogGroup"),
		LogLevel:             options.GetString("LogLevel"),
		AwsRegion:            options.GetString("AwsRegion"),
		AwsAccessKeyId:       options.GetString("AwsAccessKeyId"),
		AwsSecretAccessKey:   options.GetString("AwsSecretAccessKey"),
		CalculatorURL:        options.GetString("CalculatorURL"),
		CalculatorPSK:        options.GetString("CalculatorPSK"),
		CalculatorTimeout:    options.GetDuration("CalculatorTimeout"),
		CORSAllowedOrigins:   options.GetStringSlice("CORSAllowedOrigins"),
		UseClowder:           os.Getenv("CLOWDER_ENABLED") == "true",
	}
}

// DSN returns the postgres connection url for gorm
func (c *LedgerConfig) DSN() string {
	sslMode := c.DatabaseSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		c.DatabaseUsername,
		c.DatabasePassword,
		c.DatabaseHostname,
		c.DatabasePort,
		c.DatabaseName,
		sslMode)
}
