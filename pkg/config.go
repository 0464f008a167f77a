package pkg

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfAddress          = "address"
	ConfStore            = "store"
	ConfDatabase         = "database"
	ConfLogLevel         = "loglevel"
	ConfJWTKey           = "jwt.key"
	ConfJWTIssuer        = "jwt.issuer"
	ConfJWTAudience      = "jwt.audience"
	ConfJWTTTL           = "jwt.ttl"
	ConfEmployeeUsername = "employee.username"
	ConfEmployeePassword = "employee.password"
)

const (
	MemoryStore   = "memory"
	PostgresStore = "postgres"
)

// EnvPrefix is prepended to every config key when it is read from the environment, e.g. NEGOTIATION_JWT_KEY.
const EnvPrefix = "NEGOTIATION"

type JWTConfig struct {
	Key      string
	Issuer   string
	Audience string
	TTL      time.Duration
}

type EmployeeConfig struct {
	Username string
	Password string
}

type NegotiationServiceConfig struct {
	Address  string
	Store    string
	Database string
	LogLevel string
	JWT      JWTConfig
	Employee EmployeeConfig
}

func DefaultConfig() NegotiationServiceConfig {
	return NegotiationServiceConfig{
		Address:  ":1324",
		Store:    MemoryStore,
		LogLevel: "info",
		JWT: JWTConfig{
			Issuer:   "negotiation-service",
			Audience: "negotiation-clients",
			TTL:      30 * time.Minute,
		},
		Employee: EmployeeConfig{
			Username: "employee",
			Password: "password",
		},
	}
}

// FlagSet returns the flags of all config keys, with the defaults as flag defaults.
func FlagSet() *pflag.FlagSet {
	defs := DefaultConfig()
	flags := pflag.NewFlagSet("negotiation", pflag.ContinueOnError)
	flags.String(ConfAddress, defs.Address, "Address the HTTP API listens on")
	flags.String(ConfStore, defs.Store, "Storage backend, memory or postgres")
	flags.String(ConfDatabase, defs.Database, "Postgres connection URL, required for the postgres store")
	flags.String(ConfLogLevel, defs.LogLevel, "Log level (trace, debug, info, warn, error)")
	flags.String(ConfJWTKey, defs.JWT.Key, "HMAC key used to sign login tokens, generated when empty")
	flags.String(ConfJWTIssuer, defs.JWT.Issuer, "Issuer of login tokens")
	flags.String(ConfJWTAudience, defs.JWT.Audience, "Audience of login tokens")
	flags.Duration(ConfJWTTTL, defs.JWT.TTL, "Lifetime of login tokens")
	flags.String(ConfEmployeeUsername, defs.Employee.Username, "Employee login name")
	flags.String(ConfEmployeePassword, defs.Employee.Password, "Employee password")
	return flags
}

// LoadConfig reads the config from flags, NEGOTIATION_ environment variables and an optional config file.
// Flags that were set explicitly win over the environment, which wins over the file.
func LoadConfig(flags *pflag.FlagSet, configFile string) (NegotiationServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return NegotiationServiceConfig{}, fmt.Errorf("unable to bind flags: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return NegotiationServiceConfig{}, fmt.Errorf("unable to read config file %s: %w", configFile, err)
		}
	}

	return NegotiationServiceConfig{
		Address:  v.GetString(ConfAddress),
		Store:    v.GetString(ConfStore),
		Database: v.GetString(ConfDatabase),
		LogLevel: v.GetString(ConfLogLevel),
		JWT: JWTConfig{
			Key:      v.GetString(ConfJWTKey),
			Issuer:   v.GetString(ConfJWTIssuer),
			Audience: v.GetString(ConfJWTAudience),
			TTL:      v.GetDuration(ConfJWTTTL),
		},
		Employee: EmployeeConfig{
			Username: v.GetString(ConfEmployeeUsername),
			Password: v.GetString(ConfEmployeePassword),
		},
	}, nil
}
