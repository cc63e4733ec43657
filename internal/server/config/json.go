package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/flagx"
	"github.com/dmitrijs2005/todokeeper/internal/timex"
)

// JsonConfig mirrors Config for JSON decoding. Pointer fields distinguish
// "absent" from "zero", so a partial file only overrides what it names.
// Durations accept "2h"-style strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	TokenIssuer                 *string         `json:"token_issuer"`
	TokenAudience               *string         `json:"token_audience"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	ResetTokenValidityDuration  *timex.Duration `json:"reset_token_validity_duration"`
	BcryptCost                  *int            `json:"bcrypt_cost"`
	HashWorkers                 *int            `json:"hash_workers"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	PictureURLValidity          *timex.Duration `json:"picture_url_validity"`
	LogLevel                    *string         `json:"log_level"`
}

// parseJson loads the file named by -c/-config (if any) into config.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.TokenIssuer, c.TokenIssuer)
	setString(&config.TokenAudience, c.TokenAudience)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.ResetTokenValidityDuration, c.ResetTokenValidityDuration)
	setInt(&config.BcryptCost, c.BcryptCost)
	setInt(&config.HashWorkers, c.HashWorkers)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDuration(&config.PictureURLValidity, c.PictureURLValidity)
	setString(&config.LogLevel, c.LogLevel)

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
