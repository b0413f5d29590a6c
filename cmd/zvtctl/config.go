package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/holzweg/zvt"
	"github.com/holzweg/zvt/catalog"
)

type fileConfig struct {
	Address            string `toml:"address"`
	SerialPort         string `toml:"serial_port"`
	BaudRate           int    `toml:"baud_rate"`
	Password           uint32 `toml:"password"`
	CompletionTimeout  string `toml:"completion_timeout"`
	AckTimeout         string `toml:"ack_timeout"`
	Encoding           string `toml:"encoding"`
	Language           string `toml:"language"`
	TLVSupport         bool   `toml:"tlv_support"`
	IntermediateStatus bool   `toml:"intermediate_status"`
	Currency           uint16 `toml:"currency"`
}

type appConfig struct {
	Address      string
	SerialPort   string
	BaudRate     int
	AckTimeout   time.Duration
	Client       zvt.Config
	Registration zvt.RegistrationConfig
}

func defaultAppConfig() appConfig {
	return appConfig{
		Client: zvt.DefaultConfig(),
	}
}

func loadAppConfig(path string) (appConfig, error) {
	cfg := defaultAppConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return appConfig{}, fmt.Errorf("load zvtctl config: %w", err)
	}

	if meta.IsDefined("address") {
		cfg.Address = strings.TrimSpace(raw.Address)
	}
	if meta.IsDefined("serial_port") {
		cfg.SerialPort = strings.TrimSpace(raw.SerialPort)
	}
	if meta.IsDefined("baud_rate") {
		cfg.BaudRate = raw.BaudRate
	}
	if meta.IsDefined("password") {
		cfg.Client.Password = raw.Password
	}
	if meta.IsDefined("completion_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.CompletionTimeout))
		if err != nil {
			return appConfig{}, fmt.Errorf("parse completion_timeout: %w", err)
		}
		cfg.Client.CompletionTimeout = d
	}
	if meta.IsDefined("ack_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.AckTimeout))
		if err != nil {
			return appConfig{}, fmt.Errorf("parse ack_timeout: %w", err)
		}
		cfg.AckTimeout = d
	}
	if meta.IsDefined("encoding") {
		enc, err := zvt.ParseEncoding(raw.Encoding)
		if err != nil {
			return appConfig{}, err
		}
		cfg.Client.Encoding = enc
	}
	if meta.IsDefined("language") {
		lang, err := parseLanguage(raw.Language)
		if err != nil {
			return appConfig{}, err
		}
		cfg.Client.Language = lang
	}
	if meta.IsDefined("tlv_support") {
		cfg.Client.ActivateTLVSupport = raw.TLVSupport
	}
	if meta.IsDefined("intermediate_status") {
		cfg.Registration.IntermediateStatus = raw.IntermediateStatus
	}
	if meta.IsDefined("currency") {
		cfg.Registration.Currency = raw.Currency
	}

	if cfg.Address == "" && cfg.SerialPort == "" {
		return appConfig{}, fmt.Errorf("zvtctl config: address or serial_port required")
	}

	return cfg, nil
}

func parseLanguage(raw string) (catalog.Language, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "en", "english":
		return catalog.English, nil
	case "de", "german", "deutsch":
		return catalog.German, nil
	default:
		return catalog.English, fmt.Errorf("zvtctl config: unknown language %q", raw)
	}
}
