package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/speters/gonextion/nextion"
)

const (
	defaultBaud           = 9600
	defaultReconnectDelay = 12 * time.Second
)

// options is filled from flags first, then from the config file for every
// key whose flag was not given on the command line
type options struct {
	configFile     string
	connect        string
	baud           int
	http           string
	verbose        bool
	reconnectDelay time.Duration
}

type fileConfig struct {
	Connect        string `toml:"connect"`
	Baud           int    `toml:"baud"`
	HTTP           string `toml:"http"`
	Verbose        bool   `toml:"verbose"`
	ReconnectDelay string `toml:"reconnect_delay"`
}

func defaultOptions() options {
	return options{baud: defaultBaud, reconnectDelay: defaultReconnectDelay}
}

// applyFile merges the TOML file at path into o. changed reports whether a
// flag was set explicitly, those keep their value.
func (o *options) applyFile(path string, changed func(name string) bool) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config: unknown keys %v", undecoded)
	}

	if meta.IsDefined("connect") && !changed("connect") {
		o.connect = strings.TrimSpace(raw.Connect)
	}
	if meta.IsDefined("baud") && !changed("baud") {
		o.baud = raw.Baud
	}
	if meta.IsDefined("http") && !changed("http") {
		o.http = strings.TrimSpace(raw.HTTP)
	}
	if meta.IsDefined("verbose") && !changed("verbose") {
		o.verbose = raw.Verbose
	}
	if meta.IsDefined("reconnect_delay") && !changed("reconnect-delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReconnectDelay))
		if err != nil {
			return fmt.Errorf("parse reconnect_delay: %w", err)
		}
		o.reconnectDelay = d
	}
	return nil
}

func (o *options) validate() error {
	if o.connect == "" {
		return fmt.Errorf("%w: need connection string in -c option or config file", nextion.ErrConfiguration)
	}
	if o.baud <= 0 {
		return fmt.Errorf("%w: baud rate %d", nextion.ErrConfiguration, o.baud)
	}
	if o.reconnectDelay <= 0 {
		return fmt.Errorf("%w: reconnect delay %v", nextion.ErrConfiguration, o.reconnectDelay)
	}
	return nil
}

// listenAddr accepts :[portnum] as well as [portnum]
func listenAddr(s string) string {
	if s == "" || strings.Contains(s, ":") {
		return s
	}
	return ":" + s
}
