// Package config contains configuration structures and related helper logic for all
// components that talk to Spark History Servers.
package config

import (
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/signalfx/defaults"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"

	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/core/common/httpclient"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/core/config/validation"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/utils/timeutil"
)

// Config is the top level config struct that everything goes under
type Config struct {
	// Named Spark History Server deployments that tools can address.  At
	// most one entry should set `default: true`.
	Servers map[string]ServerConfig `yaml:"servers" validate:"required,dive"`
	// Settings for the HTTP tool-dispatch server.
	Dispatch DispatchConfig `yaml:"dispatch"`
}

// ServerConfig describes one Spark History Server deployment.
type ServerConfig struct {
	// Base URL of the history server, without the /api/v1 suffix.  Not
	// required when emrClusterArn is set, since the URL is then
	// discovered through the EMR persistent UI bootstrap.
	URL string `yaml:"url"`
	// Optional credentials.  A token takes precedence over basic auth.
	Auth AuthConfig `yaml:"auth"`
	// Whether this server is used when a tool call names no server.
	Default bool `yaml:"default"`
	// Whether the server's TLS certificate is verified.
	VerifySSL *bool `yaml:"verifySSL"`
	// Whether requests are tunneled through the local SOCKS5 proxy.
	UseProxy bool `yaml:"useProxy"`
	// Address of the SOCKS5 proxy used when useProxy is set.
	ProxyAddress string `yaml:"proxyAddress" default:"localhost:8157"`
	// ARN of an EMR cluster whose Spark history UI should be reached
	// through the persistent-app-UI bootstrap instead of a direct URL.
	EMRClusterARN string `yaml:"emrClusterArn"`
	// Request timeout applied to every call against this server.
	HTTPTimeout timeutil.Duration `yaml:"httpTimeout" default:"30s"`
}

// AuthConfig holds credentials for one server.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password" neverLog:"true"`
	Token    string `yaml:"token" neverLog:"true"`
}

// DispatchConfig holds settings for the HTTP server that exposes tools.
type DispatchConfig struct {
	Address string `yaml:"address" default:"localhost"`
	Port    int    `yaml:"port" default:"18888"`
	Debug   bool   `yaml:"debug"`
}

// Validate checks constraints that struct tags cannot express.
func (c *Config) Validate() error {
	defaultCount := 0
	for name, server := range c.Servers {
		if server.URL == "" && server.EMRClusterARN == "" {
			return errors.Errorf("server %s needs either a url or an emrClusterArn", name)
		}
		if server.Default {
			defaultCount++
		}
	}
	if defaultCount > 1 {
		return errors.New("only one server may be marked as default")
	}
	return nil
}

// DefaultServerName returns the name of the server marked default, or ""
// if none is.
func (c *Config) DefaultServerName() string {
	// Sorted for determinism should the validation above ever be relaxed.
	names := make([]string, 0, len(c.Servers))
	for name := range c.Servers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if c.Servers[name].Default {
			return name
		}
	}
	return ""
}

// HTTPConfig derives the http client settings for this server.
func (sc *ServerConfig) HTTPConfig() httpclient.HTTPConfig {
	skipVerify := false
	if sc.VerifySSL != nil && !*sc.VerifySSL {
		skipVerify = true
	}

	return httpclient.HTTPConfig{
		HTTPTimeout:  sc.HTTPTimeout,
		Username:     sc.Auth.Username,
		Password:     sc.Auth.Password,
		Token:        sc.Auth.Token,
		SkipVerify:   skipVerify,
		UseProxy:     sc.UseProxy,
		ProxyAddress: sc.ProxyAddress,
	}
}

// LoadConfig reads the config file at the given path.  A missing file
// yields the built-in default of a single local history server, matching
// a fresh checkout running against a dev deployment.
func LoadConfig(path string) (*Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Infof("No config file at %s, using built-in defaults", path)
			return defaultConfig()
		}
		return nil, errors.Wrapf(err, "could not read config file %s", path)
	}

	return LoadConfigFromContent(contents)
}

// LoadConfigFromContent transforms yaml to a Config struct
func LoadConfigFromContent(fileContent []byte) (*Config, error) {
	config := &Config{}

	if err := defaults.Set(config); err != nil {
		panic("Config defaults are wrong types: " + err.Error())
	}

	if err := yaml.UnmarshalStrict(fileContent, config); err != nil {
		return nil, errors.WithMessage(err, "config file is not valid yaml")
	}

	for name, server := range config.Servers {
		server.applyDefaults()
		config.Servers[name] = server
	}

	if err := validation.ValidateStruct(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (sc *ServerConfig) applyDefaults() {
	if sc.HTTPTimeout == 0 {
		sc.HTTPTimeout = timeutil.Duration(30 * time.Second)
	}
	if sc.ProxyAddress == "" {
		sc.ProxyAddress = "localhost:8157"
	}
	sc.URL = strings.TrimRight(sc.URL, "/")
}

func defaultConfig() (*Config, error) {
	return LoadConfigFromContent([]byte(`
servers:
  local:
    url: http://localhost:18080
    default: true
`))
}
