// Package registry owns the set of Spark History Server clients built
// from configuration, including the EMR-bootstrapped ones.
package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/core/config"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/emr"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/client"
)

// ConfigurationError reports a client lookup that configuration cannot
// satisfy, such as an unknown server name or a missing default.
type ConfigurationError struct {
	Server string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Server != "" {
		return fmt.Sprintf("server %q: %s", e.Server, e.Reason)
	}
	return e.Reason
}

// Registry holds one ready client per configured server.
type Registry struct {
	clients     map[string]*client.Client
	defaultName string
}

// New builds clients for every configured server.  EMR-backed servers
// run their persistent UI bootstrap here, so a registry that comes back
// without error is fully usable.
func New(ctx context.Context, conf *config.Config) (*Registry, error) {
	clients := make(map[string]*client.Client, len(conf.Servers))
	for name, serverConf := range conf.Servers {
		c, err := buildClient(ctx, name, serverConf)
		if err != nil {
			return nil, errors.WithMessagef(err, "could not build client for server %s", name)
		}
		clients[name] = c
	}

	return &Registry{
		clients:     clients,
		defaultName: conf.DefaultServerName(),
	}, nil
}

func buildClient(ctx context.Context, name string, serverConf config.ServerConfig) (*client.Client, error) {
	if serverConf.EMRClusterARN == "" {
		return client.New(name, serverConf)
	}

	log.WithFields(log.Fields{
		"server":     name,
		"emrCluster": serverConf.EMRClusterARN,
	}).Info("Bootstrapping EMR persistent UI session")

	bootstrap, err := emr.New(serverConf.EMRClusterARN, serverConf.HTTPConfig())
	if err != nil {
		return nil, err
	}
	baseURL, httpClient, err := bootstrap.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	return client.NewWithHTTPClient(name, baseURL, httpClient), nil
}

// Get returns the client for a named server.
func (r *Registry) Get(name string) (*client.Client, error) {
	c, ok := r.clients[name]
	if !ok {
		return nil, &ConfigurationError{Server: name, Reason: "no such server configured"}
	}
	return c, nil
}

// GetOrDefault returns the named server's client, or the default
// server's client when name is empty.
func (r *Registry) GetOrDefault(name string) (*client.Client, error) {
	if name != "" {
		return r.Get(name)
	}
	if r.defaultName == "" {
		return nil, &ConfigurationError{Reason: "no server named and no default server configured"}
	}
	return r.clients[r.defaultName], nil
}

// Names returns the configured server names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
