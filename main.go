// Spark History Server analytics service
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/core/config"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/registry"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/tools"

	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var (
	// Version of the service
	Version string
	// BuiltTime of the service
	BuiltTime string
)

func init() {
	log.SetFormatter(&prefixed.TextFormatter{})
	log.SetLevel(log.InfoLevel)
}

func run(ctx context.Context, configPath string) error {
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if conf.Dispatch.Debug {
		log.SetLevel(log.DebugLevel)
	}

	reg, err := registry.New(ctx, conf)
	if err != nil {
		return err
	}
	log.WithField("servers", reg.Names()).Info("History server clients ready")

	return tools.Start(ctx, conf.Dispatch, reg)
}

// defaultConfigPath can be overridden through the environment so
// containerized deployments need no flag plumbing.
func defaultConfigPath() string {
	if path := os.Getenv("SPARK_ANALYTICS_CONFIG"); path != "" {
		return path
	}
	return "/etc/spark-analytics/config.yaml"
}

func main() {
	configPath := flag.String("config", defaultConfigPath(), "service config path")
	version := flag.Bool("version", false, "print service version")
	debug := flag.Bool("debug", false, "print debugging output")

	flag.Parse()

	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	if *version {
		fmt.Printf("version: %s, built-time: %s\n", Version, BuiltTime)
		os.Exit(0)
	}

	exit := make(chan struct{})

	var cancel context.CancelFunc
	var done chan struct{}
	start := func() {
		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan struct{})
		go func() {
			defer close(done)
			if err := run(ctx, *configPath); err != nil {
				log.WithError(err).Error("Service failed")
			}
		}()
	}

	start()

	interruptCh := make(chan os.Signal, 1)
	signal.Notify(interruptCh, os.Interrupt)
	go func() {
		<-interruptCh
		log.Info("Interrupt signal received, stopping service")
		cancel()
		<-done
		exit <- struct{}{}
	}()

	hupCh := make(chan os.Signal, 1)
	signal.Notify(hupCh, syscall.SIGHUP)
	go func() {
		for range hupCh {
			log.Info("Forcing service reset")
			cancel()
			<-done
			start()
		}
	}()

	<-exit
}
