package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tailormade/ecs/internal/core/ecs/environment"
	"github.com/tailormade/ecs/internal/core/ecs/system"
	"github.com/tailormade/ecs/internal/core/observability/log"
)

// Config is the plain, unparsed configuration for the demo bootstrap
// binary: the three on-disk roots the Environment walks at startup.
type Config struct {
	EntityRoot       string
	ComponentRoot    string
	SubscriptionRoot string
}

func configFromEnv() Config {
	cfg := Config{
		EntityRoot:       "data/entities",
		ComponentRoot:    "data/components",
		SubscriptionRoot: "data/subscriptions",
	}
	if v := os.Getenv("ECS_ENTITY_ROOT"); v != "" {
		cfg.EntityRoot = v
	}
	if v := os.Getenv("ECS_COMPONENT_ROOT"); v != "" {
		cfg.ComponentRoot = v
	}
	if v := os.Getenv("ECS_SUBSCRIPTION_ROOT"); v != "" {
		cfg.SubscriptionRoot = v
	}
	return cfg
}

func main() {
	logger := log.New(log.LevelInfo)
	cfg := configFromEnv()

	env, err := environment.New(environment.Options{
		EntityRoot:       cfg.EntityRoot,
		ComponentRoot:    cfg.ComponentRoot,
		SubscriptionRoot: cfg.SubscriptionRoot,
	})
	if err != nil {
		logger.Fatal("bootstrap failed", log.ErrorWithKey("error", err))
	}
	logger.Info("environment bootstrapped",
		log.Int("schema_stores", len(env.Managers())),
		log.String("entity_root", cfg.EntityRoot),
		log.String("component_root", cfg.ComponentRoot),
		log.String("subscription_root", cfg.SubscriptionRoot))

	// A demo system with no filters configured yet; a real deployment
	// wires AddComponent/AddTag calls here for whatever it's watching.
	watcher := system.New(env, true)
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)

	logger.Info("ecs runtime ready, waiting for shutdown signal")
	<-stopCh
	cancel()

	if watcher.GetChange() {
		logger.Info("watcher observed membership changes before shutdown", log.Int("entities", len(watcher.Entities())))
	}
	logger.Info("shutting down")
}
