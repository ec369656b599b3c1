package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/gray-logic-rules/internal/api"
	"github.com/nerrad567/gray-logic-rules/internal/automation"
	"github.com/nerrad567/gray-logic-rules/internal/bus"
	"github.com/nerrad567/gray-logic-rules/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-rules/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-rules/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-rules/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-rules/internal/metrics"
	"github.com/nerrad567/gray-logic-rules/internal/model"
	"github.com/nerrad567/gray-logic-rules/internal/rest"
)

// run starts every component and blocks until ctx is cancelled.
// Deferred cleanups run in reverse start order.
func run(ctx context.Context, cfg *config.Config) error {
	log := logging.New(cfg.Logging, version)
	log.Info("starting Gray Logic Rules",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Model
	m, db, err := loadModel(ctx, cfg)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}
	checks := make(map[string]api.HealthChecker)
	if db != nil {
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		checks["database"] = db
	}

	rt, err := model.Build(m)
	if err != nil {
		return fmt.Errorf("building model: %w", err)
	}
	log.Info("model loaded",
		"source", cfg.Model.Source,
		"entities", len(rt.Entities.List()),
		"rest_sources", len(rt.Sources),
		"automations", len(rt.Automations),
	)

	// MQTT bus
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
	mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
	checks["mqtt"] = mqttClient
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	topics := mqttClient.Topics()
	rt.Entities.SetPublisher(bus.NewPublisher(mqttClient, rt.Entities, topics, mqttClient.QoS()))

	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	feed := bus.NewFeed(mqttClient, rt.Entities, topics, mqttClient.QoS())
	feed.SetLogger(log)
	feed.SetHub(hub)
	if err := feed.Start(); err != nil {
		return fmt.Errorf("starting entity feed: %w", err)
	}
	defer feed.Stop()

	// REST poller and engine
	store := rest.NewStore()
	client := rest.NewClient(rest.ClientOptions{
		Timeout:    cfg.GetRESTTimeout(),
		MaxRetries: cfg.REST.MaxRetries,
		Backoff:    cfg.GetRESTBackoff(),
	})
	client.SetLogger(log)
	poller, err := rest.NewPoller(client, store, rt.Sources, cfg.GetDefaultPollInterval())
	if err != nil {
		return fmt.Errorf("creating REST poller: %w", err)
	}
	poller.SetLogger(log)

	engine, err := automation.NewEngine(rt.Automations, rt.Entities, store, log)
	if err != nil {
		return fmt.Errorf("creating automation engine: %w", err)
	}
	engine.SetHub(hub)

	// Telemetry
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collectorSet, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	poller.AddObserver(collectorSet)
	engine.SetMetrics(collectorSet)

	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		poller.AddObserver(influxClient)
		engine.SetRecorder(influxClient)
		checks["influxdb"] = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	}

	if err := poller.Start(ctx); err != nil {
		return fmt.Errorf("starting REST poller: %w", err)
	}
	defer poller.Stop()

	if err := engine.StartAll(ctx); err != nil {
		engine.Stop()
		return fmt.Errorf("starting automations: %w", err)
	}
	defer engine.Stop()
	log.Info("automations started", "count", len(rt.Automations))

	// HTTP API
	if cfg.API.Enabled {
		server, err := api.New(api.Deps{
			Config:   cfg.API,
			WS:       cfg.WebSocket,
			Logger:   log,
			Engine:   engine,
			Entities: rt.Entities,
			Store:    store,
			Checks:   checks,
			Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
			Hub:      hub,
			Version:  version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("HTTP API disabled")
	}

	if err := healthCheck(ctx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// healthCheck runs every component check and returns the first failure.
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	for name, c := range checks {
		if err := c.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
