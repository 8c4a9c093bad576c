package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/darkkaiser/resale-watcher/internal/config"
	"github.com/darkkaiser/resale-watcher/internal/pkg/version"
	"github.com/darkkaiser/resale-watcher/internal/service"
	"github.com/darkkaiser/resale-watcher/internal/service/api"
	"github.com/darkkaiser/resale-watcher/internal/service/notification"
	"github.com/darkkaiser/resale-watcher/internal/service/scheduler"
	"github.com/darkkaiser/resale-watcher/internal/service/watcher"
	"github.com/darkkaiser/resale-watcher/internal/service/watcher/fetcher"
	"github.com/darkkaiser/resale-watcher/internal/service/watcher/images"
	"github.com/darkkaiser/resale-watcher/internal/service/watcher/resale"
	"github.com/darkkaiser/resale-watcher/internal/service/watcher/storage"
	applog "github.com/darkkaiser/resale-watcher/pkg/log"
	log "github.com/sirupsen/logrus"
)

const banner = `
  ____                  _       __        __    _       _
 |  _ \ ___  ___  __ _ | | ___  \ \      / /_ _| |_ ___| |__   ___ _ __
 | |_) / _ \/ __|/ _' || |/ _ \  \ \ /\ / / _' | __/ __| '_ \ / _ \ '__|
 |  _ <  __/\__ \ (_| || |  __/   \ V  V / (_| | || (__| | | |  __/ |
 |_| \_\___||___/\__,_||_|\___|    \_/\_/ \__,_|\__\___|_| |_|\___|_|
                                                            %s
--------------------------------------------------------------------------------
`

func main() {
	// The configuration comes first, the logging setup depends on it.
	appConfig, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] loading the configuration failed: %v\n", err)
		os.Exit(1)
	}

	var logOpts applog.Options
	if appConfig.Debug {
		logOpts = applog.NewDevelopmentOptions(config.AppName)
	} else {
		logOpts = applog.NewProductionOptions(config.AppName)
	}

	appLogCloser, err := applog.Setup(logOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] initializing the logging system failed: %v\n", err)
		os.Exit(1)
	}
	defer appLogCloser.Close()

	buildInfo := version.Get()

	fmt.Printf(banner, buildInfo.Version)

	applog.WithComponentAndFields("main", log.Fields{
		"version": buildInfo.String(),
		"env":     map[bool]string{true: "development", false: "production"}[appConfig.Debug],
	}).Info("initializing the watcher")

	for _, warning := range appConfig.VerifyRecommendations() {
		applog.WithComponent("main").Warn(warning)
	}

	// Assemble the watcher's collaborators.
	httpFetcher := fetcher.NewFromConfig(fetcher.Config{
		Timeout:                      appConfig.Watch.FetchTimeoutDuration(),
		EnableUserAgentRandomization: true,
		UserAgents:                   appConfig.Watch.UserAgents,
		MaxRetries:                   appConfig.HTTPRetry.MaxRetries,
		MinRetryDelay:                appConfig.HTTPRetry.RetryDelayDuration(),
	})

	parser, err := resale.NewParser(appConfig.Watch.BaselineEmptyJSON())
	if err != nil {
		log.Fatalf("initializing the payload parser failed: %v", err)
	}

	store, err := storage.NewSeenOfferStore(appConfig.Watch.StoreFile)
	if err != nil {
		log.Fatalf("opening the seen-offer store failed: %v", err)
	}

	watcherService := watcher.NewService(appConfig, httpFetcher, parser, store, images.NewSelector(appConfig.Watch.ImagesDir))
	notificationService := notification.NewService(appConfig)
	schedulerService := scheduler.NewService(appConfig.Summary, watcherService, notificationService)
	apiService := api.NewService(appConfig, watcherService, notificationService, notificationService)

	watcherService.SetNotificationSender(notificationService)

	serviceStopCtx, cancel := context.WithCancel(context.Background())
	serviceStopWG := &sync.WaitGroup{}

	services := []service.Service{notificationService, watcherService, schedulerService, apiService}
	for _, s := range services {
		serviceStopWG.Add(1)
		if err := s.Start(serviceStopCtx, serviceStopWG); err != nil {
			applog.WithComponentAndFields("main", log.Fields{
				"error": err,
			}).Error("starting the services failed")

			cancel()
			serviceStopWG.Wait()

			log.Fatal("shutting down after a failed service start")
		}
	}

	termC := make(chan os.Signal, 1)
	signal.Notify(termC, syscall.SIGINT, syscall.SIGTERM)

	applog.WithComponent("main").Info("the watcher is up")

	<-termC

	applog.WithComponent("main").Info("shutdown signal received")
	cancel()
	serviceStopWG.Wait()
}
