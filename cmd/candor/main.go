package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ManuelReschke/Candor/app/controllers"
	"github.com/ManuelReschke/Candor/app/repository"
	"github.com/ManuelReschke/Candor/internal/pkg/archive"
	"github.com/ManuelReschke/Candor/internal/pkg/billing"
	"github.com/ManuelReschke/Candor/internal/pkg/cache"
	"github.com/ManuelReschke/Candor/internal/pkg/churn"
	"github.com/ManuelReschke/Candor/internal/pkg/database"
	"github.com/ManuelReschke/Candor/internal/pkg/env"
	"github.com/ManuelReschke/Candor/internal/pkg/mail"
	"github.com/ManuelReschke/Candor/internal/pkg/payments"
	"github.com/ManuelReschke/Candor/internal/pkg/revenue"
	"github.com/ManuelReschke/Candor/internal/pkg/router"
	"github.com/ManuelReschke/Candor/internal/pkg/scheduler"
	"github.com/ManuelReschke/Candor/internal/pkg/trialgate"
	"github.com/ManuelReschke/Candor/internal/pkg/weekly"
	"github.com/ManuelReschke/Candor/views"
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	app, manager := NewApplication()
	if manager != nil {
		defer manager.Stop()
	}
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

// NewApplication wires the app. The returned manager is nil when the in-process
// scheduler is disabled and an external caller hits /api/cron/*.
func NewApplication() (*fiber.App, *scheduler.Manager) {
	env.SetupEnvFile()
	if err := database.SetupDatabase(); err != nil {
		log.Fatalf("[Database] Could not connect: %v", err)
	}
	cache.SetupCache()
	repository.InitializeStore(database.GetDB())
	store := repository.GetGlobalStore()

	production := !env.IsDev()
	stripeCfg := payments.LoadConfig()

	var (
		pay payments.Client
		rev weekly.RevenueSource
	)
	if err := stripeCfg.Validate(production); err != nil {
		log.Warnf("[Payments] Stripe disabled: %v", err)
	} else {
		client, err := payments.NewStripeClient(stripeCfg)
		if err != nil {
			log.Fatalf("[Payments] Could not create Stripe client: %v", err)
		}
		pay = client
		rev = revenue.NewFetcher(client)
	}

	gate := trialgate.NewGate(store)
	runner := weekly.NewRunner(store, gate, rev, mail.NewSenderFromEnv())
	runner.Locker = cache.NewLocker(cache.GetClient())

	ctx := context.Background()
	jobs := scheduler.NewJobs(runner, churn.NewSweeper(store), archive.NewFromEnv(ctx), cache.GetClient())

	ctl := controllers.New(controllers.Deps{
		Store:      store,
		Gate:       gate,
		Payments:   pay,
		Revenue:    rev,
		Stripe:     stripeCfg,
		Runner:     runner,
		Jobs:       jobs,
		Billing:    billing.NewService(store),
		Production: production,
	})

	basePath := findBasePath()

	// init fiber app
	app := fiber.New(fiber.Config{
		Views:     views.NewEngine(),
		BodyLimit: 1 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// static files
	app.Static("/", basePath+"public", fiber.Static{
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app, router.Config{
		Controller:       ctl,
		CronSecret:       env.GetEnv("CRON_SECRET", ""),
		InMemorySessions: env.GetBool("SESSION_IN_MEMORY", false),
	})

	var manager *scheduler.Manager
	if env.GetBool("SCHEDULER_ENABLED", false) {
		manager = scheduler.ForJobs(jobs)
		manager.Start()
		log.Info("[Scheduler] Started in-process schedule")
	}

	return app, manager
}

// findBasePath locates the project root so the binary runs from cmd/candor
// as well as from the repository root.
func findBasePath() string {
	basePaths := []string{
		"./",
		"../../",
		"../../../",
	}
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public"); !os.IsNotExist(err) {
			return path
		}
	}
	panic("Could not find project root directory")
}
