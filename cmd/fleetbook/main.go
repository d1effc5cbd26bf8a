package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"fleetbook/internal/app/commands"
	availabilityapp "fleetbook/internal/app/handlers/availability"
	blocksapp "fleetbook/internal/app/handlers/blocks"
	reservationapp "fleetbook/internal/app/handlers/reservation"
	"fleetbook/internal/app/middleware"
	appoutbox "fleetbook/internal/app/outbox"
	"fleetbook/internal/app/queries"
	"fleetbook/internal/app/uow"
	"fleetbook/internal/domain/reservation"
	"fleetbook/internal/infra/broker/kafka"
	redisstore "fleetbook/internal/infra/cache/redis"
	"fleetbook/internal/infra/config"
	mongodb "fleetbook/internal/infra/db/mongo"
	ginserver "fleetbook/internal/infra/http/gin"
	"fleetbook/internal/infra/jobs"
	"fleetbook/internal/infra/obs"
	outboxinfra "fleetbook/internal/infra/outbox"
	"fleetbook/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	demoMode := false
	if err != nil {
		logger.Warn("using in-memory demo configuration", "error", err)
		demoMode = true
		cfg.Env = env
		cfg.HTTPAddr = getenv("HTTP_ADDR", ":8080")
		cfg.HoldDuration = 30 * time.Minute
		cfg.CancellationCutoff = 24 * time.Hour
		cfg.JanitorSpec = "@every 5m"
	}

	app, err := buildApplication(cfg, demoMode)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.close()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	janitor := &jobs.Janitor{Bus: app.commandBus, Spec: cfg.JanitorSpec, Logger: logger}
	if err := janitor.Start(ctx); err != nil {
		logger.Error("janitor start failed", "error", err)
		os.Exit(1)
	}
	defer janitor.Stop()

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "demo", demoMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	commandBus commands.Bus
	worker     *outboxinfra.Worker
	ready      func() error
	close      func()
}

func buildApplication(cfg config.Config, demoMode bool) (application, error) {
	var (
		uowFactory  uow.UoWFactory
		outboxStore appoutbox.Outbox
		idStore     middleware.IdempotencyStore
		worker      *outboxinfra.Worker
		ready       = func() error { return nil }
		closeFn     = func() {}
	)

	if demoMode {
		vehicles := memory.NewVehicleRepository()
		reservations := memory.NewReservationRepository()
		blocks := memory.NewBlockRepository()
		uowFactory = memory.Factory{
			VehicleRepo:     vehicles,
			ReservationRepo: reservations,
			OccupancyStore:  memory.NewOccupancyStore(reservations, blocks),
			BlockRepo:       blocks,
		}
		outboxStore = memory.NewOutbox()
		idStore = memory.NewIdempotencyStore()
	} else {
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, err
		}
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		uowFactory = mongodb.Factory{
			DB:              client.DB,
			VehicleRepo:     mongodb.NewVehicleRepository(client.DB),
			ReservationRepo: mongodb.NewReservationRepository(client.DB),
			OccupancyStore:  mongodb.NewOccupancyStore(client.DB),
			BlockRepo:       mongodb.NewBlockedDateRepository(client.DB),
		}
		store := outboxinfra.NewStore(client.DB)
		outboxStore = store

		switch cfg.IdempotencyStore {
		case "redis":
			rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
			idStore = redisstore.NewIdempotencyStore(rdb, cfg.IdempotencyTTL)
			closeFn = func() { _ = rdb.Close() }
		case "memory":
			idStore = memory.NewIdempotencyStore()
		default:
			idStore = mongodb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		}

		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return application{}, err
		}
		prevClose := closeFn
		closeFn = func() {
			_ = producer.Close()
			prevClose()
		}
		worker = &outboxinfra.Worker{
			Store:       store,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
	}

	policy := reservation.CutoffPolicy(cfg.CancellationCutoff)

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, reservationapp.CreateReservationCommand{}.Key(), &reservationapp.CreateReservationHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
		Hold:       cfg.HoldDuration,
	})
	commands.RegisterHandler(commandBus, reservationapp.TransitionReservationCommand{}.Key(), &reservationapp.TransitionReservationHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
		Policy:     policy,
	})
	commands.RegisterHandler(commandBus, reservationapp.ExpireHoldsCommand{}.Key(), &reservationapp.ExpireHoldsHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
		Hold:       cfg.HoldDuration,
	})
	commands.RegisterHandler(commandBus, blocksapp.BlockDatesCommand{}.Key(), &blocksapp.BlockDatesHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
	})
	commands.RegisterHandler(commandBus, blocksapp.UnblockDatesCommand{}.Key(), &blocksapp.UnblockDatesHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.CheckAvailabilityQuery{}.Key(), &availabilityapp.CheckAvailabilityHandler{
		UoWFactory: uowFactory,
		Hold:       cfg.HoldDuration,
	})
	queries.RegisterHandler(queryBus, availabilityapp.CheckAvailabilityBatchQuery{}.Key(), &availabilityapp.CheckAvailabilityBatchHandler{
		UoWFactory: uowFactory,
		Hold:       cfg.HoldDuration,
	})
	queries.RegisterHandler(queryBus, reservationapp.ListReservationsQuery{}.Key(), &reservationapp.ListReservationsHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, blocksapp.ListBlocksQuery{}.Key(), &blocksapp.ListBlocksHandler{
		UoWFactory: uowFactory,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	return application{
		handlers: ginserver.Handlers{
			Availability: ginserver.AvailabilityHandler{
				Queries:  queryBusWithMiddleware,
				FailOpen: cfg.BatchFailOpen,
			},
			Reservation: ginserver.ReservationHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
			},
			Blocks: ginserver.BlocksHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
			},
		},
		commandBus: commandBusWithMiddleware,
		worker:     worker,
		ready:      ready,
		close:      closeFn,
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
