// Package app wires the reservation engine together: repositories, the
// in-memory hold store, the message router, the outbox forwarder, and the
// HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"eventpal/internal/application/usecases/purchase"
	"eventpal/internal/application/usecases/reserve"
	"eventpal/internal/config"
	"eventpal/internal/infrastructure/event_publisher"
	"eventpal/internal/interfaces/events"
	"eventpal/internal/interfaces/http"
	"eventpal/internal/inventory"
	"eventpal/internal/outbox"
	"eventpal/internal/repository"
	"eventpal/internal/reservation"
	"eventpal/internal/seats"
)

type App struct {
	watermillLogger watermill.LoggerAdapter
	logger          zerolog.Logger
	router          *message.Router
	forwarder       *outbox.Forwarder
	reaper          *reservation.Reaper
	srv             *http.Server
	db              *sqlx.DB
}

func NewApp(
	watermillLogger watermill.LoggerAdapter,
	redisClient *redis.Client,
	db *sqlx.DB,
	cfg config.Config,
) (*App, error) {
	trGetter := trmsqlx.DefaultCtxGetter
	trManager := trmanager.Must(trmsqlx.NewDefaultFactory(db))

	eventsRepo := repository.NewEventsRepo(db)
	ticketTypesRepo := repository.NewTicketTypesRepo(db)
	ticketsRepo := repository.NewTicketsRepo(db, trGetter)
	ordersRepo := repository.NewOrdersRepo(db, trGetter, ticketsRepo)
	archiveRepo := repository.NewArchiveRepo(db)

	ledger := inventory.NewLedger()
	holds := reservation.NewStore(ledger, reservation.WithHoldTTL(cfg.HoldTTL))
	allocator := seats.NewAllocator(ticketsRepo)

	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, err
	}

	redisPublisher, err := outbox.NewRedisPublisher(watermillLogger, redisClient)
	if err != nil {
		return nil, err
	}
	directBus, err := events.NewEventBus(
		event_publisher.CorrelationPublisherDecorator{Publisher: redisPublisher},
		watermillLogger,
	)
	if err != nil {
		return nil, err
	}

	reaper := reservation.NewReaper(holds, cfg.ReaperInterval, directBus)

	reserveService := reserve.NewUsecase(eventsRepo, ticketTypesRepo, ticketsRepo, ledger, holds)
	purchaseService := purchase.NewUsecase(
		holds,
		ordersRepo,
		ticketsRepo,
		allocator,
		eventsRepo,
		ticketTypesRepo,
		repository.NewTxRunner(trManager),
		txEventBusFactory{getter: trGetter, logger: watermillLogger},
	)

	forwarder, err := outbox.NewForwarder(db, redisClient, watermillLogger)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(events.CorrelationIDMiddleware)
	router.AddMiddleware(events.LoggingMiddleware)
	router.AddMiddleware(middleware.Retry{
		MaxRetries:      10,
		InitialInterval: time.Millisecond * 100,
		MaxInterval:     time.Second,
		Multiplier:      2,
		Logger:          watermillLogger,
	}.Middleware)
	router.AddMiddleware(events.SkipMarshallingErrorsMiddleware)

	marshaler := cqrs.JSONMarshaler{
		GenerateName: cqrs.StructName,
	}
	processor, err := events.NewEventProcessor(router, redisClient, marshaler, watermillLogger)
	if err != nil {
		return nil, err
	}
	err = processor.AddHandlers(
		events.ArchiveOrderCompletedHandler(archiveRepo),
		events.ArchiveReservationExpiredHandler(archiveRepo),
	)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	srv := http.NewServer(
		e,
		":"+cfg.Port,
		reserveService,
		purchaseService,
		eventsRepo,
		ticketTypesRepo,
		ordersRepo,
		ticketsRepo,
		router.IsRunning,
	)

	return &App{
		watermillLogger: watermillLogger,
		logger:          zerolog.New(os.Stdout),
		router:          router,
		forwarder:       forwarder,
		reaper:          reaper,
		srv:             srv,
		db:              db,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := repository.InitializeDBSchema(a.db)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Msg("starting router")
		return a.router.Run(ctx)
	})

	g.Go(func() error {
		<-a.router.Running()
		a.logger.Info().Msg("router is running")

		a.forwarder.RunForwarder(ctx)
		a.logger.Info().Msg("outbox forwarder is running")

		a.logger.Info().Msg("starting server")
		return a.srv.Start()
	})

	g.Go(func() error {
		err := a.reaper.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()

		err := a.srv.Stop(context.Background())
		if err != nil {
			a.logger.Err(err).Msg("error stopping server")
		}

		return err
	})

	return g.Wait()
}

// txEventBusFactory builds an event bus that stages messages in the outbox
// table using the transaction carried in ctx.
type txEventBusFactory struct {
	getter *trmsqlx.CtxGetter
	logger watermill.LoggerAdapter
}

func (f txEventBusFactory) EventBus(ctx context.Context) (purchase.EventPublisher, error) {
	tr := f.getter.DefaultTrOrDB(ctx, nil)
	if tr == nil {
		return nil, fmt.Errorf("failed to get transaction from context")
	}

	publisher, err := outbox.NewPublisher(tr, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	return events.NewEventBus(publisher, f.logger)
}
