// Package app wires configuration, the CRM resolver, the evaluator and the
// HTTP surface together. Both the long-running server and the serverless
// function build on it.
package app

import (
	"net/http"

	"github.com/bookedbeauty/welcome-offer-gate/internal/config"
	"github.com/bookedbeauty/welcome-offer-gate/internal/infra/http/handlers"
	"github.com/bookedbeauty/welcome-offer-gate/internal/infra/http/middleware"
	"github.com/bookedbeauty/welcome-offer-gate/internal/infra/integration/ghl"
	"github.com/bookedbeauty/welcome-offer-gate/internal/infra/queue"
	"github.com/bookedbeauty/welcome-offer-gate/internal/usecase"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type App struct {
	Config    *config.Config
	Log       *logrus.Logger
	Resolver  *ghl.Client
	Evaluator *usecase.Evaluator
	Broker    *queue.RabbitMQ
	Publisher usecase.VerdictPublisher

	ValidateOffer    *usecase.ValidateOfferUseCase
	CheckOfferStatus *usecase.CheckOfferStatusUseCase
	CheckRejoin      *usecase.CheckRejoinUseCase
}

// New never fails on the audit broker: when it cannot be reached the app
// runs with auditing disabled.
func New(cfg *config.Config, log *logrus.Logger) *App {
	a := &App{
		Config:    cfg,
		Log:       log,
		Publisher: usecase.NoopPublisher,
	}

	if cfg.CRM.APIKey == "" {
		log.Warn("GHL_API_KEY is not set, every contact lookup will fail")
	}
	a.Resolver = ghl.NewClient(cfg.CRM, log.WithField("component", "resolver"), nil).
		OnAttempt(middleware.RecordCRMAttempt)
	a.Evaluator = usecase.NewEvaluator(cfg.Offer, log.WithField("component", "evaluator"))

	if cfg.Queue.URL != "" {
		broker, err := queue.NewRabbitMQ(cfg.Queue.URL, cfg.Queue.Exchange)
		if err != nil {
			log.WithError(err).Warn("verdict auditing disabled")
			middleware.RecordIntegrationError("rabbitmq")
		} else {
			a.Broker = broker
			a.Publisher = queue.NewProducer(broker.Ch, broker.Exchange)
			log.WithField("exchange", broker.Exchange).Info("verdict auditing enabled")
		}
	}

	ucLog := log.WithField("component", "usecase")
	a.ValidateOffer = usecase.NewValidateOfferUseCase(a.Resolver, a.Evaluator, a.Publisher, ucLog)
	a.CheckOfferStatus = usecase.NewCheckOfferStatusUseCase(a.Resolver, a.Evaluator, a.Publisher, ucLog)
	a.CheckRejoin = usecase.NewCheckRejoinUseCase(a.Resolver, a.Evaluator, a.Publisher, ucLog)
	return a
}

func (a *App) Router() http.Handler {
	offer := handlers.NewOfferHandler(a.ValidateOffer, a.CheckOfferStatus, a.CheckRejoin, a.Config.Redirect, a.Log.WithField("component", "http"))

	var broker handlers.ConnChecker
	if a.Broker != nil {
		broker = a.Broker
	}
	health := handlers.NewHealthHandler(a.Resolver, broker)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(a.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.Config.Server.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Get("/", offer.Validate)
		r.Get("/api/entry", offer.Entry)
		r.Get(handlers.ValidateOfferPath, offer.Validate)
		r.Get("/api/checkOfferStatus", offer.Status)
		r.Get("/api/opt-inRejoin", offer.Rejoin)
		r.Get("/api/opt-inrejoin", offer.Rejoin)
	})
	return r
}

func (a *App) Close() {
	if a.Broker != nil {
		if err := a.Broker.Close(); err != nil {
			a.Log.WithError(err).Warn("failed to close RabbitMQ connection")
		}
	}
}
