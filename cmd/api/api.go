package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bozor/docs" //this is required to generate swagger docs
	"bozor/internal/auth"
	"bozor/internal/checkout"
	"bozor/internal/domain/paymentsrepo"
	"bozor/internal/domain/products"
	"bozor/internal/payments"
	"bozor/internal/ratelimiter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// paymentService is the workflow the payment handlers drive.
type paymentService interface {
	Checkout(ctx context.Context, userID, orderID int64) (*checkout.CheckoutView, error)
	InitPayme(ctx context.Context, userID, orderID int64) (*checkout.InitResult, error)
	CheckStatus(ctx context.Context, userID int64, paymentID string) (*checkout.StatusResult, error)
	Perform(ctx context.Context, userID int64, paymentID string) (*checkout.StatusResult, error)
	Cancel(ctx context.Context, userID int64, paymentID string, reason payments.CancelReason) (*checkout.StatusResult, error)
	ListPayments(ctx context.Context, userID, orderID int64, limit, offset int) ([]*paymentsrepo.Payment, int, error)
}

type idempotencyStore interface {
	Key(scope string, userID int64, clientKey string) string
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

type application struct {
	config        config
	logger        *zap.SugaredLogger
	products      products.Store
	payments      paymentService
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
	idempotency   idempotencyStore // nil when REDIS_ADDR is unset
}

type config struct {
	addr        string
	env         string
	apiURL      string
	baseURL     string
	db          dbConfig
	auth        authConfig
	payme       payments.PaymeConfig
	sandbox     bool
	redis       redisConfig
	kafka       kafkaConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret string
	exp    time.Duration
	iss    string
}

type basicConfig struct {
	user string
	pass string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
	migrate     bool
}

type redisConfig struct {
	addr           string
	idempotencyTTL time.Duration
}

type kafkaConfig struct {
	brokers []string
	topic   string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if app.config.rateLimiter.Enabled {
		r.Use(app.RateLimiterMiddleware)
	}

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.Get("/products", app.listProductsHandler)

		r.Route("/payments", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)

			r.Get("/checkout/{orderID}", app.checkoutHandler)
			r.With(app.IdempotencyMiddleware("init-payme")).Post("/init-payme/{orderID}", app.initPaymeHandler)
			r.Get("/status/{paymentID}", app.paymentStatusHandler)
			r.Get("/orders/{orderID}", app.listOrderPaymentsHandler)
			r.Post("/{paymentID}/perform", app.performPaymentHandler)
			r.Post("/{paymentID}/cancel", app.cancelPaymentHandler)
		})

		r.Get("/cancel-payment", app.cancelPageHandler)
	})
	return r
}

// run serves until SIGINT/SIGTERM, then cancels background work and drains
// in-flight requests.
func (app *application) run(mux http.Handler, cancelBackground context.CancelFunc) error {
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())
		cancelBackground()

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
