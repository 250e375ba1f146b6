package main

import (
	"context"
	"expvar"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"bozor/internal/auth"
	"bozor/internal/checkout"
	"bozor/internal/db"
	"bozor/internal/domain/paymentsrepo"
	"bozor/internal/domain/storage"
	"bozor/internal/idempotency"
	"bozor/internal/outbox"
	"bozor/internal/payments"
	"bozor/internal/ratelimiter"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig(logger *zap.SugaredLogger) ratelimiter.Config {
	return ratelimiter.Config{
		RequestsPerTimeFrame: envInt(logger, "RATELIMITER_REQUESTS_COUNT", 200),
		TimeFrame:            5 * time.Second,
		Enabled:              envBool(logger, "RATE_LIMITER_ENABLED", false),
	}
}

func envInt(logger *zap.SugaredLogger, key string, def int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		logger.Warnw("invalid integer env, using default", "key", key, "value", val, "default", def)
		return def
	}
	return n
}

func envBool(logger *zap.SugaredLogger, key string, def bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		logger.Warnw("invalid boolean env, using default", "key", key, "value", val, "default", def)
		return def
	}
	return b
}

func envDuration(logger *zap.SugaredLogger, key string, def time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		logger.Warnw("invalid duration env, using default", "key", key, "value", val, "default", def)
		return def
	}
	return d
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envOr(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	core := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), zapcore.InfoLevel)

	return zap.New(core).Sugar(), nil
}

func loadConfig(logger *zap.SugaredLogger) config {
	apiURL := os.Getenv("PAYME_API_URL")
	if apiURL == "" {
		// older deployments only set the checkout host and post RPC calls to it
		apiURL = os.Getenv("PAYME_CHECKOUT_URL")
	}

	return config{
		addr:    envOr("ADDR", ":8080"),
		env:     envOr("ENV", "development"),
		apiURL:  envOr("EXTERNAL_URL", "localhost:8080"),
		baseURL: envOr("BASE_URL", "http://localhost:8080/v1"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxConns:    int32(envInt(logger, "DB_MAX_CONNS", 30)),
			maxIdleTime: envOr("DB_MAX_IDLE_TIME", "15m"),
			migrate:     envBool(logger, "DB_MIGRATE", false),
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
			token: tokenConfig{
				secret: os.Getenv("AUTH_TOKEN_SECRET"),
				exp:    time.Hour * 24 * 3, // 3 days
				iss:    envOr("AUTH_TOKEN_ISS", "bozor"),
			},
		},
		payme: payments.PaymeConfig{
			MerchantID:  os.Getenv("MERCHANT_ID"),
			SecretKey:   os.Getenv("SECRET_KEY"),
			APIURL:      apiURL,
			CheckoutURL: os.Getenv("PAYME_CHECKOUT_URL"),
			Lang:        envOr("PAYME_LANG", "en"),
			Timeout:     envDuration(logger, "PAYME_TIMEOUT", 10*time.Second),
		},
		sandbox: envBool(logger, "PAYME_SANDBOX", false),
		redis: redisConfig{
			addr:           os.Getenv("REDIS_ADDR"),
			idempotencyTTL: envDuration(logger, "IDEMPOTENCY_TTL", 24*time.Hour),
		},
		kafka: kafkaConfig{
			brokers: envList("KAFKA_BROKERS"),
			topic:   envOr("KAFKA_PAYMENTS_TOPIC", "payments.events"),
		},
		rateLimiter: LoadRateLimiterConfig(logger),
	}
}

var version = "0.3.0"

//	@title			Bozor Payments API
//	@description	Orders, products and Payme checkout.

//	@contact.name	API Support
//	@contact.url	http://www.swagger.io/support
//	@contact.email	support@swagger.io

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	logger, err := NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Infow("no .env file loaded", "error", err)
	}

	cfg := loadConfig(logger)

	if cfg.sandbox {
		// the sandbox never calls Payme, so credentials are optional
		cfg.payme.SecretKey = envOr("SECRET_KEY", "sandbox")
		cfg.payme.APIURL = envOr("PAYME_API_URL", "https://checkout.test.paycom.uz/api")
		cfg.payme.CheckoutURL = envOr("PAYME_CHECKOUT_URL", "https://checkout.test.paycom.uz")
		cfg.payme.MerchantID = envOr("MERCHANT_ID", "sandbox-merchant")
	}
	if err := Validate.Struct(cfg.payme); err != nil {
		logger.Fatalw("invalid payme configuration", "error", err)
	}

	// Database
	pool, err := db.New(cfg.db.addr, cfg.db.maxConns, cfg.db.maxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	if cfg.db.migrate {
		v, err := db.Migrate(cfg.db.addr)
		if err != nil {
			logger.Fatalw("migrations failed", "error", err)
		}
		logger.Infow("database schema up to date", "version", v)
	}

	container := storage.NewContainer(pool)

	// Payment gateways
	manager := payments.NewPaymentManager()
	if cfg.sandbox {
		logger.Warn("PAYME_SANDBOX is on: payments are simulated")
		manager.RegisterGateway(paymentsrepo.ProviderPayme, payments.NewSandboxGateway())
	} else {
		manager.RegisterGateway(paymentsrepo.ProviderPayme, payments.NewPaymeClient(cfg.payme))
	}

	svc := checkout.NewService(container, manager, checkout.Settings{
		MerchantID:  cfg.payme.MerchantID,
		CheckoutURL: cfg.payme.CheckoutURL,
		BaseURL:     cfg.baseURL,
		Lang:        cfg.payme.Lang,
		Provider:    paymentsrepo.ProviderPayme,
	}, logger)

	bgCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	// Rate limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)
	go rateLimiter.Run(bgCtx)

	// Authenticator
	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.auth.token.secret,
		cfg.auth.token.iss,
		cfg.auth.token.exp,
	)

	app := &application{
		config:        cfg,
		logger:        logger,
		products:      container.Products,
		payments:      svc,
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
	}

	if cfg.redis.addr != "" {
		rdb, err := idempotency.NewRedisClient(bgCtx, cfg.redis.addr)
		if err != nil {
			logger.Fatalw("redis unavailable", "addr", cfg.redis.addr, "error", err)
		}
		defer rdb.Close()
		app.idempotency = idempotency.NewStore(rdb, cfg.redis.idempotencyTTL)
		logger.Infow("idempotency keys enabled", "ttl", cfg.redis.idempotencyTTL)
	}

	if len(cfg.kafka.brokers) > 0 {
		writer := outbox.NewKafkaWriter(cfg.kafka.brokers)
		defer writer.Close()

		dispatcher := outbox.NewDispatcher(logger, writer, cfg.kafka.topic)
		relay := outbox.NewRelay(logger, container.Outbox, dispatcher, "relay-"+uuid.NewString())
		go func() {
			if err := relay.Run(bgCtx); err != nil {
				logger.Errorw("outbox relay stopped", "error", err)
			}
		}()
		logger.Infow("outbox relay started", "brokers", cfg.kafka.brokers, "topic", cfg.kafka.topic)
	}

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		s := container.Stat()
		if s == nil {
			return nil
		}
		return map[string]any{
			"acquired_conns": s.AcquiredConns(),
			"idle_conns":     s.IdleConns(),
			"total_conns":    s.TotalConns(),
			"max_conns":      s.MaxConns(),
		}
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux, cancelBackground))
}
