package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/gw-users-auth/internal/auth"
	"github.com/sbilibin2017/gw-users-auth/internal/cookie"
	"github.com/sbilibin2017/gw-users-auth/internal/handlers"
	"github.com/sbilibin2017/gw-users-auth/internal/jwt"
	"github.com/sbilibin2017/gw-users-auth/internal/logger"
	"github.com/sbilibin2017/gw-users-auth/internal/middlewares"
	"github.com/sbilibin2017/gw-users-auth/internal/repositories"
	"github.com/sbilibin2017/gw-users-auth/internal/services"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title gw-users-auth API
// @version 1.0.0
// @description Microservice for user registration, authentication and profile management
// @host localhost:8080
// @BasePath /
// @schemes http
func main() {
	printBuildInfo()
	configPath := parseFlags()

	appHost, appPort, logLevel,
		redisHost, redisPort, redisDB, redisPassword,
		redisPoolSize, redisMinIdleConns,
		kafkaBroker, kafkaTopic,
		sessionSecret, resetSecret, verifySecret,
		sessionExp, resetExp, verifyExp,
		cookieName, cookieMaxAge,
		err := parseConfig(configPath)
	if err != nil {
		stdlog.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(),
		appHost, appPort, logLevel,
		redisHost, redisPort, redisDB, redisPassword,
		redisPoolSize, redisMinIdleConns,
		kafkaBroker, kafkaTopic,
		sessionSecret, resetSecret, verifySecret,
		sessionExp, resetExp, verifyExp,
		cookieName, cookieMaxAge,
	); err != nil {
		stdlog.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns all
// application, Redis, Kafka, token and cookie configuration.
func parseConfig(path string) (
	appHost, appPort, logLevel string,
	redisHost string, redisPort, redisDB int, redisPassword string,
	redisPoolSize, redisMinIdleConns int,
	kafkaBroker, kafkaTopic string,
	sessionSecret, resetSecret, verifySecret string,
	sessionExpSecond, resetExpSecond, verifyExpSecond int,
	cookieName string, cookieMaxAge int,
	err error,
) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	// Application config
	appHost = getEnv("APP_HOST", "localhost")
	appPort = getEnv("APP_PORT", "8080")
	logLevel = getEnv("APP_LOG_LEVEL", "info")

	// Redis config
	redisHost = getEnv("REDIS_HOST", "localhost")
	if redisPort, err = strconv.Atoi(getEnv("REDIS_PORT", "6379")); err != nil {
		return
	}
	if redisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return
	}
	redisPassword = getEnv("REDIS_PASSWORD", "")
	if redisPoolSize, err = strconv.Atoi(getEnv("REDIS_POOL_SIZE", "10")); err != nil {
		return
	}
	if redisMinIdleConns, err = strconv.Atoi(getEnv("REDIS_MIN_IDLE_CONNS", "2")); err != nil {
		return
	}

	// Kafka config. An empty broker disables event publishing.
	kafkaBroker = getEnv("KAFKA_BROKER", "")
	kafkaTopic = getEnv("KAFKA_TOPIC", "user-registrations")

	// Token config: a distinct secret per purpose, so a token issued for
	// one flow never verifies in another.
	sessionSecret = getEnv("SESSION_TOKEN_SECRET", "session_secret_key")
	resetSecret = getEnv("RESET_PASSWORD_TOKEN_SECRET", "reset_password_secret_key")
	verifySecret = getEnv("VERIFICATION_TOKEN_SECRET", "verification_secret_key")
	if sessionExpSecond, err = strconv.Atoi(getEnv("SESSION_TOKEN_EXP_SECOND", "3600")); err != nil {
		return
	}
	if resetExpSecond, err = strconv.Atoi(getEnv("RESET_PASSWORD_TOKEN_EXP_SECOND", "3600")); err != nil {
		return
	}
	if verifyExpSecond, err = strconv.Atoi(getEnv("VERIFICATION_TOKEN_EXP_SECOND", "3600")); err != nil {
		return
	}

	// Cookie config
	cookieName = getEnv("AUTH_COOKIE_NAME", "bonds")
	if cookieMaxAge, err = strconv.Atoi(getEnv("AUTH_COOKIE_MAX_AGE", "3600")); err != nil {
		return
	}

	return
}

// run initializes the logger, Redis, Kafka and the HTTP server. It sets
// up routes, applies middleware, and handles graceful shutdown.
func run(ctx context.Context,
	appHost, appPort, logLevel string,
	redisHost string, redisPort, redisDB int, redisPassword string,
	redisPoolSize, redisMinIdleConns int,
	kafkaBroker, kafkaTopic string,
	sessionSecret, resetSecret, verifySecret string,
	sessionExpSecond, resetExpSecond, verifyExpSecond int,
	cookieName string, cookieMaxAge int,
) error {
	// Initialize logger
	if err := logger.Initialize(logLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Sync()
	logger.Log.Infof("Logger initialized with level %s", logLevel)

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", redisHost, redisPort),
		Password:     redisPassword,
		DB:           redisDB,
		PoolSize:     redisPoolSize,
		MinIdleConns: redisMinIdleConns,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Log.Errorw("Redis connection error", "error", err)
		return err
	}
	defer rdb.Close()

	// Kafka writer for registration events, optional.
	var kafkaWriter services.KafkaWriter
	if kafkaBroker != "" {
		w := &kafka.Writer{
			Addr:     kafka.TCP(kafkaBroker),
			Topic:    kafkaTopic,
			Balancer: &kafka.LeastBytes{},
		}
		defer w.Close()
		kafkaWriter = w
	}

	// Purpose-scoped token strategies
	sessionJWT := jwt.New(sessionSecret, time.Duration(sessionExpSecond)*time.Second)
	resetJWT := jwt.New(resetSecret, time.Duration(resetExpSecond)*time.Second)
	verifyJWT := jwt.New(verifySecret, time.Duration(verifyExpSecond)*time.Second)

	// Cookie transport and session backend
	cookieTransport := cookie.New(cookieName, cookieMaxAge)
	backend := auth.New(cookieName, sessionJWT, cookieTransport)

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(rdb)
	userWriteRepo := repositories.NewUserWriteRepository(rdb)

	// Initialize services
	userService := services.NewUserService(userReadRepo, userWriteRepo, resetJWT, verifyJWT, kafkaWriter)

	// Initialize handlers
	registerHandler := handlers.NewRegisterHandler(userService)
	loginHandler := handlers.NewLoginHandler(userService, backend)
	logoutHandler := handlers.NewLogoutHandler(backend)
	forgotPasswordHandler := handlers.NewForgotPasswordHandler(userService)
	resetPasswordHandler := handlers.NewResetPasswordHandler(userService)
	requestVerifyTokenHandler := handlers.NewRequestVerifyTokenHandler(userService)
	verifyHandler := handlers.NewVerifyHandler(userService)
	getMeHandler := handlers.NewGetMeHandler()
	updateMeHandler := handlers.NewUpdateMeHandler(userService)
	getUserHandler := handlers.NewGetUserHandler(userService)
	updateUserHandler := handlers.NewUpdateUserHandler(userService)
	deleteUserHandler := handlers.NewDeleteUserHandler(userService)
	authenticatedRouteHandler := handlers.NewAuthenticatedRouteHandler()

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware(logger.Log))

	// Public routes
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"ok"}`))
	})
	r.Post("/auth/register", registerHandler)
	r.Post("/auth/jwt/login", loginHandler)
	r.Post("/auth/forgot-password", forgotPasswordHandler)
	r.Post("/auth/reset-password", resetPasswordHandler)
	r.Post("/auth/request-verify-token", requestVerifyTokenHandler)
	r.Post("/auth/verify", verifyHandler)

	// Protected routes resolve the current user from the session cookie
	authMiddleware := middlewares.AuthMiddleware(cookieTransport, sessionJWT, userReadRepo)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/auth/jwt/logout", logoutHandler)
		r.Get("/users/me", getMeHandler)
		r.Patch("/users/me", updateMeHandler)
		r.Get("/users/{id}", getUserHandler)
		r.Patch("/users/{id}", updateUserHandler)
		r.Delete("/users/{id}", deleteUserHandler)
		r.Get("/authenticated-route", authenticatedRouteHandler)
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", appHost, appPort)),
	))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", appHost, appPort),
		Handler: r,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", appHost, appPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
