package main

import (
	"context"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/KamilBuksa/SimpleTodo/modules/activity"
	"github.com/KamilBuksa/SimpleTodo/modules/api"
	"github.com/KamilBuksa/SimpleTodo/modules/cache"
	"github.com/KamilBuksa/SimpleTodo/modules/todo"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/middleware/accesslog"
	"github.com/go-monolith/mono/middleware/requestid"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("Starting SimpleTodo server...")

	httpPort := getEnvInt("HTTP_PORT", 3000)
	redisAddr := getEnv("REDIS_ADDR", "")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	// Middleware first so it sees every service registration.
	requestIDMiddleware, err := requestid.New(requestid.WithHeaderName("X-Request-ID"))
	if err != nil {
		log.Fatalf("Failed to create request id middleware: %v", err)
	}
	if err := app.Register(requestIDMiddleware); err != nil {
		log.Fatalf("Failed to register request id middleware: %v", err)
	}

	accessLogOut, closeAccessLog := openAccessLog(getEnv("ACCESS_LOG", ""))
	defer closeAccessLog()
	accessLogMiddleware, err := accesslog.New(
		accesslog.WithOutput(accessLogOut),
		accesslog.WithFormat(accesslog.FormatJSON),
		accesslog.WithFields([]accesslog.Field{
			accesslog.FieldTimestamp,
			accesslog.FieldRequestID,
			accesslog.FieldModule,
			accesslog.FieldService,
			accesslog.FieldDurationMS,
			accesslog.FieldStatus,
		}),
	)
	if err != nil {
		log.Fatalf("Failed to create access log middleware: %v", err)
	}
	if err := app.Register(accessLogMiddleware); err != nil {
		log.Fatalf("Failed to register access log middleware: %v", err)
	}

	if redisAddr != "" {
		cachePlugin := cache.NewPluginModule(cache.Config{
			RedisAddr: redisAddr,
			Prefix:    "todo:",
			TTL:       getEnvDuration("CACHE_TTL", 5*time.Minute),
		}, logger)
		if err := app.RegisterPlugin(cachePlugin, "cache"); err != nil {
			log.Fatalf("Failed to register cache plugin: %v", err)
		}
	} else {
		log.Println("REDIS_ADDR not set, running without cache and rate limiting")
	}

	app.Register(activity.NewModule(100, logger))
	app.Register(todo.NewModule(todo.Config{
		DBPath:      getEnv("DB_PATH", "todos.db"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Debug:       getEnvBool("DB_DEBUG", false),
	}, logger))
	app.Register(api.NewModule(api.Config{
		Port:          httpPort,
		DefaultUserID: getEnv("DEFAULT_USER_ID", api.DefaultUserID),
		RateLimit: api.RateLimitConfig{
			RedisAddr:         redisAddr,
			RequestsPerWindow: getEnvInt("RATE_LIMIT_REQUESTS", 100),
			WindowSize:        getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
			KeyPrefix:         "ratelimit:",
		},
	}, logger))

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	log.Printf("SimpleTodo API listening on http://localhost:%d/api/todos", httpPort)
	log.Println("Press Ctrl+C to shutdown")

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	closeAccessLog()
	os.Exit(exitCode)
}

// openAccessLog returns stdout when path is empty.
func openAccessLog(path string) (io.Writer, func()) {
	if path == "" {
		return os.Stdout, func() {}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		log.Printf("Cannot open access log %s, using stdout: %v", path, err)
		return os.Stdout, func() {}
	}
	return f, func() { _ = f.Close() }
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}
