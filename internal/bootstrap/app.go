package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8" // 导入 redis
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm" // 导入 gorm

	// --- 导入内部包 ---
	httpHandler "waitlist-backend/internal/handler/http"
	gormpersistence "waitlist-backend/internal/infra/persistence/gorm"
	"waitlist-backend/internal/infra/setup"
	redisstate "waitlist-backend/internal/infra/state/redis"
	"waitlist-backend/internal/repository"
	"waitlist-backend/internal/service"
	"waitlist-backend/internal/tasks"
	"waitlist-backend/internal/worker"
)

// 限流计数器的存储后端
const (
	RateLimitBackendMySQL = "mysql"
	RateLimitBackendRedis = "redis"
)

// Config 结构体用于存储从环境变量或文件加载的配置
type Config struct {
	DBUser            string
	DBPassword        string
	DBHost            string
	DBPort            string
	DBName            string
	RedisAddr         string // 可选；配置后才启用 redis 限流后端和周期清理
	RedisPassword     string
	RedisDB           int
	ServerPort        string
	LogLevel          string
	AppEnv            string // 应用环境 (development/production)
	KeyPrefix         string // Redis Key 前缀
	CORSOrigin        string
	RateLimitBackend  string        // mysql / redis
	RateLimitWindow   time.Duration // IP 与邮箱键空间共享的窗口长度
	RateLimitIPMax    int64         // 每窗口每 IP 上限 (较宽松)
	RateLimitEmailMax int64         // 每窗口每邮箱上限 (较严格)
}

// LoadConfig 从环境变量加载配置
func LoadConfig() (*Config, error) {
	// 优先加载 .env 文件 (如果存在)
	_ = godotenv.Load() // 忽略错误，允许只使用环境变量

	cfg := &Config{
		DBUser:           os.Getenv("MYSQL_USER"),
		DBPassword:       os.Getenv("MYSQL_PASSWORD"),
		DBHost:           os.Getenv("MYSQL_HOST"),
		DBPort:           os.Getenv("MYSQL_PORT"),
		DBName:           os.Getenv("MYSQL_DB"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		ServerPort:       os.Getenv("SERVER_PORT"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		AppEnv:           os.Getenv("APP_ENV"),
		KeyPrefix:        os.Getenv("REDIS_KEY_PREFIX"),
		CORSOrigin:       os.Getenv("CORS_ALLOWED_ORIGIN"),
		RateLimitBackend: os.Getenv("RATE_LIMIT_BACKEND"),
		// --- 设置默认值 ---
		RateLimitWindow:   10 * time.Minute,
		RateLimitIPMax:    20,
		RateLimitEmailMax: 5,
	}

	// 处理 Redis DB
	redisDBStr := os.Getenv("REDIS_DB")
	cfg.RedisDB, _ = strconv.Atoi(redisDBStr) // 忽略错误，默认为 0

	// 限流参数允许覆盖
	if s := os.Getenv("RATE_LIMIT_WINDOW_SECONDS"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			cfg.RateLimitWindow = time.Duration(v) * time.Second
		} else {
			logrus.Warnf("Invalid RATE_LIMIT_WINDOW_SECONDS '%s', using default", s)
		}
	}
	if s := os.Getenv("RATE_LIMIT_IP_MAX"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v > 0 {
			cfg.RateLimitIPMax = v
		} else {
			logrus.Warnf("Invalid RATE_LIMIT_IP_MAX '%s', using default", s)
		}
	}
	if s := os.Getenv("RATE_LIMIT_EMAIL_MAX"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v > 0 {
			cfg.RateLimitEmailMax = v
		} else {
			logrus.Warnf("Invalid RATE_LIMIT_EMAIL_MAX '%s', using default", s)
		}
	}

	// --- 设置其他默认值和进行必要检查 ---
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development" // 默认开发环境
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "wl:" // 默认 key 前缀
	}
	if cfg.RateLimitBackend == "" {
		cfg.RateLimitBackend = RateLimitBackendMySQL
	}
	if cfg.RateLimitBackend != RateLimitBackendMySQL && cfg.RateLimitBackend != RateLimitBackendRedis {
		return nil, fmt.Errorf("RATE_LIMIT_BACKEND must be %q or %q", RateLimitBackendMySQL, RateLimitBackendRedis)
	}
	if cfg.RateLimitBackend == RateLimitBackendRedis && cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set when RATE_LIMIT_BACKEND is redis")
	}

	// 验证日志级别
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info" // 修正配置值
	}

	return cfg, nil
}

// App 结构体包含应用的所有组件和配置
type App struct {
	Config         *Config
	Log            *logrus.Logger
	DB             *gorm.DB
	RedisClient    *redis.Client
	AsynqServer    *worker.WorkerServer
	HttpServer     *http.Server
	redisClientOpt asynq.RedisClientOpt
	scheduler      *asynq.Scheduler
}

// NewApp 创建并初始化应用的所有组件
func NewApp() (*App, error) {
	// 1. 加载配置
	cfg, err := LoadConfig()
	if err != nil {
		// 使用标准输出记录启动时错误，因为 logrus 可能还未完全配置
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	// 2. 初始化 Logger
	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel) // cfg.LogLevel 已被 LoadConfig 验证
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	log.Info("Configuration loaded successfully")

	// 3. 初始化基础设施
	log.Info("Initializing infrastructure...")
	db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	log.Info("Database initialized")

	// 表结构由 SchemaManager 在请求路径上惰性保证；
	// 启动时先尝试一次，失败只告警，后续请求会重试
	schemaManager := setup.NewSchemaManager(db)
	if err := schemaManager.Ensure(context.Background()); err != nil {
		log.WithError(err).Warn("Initial schema ensure failed, will retry on demand")
	}

	var redisClient *redis.Client
	var redisClientOpt asynq.RedisClientOpt
	if cfg.RedisAddr != "" {
		redisClient, err = setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to init Redis: %w", err)
		}
		redisClientOpt = asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
		log.Info("Redis client initialized")
	}
	log.Info("Infrastructure initialized successfully")

	// 4. 初始化 Repositories
	log.Info("Initializing repositories...")
	signupRepo := gormpersistence.NewGormSignupRepository(db)
	dbRateLimitRepo := gormpersistence.NewGormRateLimitRepository(db)

	var rateLimitRepo repository.RateLimitRepository = dbRateLimitRepo
	if cfg.RateLimitBackend == RateLimitBackendRedis {
		rateLimitRepo = redisstate.NewRedisRateLimitRepository(redisClient, cfg.KeyPrefix)
	}
	log.Infof("Repositories initialized (rate limit backend: %s)", cfg.RateLimitBackend)

	// 5. 初始化 Services
	log.Info("Initializing services...")
	rateLimiter := service.NewRateLimiter(rateLimitRepo, cfg.RateLimitWindow, cfg.RateLimitIPMax, cfg.RateLimitEmailMax)
	waitlistService := service.NewWaitlistService(signupRepo, schemaManager, rateLimiter)
	log.Info("Services initialized")

	// 6. 初始化 Handlers
	waitlistHandler := httpHandler.NewWaitlistHandler(waitlistService)
	log.Info("Handlers initialized")

	// 7. 初始化 Worker Server (仅在配置了 Redis 时启用周期清理)
	var workerServer *worker.WorkerServer
	if redisClient != nil {
		// 清理永远针对 MySQL 里的计数器表；Redis 后端的计数器靠 TTL 自行过期
		workerServer = worker.NewWorkerServer(redisClientOpt, dbRateLimitRepo, cfg.RateLimitWindow, log)
		log.Info("Worker server initialized")
	}

	// 8. 初始化 Gin Engine 和路由
	log.Info("Setting up Gin router...")
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log)) // 使用 App 的 logger

	// --- 应用其他中间件 ---
	router.Use(func(c *gin.Context) { /* CORS */
		allowedOrigin := cfg.CORSOrigin
		if allowedOrigin == "" {
			allowedOrigin = "http://localhost:3000" // 开发默认
		}
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// --- 设置路由 ---
	api := router.Group("/api")
	{
		api.POST("/waitlist", waitlistHandler.Submit)
	}
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	log.Info("Router setup complete")

	// 9. 初始化 HTTP Server
	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Info("HTTP server initialized")

	// 10. 组装 App 对象
	app := &App{
		Config:         cfg,
		Log:            log,
		DB:             db,
		RedisClient:    redisClient,
		AsynqServer:    workerServer,
		HttpServer:     httpServer,
		redisClientOpt: redisClientOpt,
	}
	log.Info("Application assembled successfully")

	return app, nil
}

// Start 启动应用的所有后台 Goroutine 和 HTTP 服务器
func (a *App) Start() {
	if a.AsynqServer != nil {
		go a.AsynqServer.Start()
		a.Log.Info("Asynq worker server routine started")
		a.registerPeriodicTasks()
	}

	// 启动 HTTP 服务器
	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

func (a *App) registerPeriodicTasks() {
	scheduler := asynq.NewScheduler(a.redisClientOpt, &asynq.SchedulerOpts{})

	// 创建周期性清理任务
	taskPayload, err := tasks.NewRateLimitPurgeTask()
	if err != nil {
		a.Log.Errorf("Failed to create rate limit purge task payload: %v", err)
		return
	}
	task := asynq.NewTask(tasks.TypeRateLimitPurge, taskPayload)

	schedule := "@every 10m"
	entryID, err := scheduler.Register(schedule, task, asynq.Queue("default"))
	if err != nil {
		a.Log.Errorf("Could not register periodic rate limit purge task: %v", err)
	} else {
		a.Log.Infof("Periodic rate limit purge task registered with schedule '%s' (EntryID: %s)", schedule, entryID)
	}

	a.scheduler = scheduler
	go func() {
		a.Log.Info("Asynq scheduler starting...")
		if err := scheduler.Run(); err != nil {
			if !errors.Is(err, asynq.ErrServerClosed) {
				a.Log.Errorf("Asynq scheduler Run() failed: %v", err)
			} else {
				a.Log.Info("Asynq scheduler stopped.")
			}
		}
	}()
}

// Shutdown 优雅地关闭应用
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	// 1. 停止周期任务调度器
	if a.scheduler != nil {
		a.scheduler.Shutdown()
	}

	// 2. 优雅关闭 Worker Server
	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}

	// 3. 优雅关闭 HTTP 服务器
	a.Log.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	// 4. 关闭 Redis 连接
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		} else {
			a.Log.Info("Redis connection closed.")
		}
	}

	// 5. 数据库连接池由 GORM V2 管理，不需要显式关闭

	a.Log.Info("Application shutdown complete.")
}

// LoggerMiddleware 创建一个 Gin 中间件用于记录请求日志
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next() // 处理请求
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   clientIP,
			"method":      method,
			"path":        path,
		})

		if errorMessage != "" {
			entry.Error(errorMessage)
		} else {
			// 区分状态码记录日志级别
			if statusCode >= 500 {
				entry.Error("Server error")
			} else if statusCode >= 400 {
				entry.Warn("Client error")
			} else {
				entry.Info("Request handled")
			}
		}
	}
}
