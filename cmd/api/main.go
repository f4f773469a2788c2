package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"MarsAI_Festival/internal/config"
	"MarsAI_Festival/internal/handler"
	"MarsAI_Festival/internal/logger"
	"MarsAI_Festival/internal/middleware"
	"MarsAI_Festival/internal/pkg"
	"MarsAI_Festival/internal/repository/mysql"
	"MarsAI_Festival/internal/repository/redis"
	"MarsAI_Festival/internal/router"
	"MarsAI_Festival/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(); err != nil {
		slog.Error("marsai api stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.Setup(cfg.LogLevel)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := mysql.InitDB(cfg.MySQLDSN, log)
	if err != nil {
		return fmt.Errorf("connect mysql: %w", err)
	}
	defer func() {
		if err := mysql.Close(); err != nil {
			log.Error("close mysql", slog.Any("error", err))
		}
	}()

	// 连接redis
	if err = redis.Init(redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
		DialTimeout:  cfg.RedisDialTimeout,
		IOTimeout:    cfg.RedisIOTimeout,
	}); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := redis.Close(); err != nil {
			log.Error("close redis", slog.Any("error", err))
		}
	}()

	// 仓储
	users := &mysql.UserRepository{DB: db}
	films := &mysql.FilmRepository{DB: db}
	ratings := &mysql.RatingRepository{DB: db}
	assignments := &mysql.AssignmentRepository{DB: db}
	invitations := &mysql.InvitationRepository{DB: db}
	categories := &mysql.CategoryRepository{DB: db}
	outbox := &mysql.OutboxRepository{DB: db}
	sessions := redis.NewSessionRepository(redis.Client, cfg.AccessTokenTTL)
	ratingCache := redis.NewRatingCacheRepository(redis.Client)

	tokens := pkg.NewTokenManager(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	mailer := pkg.NewMailer(pkg.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, log)
	storage := pkg.NewStorage(cfg.UploadDir, "/uploads")

	// 业务层
	authSvc := service.NewAuthService(users, sessions, tokens, log)
	userSvc := service.NewUserService(users, sessions, log)
	inviteSvc := service.NewInvitationService(invitations, users, authSvc, mailer, cfg.FrontendURL, log)
	filmSvc := service.NewFilmService(films, storage, ratingCache, service.SubmissionLimits{
		PerEmail:     cfg.SubmitLimitPerEmail,
		EmailWindow:  cfg.SubmitEmailWindow,
		MaxFilmSize:  cfg.MaxFilmSize,
		MaxImageSize: cfg.MaxImageSize,
	}, log)
	categorySvc := service.NewCategoryService(categories)
	ratingSvc := service.NewRatingService(ratings, ratingCache, cfg.ReviewThreshold, log)
	assignSvc := service.NewAssignmentService(assignments, films, users, cfg.ReviewThreshold, log)
	superSvc := service.NewSuperJuryService(films, users, assignSvc, cfg.ReviewThreshold, cfg.RandomSubsetSize, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// outbox 投递：有 Kafka 就发 Kafka，否则只记日志；导演通知邮件也走这里
	var producer *pkg.KafkaProducer
	senders := []service.Sender{service.LogSender(log)}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = pkg.NewKafkaProducer(pkg.KafkaConfig{
			Brokers:         cfg.KafkaBrokers,
			Topic:           cfg.KafkaTopic,
			BatchTimeout:    cfg.KafkaBatchTimeout,
			WriteTimeout:    cfg.KafkaWriteTimeout,
			AutoCreateTopic: cfg.KafkaAutoCreateTopic,
		})
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		defer func() {
			if err := producer.Close(); err != nil {
				log.Error("close kafka producer", slog.Any("error", err))
			}
		}()
		senders = []service.Sender{service.KafkaSender(producer)}
	}
	senders = append(senders, service.MailSender(mailer))
	relayer := service.NewOutboxRelayer(outbox, cfg.OutboxBatch, cfg.OutboxInterval, log, senders...)

	limiter := middleware.NewIPRateLimiter(cfg.SubmitRatePerIP, cfg.SubmitBurstPerIP)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		relayer.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		limiter.RunCleanup(ctx)
	}()

	r := router.InitRouter(router.Deps{
		Log:           log,
		Tokens:        tokens,
		Sessions:      sessions,
		SubmitLimiter: limiter,
		CORSOrigins:   cfg.CORSOrigins,
		UploadDir:     cfg.UploadDir,

		Auth:        handler.NewAuthHandler(authSvc),
		Invitations: handler.NewInvitationHandler(inviteSvc),
		Users:       handler.NewUserHandler(userSvc),
		Films:       handler.NewFilmHandler(filmSvc, cfg.MaxFilmSize+2*cfg.MaxImageSize+1<<20),
		Categories:  handler.NewCategoryHandler(categorySvc),
		Jury:        handler.NewJuryHandler(filmSvc, ratingSvc, assignSvc),
		SuperJury:   handler.NewSuperJuryHandler(superSvc, assignSvc),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"mysql": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"redis": redis.Ping,
		}),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http server listening", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", slog.Any("error", err))
	}
	wg.Wait()
	return nil
}
