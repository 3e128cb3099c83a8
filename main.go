package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reservelt/config"
	"reservelt/cron"
	"reservelt/database"
	bookingRepo "reservelt/database/repository/booking"
	invoiceRepo "reservelt/database/repository/invoice"
	notificationRepo "reservelt/database/repository/notification"
	otpRepo "reservelt/database/repository/otp"
	paymentRepo "reservelt/database/repository/payment"
	userRepo "reservelt/database/repository/user"
	"reservelt/handlers"
	"reservelt/middleware"
	"reservelt/routes"
	"reservelt/services/booking"
	"reservelt/services/documents"
	"reservelt/services/notification"
	"reservelt/services/overdue"
	"reservelt/services/payment"
	"reservelt/services/storage"
	"reservelt/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// stores holds the repositories for the configured driver.
type stores struct {
	bookings      bookingRepo.BookingRepository
	codes         otpRepo.OTPRepository
	payments      paymentRepo.PaymentRepository
	users         userRepo.UserRepository
	notifications notificationRepo.NotificationRepository
	invoices      invoiceRepo.InvoiceRepository
}

func openStores(logger *zap.Logger) stores {
	if config.AppConfig.StoreDriver == "memory" {
		logger.Warn("using in-memory store; data is lost on restart")
		return stores{
			bookings:      bookingRepo.NewMemoryBookingRepo(),
			codes:         otpRepo.NewMemoryOTPRepo(),
			payments:      paymentRepo.NewMemoryPaymentRepo(),
			users:         userRepo.NewMemoryUserRepo(),
			notifications: notificationRepo.NewMemoryNotificationRepo(),
			invoices:      invoiceRepo.NewMemoryInvoiceRepo(),
		}
	}
	database.InitDB()
	db := database.Database()
	return stores{
		bookings:      bookingRepo.NewMongoBookingRepo(db),
		codes:         otpRepo.NewMongoOTPRepo(db),
		payments:      paymentRepo.NewMongoPaymentRepo(db),
		users:         userRepo.NewMongoUserRepo(db),
		notifications: notificationRepo.NewMongoNotificationRepo(db),
		invoices:      invoiceRepo.NewMongoInvoiceRepo(db),
	}
}

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	zap.ReplaceGlobals(logger)
	cfg := config.AppConfig

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	repos := openStores(logger)

	// Redis backs the webhook ledger, the scan lock and the email queue.
	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = utils.GetCacheClient()
	}
	utils.StartHealthMonitor(rootCtx, cache, database.MongoClient)

	var ledger payment.EventLedger = payment.NewMemoryEventLedger()
	var locker cron.Locker = cron.NewMemoryLocker()
	if cache != nil {
		ledger = payment.NewRedisEventLedger(cache, 72*time.Hour)
		locker = cron.NewRedisLocker(cache)
	}

	processor, err := payment.NewProcessor(cfg.StripeKey, cfg.StripeWebhookSecret, config.IsProduction())
	if err != nil {
		logger.Fatal("main: payment gateway unavailable", zap.Error(err))
	}
	if _, stub := processor.(*payment.StubProcessor); stub {
		logger.Warn("STRIPE_KEY not set; using the stub payment processor")
	}

	var push notification.Pusher
	fcm, err := utils.FirebaseInit(rootCtx)
	if err != nil {
		logger.Error("push notifications disabled", zap.Error(err))
	} else if fcm != nil {
		push = fcm
	}

	var mail notification.Enqueuer
	var worker *cron.EmailWorker
	if cache != nil {
		queueOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisQueueDB}
		queue := asynq.NewClient(queueOpts)
		defer queue.Close()
		mail = queue

		var mailer cron.Mailer = cron.LogMailer{Logger: logger}
		if cfg.SMTPHost != "" {
			mailer = cron.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
		}
		worker = cron.NewEmailWorker(mailer, logger)
		worker.Start()
	}

	notifier, err := notification.NewDefaultNotificationService(repos.notifications, repos.users, push, mail, logger)
	if err != nil {
		logger.Fatal("main: failed to build notification service", zap.Error(err))
	}

	cld, err := utils.Cloudinary()
	if err != nil {
		logger.Fatal("main: failed to initialize cloudinary", zap.Error(err))
	}
	var store storage.StorageService
	if cld != nil {
		store = storage.NewStorageService(cld)
	}
	docs := documents.NewDefaultDocumentService(repos.invoices, store, cfg.Currency)

	bookingService := &booking.DefaultBookingService{
		Bookings:  repos.bookings,
		Codes:     repos.codes,
		Payments:  repos.payments,
		Users:     repos.users,
		Processor: processor,
		Events:    ledger,
		Notifier:  notifier,
		Documents: docs,
		Rates:     booking.Rates{PlatformFee: cfg.PlatformFeeRate, DailyLateFee: cfg.DailyLateFeeRate},
		Currency:  cfg.Currency,
		CodeTTL:   cfg.OTPTTL,
		Logger:    logger,
	}

	monitor := overdue.NewMonitor(repos.bookings, notifier, cfg.WarningFeeRate, cfg.DailyLateFeeRate, logger)
	scheduler := cron.NewOverdueScheduler(monitor, locker, cfg.OverdueScanInterval, cfg.OverdueLockTTL, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("main: failed to start overdue scheduler", zap.Error(err))
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin, logger))

	handlerBundle := &handlers.HandlerBundle{
		Booking:         handlers.NewBookingHandler(bookingService, repos.invoices, logger),
		Webhook:         handlers.NewWebhookHandler(bookingService, logger),
		Notification:    handlers.NewNotificationHandler(notifier, logger),
		User:            handlers.NewUserHandler(repos.users, logger),
		CheckOverdue:    handlers.CheckOverdue(scheduler, logger),
		Health:          handlers.Health,
		RequireIdentity: cfg.JWTSecret != "",
	}
	routes.RegisterRoutes(router, handlerBundle)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	scheduler.Stop(ctx)
	if worker != nil {
		worker.Stop()
	}
	stopBackground()
	if err := database.CloseDB(ctx); err != nil {
		logger.Warn("main: failed to close database", zap.Error(err))
	}
	logger.Sugar().Info("main: server stopped gracefully")
}
