package bootstrap

import (
	"context"
	"log"
	"time"

	"saas-billing-be/internal/config"
	"saas-billing-be/internal/controller"
	"saas-billing-be/internal/pkg/gateway"
	"saas-billing-be/internal/pkg/logger"
	"saas-billing-be/internal/pkg/mailer"
	"saas-billing-be/internal/pkg/serverutils"
	"saas-billing-be/internal/repository/memory"
	"saas-billing-be/internal/repository/redisstore"
	"saas-billing-be/internal/repository/unitofwork"
	"saas-billing-be/internal/service"
	"saas-billing-be/pkg/billing/audit"
	"saas-billing-be/pkg/billing/checkout"
	"saas-billing-be/pkg/billing/customer"
	billingEvents "saas-billing-be/pkg/billing/events"
	"saas-billing-be/pkg/billing/query"
	"saas-billing-be/pkg/billing/reaper"
	"saas-billing-be/pkg/billing/reconciler"
	"saas-billing-be/pkg/events"
	pktNats "saas-billing-be/pkg/nats"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const consumerGroup = "billing-notifications"

type Container struct {
	// Controllers
	AuthController         controller.IAuthController
	UserController         controller.IUserController
	SubscriptionController controller.ISubscriptionController
	InvoiceController      controller.IInvoiceController
	WebhookController      controller.IWebhookController
	AdminController        controller.IAdminController

	// Background workers, started by main.go
	ConsumerService service.IConsumerService
	Reaper          *reaper.Reaper
	ReaperInterval  time.Duration

	Logger  logger.ILogger
	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	webhookLogger := logger.NewIsolatedLogger(cfg.App.WebhookLogFilePath)

	emailService, err := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
		cfg.App.Name,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to load email templates: %v", err)
	}

	c := &Container{Logger: sysLogger}

	// 2. Event bus: NATS JetStream when reachable, otherwise in-process
	var publisher events.Publisher
	var subscriber events.Subscriber
	natsPub, pubErr := pktNats.NewPublisher(cfg.App.NatsURL)
	natsSub, subErr := pktNats.NewSubscriber(cfg.App.NatsURL, consumerGroup)
	if pubErr == nil && subErr == nil {
		publisher, subscriber = natsPub, natsSub
		c.closers = append(c.closers, natsPub.Close, natsSub.Close)
	} else {
		log.Printf("[WARN] NATS unavailable (%v / %v), using in-process event bus", pubErr, subErr)
		if natsPub != nil {
			natsPub.Close()
		}
		if natsSub != nil {
			natsSub.Close()
		}
		bus := events.NewChannelBus()
		publisher, subscriber = bus, bus
		c.closers = append(c.closers, func() { _ = bus.Close() })
	}

	// 3. Redis delivery tracker, optional
	var tracker *redisstore.DeliveryTracker
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Webhook delivery tracking disabled", err)
		_ = rdb.Close()
	} else {
		tracker = redisstore.NewDeliveryTracker(rdb, cfg.Billing.DeliveryTTL)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}
	cancel()

	// 4. Billing provider
	stripeGateway := gateway.NewStripeGateway(cfg.Stripe.SecretKey)
	verifier := gateway.NewStripeVerifier(cfg.Stripe.WebhookSecret)
	priceCatalog := memory.NewPriceCatalog(stripeGateway, cfg.Billing.PriceCacheTTL)

	// 5. Billing components
	auditWriter := audit.NewWriter(uowFactory, sysLogger)
	billingPublisher := billingEvents.NewBusPublisher(publisher, sysLogger)
	linker := customer.NewLinker(stripeGateway, sysLogger)
	initiator := checkout.NewInitiator(
		uowFactory,
		stripeGateway,
		priceCatalog,
		linker,
		auditWriter,
		billingPublisher,
		sysLogger,
		checkout.Config{
			PriceIDs:   cfg.Stripe.PriceIDs(),
			SuccessURL: cfg.Stripe.SuccessURL,
			CancelURL:  cfg.Stripe.CancelURL,
		},
	)
	rec := reconciler.NewReconciler(uowFactory, stripeGateway, auditWriter, billingPublisher, webhookLogger)
	queries := query.NewFacade(uowFactory)

	c.Reaper = reaper.NewReaper(uowFactory, stripeGateway, auditWriter, sysLogger, cfg.Billing.PendingTTL)
	c.ReaperInterval = cfg.Billing.ReaperInterval

	// 6. Services
	authService := service.NewAuthService(uowFactory, emailService, sysLogger, cfg.Auth, cfg.App.ClientURL)
	userService := service.NewUserService(uowFactory, sysLogger)
	subscriptionService := service.NewSubscriptionService(
		uowFactory,
		stripeGateway,
		initiator,
		rec,
		queries,
		auditWriter,
		billingPublisher,
		sysLogger,
		cfg.Stripe.PortalReturnURL,
	)
	webhookService := service.NewWebhookService(verifier, rec, tracker, webhookLogger)
	invoiceService := service.NewInvoiceService(uowFactory, emailService, sysLogger)
	adminLogService := service.NewAdminLogService(sysLogger, webhookLogger)
	c.ConsumerService = service.NewConsumerService(subscriber, uowFactory, emailService, sysLogger)

	// 7. Controllers
	auth := serverutils.JwtMiddleware(cfg.Auth.JWTSecret)
	c.AuthController = controller.NewAuthController(authService)
	c.UserController = controller.NewUserController(userService, auth)
	c.SubscriptionController = controller.NewSubscriptionController(subscriptionService, auth)
	c.InvoiceController = controller.NewInvoiceController(invoiceService, auth)
	c.WebhookController = controller.NewWebhookController(webhookService)
	c.AdminController = controller.NewAdminController(adminLogService, auth)

	c.closers = append(c.closers, func() {
		_ = sysLogger.Sync()
		_ = webhookLogger.Sync()
	})
	return c
}

// Close releases broker and cache connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
