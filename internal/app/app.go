package app

import (
	"DormBiz/internal/app/server"
	"DormBiz/internal/config"
	"DormBiz/internal/delivery/http"
	"DormBiz/internal/delivery/http/controllers"
	"DormBiz/internal/models"
	"DormBiz/internal/service"
	"DormBiz/internal/service/auth"
	"DormBiz/internal/service/billing"
	"DormBiz/internal/service/booking"
	"DormBiz/internal/service/cart"
	"DormBiz/internal/service/chat"
	"DormBiz/internal/service/course"
	"DormBiz/internal/service/event"
	"DormBiz/internal/service/offering"
	"DormBiz/internal/service/product"
	"DormBiz/internal/service/user"
	"DormBiz/internal/storage/elastic"
	"DormBiz/internal/storage/minio_storage"
	"DormBiz/internal/storage/postgres"
	"DormBiz/pkg/logger"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// searchIndex is what the listing services need from the search cluster.
// It stays a nil interface when search is disabled.
type searchIndex interface {
	Index(ctx context.Context, doc models.SearchDocument) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, size int) ([]uuid.UUID, error)
}

type buckets struct {
	avatars, products, services, events *minio_storage.ImageStorage
}

func openBuckets(ctx context.Context, cfg config.Minio) (*buckets, error) {
	storage, err := minio_storage.NewMinioStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("minio: %w", err)
	}
	b := &buckets{}
	for kind, dst := range map[string]**minio_storage.ImageStorage{
		config.BucketAvatars:  &b.avatars,
		config.BucketProducts: &b.products,
		config.BucketServices: &b.services,
		config.BucketEvents:   &b.events,
	} {
		images, err := minio_storage.NewImageStorage(ctx, storage, cfg.Bucket(kind))
		if err != nil {
			return nil, fmt.Errorf("minio bucket %s: %w", kind, err)
		}
		*dst = images
	}
	return b, nil
}

func openSearch(ctx context.Context, log logger.Log, cfg config.ES) (products, services searchIndex) {
	if cfg.DisableSearch || len(cfg.Hosts) == 0 {
		log.Info("search disabled, text queries go to postgres")
		return nil, nil
	}
	client, err := elastic.NewElasticClient(cfg)
	if err != nil {
		log.Warn("search unavailable, text queries go to postgres", "error", err.Error())
		return nil, nil
	}
	productIndex := elastic.NewListingSearchRepository(client, cfg.ProductIndex)
	serviceIndex := elastic.NewListingSearchRepository(client, cfg.ServiceIndex)
	for _, idx := range []*elastic.ListingSearchRepo{productIndex, serviceIndex} {
		if err := idx.CreateIndexIfNotExist(ctx); err != nil {
			log.Warn("search index not ready, text queries go to postgres", "error", err.Error())
			return nil, nil
		}
	}
	return productIndex, serviceIndex
}

// Migrate runs a goose command against the configured database.
func Migrate(cfg *config.Config, command string, args ...string) error {
	ctx := context.Background()
	pg, err := postgres.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()
	return pg.Migrate(ctx, command, args...)
}

func Run(cfg *config.Config, migrate bool) {
	log := logger.New(cfg.Env)
	log.Info("Starting with Env: " + cfg.Env)
	ctx := context.Background()

	pg, err := postgres.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.FatalErr("error connecting to database", err)
	}
	defer pg.Close()
	if err := pg.Ping(ctx); err != nil {
		log.FatalErr("database is not reachable", err)
	}
	if migrate {
		if err := pg.Migrate(ctx, "up"); err != nil {
			log.FatalErr("error applying migrations", err)
		}
	}

	images, err := openBuckets(ctx, cfg.Minio)
	if err != nil {
		log.FatalErr("error preparing object storage", err)
	}
	productSearch, serviceSearch := openSearch(ctx, log, cfg.ES)

	if err := controllers.RegisterValidators(); err != nil {
		log.FatalErr("error registering validators", err)
	}

	userRepo := postgres.NewUserPostgres(pg.Pool)
	tokenRepo := postgres.NewTokensPostgres(pg.Pool)
	productRepo := postgres.NewProductPostgres(pg.Pool)
	cartRepo := postgres.NewCartPostgres(pg.Pool)
	serviceRepo := postgres.NewServicePostgres(pg.Pool)
	bookingRepo := postgres.NewBookingPostgres(pg.Pool)
	courseRepo := postgres.NewCoursePostgres(pg.Pool)
	eventRepo := postgres.NewEventPostgres(pg.Pool)
	chatRepo := postgres.NewChatPostgres(pg.Pool)
	subscriptionRepo := postgres.NewSubscriptionPostgres(pg.Pool)

	loc := cfg.Location()
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	hub := chat.NewHub(log.With("component", "hub"), cfg.Chat.SendQueue, cfg.Chat.WriteTimeout, cfg.Chat.PingInterval)
	defer hub.Close()

	u := service.Collection{
		AuthService:    auth.NewAuthService(log, jwtManager, userRepo, tokenRepo),
		UserService:    user.NewUserService(log, userRepo, images.avatars, cfg.UploadLimit),
		ProductService: product.NewProductService(log, productRepo, productRepo, productRepo, userRepo, images.products, productSearch, cfg.UploadLimit),
		CartService:    cart.NewCartService(log, cartRepo, productRepo),
		OfferingService: offering.NewOfferingService(log, offering.Deps{
			Services: serviceRepo,
			Offers:   serviceRepo,
			Reviews:  serviceRepo,
			Bookings: bookingRepo,
			Users:    userRepo,
			Images:   images.services,
			Search:   serviceSearch,
		}, loc, cfg.UploadLimit),
		BookingService: booking.NewBookingService(log, bookingRepo, serviceRepo, serviceRepo, loc),
		CourseService:  course.NewCourseService(log, courseRepo, courseRepo, courseRepo),
		EventService:   event.NewEventService(log, eventRepo, images.events, cfg.UploadLimit),
		ChatService:    chat.NewChatService(log, chatRepo, userRepo, hub),
		Hub:            hub,
		BillingService: billing.NewBillingService(log, subscriptionRepo, userRepo, billing.Secrets{
			Stripe:          cfg.Payments.StripeSecret,
			StripeTolerance: cfg.Payments.StripeTolerance,
			Paystack:        cfg.Payments.PaystackSecret,
			LemonSqueezy:    cfg.Payments.LemonSqueezySecret,
			DefaultPlan:     cfg.Payments.DefaultPlan,
		}),
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := http.InitRoutes(log, cfg, u, pg, reg)

	srv := server.New(cfg.HTTPServer.Address, cfg.HTTPServer.Timeout, cfg.HTTPServer.IdleTimeout, cfg.ShutdownAfter, r)
	srv.Start()
	log.Info("http server started", "address", cfg.HTTPServer.Address)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		log.Info("app signal: " + s.String())
	case err := <-srv.Notify():
		if err != nil {
			log.ErrorErr("http server stopped", err)
		}
	}
	if err := srv.Shutdown(); err != nil {
		log.ErrorErr("error shutting down http server", err)
	}
}
