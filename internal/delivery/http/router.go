package http

import (
	"DormBiz/internal/config"
	"DormBiz/internal/delivery/http/controllers"
	"DormBiz/internal/delivery/http/controllers/auth"
	"DormBiz/internal/delivery/http/controllers/billing"
	"DormBiz/internal/delivery/http/controllers/campus"
	"DormBiz/internal/delivery/http/controllers/chat"
	"DormBiz/internal/delivery/http/controllers/market"
	"DormBiz/internal/delivery/http/controllers/middleware"
	"DormBiz/internal/delivery/http/controllers/offering"
	"DormBiz/internal/delivery/http/controllers/user"
	"DormBiz/internal/models"
	"DormBiz/internal/service"
	"DormBiz/pkg/logger"
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

func InitRoutes(l logger.Log, cfg *config.Config, u service.Collection, db Pinger, reg *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.AllowedOrigin,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsConfig))

	metrics := middleware.NewMetrics(reg)
	r.Use(metrics.Middleware())
	r.MaxMultipartMemory = cfg.UploadLimit

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	authProvider := middleware.NewAuthMiddlewareProvider(l, u.AuthService, cfg.Session.CookieName)
	authed := authProvider.AuthMiddleware

	statusController := controllers.NewStatusHandler(cfg.Env)
	healthController := controllers.NewHealthHandler(db)
	authController := auth.NewAuthHandler(l, u.AuthService, auth.Cookie{
		Name:   cfg.Session.CookieName,
		Domain: cfg.Session.Domain,
		Secure: cfg.Session.Secure,
		MaxAge: cfg.JWT.AccessTTL,
	})
	profileController := user.NewProfileHandler(l, u.UserService, u.BillingService)
	productController := market.NewProductHandler(l, u.ProductService)
	cartController := market.NewCartHandler(l, u.CartService)
	serviceController := offering.NewServiceHandler(l, u.OfferingService)
	bookingController := offering.NewBookingHandler(l, u.BookingService)
	courseController := campus.NewCourseHandler(l, u.CourseService)
	eventController := campus.NewEventHandler(l, u.EventService)
	chatController := chat.NewChatHandler(l, u.ChatService, u.Hub, cfg.AllowedOrigin)
	webhookController := billing.NewWebhookHandler(l, u.BillingService, cfg.Payments.MaxWebhookBodyBytes)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	r.GET("/healthz", healthController.Healthz)

	v1 := r.Group("/v1", middleware.LoggingMiddleware(l))
	{
		v1.GET("/status", statusController.Status)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", limiter.Middleware(), authController.Login)
			authGroup.POST("/register", limiter.Middleware(), authController.Register)
			authGroup.POST("/refresh", authController.Refresh)
			authGroup.POST("/logout", authed, authController.Logout)
		}

		me := v1.Group("/me", authed)
		{
			me.GET("", profileController.Me)
			me.PATCH("", profileController.UpdateMe)
			me.PUT("/avatar", profileController.UploadAvatar)
			me.GET("/subscription", profileController.Subscription)
		}
		v1.GET("/users/:user_id", authed, profileController.User)

		products := v1.Group("/products")
		{
			products.GET("", productController.List)
			products.GET("/:product_id", productController.Detail)
			products.GET("/:product_id/reviews", productController.Reviews)

			seller := products.Group("", authed)
			{
				seller.POST("", productController.Create)
				seller.PATCH("/:product_id", productController.Update)
				seller.DELETE("/:product_id", productController.Archive)
				seller.PUT("/:product_id/image", productController.UploadImage)
				seller.POST("/:product_id/reviews", productController.AddReview)
			}
		}

		cart := v1.Group("/cart", authed)
		{
			cart.GET("", cartController.Get)
			cart.POST("/items", cartController.AddItem)
			cart.PUT("/items/:product_id", cartController.SetQuantity)
			cart.DELETE("/items/:product_id", cartController.RemoveItem)
			cart.POST("/checkout", cartController.Checkout)
		}
		v1.GET("/orders", authed, cartController.Orders)

		services := v1.Group("/services")
		{
			services.GET("", serviceController.List)
			services.GET("/:service_id", serviceController.Detail)
			services.GET("/:service_id/availability", serviceController.Availability)
			services.GET("/:service_id/reviews", serviceController.Reviews)

			provider := services.Group("", authed)
			{
				provider.POST("", serviceController.Create)
				provider.PATCH("/:service_id", serviceController.Update)
				provider.DELETE("/:service_id", serviceController.Archive)
				provider.PUT("/:service_id/image", serviceController.UploadImage)
				provider.POST("/:service_id/offers", serviceController.CreateOffer)
				provider.POST("/:service_id/reviews", serviceController.AddReview)
			}
		}

		offers := v1.Group("/offers", authed)
		{
			offers.PATCH("/:offer_id", serviceController.UpdateOffer)
			offers.DELETE("/:offer_id", serviceController.DeleteOffer)
			offers.POST("/:offer_id/bookings", bookingController.Book)
		}

		bookings := v1.Group("/bookings", authed)
		{
			bookings.GET("", bookingController.Mine)
			bookings.GET("/:booking_id", bookingController.Get)
			bookings.POST("/:booking_id/confirm", bookingController.Confirm)
			bookings.POST("/:booking_id/decline", bookingController.Decline)
			bookings.POST("/:booking_id/complete", bookingController.Complete)
			bookings.POST("/:booking_id/cancel", bookingController.Cancel)
		}

		courses := v1.Group("/courses")
		{
			courses.GET("", courseController.Courses)
			courses.GET("/:course_id", courseController.Course)
			courses.GET("/:course_id/groups", courseController.Groups)
			courses.POST("/:course_id/groups", authed, courseController.CreateGroup)
			courses.POST("", authed, middleware.RequireRoles(models.AdminRole), courseController.CreateCourse)
		}

		groups := v1.Group("/groups", authed)
		{
			groups.GET("/:group_id", courseController.Group)
			groups.DELETE("/:group_id", courseController.DeleteGroup)
			groups.POST("/:group_id/join", courseController.JoinGroup)
			groups.POST("/:group_id/leave", courseController.LeaveGroup)
			groups.GET("/:group_id/assignments", courseController.Assignments)
			groups.POST("/:group_id/assignments", courseController.CreateAssignment)
		}

		assignments := v1.Group("/assignments", authed)
		{
			assignments.DELETE("/:assignment_id", courseController.DeleteAssignment)
			assignments.PUT("/:assignment_id/vote", courseController.Vote)
			assignments.DELETE("/:assignment_id/vote", courseController.RetractVote)
		}

		events := v1.Group("/events")
		{
			events.GET("", eventController.Upcoming)
			events.GET("/:event_id", eventController.Get)
			events.GET("/:event_id/attendees", eventController.Attendees)

			organizer := events.Group("", authed)
			{
				organizer.POST("", eventController.Create)
				organizer.PATCH("/:event_id", eventController.Update)
				organizer.DELETE("/:event_id", eventController.Delete)
				organizer.PUT("/:event_id/cover", eventController.UploadCover)
				organizer.POST("/:event_id/attend", eventController.Attend)
				organizer.DELETE("/:event_id/attend", eventController.CancelAttendance)
			}
		}

		chats := v1.Group("/chats", authed)
		{
			chats.GET("", chatController.List)
			chats.GET("/ws", chatController.Connect)
			chats.POST("/direct", chatController.Direct)
			chats.POST("/group", chatController.Group)
			chats.GET("/:chat_id/messages", chatController.Messages)
			chats.POST("/:chat_id/messages", chatController.Send)
			chats.POST("/:chat_id/read", chatController.MarkRead)
			chats.GET("/:chat_id/participants", chatController.Participants)
		}

		v1.POST("/webhooks/:provider", limiter.Middleware(), webhookController.Receive)
	}
	return r
}
