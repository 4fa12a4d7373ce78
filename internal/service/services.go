package service

import (
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
)

type Collection struct {
	*auth.AuthService
	*user.UserService
	*product.ProductService
	*cart.CartService
	*offering.OfferingService
	*booking.BookingService
	*course.CourseService
	*event.EventService
	*chat.ChatService
	*chat.Hub
	*billing.BillingService
}
