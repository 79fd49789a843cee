package routes

import (
	"styledecor/bookings"
	"styledecor/catalog"
	"styledecor/completed"
	"styledecor/dashboard"
	"styledecor/middleware"
	"styledecor/notify"
	"styledecor/ratelim"
	"styledecor/settlement"
	"styledecor/users"

	"github.com/julienschmidt/httprouter"
)

func AddUserRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/users", middleware.Authenticate(users.SearchUsers))
	router.GET("/myUserInfo", middleware.Authenticate(users.MyUserInfo))
	router.GET("/users/:id/role", middleware.Authenticate(users.GetUserRole))
	router.POST("/users", rl.Limit(middleware.Authenticate(users.CreateOrUpdateUser)))
	router.PATCH("/users/:id/role", rl.Limit(middleware.Authenticate(users.SetUserRole)))
	router.GET("/users/:id/decorator", middleware.Authenticate(users.ListDecoratorsByStatus))
}

func AddCatalogRoutes(router *httprouter.Router, _ *ratelim.RateLimiter) {
	router.GET("/services", catalog.SearchServices)
	router.GET("/services/:id/details", catalog.ServiceDetails)
	router.GET("/latest-services", catalog.LatestServices)
}

func AddBookingRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, h *bookings.Handlers) {
	router.GET("/bookings", middleware.Authenticate(h.ListBookings))
	router.POST("/bookings", rl.Limit(middleware.Authenticate(h.CreateBooking)))
	router.PATCH("/bookings/:id/assign", rl.Limit(middleware.Authenticate(h.AssignDecorator)))
	router.PATCH("/bookings/:id/update", rl.Limit(middleware.Authenticate(h.UpdateBookingStatus)))
	router.DELETE("/bookings/:id/delete", rl.Limit(middleware.Authenticate(h.CancelBooking)))
	router.GET("/paidBookings", middleware.Authenticate(h.PaidBookings))
}

func AddSettlementRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, h *settlement.Handlers) {
	router.POST("/create-checkout-session", rl.Limit(middleware.Authenticate(h.CreateCheckoutSession)))
	router.PATCH("/payment-success", middleware.Authenticate(h.Reconcile))
	router.GET("/payments", middleware.Authenticate(h.PaymentHistory))
}

func AddCompletedRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, h *completed.Handlers) {
	router.POST("/completedService", rl.Limit(middleware.Authenticate(h.Complete)))
	router.GET("/completedService", middleware.Authenticate(h.History))
	router.GET("/completedService/:id/receipt", middleware.Authenticate(h.Receipt))
}

func AddDashboardRoutes(router *httprouter.Router, _ *ratelim.RateLimiter) {
	router.GET("/dashboard/admin/summary", middleware.Authenticate(dashboard.AdminSummary))
	router.GET("/dashboard/decorator/summary", middleware.Authenticate(dashboard.DecoratorSummary))
	router.GET("/dashboard/user/summary", middleware.Authenticate(dashboard.CustomerSummary))
}

func AddNotifyRoutes(router *httprouter.Router, hub *notify.Hub) {
	router.GET("/ws/bookings/:email", middleware.Authenticate(notify.WebSocketHandler(hub)))
}
