package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freshfold/freshfold-backend/api/controllers"
	"github.com/freshfold/freshfold-backend/api/middleware"
	"github.com/freshfold/freshfold-backend/internal/requests"
	"github.com/freshfold/freshfold-backend/internal/users"
	"github.com/freshfold/freshfold-backend/pkg/config"
	"github.com/freshfold/freshfold-backend/pkg/db"
	"github.com/freshfold/freshfold-backend/pkg/logger"
	"github.com/freshfold/freshfold-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	requestService requests.Service,
	userService users.Service,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", controllers.CreateRequest(requestService, logg))
			r.Get("/", controllers.ListRequests(requestService, logg))

			r.Route("/{requestID}", func(r chi.Router) {
				r.Get("/", controllers.GetRequest(requestService, logg))
				r.Patch("/", controllers.UpdateRequest(requestService, logg))
				r.Post("/cancel", controllers.CancelRequest(requestService, logg))
				r.Post("/tip", controllers.SendTip(requestService, logg))

				r.Route("/driver", func(r chi.Router) {
					r.Post("/accept", controllers.AcceptAsDriver(requestService, logg))
					r.Post("/reject", controllers.RejectAsDriver(requestService, logg))
					r.Post("/confirm", controllers.ConfirmByDriver(requestService, logg))
				})

				r.Route("/laundromat", func(r chi.Router) {
					r.Post("/accept", controllers.AcceptAsLaundromat(requestService, logg))
					r.Post("/reject", controllers.RejectAsLaundromat(requestService, logg))
					r.Post("/confirm", controllers.ConfirmByLaundromat(requestService, logg))
					r.Post("/assign", controllers.AssignToLaundromat(requestService, logg))
				})

				r.Route("/change-request", func(r chi.Router) {
					r.Post("/", controllers.CreateChangeRequest(requestService, logg))
					r.Post("/resolve", controllers.ResolveChangeRequest(requestService, logg))
				})

				r.Post("/ready", controllers.ReadyForPickup(requestService, logg))
				r.Post("/pickup", controllers.ConfirmPickup(requestService, logg))
				r.Post("/delivery/start", controllers.StartDelivery(requestService, logg))
				r.Post("/delivered", controllers.ConfirmDelivery(requestService, logg))
			})
		})

		r.Route("/drivers", func(r chi.Router) {
			r.Put("/location", controllers.UpdateDriverLocation(userService, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Put("/push-token", controllers.RegisterPushToken(userService, logg))
		})
	})

	return r
}
