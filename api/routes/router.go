package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bitescout/bitescout-backend/api/controllers"
	"github.com/bitescout/bitescout-backend/api/middleware"
	"github.com/bitescout/bitescout-backend/internal/access"
	"github.com/bitescout/bitescout-backend/internal/notifications"
	"github.com/bitescout/bitescout-backend/internal/realtime"
	"github.com/bitescout/bitescout-backend/pkg/config"
	"github.com/bitescout/bitescout-backend/pkg/db"
	"github.com/bitescout/bitescout-backend/pkg/enums"
	"github.com/bitescout/bitescout-backend/pkg/logger"
	"github.com/bitescout/bitescout-backend/pkg/redis"
)

// DefaultPermissionRules is the static route-prefix policy. Transition
// endpoints are restricted to management roles; everything else under the
// gate admits any authenticated role.
func DefaultPermissionRules() []middleware.PermissionRule {
	return []middleware.PermissionRule{
		{
			Prefix: "/api/v1/restaurant-access/access",
			Roles:  []enums.MemberRole{enums.MemberRoleOwner, enums.MemberRoleAdmin},
		},
		{
			Prefix: "/api/v1/restaurant-access",
			Roles: []enums.MemberRole{
				enums.MemberRoleOwner, enums.MemberRoleAdmin,
				enums.MemberRoleManager, enums.MemberRoleStaff, enums.MemberRoleUser,
			},
		},
		{
			Prefix: "/api/v1/notifications",
			Roles: []enums.MemberRole{
				enums.MemberRoleOwner, enums.MemberRoleAdmin,
				enums.MemberRoleManager, enums.MemberRoleStaff, enums.MemberRoleUser,
			},
		},
	}
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *realtime.Registry,
	accessService access.Service,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	// A typed-nil *redis.Client would dodge the readiness handler's nil
	// guard, so only hand it over when it is actually wired.
	var redisP db.Pinger
	if redisClient != nil {
		redisP = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	// Identity for the live channel is established in-band, so the
	// upgrade itself stays outside the gate.
	r.Get("/ws", controllers.LiveChannel(registry, cfg.Realtime, logg))

	table := middleware.NewPermissionTable(cfg.Permissions, DefaultPermissionRules())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Permissions(table, logg))

		r.Route("/restaurant-access", func(r chi.Router) {
			r.Post("/{restaurantId}", controllers.RequestAccess(accessService, logg))
			r.Get("/user/{userId}", controllers.ListAccessByUser(accessService, logg))
			r.Get("/owner/{ownerId}", controllers.ListAccessByOwner(accessService, logg))

			r.Route("/access/{accessId}", func(r chi.Router) {
				r.Patch("/grant", controllers.GrantAccess(accessService, logg))
				r.Patch("/suspend", controllers.SuspendAccess(accessService, logg))
				r.Patch("/delete", controllers.DeactivateAccess(accessService, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/{userId}", controllers.ListNotifications(notificationsService, logg))
			r.Patch("/{userId}/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Patch("/{userId}/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	return r
}
