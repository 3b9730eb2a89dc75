package web

import (
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/refprog/backend/internal/handlers"
)

func Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Health)
	r.Get("/qr/{code}.png", handlers.QR)

	// Admin API: token rides in the JSON body, checked per operation.
	r.Route("/admin", func(ar chi.Router) {
		ar.Post("/sessions/create", handlers.SessionCreate)
		ar.Post("/sessions/delete", handlers.SessionDelete)

		ar.Post("/accounts/create", handlers.AccountCreate)
		ar.Post("/accounts/update", handlers.AccountUpdate)
		ar.Post("/accounts/delete", handlers.AccountDelete)
		ar.Post("/accounts/get", handlers.AccountGet)
		ar.Post("/accounts/list", handlers.AccountList)
		ar.Post("/accounts/roles/attach", handlers.AccountRoleAttach)
		ar.Post("/accounts/roles/detach", handlers.AccountRoleDetach)

		ar.Post("/roles/create", handlers.RoleCreate)
		ar.Post("/roles/delete", handlers.RoleDelete)
		ar.Post("/roles/get", handlers.RoleGet)
		ar.Post("/roles/list", handlers.RoleList)
		ar.Post("/roles/permissions/attach", handlers.RolePermissionAttach)
		ar.Post("/roles/permissions/detach", handlers.RolePermissionDetach)

		ar.Post("/permissions/create", handlers.PermissionCreate)
		ar.Post("/permissions/delete", handlers.PermissionDelete)
		ar.Post("/permissions/list", handlers.PermissionList)

		ar.Post("/promotions/create", handlers.PromotionCreate)
		ar.Post("/promotions/update", handlers.PromotionUpdate)
		ar.Post("/promotions/delete", handlers.PromotionDelete)
		ar.Post("/promotions/get", handlers.PromotionGet)
		ar.Post("/promotions/list", handlers.PromotionList)

		ar.Post("/partners/create", handlers.PartnerCreate)
		ar.Post("/partners/delete", handlers.PartnerDelete)
		ar.Post("/partners/delete_by_phone", handlers.PartnerDeleteByPhone)
		ar.Post("/partners/get", handlers.PartnerGet)
		ar.Post("/partners/list", handlers.PartnerList)

		ar.Post("/clients/create", handlers.ClientCreate)
		ar.Post("/clients/update", handlers.ClientUpdate)
		ar.Post("/clients/delete", handlers.ClientDelete)
		ar.Post("/clients/get", handlers.ClientGet)
		ar.Post("/clients/list", handlers.ClientList)
		ar.Post("/clients/partners", handlers.ClientListPartners)

		ar.Post("/referrals/create", handlers.ReferralCreate)
		ar.Post("/referrals/add", handlers.ReferralAdd)
		ar.Post("/referrals/delete", handlers.ReferralDelete)
		ar.Post("/referrals/get", handlers.ReferralGet)
		ar.Post("/referrals/list", handlers.ReferralList)

		ar.Post("/leads/update", handlers.LeadUpdate)
		ar.Post("/leads/list", handlers.LeadList)

		ar.Post("/clicks/delete", handlers.ClickDelete)
		ar.Post("/clicks/list", handlers.ClickList)
	})

	// Public API for the referral site, rate limited per caller IP.
	r.Route("/client", func(cr chi.Router) {
		cr.Use(PerIPLimit(5, 10))
		cr.Post("/clicks/create", handlers.ClickCreate)
		cr.Post("/leads/create", handlers.LeadCreate)
		cr.Post("/partners/check", handlers.PartnerCheck)
	})

	r.Post("/tasks/clients/sync", handlers.TaskClientsSync)

	return r
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// PerIPLimit throttles unauthenticated endpoints: each caller IP gets its own
// token bucket of rps requests per second with the given burst.
func PerIPLimit(rps rate.Limit, burst int) func(http.Handler) http.Handler {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)
	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[ip]
		if !ok {
			l = rate.NewLimiter(rps, burst)
			limiters[ip] = l
		}
		return l
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			if host, _, err := net.SplitHostPort(ip); err == nil {
				ip = host
			}
			if !limiterFor(ip).Allow() {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
