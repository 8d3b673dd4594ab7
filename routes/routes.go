package routes

import (
	"net/http"
	"path/filepath"

	"github.com/julienschmidt/httprouter"

	"wanderlist/auth"
	"wanderlist/catalog"
	"wanderlist/lists"
	"wanderlist/maps"
	"wanderlist/middleware"
	"wanderlist/notify"
	"wanderlist/profile"
	"wanderlist/ratelim"
	"wanderlist/search"
	"wanderlist/share"
	"wanderlist/toppicks"
	"wanderlist/utils"
)

// Deps carries the handlers and services the routes are bound to.
type Deps struct {
	Auth     *auth.Service
	Catalog  *catalog.Catalog
	Lists    *lists.Registry
	TopPicks *toppicks.Service
	Search   *search.Suggester
	Profile  *profile.Service
	Geocoder maps.Geocoder
	Hub      *notify.Hub
	WS       notify.Options

	PublicURL   string
	UploadDir   string
	RateLimiter *ratelim.RateLimiter
}

func Index(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "ok"})
}

func AddStaticRoutes(router *httprouter.Router, d Deps) {
	router.ServeFiles("/static/*filepath", http.Dir(filepath.Clean(d.UploadDir)))
}

func AddAuthRoutes(router *httprouter.Router, d Deps) {
	h := auth.Handlers{Service: d.Auth}
	router.POST("/api/auth/register", d.RateLimiter.Limit(h.Register))
	router.POST("/api/auth/login", d.RateLimiter.Limit(h.Login))
	router.POST("/api/auth/provider/:name", d.RateLimiter.Limit(h.Provider))
	router.POST("/api/auth/logout", middleware.Authenticate(d.Auth)(h.Logout))
}

func AddCatalogRoutes(router *httprouter.Router, d Deps) {
	h := catalog.Handlers{Catalog: d.Catalog}
	router.GET("/api/activities", h.ListActivities)
	router.GET("/api/activities/:id", h.GetActivity)
	router.GET("/api/attractions/:id", h.GetAttraction)
}

func AddListRoutes(router *httprouter.Router, d Deps) {
	h := lists.Handlers{Registry: d.Lists, Catalog: d.Catalog}
	s := share.Handlers{Catalog: d.Catalog, Registry: d.Lists, PublicURL: d.PublicURL}
	authed := middleware.Authenticate(d.Auth)

	router.GET("/api/lists/bucket", authed(h.GetBucketList))
	router.POST("/api/lists/bucket", authed(h.AddToBucketList))
	router.DELETE("/api/lists/bucket/:id", authed(h.RemoveFromBucketList))
	router.POST("/api/lists/bucket/:id/visit", authed(h.MoveToVisited))
	router.GET("/api/lists/bucket/export", authed(s.ExportBucketList))

	router.GET("/api/lists/visited", authed(h.GetVisitedList))
	router.POST("/api/lists/visited", authed(h.AddToVisitedList))
	router.DELETE("/api/lists/visited/:id", authed(h.RemoveVisitedActivity))
	router.PUT("/api/lists/visited/:id/rating", authed(h.SetRating))
	router.PUT("/api/lists/visited/:id/note", authed(h.SetNote))
}

func AddTopPicksRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/toppicks", middleware.OptionalAuth(d.Auth)(toppicks.Handler(d.TopPicks)))
}

func AddSearchRoutes(router *httprouter.Router, d Deps) {
	h := search.Handlers{Suggester: d.Search}
	router.GET("/api/search/suggest", d.RateLimiter.Limit(h.Suggest))
	router.GET("/api/search", d.RateLimiter.Limit(h.Search))
}

func AddProfileRoutes(router *httprouter.Router, d Deps) {
	h := profile.Handlers{Service: d.Profile}
	authed := middleware.Authenticate(d.Auth)
	router.GET("/api/me/profile", authed(h.GetProfile))
	router.PUT("/api/me/profile", authed(h.UpdateProfile))
	router.PUT("/api/me/preferences", authed(h.SetPreferences))
	router.POST("/api/me/icon", authed(h.UploadIcon))
}

func AddShareRoutes(router *httprouter.Router, d Deps) {
	h := share.Handlers{Catalog: d.Catalog, Registry: d.Lists, PublicURL: d.PublicURL}
	router.GET("/api/share/:id/qr", h.ActivityQR)
}

func AddMapRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/geocode", d.RateLimiter.Limit(maps.GeocodeHandler(d.Geocoder)))
}

func AddNotifyRoutes(router *httprouter.Router, d Deps) {
	router.GET("/ws", notify.WebSocketHandler(d.Hub, d.WS))
}
