package routes

import (
	"github.com/julienschmidt/httprouter"
)

// RoutesWrapper registers every route group on router.
func RoutesWrapper(router *httprouter.Router, d Deps) {
	router.GET("/health", Index)
	AddStaticRoutes(router, d)
	AddAuthRoutes(router, d)
	AddCatalogRoutes(router, d)
	AddListRoutes(router, d)
	AddTopPicksRoutes(router, d)
	AddSearchRoutes(router, d)
	AddProfileRoutes(router, d)
	AddShareRoutes(router, d)
	AddMapRoutes(router, d)
	AddNotifyRoutes(router, d)
}
