package router

import (
	"github.com/labstack/echo/v4"

	"github.com/rachitkansal-dev/prayatak-backend/internal/handler"
	"github.com/rachitkansal-dev/prayatak-backend/internal/middleware"
	"github.com/rachitkansal-dev/prayatak-backend/internal/session"
)

// RegisterLostFound wires the /lf tracker: public browsing, authenticated
// reporting and claiming, and the admin moderation surface.
func RegisterLostFound(e *echo.Echo, i *handler.ItemHandler, store session.Store) {
	lf := e.Group("/lf")
	lf.GET("/items", i.ListItems)
	lf.GET("/items/:id", i.GetItem)
	lf.GET("/type/:id", i.ListByType)
	lf.GET("/location/:id", i.ListByLocation)
	lf.GET("/search", i.Search)
	lf.GET("/claim-item", i.ListAllClaims)
	lf.POST("/addcomment", i.AddWallComment)
	lf.GET("/lfcomments", i.ListWallComments)

	login := e.Group("/lf", middleware.RequireLogin(store))
	login.POST("/items", i.CreateItem)
	login.GET("/user-lost", i.MyLostItems)
	login.GET("/user-found", i.MyFoundItems)
	login.POST("/claim-request", i.CreateClaim)
	login.GET("/my-claim-requests", i.MyClaims)
	login.DELETE("/claim-request/:id", i.DeleteClaim)

	admin := e.Group("/lf", middleware.RequireLogin(store), middleware.RequireAdmin())
	admin.GET("/admin-lost", i.AdminLostItems)
	admin.GET("/admin-found", i.AdminFoundItems)
	admin.GET("/admin-claim-requests", i.AdminClaimRequests)
	admin.DELETE("/items/:id", i.DeleteItem)
}
