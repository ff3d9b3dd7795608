package router

import (
	"github.com/labstack/echo/v4"

	"github.com/rachitkansal-dev/prayatak-backend/internal/handler"
	"github.com/rachitkansal-dev/prayatak-backend/internal/middleware"
	"github.com/rachitkansal-dev/prayatak-backend/internal/session"
)

// RegisterBlogs wires the blog surface. Reading is public; every mutation
// requires a session, ownership checks happen in the repository.
func RegisterBlogs(e *echo.Echo, b *handler.BlogHandler, store session.Store) {
	e.GET("/blog", b.List)
	e.GET("/blog/:id", b.Get)

	login := e.Group("/blog", middleware.RequireLogin(store))
	login.POST("/create", b.Create)
	login.POST("/edit/:id", b.Edit)
	login.DELETE("/:id", b.Delete)

	login.POST("/:id/comment", b.CreateComment)
	login.DELETE("/:id/comment/:c_id", b.DeleteComment)

	login.POST("/:id/like", b.LikeBlog)
	login.POST("/:id/dislike", b.DislikeBlog)
	login.POST("/comment/:c_id/like", b.LikeComment)
	login.POST("/comment/:c_id/dislike", b.DislikeComment)
}
