package router

import (
	"github.com/labstack/echo/v4"

	"github.com/rachitkansal-dev/prayatak-backend/internal/handler"
	"github.com/rachitkansal-dev/prayatak-backend/internal/middleware"
	"github.com/rachitkansal-dev/prayatak-backend/internal/session"
)

// RegisterUsers wires the signup/verification flow, login and password
// reset, the profile surface and the admin user directory. The limiter
// covers the endpoints that hash passwords or send mail.
func RegisterUsers(e *echo.Echo, a *handler.AuthHandler, p *handler.ProfileHandler, c *handler.ContactHandler, store session.Store, limiter echo.MiddlewareFunc) {
	auth := e.Group("", limiter)
	auth.POST("/signup", a.Signup)
	auth.POST("/otp-check/:token", a.VerifyOTP)
	auth.POST("/login", a.Login)
	auth.POST("/forgot-password", a.ForgotPassword)
	auth.POST("/reset-password/:token", a.ResetPassword)

	// Logout succeeds with or without a live session, so no RequireLogin.
	e.POST("/logout", a.Logout)

	login := e.Group("", middleware.RequireLogin(store))
	login.GET("/profile", p.Me)
	login.GET("/profile/:id", p.Get)
	login.POST("/profile/:id", p.Update)
	login.DELETE("/profile/:id", p.Delete)
	login.GET("/profile/:id/blogs", p.ListBlogs)
	login.GET("/profile/:id/comments", p.ListComments)

	admin := e.Group("", middleware.RequireLogin(store), middleware.RequireAdmin())
	admin.GET("/users", p.ListUsers)
	admin.DELETE("/users/:id", p.Delete)

	e.POST("/submit-contactus", c.Submit)
	admin.GET("/contactus", c.List)
	admin.DELETE("/contactus/:id", c.Delete)
}
