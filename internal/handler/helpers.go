// Package handler contains the HTTP handlers. Handlers bind a request DTO,
// run the matching repository operation under a bounded context, and map
// sentinel errors to stable statuses with short JSON messages.
package handler

import (
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rachitkansal-dev/prayatak-backend/internal/middleware"
	"github.com/rachitkansal-dev/prayatak-backend/internal/queue"
	"github.com/rachitkansal-dev/prayatak-backend/internal/repository"
	"github.com/rachitkansal-dev/prayatak-backend/internal/session"
	"github.com/rachitkansal-dev/prayatak-backend/internal/storage"
)

// dbTimeout bounds every database call made from a handler.
const dbTimeout = 5 * time.Second

// DefaultImage is stored when no file is uploaded or object storage is off.
const DefaultImage = "/default.png"

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// sessionClaims returns the claims RequireLogin stored on the context.
// The zero value means the route was registered without RequireLogin.
func sessionClaims(c echo.Context) session.Claims {
	claims, _ := c.Get(middleware.ClaimsKey).(session.Claims)
	return claims
}

func requesterFrom(claims session.Claims) repository.Requester {
	return repository.Requester{UserID: claims.UserID, IsAdmin: claims.IsAdmin}
}

// setSessionCookie attaches the opaque session id to the response.
func setSessionCookie(c echo.Context, id string) {
	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(session.TTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie on the client.
func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// dispatchMail queues an email without ever failing the request. A broken
// broker or relay is an operational problem, not the caller's.
func dispatchMail(ctx context.Context, d queue.Dispatcher, to, subject, body string) {
	ev := queue.EmailRequestedEvent{
		To:          to,
		Subject:     subject,
		Body:        body,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := d.DispatchEmail(ctx, ev); err != nil {
		slog.Error("email dispatch failed", "to", to, "subject", subject, "err", err)
	}
}

// uploadImage stores the named multipart file and returns its reference.
// Missing file, missing uploader or a failed upload all fall back to the
// default image so a broken bucket never blocks a create.
func uploadImage(c echo.Context, up storage.Uploader, field, prefix string) string {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil {
		return DefaultImage
	}
	if up == nil {
		slog.Warn("image upload skipped, no object storage configured", "file", fh.Filename)
		return DefaultImage
	}
	url, err := storeFile(c.Request().Context(), up, fh, prefix)
	if err != nil {
		slog.Error("image upload failed", "file", fh.Filename, "err", err)
		return DefaultImage
	}
	return url
}

func storeFile(ctx context.Context, up storage.Uploader, fh *multipart.FileHeader, prefix string) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return up.Upload(ctx, storage.ObjectKey(prefix, fh.Filename), contentType, f)
}
