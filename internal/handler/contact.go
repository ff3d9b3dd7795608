package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rachitkansal-dev/prayatak-backend/internal/model"
	"github.com/rachitkansal-dev/prayatak-backend/internal/repository"
)

// ContactHandler handles the public contact-us form and its admin inbox.
type ContactHandler struct {
	Contacts *repository.ContactRepo
}

func NewContactHandler(r *repository.ContactRepo) *ContactHandler {
	return &ContactHandler{Contacts: r}
}

type contactReq struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Message     string `json:"message"`
}

// Submit stores a contact-us message. Open to anonymous visitors.
func (h *ContactHandler) Submit(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "email and message are required"})
	}

	msg := model.ContactMessage{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		PhoneNumber: req.PhoneNumber,
		Message:     req.Message,
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Contacts.Create(ctx, &msg); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "submit failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Message received"})
}

// List returns every submission for the admin inbox.
func (h *ContactHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	msgs, err := h.Contacts.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": msgs})
}

// Delete removes a handled submission.
func (h *ContactHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid message id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Contacts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Message not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Message deleted"})
}
