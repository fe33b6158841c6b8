package handlers

import (
	"net/http"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/notify"
	"restaurant-pos-api/orders"

	"github.com/gin-gonic/gin"
)

// Svc and Dispatcher are wired from main before the routes are registered.
var (
	Svc        *orders.Service
	Dispatcher *notify.Dispatcher
)

func Init(svc *orders.Service, dispatcher *notify.Dispatcher) {
	Svc = svc
	Dispatcher = dispatcher
}

// fail maps the error taxonomy onto HTTP statuses.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindInvalidState:
		status = http.StatusUnprocessableEntity
	case apperr.KindValidation:
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{
		"error": err.Error(),
		"kind":  apperr.KindOf(err).String(),
	})
}
