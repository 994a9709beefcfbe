package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"tahuri-backend/database"
	"tahuri-backend/logger/sl"
	"tahuri-backend/models"
	"tahuri-backend/services"
	"tahuri-backend/utils"
)

const msgInternal = "internal server error"

// errorStatuses maps sentinel errors to their status code. The sentinel's
// own text is the message shown to the client.
var errorStatuses = []struct {
	err    error
	status int
}{
	{database.ErrEventNotFound, http.StatusNotFound},
	{database.ErrRegistrationNotFound, http.StatusNotFound},
	{database.ErrAdminNotFound, http.StatusNotFound},

	{models.ErrRegistrationInactive, http.StatusConflict},
	{models.ErrAlreadyCheckedIn, http.StatusConflict},
	{models.ErrNotCheckedIn, http.StatusConflict},
	{models.ErrRegistrationCheckedIn, http.StatusConflict},
	{models.ErrEventHasRegistrations, http.StatusConflict},
	{models.ErrEventInactive, http.StatusConflict},
	{models.ErrEventFull, http.StatusConflict},
	{database.ErrNIKExists, http.StatusConflict},
	{database.ErrCodeExists, http.StatusConflict},

	{models.ErrInvalidFilter, http.StatusBadRequest},
	{services.ErrInvalidCredentials, http.StatusUnauthorized},
}

// classify returns the status, client message and field errors for err.
func classify(err error) (int, string, map[string]string) {
	var verrs utils.ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest, "validation failed", verrs.Fields()
	}
	var verr utils.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Message, map[string]string{verr.Field: verr.Message}
	}

	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status, e.err.Error(), nil
		}
	}
	return http.StatusInternalServerError, msgInternal, nil
}

// respondError writes err as {"error": ...}; unexpected errors are logged and hidden.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	status, msg, fields := classify(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", slog.String("path", c.FullPath()), sl.Err(err))
		_ = c.Error(err)
	}

	body := gin.H{"error": msg}
	if fields != nil {
		body["fields"] = fields
	}
	c.JSON(status, body)
}

// respondCheckInError writes err in the {"success": false, "message": ...} envelope.
func respondCheckInError(c *gin.Context, log *slog.Logger, err error) {
	status, msg, fields := classify(err)
	if status == http.StatusInternalServerError {
		log.Error("check-in request failed", slog.String("path", c.FullPath()), sl.Err(err))
		_ = c.Error(err)
	}

	body := gin.H{"success": false, "message": msg}
	if fields != nil {
		body["fields"] = fields
	}
	c.JSON(status, body)
}

// bindingFields turns gin binding errors into per-field messages. ok is
// false when err is not a validation error (malformed JSON, wrong types).
func bindingFields(err error) (map[string]string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields, true
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "nik":
		return "NIK must be exactly 16 digits"
	case "idphone":
		return "invalid phone number format"
	case "email":
		return "invalid email format"
	case "uuid":
		return fe.Field() + " must be a valid UUID"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	}
	return fe.Field() + " is invalid"
}

func bindError(c *gin.Context, err error) {
	if fields, ok := bindingFields(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

func bindCheckInError(c *gin.Context, err error) {
	if fields, ok := bindingFields(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "validation failed", "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request"})
}

// paramID parses the uuid path parameter name, answering 400 when it is malformed.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
