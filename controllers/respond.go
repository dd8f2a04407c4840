package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var statusByKind = map[ledger_models.ErrorKind]int{
	ledger_models.KindInvalidInput:        http.StatusBadRequest,
	ledger_models.KindNotFound:            http.StatusNotFound,
	ledger_models.KindInvalidState:        http.StatusConflict,
	ledger_models.KindInsufficientBalance: http.StatusUnprocessableEntity,
	ledger_models.KindChargeConfigInvalid: http.StatusUnprocessableEntity,
	ledger_models.KindNothingToPay:        http.StatusUnprocessableEntity,
	ledger_models.KindNoBalance:           http.StatusUnprocessableEntity,
	ledger_models.KindGatewayFailure:      http.StatusBadGateway,
}

// RespondError writes err as a JSON error body. Internal errors are logged and replaced by a
// generic message; gateway failures are logged and only admins see more than the kind.
func RespondError(c *gin.Context, err error) {
	kind := ledger_models.Kind(err)
	status, ok := statusByKind[kind]
	if !ok {
		logger.ErrorLogger.Errorf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": ledger_models.KindInternal})
		return
	}
	msg := err.Error()
	if status == http.StatusBadGateway {
		logger.WarnLogger.Warnf("%s %s gateway failure: %v", c.Request.Method, c.FullPath(), err)
		if utils.GetRoleFromContext(c) != utils.RoleAdmin {
			msg = ledger_models.ErrGatewayFailure.Error()
		}
	}
	c.JSON(status, gin.H{"error": msg, "code": kind})
}

// UserID reads the authenticated principal and writes a 401 when it is missing.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := utils.GetUserIDFromContext(c)
	if err != nil {
		if !errors.Is(err, utils.ErrUserIDNotFound) {
			logger.WarnLogger.Warnf("Rejecting request with bad principal: %v", err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	return id, true
}

// UUIDParam parses the named path parameter and writes a 400 when it is not a UUID.
func UUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// Page reads limit and offset query parameters, clamping limit to [1, 100].
func Page(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// BindJSON binds the request body into dst and writes a 400 on failure.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return false
	}
	return true
}
