package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/kidsbank/internal/server/models"
	"github.com/dmitrijs2005/kidsbank/internal/wire"
	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

func (h *Handler) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.log.Warn(ctx, "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) registerClient(c *gin.Context) {
	var req wire.RegisterClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "id is required")
		return
	}

	if err := h.clients.Register(c.Request.Context(), req.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, wire.CreatedResponse{Success: true, ID: req.ID})
}

func (h *Handler) createAccount(c *gin.Context) {
	var req wire.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name and birthday (yyyy-mm-dd) are required")
		return
	}

	account, err := h.accounts.Create(c.Request.Context(), req.Name, req.Birthday, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, wire.CreatedResponse{Success: true, ID: account.ID})
}

func (h *Handler) listAccounts(c *gin.Context) {
	list, err := h.accounts.List(c.Request.Context(), credentialFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.AccountsResponse{Accounts: list})
}

func (h *Handler) authToken(c *gin.Context) {
	var req wire.AuthTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "password is required")
		return
	}

	token, err := h.accounts.Authenticate(c.Request.Context(), c.Param("id"), req.Password, credentialFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.AuthTokenResponse{Token: token})
}

func (h *Handler) pullChanges(c *gin.Context) {
	var since int64
	if raw := c.Query("since"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			badRequest(c, "since must be a non-negative integer")
			return
		}
		since = v
	}

	list, err := h.sync.Pull(c.Request.Context(), c.Param("id"), since, credentialFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.ChangesResponse{Changes: models.ChangesToWire(list)})
}

func (h *Handler) pushChanges(c *gin.Context) {
	var req wire.PushChangesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "changes must be a list of {op, table, client, ...}")
		return
	}

	candidates := make([]*models.Change, 0, len(req.Changes))
	for _, w := range req.Changes {
		candidates = append(candidates, models.ChangeFromWire(w))
	}

	res, err := h.sync.Push(c.Request.Context(), c.Param("id"), candidates, credentialFrom(c))
	if err != nil && res == nil {
		h.fail(c, err)
		return
	}
	if err != nil {
		// cancelled mid-batch; what was appended stays appended
		h.log.Warn(c.Request.Context(), "push interrupted", "account", c.Param("id"),
			"committed", len(res.Committed), "error", err)
	}
	c.JSON(http.StatusCreated, wire.ChangesResponse{Changes: models.ChangesToWire(res.Committed)})
}

func (h *Handler) export(c *gin.Context) {
	res, err := h.exports.Export(c.Request.Context(), c.Param("id"), credentialFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, wire.ExportResponse{Key: res.Key, URL: res.URL, Count: res.Count})
}
