package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cardvault/cardvault/internal/models"
	"github.com/cardvault/cardvault/internal/services"
)

type PriceHandler struct {
	resolver *services.MarketPriceResolver
	worker   *services.MarketDataWorker
}

func NewPriceHandler(resolver *services.MarketPriceResolver, worker *services.MarketDataWorker) *PriceHandler {
	return &PriceHandler{
		resolver: resolver,
		worker:   worker,
	}
}

// GetMarketPrice resolves a single market price on demand. A failed lookup is
// not an error: market_price comes back null so the caller can fall back.
func (h *PriceHandler) GetMarketPrice(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	entry := models.Entry{
		ID:      c.Query("id"),
		Name:    name,
		Edition: c.Query("edition"),
		Grade:   c.DefaultQuery("grade", models.GradeUngraded),
		Type:    models.EntryType(c.DefaultQuery("type", string(models.EntryTypeCard))),
	}

	price, ok := h.resolver.ResolvePrice(c.Request.Context(), entry)

	resp := gin.H{
		"name":     entry.Name,
		"grade":    entry.Grade,
		"resolved": ok,
	}
	if ok {
		resp["market_price"] = price
	} else {
		resp["market_price"] = nil
	}

	c.JSON(http.StatusOK, resp)
}

// GetPriceStatus reports the background refresh worker's progress.
func (h *PriceHandler) GetPriceStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.worker.GetStatus())
}
