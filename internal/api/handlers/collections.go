package handlers

import (
	"encoding/base64"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cardvault/cardvault/internal/models"
	"github.com/cardvault/cardvault/internal/services"
	"github.com/cardvault/cardvault/internal/store"
)

type CollectionHandler struct {
	store        store.Store
	mutator      *services.QuantityMutator
	resolver     *services.MarketPriceResolver
	imageStorage *services.ImageStorageService
}

func NewCollectionHandler(s store.Store, mutator *services.QuantityMutator, resolver *services.MarketPriceResolver, imageStorage *services.ImageStorageService) *CollectionHandler {
	return &CollectionHandler{
		store:        s,
		mutator:      mutator,
		resolver:     resolver,
		imageStorage: imageStorage,
	}
}

func (h *CollectionHandler) GetCollections(c *gin.Context) {
	userID := c.Param("userId")

	collections, err := h.store.CollectionsByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, collections)
}

func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	userID := c.Param("userId")

	var req models.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.store.CreateCollection(c.Request.Context(), userID, req.CollectionName)
	if err != nil {
		if errors.Is(err, store.ErrCollectionExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "collection already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"collection_name": req.CollectionName})
}

func (h *CollectionHandler) DeleteCollection(c *gin.Context) {
	userID := c.Param("userId")
	collectionName := c.Param("collectionName")

	err := h.store.DeleteCollection(c.Request.Context(), userID, collectionName)
	if err != nil {
		if errors.Is(err, store.ErrCollectionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "collection not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// GetRoster returns the user's flattened, market-valued roster. The optional
// "collection" query filters to one collection; the default is "all".
func (h *CollectionHandler) GetRoster(c *gin.Context) {
	userID := c.Param("userId")
	filter := c.DefaultQuery("collection", services.FilterAll)

	collections, err := h.store.CollectionsByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	roster := services.Aggregate(collections, filter)
	valued := h.resolver.ResolveAll(c.Request.Context(), roster)

	c.JSON(http.StatusOK, valued)
}

func (h *CollectionHandler) AddEntry(c *gin.Context) {
	userID := c.Param("userId")

	var req models.AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Type != models.EntryTypeCard && req.Type != models.EntryTypeItem {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be 'card' or 'item'"})
		return
	}
	if req.PurchasePrice < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "purchase price must not be negative"})
		return
	}

	image := req.Image
	if req.ImageData != "" && h.imageStorage != nil {
		imageData, err := base64.StdEncoding.DecodeString(req.ImageData)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image data"})
			return
		}
		filename, err := h.imageStorage.SaveImage(imageData)
		if err != nil {
			// Image is optional; the entry is still created.
			log.Printf("Failed to save entry image: %v", err)
		} else {
			image = "/images/entries/" + filename
		}
	}

	entry := models.Entry{
		Type:          req.Type,
		Name:          req.Name,
		Edition:       req.Edition,
		Set:           req.Set,
		Grade:         req.Grade,
		Quantity:      req.Quantity,
		PurchasePrice: req.PurchasePrice,
		Image:         image,
	}

	created, err := h.store.AddEntry(c.Request.Context(), userID, req.CollectionName, entry)
	if err != nil {
		if errors.Is(err, store.ErrCollectionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "collection not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// IncrementEntry raises a roster entry's quantity by one. The body carries
// the client's current copy of the entry; the response is the merged,
// store-confirmed entry the client should patch into its roster.
func (h *CollectionHandler) IncrementEntry(c *gin.Context) {
	h.mutateQuantity(c, func(entry *models.Entry, userID string) (models.Entry, error) {
		return h.mutator.Increment(c.Request.Context(), entry, userID)
	})
}

// DecrementEntry lowers a roster entry's quantity by one, flooring at the
// minimum quantity policy.
func (h *CollectionHandler) DecrementEntry(c *gin.Context) {
	h.mutateQuantity(c, func(entry *models.Entry, userID string) (models.Entry, error) {
		return h.mutator.Decrement(c.Request.Context(), entry, userID)
	})
}

// SetQuantity sets an entry's quantity to an absolute value.
func (h *CollectionHandler) SetQuantity(c *gin.Context) {
	userID := c.Param("userId")
	entryID := c.Param("id")

	var req models.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must not be negative"})
		return
	}

	updated, err := h.store.UpdateQuantity(c.Request.Context(), userID, req.CollectionName, entryID, *req.Quantity)
	if err != nil {
		if errors.Is(err, store.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *CollectionHandler) mutateQuantity(c *gin.Context, mutate func(*models.Entry, string) (models.Entry, error)) {
	userID := c.Param("userId")

	var entry models.Entry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry.ID = c.Param("id")

	updated, err := mutate(&entry, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEntry):
			c.JSON(http.StatusBadRequest, gin.H{"error": "entry is missing or has no id"})
		case errors.Is(err, store.ErrEntryNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *CollectionHandler) RemoveEntry(c *gin.Context) {
	userID := c.Param("userId")
	collectionName := c.Param("collectionName")
	entryID := c.Param("id")

	err := h.mutator.Remove(c.Request.Context(), userID, collectionName, entryID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEntry):
			c.JSON(http.StatusBadRequest, gin.H{"error": "entry id is required"})
		case errors.Is(err, store.ErrEntryNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "removed"})
}
