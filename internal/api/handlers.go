package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/planetlabs/go-stac"

	"github.com/rkm/s1burst/internal/catalog"
	"github.com/rkm/s1burst/internal/config"
)

// Handlers holds the HTTP handlers for the burst catalog API.
type Handlers struct {
	cfg    *config.Config
	store  *Store
	logger *slog.Logger
}

// NewHandlers creates the API handlers over a catalog store.
func NewHandlers(cfg *config.Config, store *Store, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{cfg: cfg, store: store, logger: logger}
}

// ItemCollection is a GeoJSON FeatureCollection of STAC items.
type ItemCollection struct {
	Type           string       `json:"type"`
	Features       []*stac.Item `json:"features"`
	Links          []*stac.Link `json:"links"`
	NumberReturned int          `json:"numberReturned"`
}

// CollectionsList is the /collections response body.
type CollectionsList struct {
	Collections []*stac.Collection `json:"collections"`
	Links       []*stac.Link       `json:"links"`
}

// Health returns the health status of the service.
// GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"stacks": len(h.store.Stacks()),
		"items":  h.store.ItemCount(),
	})
}

// LandingPage returns the root STAC catalog.
// GET /
func (h *Handlers) LandingPage(w http.ResponseWriter, r *http.Request) {
	root := &stac.Catalog{
		Version:     catalog.StacVersion,
		Id:          "sentinel-1-bursts",
		Title:       h.cfg.Catalog.Title,
		Description: h.cfg.Catalog.Description,
		Links: []*stac.Link{
			{Rel: "self", Href: "/", Type: "application/json"},
			{Rel: "root", Href: "/", Type: "application/json"},
			{Rel: "data", Href: "/collections", Type: "application/json"},
		},
	}
	for _, st := range h.store.Stacks() {
		root.Links = append(root.Links, &stac.Link{
			Rel:   "child",
			Href:  "/collections/" + st.ID,
			Type:  "application/json",
			Title: st.ID,
		})
	}

	WriteJSON(w, http.StatusOK, root)
}

// Collections returns all burst stack collections.
// GET /collections
func (h *Handlers) Collections(w http.ResponseWriter, r *http.Request) {
	stacks := h.store.Stacks()
	list := &CollectionsList{
		Collections: make([]*stac.Collection, 0, len(stacks)),
		Links: []*stac.Link{
			{Rel: "self", Href: "/collections", Type: "application/json"},
			{Rel: "root", Href: "/", Type: "application/json"},
		},
	}
	for _, st := range stacks {
		list.Collections = append(list.Collections, h.stackCollection(st))
	}

	WriteJSON(w, http.StatusOK, list)
}

// Collection returns one burst stack collection.
// GET /collections/{collectionId}
func (h *Handlers) Collection(w http.ResponseWriter, r *http.Request) {
	stackID := chi.URLParam(r, "collectionId")
	st, ok := h.store.Stack(stackID)
	if !ok {
		WriteNotFound(w, "collection not found")
		return
	}

	WriteJSON(w, http.StatusOK, h.stackCollection(st))
}

// Items returns all items of one burst stack.
// GET /collections/{collectionId}/items
func (h *Handlers) Items(w http.ResponseWriter, r *http.Request) {
	stackID := chi.URLParam(r, "collectionId")
	st, ok := h.store.Stack(stackID)
	if !ok {
		WriteNotFound(w, "collection not found")
		return
	}

	ic := &ItemCollection{
		Type:     "FeatureCollection",
		Features: st.Items,
		Links: []*stac.Link{
			{Rel: "self", Href: fmt.Sprintf("/collections/%s/items", st.ID), Type: "application/geo+json"},
			{Rel: "collection", Href: "/collections/" + st.ID, Type: "application/json"},
			{Rel: "root", Href: "/", Type: "application/json"},
		},
		NumberReturned: len(st.Items),
	}

	WriteGeoJSON(w, http.StatusOK, ic)
}

// Item returns one burst item.
// GET /collections/{collectionId}/items/{itemId}
func (h *Handlers) Item(w http.ResponseWriter, r *http.Request) {
	stackID := chi.URLParam(r, "collectionId")
	itemID := chi.URLParam(r, "itemId")

	item, ok := h.store.Item(stackID, itemID)
	if !ok {
		WriteNotFound(w, "item not found")
		return
	}

	WriteGeoJSON(w, http.StatusOK, item)
}

// stackCollection renders a stack as a collection with navigation links.
func (h *Handlers) stackCollection(st *catalog.Stack) *stac.Collection {
	c := st.Collection()
	c.Links = append(c.Links,
		&stac.Link{Rel: "self", Href: "/collections/" + st.ID, Type: "application/json"},
		&stac.Link{Rel: "root", Href: "/", Type: "application/json"},
		&stac.Link{Rel: "parent", Href: "/", Type: "application/json"},
		&stac.Link{
			Rel:   "items",
			Href:  fmt.Sprintf("/collections/%s/items", st.ID),
			Type:  "application/geo+json",
			Title: "Items",
		},
	)
	return c
}
