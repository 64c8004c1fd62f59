package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/orbitos/operations/internal/domain"
	"github.com/orbitos/operations/internal/identity"
)

// OfferingHandler handles partners, channels and value propositions.
// The three resources share the same CRUD shape.
type OfferingHandler struct {
	*Handler
}

// NewOfferingHandler creates a new offering handler.
func NewOfferingHandler(base *Handler) *OfferingHandler {
	return &OfferingHandler{Handler: base}
}

// RegisterRoutes registers offering routes on an org-scoped router.
func (h *OfferingHandler) RegisterRoutes(r chi.Router) {
	r.Route("/partners", func(r chi.Router) {
		r.Get("/", h.ListPartners)
		r.Post("/", h.CreatePartner)
		r.Get("/{partnerID}", h.GetPartner)
		r.Put("/{partnerID}", h.UpdatePartner)
		r.Delete("/{partnerID}", h.DeletePartner)
	})
	r.Route("/channels", func(r chi.Router) {
		r.Get("/", h.ListChannels)
		r.Post("/", h.CreateChannel)
		r.Get("/{channelID}", h.GetChannel)
		r.Put("/{channelID}", h.UpdateChannel)
		r.Delete("/{channelID}", h.DeleteChannel)
	})
	r.Route("/value-propositions", func(r chi.Router) {
		r.Get("/", h.ListValueProps)
		r.Post("/", h.CreateValueProp)
		r.Get("/{valuePropID}", h.GetValueProp)
		r.Put("/{valuePropID}", h.UpdateValueProp)
		r.Delete("/{valuePropID}", h.DeleteValueProp)
	})
}

type offeringRequest struct {
	Name        string `json:"name"`
	PartnerType string `json:"partnerType"`
	ChannelType string `json:"channelType"`
	Segment     string `json:"segment"`
	Description string `json:"description"`
}

func (h *OfferingHandler) requireName(w http.ResponseWriter, r *http.Request) (*offeringRequest, bool) {
	var req offeringRequest
	if !decode(w, r, &req) {
		return nil, false
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return nil, false
	}
	return &req, true
}

// ListPartners returns the organization's partners.
func (h *OfferingHandler) ListPartners(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	partners, err := h.repo.ListPartners(r.Context(), org.ID)
	if err != nil {
		slog.Error("Failed to list partners", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if partners == nil {
		partners = []*domain.Partner{}
	}
	JSON(w, http.StatusOK, partners)
}

// CreatePartner adds a partner.
func (h *OfferingHandler) CreatePartner(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	req, ok := h.requireName(w, r)
	if !ok {
		return
	}

	now := time.Now()
	p := &domain.Partner{
		ID:          uuid.NewString(),
		OrgID:       org.ID,
		Name:        req.Name,
		PartnerType: req.PartnerType,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.repo.CreatePartner(r.Context(), p); err != nil {
		storeError(w, err, "a partner with this name already exists")
		return
	}
	h.publish(org.ID, "partner", p.ID, "created")
	JSON(w, http.StatusCreated, p)
}

// GetPartner returns one partner.
func (h *OfferingHandler) GetPartner(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	p, err := h.repo.GetPartner(r.Context(), org.ID, chi.URLParam(r, "partnerID"))
	if err != nil {
		slog.Error("Failed to get partner", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if p == nil {
		Error(w, http.StatusNotFound, "partner not found")
		return
	}
	JSON(w, http.StatusOK, p)
}

// UpdatePartner edits a partner.
func (h *OfferingHandler) UpdatePartner(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	p, err := h.repo.GetPartner(r.Context(), org.ID, chi.URLParam(r, "partnerID"))
	if err != nil {
		slog.Error("Failed to get partner for update", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if p == nil {
		Error(w, http.StatusNotFound, "partner not found")
		return
	}

	req, ok := h.requireName(w, r)
	if !ok {
		return
	}
	p.Name = req.Name
	p.PartnerType = req.PartnerType
	p.Description = req.Description
	p.UpdatedAt = time.Now()
	if err := h.repo.UpdatePartner(r.Context(), p); err != nil {
		storeError(w, err, "a partner with this name already exists")
		return
	}
	h.publish(org.ID, "partner", p.ID, "updated")
	JSON(w, http.StatusOK, p)
}

// DeletePartner removes a partner.
func (h *OfferingHandler) DeletePartner(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	id := chi.URLParam(r, "partnerID")
	if err := h.repo.DeletePartner(r.Context(), org.ID, id); err != nil {
		storeError(w, err, "")
		return
	}
	h.publish(org.ID, "partner", id, "deleted")
	w.WriteHeader(http.StatusNoContent)
}

// ListChannels returns the organization's channels.
func (h *OfferingHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	channels, err := h.repo.ListChannels(r.Context(), org.ID)
	if err != nil {
		slog.Error("Failed to list channels", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if channels == nil {
		channels = []*domain.Channel{}
	}
	JSON(w, http.StatusOK, channels)
}

// CreateChannel adds a channel.
func (h *OfferingHandler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	req, ok := h.requireName(w, r)
	if !ok {
		return
	}

	now := time.Now()
	c := &domain.Channel{
		ID:          uuid.NewString(),
		OrgID:       org.ID,
		Name:        req.Name,
		ChannelType: req.ChannelType,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.repo.CreateChannel(r.Context(), c); err != nil {
		storeError(w, err, "a channel with this name already exists")
		return
	}
	h.publish(org.ID, "channel", c.ID, "created")
	JSON(w, http.StatusCreated, c)
}

// GetChannel returns one channel.
func (h *OfferingHandler) GetChannel(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	c, err := h.repo.GetChannel(r.Context(), org.ID, chi.URLParam(r, "channelID"))
	if err != nil {
		slog.Error("Failed to get channel", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if c == nil {
		Error(w, http.StatusNotFound, "channel not found")
		return
	}
	JSON(w, http.StatusOK, c)
}

// UpdateChannel edits a channel.
func (h *OfferingHandler) UpdateChannel(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	c, err := h.repo.GetChannel(r.Context(), org.ID, chi.URLParam(r, "channelID"))
	if err != nil {
		slog.Error("Failed to get channel for update", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if c == nil {
		Error(w, http.StatusNotFound, "channel not found")
		return
	}

	req, ok := h.requireName(w, r)
	if !ok {
		return
	}
	c.Name = req.Name
	c.ChannelType = req.ChannelType
	c.Description = req.Description
	c.UpdatedAt = time.Now()
	if err := h.repo.UpdateChannel(r.Context(), c); err != nil {
		storeError(w, err, "a channel with this name already exists")
		return
	}
	h.publish(org.ID, "channel", c.ID, "updated")
	JSON(w, http.StatusOK, c)
}

// DeleteChannel removes a channel.
func (h *OfferingHandler) DeleteChannel(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	id := chi.URLParam(r, "channelID")
	if err := h.repo.DeleteChannel(r.Context(), org.ID, id); err != nil {
		storeError(w, err, "")
		return
	}
	h.publish(org.ID, "channel", id, "deleted")
	w.WriteHeader(http.StatusNoContent)
}

// ListValueProps returns the organization's value propositions.
func (h *OfferingHandler) ListValueProps(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	vps, err := h.repo.ListValuePropositions(r.Context(), org.ID)
	if err != nil {
		slog.Error("Failed to list value propositions", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if vps == nil {
		vps = []*domain.ValueProposition{}
	}
	JSON(w, http.StatusOK, vps)
}

// CreateValueProp adds a value proposition.
func (h *OfferingHandler) CreateValueProp(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	req, ok := h.requireName(w, r)
	if !ok {
		return
	}

	now := time.Now()
	v := &domain.ValueProposition{
		ID:          uuid.NewString(),
		OrgID:       org.ID,
		Name:        req.Name,
		Segment:     req.Segment,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.repo.CreateValueProposition(r.Context(), v); err != nil {
		storeError(w, err, "a value proposition with this name already exists")
		return
	}
	h.publish(org.ID, "value-proposition", v.ID, "created")
	JSON(w, http.StatusCreated, v)
}

// GetValueProp returns one value proposition.
func (h *OfferingHandler) GetValueProp(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	v, err := h.repo.GetValueProposition(r.Context(), org.ID, chi.URLParam(r, "valuePropID"))
	if err != nil {
		slog.Error("Failed to get value proposition", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if v == nil {
		Error(w, http.StatusNotFound, "value proposition not found")
		return
	}
	JSON(w, http.StatusOK, v)
}

// UpdateValueProp edits a value proposition.
func (h *OfferingHandler) UpdateValueProp(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	v, err := h.repo.GetValueProposition(r.Context(), org.ID, chi.URLParam(r, "valuePropID"))
	if err != nil {
		slog.Error("Failed to get value proposition for update", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if v == nil {
		Error(w, http.StatusNotFound, "value proposition not found")
		return
	}

	req, ok := h.requireName(w, r)
	if !ok {
		return
	}
	v.Name = req.Name
	v.Segment = req.Segment
	v.Description = req.Description
	v.UpdatedAt = time.Now()
	if err := h.repo.UpdateValueProposition(r.Context(), v); err != nil {
		storeError(w, err, "a value proposition with this name already exists")
		return
	}
	h.publish(org.ID, "value-proposition", v.ID, "updated")
	JSON(w, http.StatusOK, v)
}

// DeleteValueProp removes a value proposition.
func (h *OfferingHandler) DeleteValueProp(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	id := chi.URLParam(r, "valuePropID")
	if err := h.repo.DeleteValueProposition(r.Context(), org.ID, id); err != nil {
		storeError(w, err, "")
		return
	}
	h.publish(org.ID, "value-proposition", id, "deleted")
	w.WriteHeader(http.StatusNoContent)
}
