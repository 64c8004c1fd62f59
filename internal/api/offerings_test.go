package api

import (
	"net/http"
	"testing"

	"github.com/orbitos/operations/internal/domain"
)

func TestPartnerLifecycle(t *testing.T) {
	env := newTestEnv(t)
	org := env.createOrg("Acme", "acme")
	user := env.createUser("dev@example.com", false, org.ID)
	base := "/api/organizations/" + org.ID + "/partners"

	w := env.do(http.MethodPost, base+"/", user.ID, map[string]any{
		"name":        "Logistics Co",
		"partnerType": "supplier",
	})
	wantStatus(t, w, http.StatusCreated)
	partner := decodeBody[*domain.Partner](t, w)

	// Duplicate name.
	w = env.do(http.MethodPost, base+"/", user.ID, map[string]any{"name": "Logistics Co"})
	wantStatus(t, w, http.StatusBadRequest)

	// Name required.
	w = env.do(http.MethodPost, base+"/", user.ID, map[string]any{"name": " "})
	wantStatus(t, w, http.StatusBadRequest)

	w = env.do(http.MethodPut, base+"/"+partner.ID, user.ID, map[string]any{
		"name":        "Logistics Co",
		"partnerType": "distributor",
	})
	wantStatus(t, w, http.StatusOK)
	updated := decodeBody[*domain.Partner](t, w)
	if updated.PartnerType != "distributor" {
		t.Errorf("Expected updated partner type, got %q", updated.PartnerType)
	}

	w = env.do(http.MethodDelete, base+"/"+partner.ID, user.ID, nil)
	wantStatus(t, w, http.StatusNoContent)
	w = env.do(http.MethodGet, base+"/"+partner.ID, user.ID, nil)
	wantStatus(t, w, http.StatusNotFound)
}

func TestChannelAndValuePropositionCRUD(t *testing.T) {
	env := newTestEnv(t)
	org := env.createOrg("Acme", "acme")
	user := env.createUser("dev@example.com", false, org.ID)
	orgBase := "/api/organizations/" + org.ID

	w := env.do(http.MethodPost, orgBase+"/channels/", user.ID, map[string]any{
		"name":        "Web store",
		"channelType": "direct",
	})
	wantStatus(t, w, http.StatusCreated)

	w = env.do(http.MethodGet, orgBase+"/channels/", user.ID, nil)
	wantStatus(t, w, http.StatusOK)
	channels := decodeBody[[]*domain.Channel](t, w)
	if len(channels) != 1 || channels[0].Name != "Web store" {
		t.Errorf("Unexpected channels: %+v", channels)
	}

	w = env.do(http.MethodPost, orgBase+"/value-propositions/", user.ID, map[string]any{
		"name":    "Same-day delivery",
		"segment": "SMB",
	})
	wantStatus(t, w, http.StatusCreated)
	vp := decodeBody[*domain.ValueProposition](t, w)
	if vp.Segment != "SMB" {
		t.Errorf("Expected segment SMB, got %q", vp.Segment)
	}

	// Duplicates per org.
	w = env.do(http.MethodPost, orgBase+"/value-propositions/", user.ID, map[string]any{
		"name": "Same-day delivery",
	})
	wantStatus(t, w, http.StatusBadRequest)
}

func TestOfferingsTenantIsolation(t *testing.T) {
	env := newTestEnv(t)
	orgA := env.createOrg("A", "a")
	orgB := env.createOrg("B", "b")
	user := env.createUser("dev@example.com", false, orgA.ID, orgB.ID)

	w := env.do(http.MethodPost, "/api/organizations/"+orgA.ID+"/partners/", user.ID, map[string]any{
		"name": "Logistics Co",
	})
	wantStatus(t, w, http.StatusCreated)
	partner := decodeBody[*domain.Partner](t, w)

	// Invisible from org B.
	w = env.do(http.MethodGet, "/api/organizations/"+orgB.ID+"/partners/"+partner.ID, user.ID, nil)
	wantStatus(t, w, http.StatusNotFound)

	// Same name is free in org B.
	w = env.do(http.MethodPost, "/api/organizations/"+orgB.ID+"/partners/", user.ID, map[string]any{
		"name": "Logistics Co",
	})
	wantStatus(t, w, http.StatusCreated)
}
