package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/agrolink-dev/agrolink/db"
	"github.com/agrolink-dev/agrolink/internal/models"
)

func TestCreateConsultationForcesFarmerAndStatus(t *testing.T) {
	r := setupTest(t)
	farmer := createUser(t, "fatou", "fatou@example.com", "paysan", false)
	other := createUser(t, "autre", "autre@example.com", "paysan", false)

	// paysan and status in the payload must be ignored.
	body := fmt.Sprintf(`{"sujet":"Irrigation help","description":"goutte à goutte","paysan":%d,"status":"accepted"}`, other.ID)
	w := doRequest(t, r, http.MethodPost, "/api/consultations", body, accessToken(t, farmer))
	mustStatus(t, w, http.StatusCreated)

	var created struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
		Paysan uint   `json:"paysan"`
		Expert *uint  `json:"expert"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if created.Paysan != farmer.ID {
		t.Fatalf("expected paysan %d, got %d", farmer.ID, created.Paysan)
	}
	if created.Status != models.StatusPending {
		t.Fatalf("expected status pending, got %q", created.Status)
	}
	if created.Expert != nil {
		t.Fatalf("expected no expert, got %v", *created.Expert)
	}
}

func TestListConsultationsVisibility(t *testing.T) {
	r := setupTest(t)
	staff := createUser(t, "admin", "admin@example.com", "paysan", true)
	farmer1 := createUser(t, "fatou", "fatou@example.com", "paysan", false)
	farmer2 := createUser(t, "moussa", "moussa@example.com", "paysan", false)
	expert := createUser(t, "dr-ba", "ba@example.com", "expert", false)

	c1 := createConsultation(t, farmer1, &expert, models.StatusAccepted)
	c2 := createConsultation(t, farmer2, nil, models.StatusPending)

	listIDs := func(token string) map[uint]bool {
		w := doRequest(t, r, http.MethodGet, "/api/consultations", "", token)
		mustStatus(t, w, http.StatusOK)
		var items []struct {
			ID uint `json:"id"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
			t.Fatalf("decode: %v", err)
		}
		ids := make(map[uint]bool, len(items))
		for _, item := range items {
			ids[item.ID] = true
		}
		return ids
	}

	if ids := listIDs(accessToken(t, staff)); !ids[c1.ID] || !ids[c2.ID] || len(ids) != 2 {
		t.Fatalf("staff should see all consultations, got %v", ids)
	}
	if ids := listIDs(accessToken(t, expert)); !ids[c1.ID] || len(ids) != 1 {
		t.Fatalf("expert should see only assigned consultations, got %v", ids)
	}
	if ids := listIDs(accessToken(t, farmer2)); !ids[c2.ID] || len(ids) != 1 {
		t.Fatalf("farmer should see only own consultations, got %v", ids)
	}
}

func TestAcceptRequiresExpertRole(t *testing.T) {
	r := setupTest(t)
	farmer := createUser(t, "fatou", "fatou@example.com", "paysan", false)
	consultation := createConsultation(t, farmer, nil, models.StatusPending)

	path := fmt.Sprintf("/api/consultations/%d/accept", consultation.ID)
	w := doRequest(t, r, http.MethodPost, path, "", accessToken(t, farmer))
	mustStatus(t, w, http.StatusForbidden)
}

func TestAcceptClaimsUnassignedConsultation(t *testing.T) {
	r := setupTest(t)
	farmer := createUser(t, "fatou", "fatou@example.com", "paysan", false)
	expert := createUser(t, "dr-ba", "ba@example.com", "expert", false)
	consultation := createConsultation(t, farmer, nil, models.StatusPending)

	path := fmt.Sprintf("/api/consultations/%d/accept", consultation.ID)
	w := doRequest(t, r, http.MethodPost, path, "", accessToken(t, expert))
	mustStatus(t, w, http.StatusOK)

	var updated models.Consultation
	if err := db.DB.First(&updated, consultation.ID).Error; err != nil {
		t.Fatalf("reload consultation: %v", err)
	}

	if updated.Status != models.StatusAccepted {
		t.Fatalf("expected status accepted, got %q", updated.Status)
	}
	if updated.ExpertID == nil || *updated.ExpertID != expert.ID {
		t.Fatalf("expected accepting expert to be recorded, got %v", updated.ExpertID)
	}
}

func TestAcceptStrictModeRequiresAssignment(t *testing.T) {
	r := setupTest(t)
	t.Setenv("CONSULTATION_CLAIM", "false")

	farmer := createUser(t, "fatou", "fatou@example.com", "paysan", false)
	assigned := createUser(t, "dr-ba", "ba@example.com", "expert", false)
	stranger := createUser(t, "dr-sy", "sy@example.com", "expert", false)

	unassigned := createConsultation(t, farmer, nil, models.StatusPending)
	taken := createConsultation(t, farmer, &assigned, models.StatusPending)

	w := doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/consultations/%d/accept", unassigned.ID), "", accessToken(t, stranger))
	mustStatus(t, w, http.StatusForbidden)

	w = doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/consultations/%d/accept", taken.ID), "", accessToken(t, stranger))
	mustStatus(t, w, http.StatusForbidden)

	w = doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/consultations/%d/accept", taken.ID), "", accessToken(t, assigned))
	mustStatus(t, w, http.StatusOK)
}

func TestRejectConsultation(t *testing.T) {
	r := setupTest(t)
	farmer := createUser(t, "fatou", "fatou@example.com", "paysan", false)
	expert := createUser(t, "dr-ba", "ba@example.com", "expert", false)
	consultation := createConsultation(t, farmer, &expert, models.StatusPending)

	path := fmt.Sprintf("/api/consultations/%d/reject", consultation.ID)
	w := doRequest(t, r, http.MethodPost, path, "", accessToken(t, expert))
	mustStatus(t, w, http.StatusOK)

	var updated models.Consultation
	if err := db.DB.First(&updated, consultation.ID).Error; err != nil {
		t.Fatalf("reload consultation: %v", err)
	}
	if updated.Status != models.StatusRejected {
		t.Fatalf("expected status rejected, got %q", updated.Status)
	}
}

func TestCloseLifecycleAndIdempotence(t *testing.T) {
	r := setupTest(t)
	farmer := createUser(t, "fatou", "fatou@example.com", "paysan", false)
	expert := createUser(t, "dr-ba", "ba@example.com", "expert", false)
	consultation := createConsultation(t, farmer, nil, models.StatusPending)

	acceptPath := fmt.Sprintf("/api/consultations/%d/accept", consultation.ID)
	closePath := fmt.Sprintf("/api/consultations/%d/close", consultation.ID)

	mustStatus(t, doRequest(t, r, http.MethodPost, acceptPath, "", accessToken(t, expert)), http.StatusOK)
	mustStatus(t, doRequest(t, r, http.MethodPost, closePath, "", accessToken(t, farmer)), http.StatusOK)

	// A second close is accepted and leaves the status unchanged.
	mustStatus(t, doRequest(t, r, http.MethodPost, closePath, "", accessToken(t, expert)), http.StatusOK)

	var updated models.Consultation
	if err := db.DB.First(&updated, consultation.ID).Error; err != nil {
		t.Fatalf("reload consultation: %v", err)
	}
	if updated.Status != models.StatusCompleted {
		t.Fatalf("expected status completed, got %q", updated.Status)
	}
}

func TestClosePendingDirectly(t *testing.T) {
	r := setupTest(t)
	farmer := createUser(t, "fatou", "fatou@example.com", "paysan", false)
	consultation := createConsultation(t, farmer, nil, models.StatusPending)

	path := fmt.Sprintf("/api/consultations/%d/close", consultation.ID)
	w := doRequest(t, r, http.MethodPost, path, "", accessToken(t, farmer))
	mustStatus(t, w, http.StatusOK)
}

func TestGetConsultationParticipantOnly(t *testing.T) {
	r := setupTest(t)
	farmer := createUser(t, "fatou", "fatou@example.com", "paysan", false)
	expert := createUser(t, "dr-ba", "ba@example.com", "expert", false)
	stranger := createUser(t, "dr-sy", "sy@example.com", "expert", false)
	staff := createUser(t, "admin", "admin@example.com", "paysan", true)

	consultation := createConsultation(t, farmer, &expert, models.StatusAccepted)
	path := fmt.Sprintf("/api/consultations/%d", consultation.ID)

	mustStatus(t, doRequest(t, r, http.MethodGet, path, "", accessToken(t, farmer)), http.StatusOK)
	mustStatus(t, doRequest(t, r, http.MethodGet, path, "", accessToken(t, expert)), http.StatusOK)
	mustStatus(t, doRequest(t, r, http.MethodGet, path, "", accessToken(t, staff)), http.StatusOK)
	mustStatus(t, doRequest(t, r, http.MethodGet, path, "", accessToken(t, stranger)), http.StatusForbidden)
}

func TestUpdateConsultationOwnerOnly(t *testing.T) {
	r := setupTest(t)
	farmer := createUser(t, "fatou", "fatou@example.com", "paysan", false)
	expert := createUser(t, "dr-ba", "ba@example.com", "expert", false)

	consultation := createConsultation(t, farmer, &expert, models.StatusAccepted)
	path := fmt.Sprintf("/api/consultations/%d", consultation.ID)
	body := `{"sujet":"Nouveau sujet"}`

	// The assigned expert may read but not edit the core fields.
	mustStatus(t, doRequest(t, r, http.MethodPut, path, body, accessToken(t, expert)), http.StatusForbidden)

	w := doRequest(t, r, http.MethodPut, path, body, accessToken(t, farmer))
	mustStatus(t, w, http.StatusOK)

	var updated models.Consultation
	if err := db.DB.First(&updated, consultation.ID).Error; err != nil {
		t.Fatalf("reload consultation: %v", err)
	}
	if updated.Sujet != "Nouveau sujet" {
		t.Fatalf("expected updated subject, got %q", updated.Sujet)
	}
	if updated.Description != "Besoin de conseils" {
		t.Fatalf("partial update must keep description, got %q", updated.Description)
	}
}
