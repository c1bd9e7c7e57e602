package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"srcds-admin/internal/restriction"
	"srcds-admin/internal/service"
)

type createRequest struct {
	IssuedBy    string `json:"issued_by"`
	Identifier  string `json:"identifier"`
	SubjectName string `json:"subject_name"`
	Duration    *int64 `json:"duration"`
}

type reviewRequest struct {
	IssuedBy string `json:"issued_by"`
	Reason   string `json:"reason"`
	Duration int64  `json:"duration"`
}

type liftRequest struct {
	IssuedBy string `json:"issued_by"`
}

// CreateRestriction schedules a new restriction. The subject is
// restricted immediately; persistence completes in the background.
func CreateRestriction(w http.ResponseWriter, r *http.Request) {
	m := managerFrom(r)

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	duration := service.DefaultBanSeconds()
	if req.Duration != nil {
		duration = *req.Duration
	}

	rec, err := m.Create(req.IssuedBy, req.Identifier, req.SubjectName, duration)
	if err != nil {
		respondRestrictionError(w, err)
		return
	}

	service.LogAdminAction("%s scheduled a %s restriction on %s (%s) for %s",
		req.IssuedBy, m.Kind(), rec.Identifier, req.SubjectName, FormatDuration(duration))

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "scheduled",
		"record": rec,
	})
}

// QueryRestrictions serves the review/search screens from the store,
// history included. Filters combine with AND.
func QueryRestrictions(w http.ResponseWriter, r *http.Request) {
	m := managerFrom(r)

	var filter restriction.QueryFilter
	q := r.URL.Query()
	if v := q.Get("identifier"); v != "" {
		filter.Identifier = &v
	}
	if v := q.Get("issued_by"); v != "" {
		filter.IssuedBy = &v
	}
	var err error
	if filter.Reviewed, err = parseBoolParam(q.Get("reviewed")); err != nil {
		respondError(w, http.StatusBadRequest, "invalid reviewed parameter")
		return
	}
	if filter.Expired, err = parseBoolParam(q.Get("expired")); err != nil {
		respondError(w, http.StatusBadRequest, "invalid expired parameter")
		return
	}
	if filter.Lifted, err = parseBoolParam(q.Get("lifted")); err != nil {
		respondError(w, http.StatusBadRequest, "invalid lifted parameter")
		return
	}

	records, err := m.GetAll(filter)
	if err != nil {
		respondRestrictionError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}

// GetActiveRestrictions lists the cache contents for lift/review pickers.
func GetActiveRestrictions(w http.ResponseWriter, r *http.Request) {
	m := managerFrom(r)

	q := r.URL.Query()
	reviewed, err := parseBoolParam(q.Get("reviewed"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid reviewed parameter")
		return
	}

	records, err := m.GetActive(q.Get("issued_by"), reviewed)
	if err != nil {
		respondRestrictionError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}

// GetErroneousRestrictions lists records that qualify for hard removal:
// unreviewed, unlifted and already expired.
func GetErroneousRestrictions(w http.ResponseWriter, r *http.Request) {
	m := managerFrom(r)

	records, err := m.Erroneous()
	if err != nil {
		respondRestrictionError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}

// GetStockOptions returns the preset reasons and durations review pages
// offer, with human-readable duration labels.
func GetStockOptions(w http.ResponseWriter, r *http.Request) {
	type stockDuration struct {
		Value int64  `json:"value"`
		Title string `json:"title"`
	}
	type stockReason struct {
		ID       string `json:"id"`
		Text     string `json:"text"`
		Duration int64  `json:"duration"`
		Title    string `json:"duration_title"`
	}

	cfg := globalConfig.Restriction

	durations := make([]stockDuration, 0, len(cfg.StockDurations))
	for _, d := range cfg.StockDurations {
		durations = append(durations, stockDuration{Value: d, Title: FormatDuration(d)})
	}

	reasons := make([]stockReason, 0, len(cfg.StockReasons))
	for _, reason := range cfg.StockReasons {
		reasons = append(reasons, stockReason{
			ID:       reason.ID,
			Text:     reason.Text,
			Duration: reason.Duration,
			Title:    FormatDuration(reason.Duration),
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reasons":   reasons,
		"durations": durations,
	})
}

// ReviewRestriction schedules the review transition: final reason plus a
// duration counted from the review moment.
func ReviewRestriction(w http.ResponseWriter, r *http.Request) {
	m := managerFrom(r)

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := m.Review(req.IssuedBy, id, req.Reason, req.Duration); err != nil {
		respondRestrictionError(w, err)
		return
	}

	service.LogAdminAction("%s scheduled review of %s restriction %d: %s (%s)",
		req.IssuedBy, m.Kind(), id, req.Reason, FormatDuration(req.Duration))

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

// LiftRestriction schedules the lift transition.
func LiftRestriction(w http.ResponseWriter, r *http.Request) {
	m := managerFrom(r)

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req liftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := m.Lift(req.IssuedBy, id); err != nil {
		respondRestrictionError(w, err)
		return
	}

	service.LogAdminAction("%s scheduled lift of %s restriction %d", req.IssuedBy, m.Kind(), id)

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

// RemoveRestriction schedules the hard removal of an erroneous record.
// Records outside the unreviewed+expired+unlifted state are refused.
func RemoveRestriction(w http.ResponseWriter, r *http.Request) {
	m := managerFrom(r)

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	issuedBy := r.URL.Query().Get("issued_by")

	rec, err := m.GetRecord(id)
	if err != nil {
		respondRestrictionError(w, err)
		return
	}
	if !rec.Erroneous(time.Now()) {
		respondError(w, http.StatusConflict, "restriction is not an erroneous record")
		return
	}

	if err := m.RemoveErroneous(issuedBy, id); err != nil {
		respondRestrictionError(w, err)
		return
	}

	service.LogAdminAction("%s scheduled removal of erroneous %s restriction %d", issuedBy, m.Kind(), id)

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

// CheckRestricted probes one kind's cache for a single identifier.
func CheckRestricted(w http.ResponseWriter, r *http.Request) {
	m := managerFrom(r)

	identifier := r.URL.Query().Get("identifier")
	if identifier == "" {
		respondError(w, http.StatusBadRequest, "identifier parameter is required")
		return
	}

	restricted := m.IsRestricted(identifier)
	resp := map[string]interface{}{"restricted": restricted}
	if restricted {
		resp["message"] = service.DenialMessage(m.Kind())
	}

	respondJSON(w, http.StatusOK, resp)
}

// CheckConnect is the connection admission probe: the game server bridge
// passes the connecting identity's SteamID and address and disconnects
// on a deny decision.
func CheckConnect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	decision := service.CheckConnect(q.Get("steamid"), q.Get("address"))
	respondJSON(w, http.StatusOK, decision)
}

// respondRestrictionError maps engine errors to HTTP statuses
func respondRestrictionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, restriction.ErrInvalidIdentifier):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, restriction.ErrAlreadyRestricted):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, restriction.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, restriction.ErrStoreUnavailable):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
