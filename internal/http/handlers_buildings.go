package httpx

import (
	"net/http"
	"strconv"

	"github.com/MarvinPescos/balancehub/internal/service/building"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func (r *Router) registerBuildings() {
	const base = "/activities/campus_building_rater"
	r.api("POST", base+"/buildings", r.requireAuth(r.handleCreateBuilding))
	r.api("GET", base+"/buildings", r.requireAuth(r.handleListBuildings))
	r.api("GET", base+"/buildings/{id}", r.requireAuth(r.handleGetBuilding))
	r.api("PUT", base+"/buildings/{id}", r.requireAuth(r.handleUpdateBuilding))
	r.api("DELETE", base+"/buildings/{id}", r.requireAuth(r.handleDeleteBuilding))
	r.api("GET", base+"/buildings/{id}/ratings", r.requireAuth(r.handleBuildingRatings))
	r.api("GET", base+"/buildings/{id}/averages", r.requireAuth(r.handleBuildingAverages))
	r.api("GET", base+"/buildings/{id}/my-rating", r.requireAuth(r.handleMyRating))

	r.api("POST", base+"/ratings", r.requireAuth(r.handleCreateRating))
	r.api("GET", base+"/ratings", r.requireAuth(r.handleListRatings))
	r.api("GET", base+"/ratings/{id}", r.requireAuth(r.handleGetRating))
	r.api("PUT", base+"/ratings/{id}", r.requireAuth(r.handleUpdateRating))
	r.api("DELETE", base+"/ratings/{id}", r.requireAuth(r.handleDeleteRating))
}

// pathID parses the {id} wildcard. On failure a 422 has been written.
func pathID(w http.ResponseWriter, req *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(req.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// pagination reads limit (1..100, default 20) and offset (>= 0).
func pagination(w http.ResponseWriter, req *http.Request) (int, int, bool) {
	q := req.URL.Query()
	limit, offset := defaultPageLimit, 0
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxPageLimit {
			writeError(w, http.StatusUnprocessableEntity, "limit must be between 1 and 100")
			return 0, 0, false
		}
		limit = v
	}
	if raw := q.Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, http.StatusUnprocessableEntity, "offset must be greater than or equal to 0")
			return 0, 0, false
		}
		offset = v
	}
	return limit, offset, true
}

func (r *Router) handleCreateBuilding(w http.ResponseWriter, req *http.Request) {
	var body buildingRequest
	if !decode(w, req, &body) {
		return
	}
	b, err := r.services.Buildings.CreateBuilding(req.Context(), building.BuildingInput{
		Name:               body.Name,
		ArchitecturalStyle: body.ArchitecturalStyle,
	})
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBuildingResponse(b))
}

func (r *Router) handleListBuildings(w http.ResponseWriter, req *http.Request) {
	limit, offset, ok := pagination(w, req)
	if !ok {
		return
	}
	items, err := r.services.Buildings.ListBuildings(req.Context(), limit, offset)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newBuildingResponses(items))
}

func (r *Router) handleGetBuilding(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	b, err := r.services.Buildings.GetBuilding(req.Context(), id)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newBuildingResponse(b))
}

func (r *Router) handleUpdateBuilding(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	var body buildingUpdateRequest
	if !decode(w, req, &body) {
		return
	}
	b, err := r.services.Buildings.UpdateBuilding(req.Context(), id, building.BuildingUpdate{
		Name:               body.Name,
		ArchitecturalStyle: body.ArchitecturalStyle,
	})
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newBuildingResponse(b))
}

func (r *Router) handleDeleteBuilding(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	msg, err := r.services.Buildings.DeleteBuilding(req.Context(), id)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeMessage(w, http.StatusOK, msg)
}

func (r *Router) handleBuildingRatings(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	limit, offset, ok := pagination(w, req)
	if !ok {
		return
	}
	items, err := r.services.Buildings.ListBuildingRatings(req.Context(), id, limit, offset)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newRatingResponses(items))
}

func (r *Router) handleBuildingAverages(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	avg, err := r.services.Buildings.Averages(req.Context(), id)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, averagesResponse{
		FunctionalityAvg:      avg.Functionality,
		AestheticAvg:          avg.Aesthetic,
		PhotoWorthinessAvg:    avg.PhotoWorthiness,
		InstagramPotentialAvg: avg.InstagramPotential,
		WeirdnessFactorAvg:    avg.WeirdnessFactor,
		TotalRatings:          avg.TotalRatings,
	})
}

func (r *Router) handleMyRating(w http.ResponseWriter, req *http.Request) {
	user, _ := userFromContext(req.Context())
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	rating, err := r.services.Buildings.MyRating(req.Context(), user.ID, id)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newRatingResponse(rating))
}

func (r *Router) handleCreateRating(w http.ResponseWriter, req *http.Request) {
	user, _ := userFromContext(req.Context())
	var body ratingRequest
	if !decode(w, req, &body) {
		return
	}
	rating, err := r.services.Buildings.RateBuilding(req.Context(), user.ID, body.BuildingID, building.Scores{
		Aesthetic:          body.Aesthetic,
		Functionality:      body.Functionality,
		PhotoWorthiness:    body.PhotoWorthiness,
		InstagramPotential: body.InstagramPotential,
		WeirdnessFactor:    body.WeirdnessFactor,
	})
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, newRatingResponse(rating))
}

func (r *Router) handleListRatings(w http.ResponseWriter, req *http.Request) {
	limit, offset, ok := pagination(w, req)
	if !ok {
		return
	}
	items, err := r.services.Buildings.ListRatings(req.Context(), limit, offset)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newRatingResponses(items))
}

func (r *Router) handleGetRating(w http.ResponseWriter, req *http.Request) {
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	rating, err := r.services.Buildings.GetRating(req.Context(), id)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newRatingResponse(rating))
}

func (r *Router) handleUpdateRating(w http.ResponseWriter, req *http.Request) {
	user, _ := userFromContext(req.Context())
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	var body ratingUpdateRequest
	if !decode(w, req, &body) {
		return
	}
	rating, err := r.services.Buildings.UpdateRating(req.Context(), user.ID, id, building.ScoresUpdate{
		Aesthetic:          body.Aesthetic,
		Functionality:      body.Functionality,
		PhotoWorthiness:    body.PhotoWorthiness,
		InstagramPotential: body.InstagramPotential,
		WeirdnessFactor:    body.WeirdnessFactor,
	})
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newRatingResponse(rating))
}

func (r *Router) handleDeleteRating(w http.ResponseWriter, req *http.Request) {
	user, _ := userFromContext(req.Context())
	id, ok := pathID(w, req)
	if !ok {
		return
	}
	msg, err := r.services.Buildings.DeleteRating(req.Context(), user.ID, id)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeMessage(w, http.StatusOK, msg)
}
