package httpx

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const raterPrefix = activitiesPrefix + "/campus_building_rater"

func TestBuildingCRUD(t *testing.T) {
	router, deps := setupRouter(t)
	_, token := addActiveUser(t, deps, "ana", "Sup3rSecret")

	rr := doRequest(router, http.MethodPost, raterPrefix+"/buildings", token, `{"building_name":"Main Library","architectural_style":"Brutalist"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	got := decodeBody(t, rr)
	want := map[string]any{"id": float64(1), "building_name": "Main Library", "architectural_style": "Brutalist"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("create mismatch (-want +got):\n%s", diff)
	}

	rr = doRequest(router, http.MethodPost, raterPrefix+"/buildings", token, `{"building_name":"Main Library"}`)
	expectDetail(t, rr, http.StatusConflict, "Building already exists")

	rr = doRequest(router, http.MethodPost, raterPrefix+"/buildings", token, `{"building_name":"Lab #1"}`)
	expectDetail(t, rr, http.StatusBadRequest, "Building name must contain only letters, numbers, spaces, or dashes")

	rr = doRequest(router, http.MethodGet, raterPrefix+"/buildings/1", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = doRequest(router, http.MethodGet, raterPrefix+"/buildings/42", token, "")
	expectDetail(t, rr, http.StatusNotFound, "Building not found")

	rr = doRequest(router, http.MethodGet, raterPrefix+"/buildings/abc", token, "")
	expectDetail(t, rr, http.StatusUnprocessableEntity, "id must be a positive integer")

	rr = doRequest(router, http.MethodPut, raterPrefix+"/buildings/1", token, `{}`)
	expectDetail(t, rr, http.StatusBadRequest, "No data provided for update")

	rr = doRequest(router, http.MethodPut, raterPrefix+"/buildings/1", token, `{"building_name":"Old Library"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	if name := decodeBody(t, rr)["building_name"]; name != "Old Library" {
		t.Fatalf("unexpected name %v", name)
	}

	rr = doRequest(router, http.MethodDelete, raterPrefix+"/buildings/1", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if msg := decodeBody(t, rr)["message"]; msg != "Building with id 1 has been deleted successfully" {
		t.Fatalf("unexpected message %v", msg)
	}
}

func TestBuildingListPagination(t *testing.T) {
	router, deps := setupRouter(t)
	_, token := addActiveUser(t, deps, "ana", "Sup3rSecret")
	for _, name := range []string{"Alpha Hall", "Beta Hall", "Gamma Hall"} {
		doRequest(router, http.MethodPost, raterPrefix+"/buildings", token, `{"building_name":"`+name+`"}`)
	}

	rr := doRequest(router, http.MethodGet, raterPrefix+"/buildings?limit=2&offset=1", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var names []string
	for _, b := range decodeList(t, rr) {
		names = append(names, b["building_name"].(string))
	}
	if diff := cmp.Diff([]string{"Beta Hall", "Gamma Hall"}, names); diff != "" {
		t.Fatalf("page mismatch (-want +got):\n%s", diff)
	}

	for _, query := range []string{"limit=0", "limit=101", "offset=-1", "limit=x"} {
		rr := doRequest(router, http.MethodGet, raterPrefix+"/buildings?"+query, token, "")
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d", query, rr.Code)
		}
	}
}

func TestRatingsOwnership(t *testing.T) {
	router, deps := setupRouter(t)
	_, owner := addActiveUser(t, deps, "ana", "Sup3rSecret")
	_, other := addActiveUser(t, deps, "bob", "Sup3rSecret")
	doRequest(router, http.MethodPost, raterPrefix+"/buildings", owner, `{"building_name":"Main Library"}`)

	rr := doRequest(router, http.MethodGet, raterPrefix+"/buildings/1/averages", owner, "")
	averages := decodeBody(t, rr)
	if averages["total_ratings"] != float64(0) || averages["aesthetic_avg"] != nil {
		t.Fatalf("unexpected empty averages %v", averages)
	}

	rr = doRequest(router, http.MethodGet, raterPrefix+"/buildings/1/my-rating", owner, "")
	expectDetail(t, rr, http.StatusNotFound, "You haven't rated this building yet")

	body := `{"building_id":1,"aesthetic_rating":8,"functionality_rating":7,"photo_worthiness":9,"instagram_potential":6,"weirdness_factor":3}`
	rr = doRequest(router, http.MethodPost, raterPrefix+"/ratings", owner, body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	created := decodeBody(t, rr)
	if created["user_id"] != float64(1) {
		t.Fatalf("unexpected owner %v", created["user_id"])
	}
	if created["aesthetic_rating"] != float64(8) || created["functionality_rating"] != float64(7) {
		t.Fatalf("unexpected scores %v", created)
	}

	rr = doRequest(router, http.MethodPost, raterPrefix+"/ratings", owner, `{"building_id":99,"aesthetic_rating":8,"functionality_rating":7,"photo_worthiness":9,"instagram_potential":6,"weirdness_factor":3}`)
	expectDetail(t, rr, http.StatusNotFound, "Building not found")

	rr = doRequest(router, http.MethodPost, raterPrefix+"/ratings", owner, `{"building_id":1,"aesthetic_rating":11,"functionality_rating":7,"photo_worthiness":9,"instagram_potential":6,"weirdness_factor":3}`)
	expectDetail(t, rr, http.StatusUnprocessableEntity, "aesthetic_rating must be less than or equal to 10")

	rr = doRequest(router, http.MethodPut, raterPrefix+"/ratings/1", other, `{"aesthetic_rating":1}`)
	expectDetail(t, rr, http.StatusForbidden, "You can only modify your own ratings")

	rr = doRequest(router, http.MethodDelete, raterPrefix+"/ratings/1", other, "")
	expectDetail(t, rr, http.StatusForbidden, "You can only modify your own ratings")

	rr = doRequest(router, http.MethodPut, raterPrefix+"/ratings/1", owner, `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty update, got %d", rr.Code)
	}

	rr = doRequest(router, http.MethodPut, raterPrefix+"/ratings/1", owner, `{"aesthetic_rating":10}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	if got := decodeBody(t, rr)["aesthetic_rating"]; got != float64(10) {
		t.Fatalf("unexpected aesthetic %v", got)
	}

	rr = doRequest(router, http.MethodGet, raterPrefix+"/buildings/1/ratings", other, "")
	if n := len(decodeList(t, rr)); n != 1 {
		t.Fatalf("expected one rating, got %d", n)
	}

	rr = doRequest(router, http.MethodGet, raterPrefix+"/buildings/1/averages", other, "")
	averages = decodeBody(t, rr)
	if averages["total_ratings"] != float64(1) || averages["aesthetic_avg"] != float64(10) {
		t.Fatalf("unexpected averages %v", averages)
	}

	rr = doRequest(router, http.MethodDelete, raterPrefix+"/ratings/1", owner, "")
	if msg := decodeBody(t, rr)["message"]; msg != "Rating with id 1 has been deleted successfully" {
		t.Fatalf("unexpected message %v", msg)
	}

	rr = doRequest(router, http.MethodGet, raterPrefix+"/ratings/1", owner, "")
	expectDetail(t, rr, http.StatusNotFound, "Rating not found")
}
