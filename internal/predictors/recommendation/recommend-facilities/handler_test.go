package recommendfacilities

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facility-ml/internal/artifacts"
	"facility-ml/internal/features"
	"facility-ml/internal/predictors"
	"facility-ml/internal/predictors/predictorstest"
)

// ==========================
// Test Helper Functions
// ==========================

// trainAmenityModel fits a model whose relevance grows with the amenity count.
func trainAmenityModel(t *testing.T, deps *predictors.Context) {
	var x [][]float64
	var y []float64
	day := features.ExtractDate(predictorstest.FixedNow)
	for i := 0; i < 60; i++ {
		amenities := i % 5
		b := features.Booking{
			Day:               day,
			Slot:              features.ParseTimeSlot(features.DefaultRecommendationTimeSlot),
			Capacity:          100 + 10*(i%3),
			ExpectedAttendees: 50,
		}
		c := features.Candidate{AmenitiesCount: amenities}
		x = append(x, b.RecommendationRecord(c, features.PurposeKeywords("meeting"), 0, 0).Align(features.RecommendationColumns))
		y = append(y, 1+float64(amenities))
	}
	predictorstest.SaveRegressor(t, deps.Store, artifacts.RecommendationModel, x, y, features.RecommendationColumns)
}

func createTestHandler(t *testing.T, trained bool) *Handler {
	deps := predictorstest.NewContext(t)
	if trained {
		trainAmenityModel(t, deps)
	}
	return NewHandler(LoadConfig(), deps, deps.Logger)
}

func names(out *Output) []string {
	var got []string
	for _, f := range out.Recommendations {
		got = append(got, f["name"].(string))
	}
	return got
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_RanksByScore(t *testing.T) {
	h := createTestHandler(t, true)

	out, err := h.Execute(context.Background(), &Input{
		Facilities: []Facility{
			{"id": 1, "name": "court", "amenities": "lights"},
			{"id": 2, "name": "hall", "amenities": "stage,sound,chairs,aircon"},
			{"id": 3, "name": "room", "amenities": "chairs,tables"},
		},
		Purpose:         "barangay meeting",
		ReservationDate: "2025-03-10",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"hall", "room", "court"}, names(out))
	first := out.Recommendations[0]
	assert.Equal(t, 2, first["id"])
	assert.Equal(t, "stage,sound,chairs,aircon", first["amenities"])
	assert.Greater(t, first[ScoreKey].(float64), out.Recommendations[2][ScoreKey].(float64))
}

func TestHandler_Execute_LimitAndStableTies(t *testing.T) {
	h := createTestHandler(t, true)

	var facilities []Facility
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		facilities = append(facilities, Facility{"id": name, "name": name, "amenities": "x,y"})
	}
	out, err := h.Execute(context.Background(), &Input{
		Facilities:      facilities,
		ReservationDate: "not a date",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, names(out))

	out, err = h.Execute(context.Background(), &Input{
		Facilities:      facilities,
		ReservationDate: "2025-03-10",
		Limit:           features.NewNumber(2),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(out))
}

func TestHandler_Execute_ModelMissing(t *testing.T) {
	h := createTestHandler(t, false)

	out, err := h.Execute(context.Background(), &Input{
		Facilities: []Facility{
			{"id": 1, "name": "court"},
			{"id": 2, "name": "hall"},
		},
		ReservationDate: "2025-03-10",
		Limit:           features.NewNumber(1),
	})
	require.NoError(t, err)
	require.Len(t, out.Recommendations, 1)
	assert.Equal(t, "court", out.Recommendations[0]["name"])
	assert.Equal(t, 0.0, out.Recommendations[0][ScoreKey])
}

// ==========================
// Input Tests
// ==========================

func TestHandler_Handle_KeepsNumbers(t *testing.T) {
	h := createTestHandler(t, true)

	out, err := h.Handle(context.Background(), []byte(`{
		"facilities": [{"id": 12, "name": "gym", "capacity": "300 pax", "rate": 1500}],
		"reservation_date": "2025-03-10",
		"user_id": 4,
		"limit": "3"
	}`))
	require.NoError(t, err)
	rec := out.(*Output).Recommendations
	require.Len(t, rec, 1)
	assert.Equal(t, "12", rec[0]["id"].(interface{ String() string }).String())
	assert.Equal(t, "300 pax", rec[0]["capacity"])
	assert.Contains(t, rec[0], ScoreKey)
}

func TestHandler_Validate(t *testing.T) {
	h := createTestHandler(t, false)

	assert.NoError(t, h.Validate(map[string]interface{}{
		"facilities":       []interface{}{map[string]interface{}{"id": 1}},
		"reservation_date": "2025-03-10",
	}))

	for _, doc := range []map[string]interface{}{
		{"reservation_date": "2025-03-10"},
		{"facilities": []interface{}{}, "reservation_date": "2025-03-10"},
		{"facilities": []interface{}{map[string]interface{}{"name": "x"}}, "reservation_date": "2025-03-10"},
		{"facilities": []interface{}{map[string]interface{}{"id": 1}}},
	} {
		assert.Error(t, h.Validate(doc))
	}
}

func TestHandler_Fallback(t *testing.T) {
	h := createTestHandler(t, false)

	out := h.Fallback(map[string]interface{}{
		"facilities": []interface{}{
			map[string]interface{}{"id": 1.0},
			map[string]interface{}{"id": 2.0},
			map[string]interface{}{"id": 3.0},
		},
		"limit": 2.0,
	}).(*Output)
	require.Len(t, out.Recommendations, 2)
	assert.Equal(t, 1.0, out.Recommendations[0]["id"])
	assert.Equal(t, 0.0, out.Recommendations[1][ScoreKey])

	empty := h.Fallback(map[string]interface{}{}).(*Output)
	assert.NotNil(t, empty.Recommendations)
	assert.Empty(t, empty.Recommendations)
}

func TestAmenitiesCount(t *testing.T) {
	assert.Equal(t, 0, amenitiesCount(nil))
	assert.Equal(t, 3, amenitiesCount("a, b, c"))
	assert.Equal(t, 2, amenitiesCount([]interface{}{"a", "b"}))
	assert.Equal(t, 1, amenitiesCount(strings.Repeat("x", 4)))
}
