package pawsdk

import (
	"context"
	"net/http"
)

// Resource names as they appear in API paths.
const (
	feedingResource    = "feeding"
	waterResource      = "water"
	vaccineResource    = "vaccines"
	medicationResource = "medications"
	eventResource      = "events"
	symptomResource    = "symptoms"
	weightResource     = "weight"
)

// ============================================================================
// Feeding
// ============================================================================

func (c *Client) ListFeeding(ctx context.Context, petID int64) ([]FeedingLog, error) {
	return fetch[[]FeedingLog](ctx, c, petLogPath(petID, feedingResource))
}

func (c *Client) CreateFeeding(ctx context.Context, petID int64, in FeedingInput) (*FeedingLog, error) {
	list := petLogPath(petID, feedingResource)
	return mutate[FeedingLog](ctx, c, http.MethodPost, list, in, list)
}

func (c *Client) DeleteFeeding(ctx context.Context, petID, id int64) error {
	return remove(ctx, c, itemPath(feedingResource, id), petLogPath(petID, feedingResource))
}

// ============================================================================
// Water
// ============================================================================

func (c *Client) ListWater(ctx context.Context, petID int64) ([]WaterLog, error) {
	return fetch[[]WaterLog](ctx, c, petLogPath(petID, waterResource))
}

func (c *Client) CreateWater(ctx context.Context, petID int64, in WaterInput) (*WaterLog, error) {
	list := petLogPath(petID, waterResource)
	return mutate[WaterLog](ctx, c, http.MethodPost, list, in, list)
}

func (c *Client) DeleteWater(ctx context.Context, petID, id int64) error {
	return remove(ctx, c, itemPath(waterResource, id), petLogPath(petID, waterResource))
}

// ============================================================================
// Vaccines
// ============================================================================

func (c *Client) ListVaccines(ctx context.Context, petID int64) ([]Vaccine, error) {
	return fetch[[]Vaccine](ctx, c, petLogPath(petID, vaccineResource))
}

func (c *Client) CreateVaccine(ctx context.Context, petID int64, in VaccineInput) (*Vaccine, error) {
	list := petLogPath(petID, vaccineResource)
	return mutate[Vaccine](ctx, c, http.MethodPost, list, in, list)
}

func (c *Client) UpdateVaccine(ctx context.Context, petID, id int64, in VaccineInput) (*Vaccine, error) {
	return mutate[Vaccine](ctx, c, http.MethodPut, itemPath(vaccineResource, id), in, petLogPath(petID, vaccineResource))
}

func (c *Client) DeleteVaccine(ctx context.Context, petID, id int64) error {
	return remove(ctx, c, itemPath(vaccineResource, id), petLogPath(petID, vaccineResource))
}

// ============================================================================
// Medications
// ============================================================================

func (c *Client) ListMedications(ctx context.Context, petID int64) ([]Medication, error) {
	return fetch[[]Medication](ctx, c, petLogPath(petID, medicationResource))
}

func (c *Client) CreateMedication(ctx context.Context, petID int64, in MedicationInput) (*Medication, error) {
	list := petLogPath(petID, medicationResource)
	return mutate[Medication](ctx, c, http.MethodPost, list, in, list)
}

func (c *Client) UpdateMedication(ctx context.Context, petID, id int64, in MedicationInput) (*Medication, error) {
	return mutate[Medication](ctx, c, http.MethodPut, itemPath(medicationResource, id), in, petLogPath(petID, medicationResource))
}

func (c *Client) DeleteMedication(ctx context.Context, petID, id int64) error {
	return remove(ctx, c, itemPath(medicationResource, id), petLogPath(petID, medicationResource))
}

// ============================================================================
// Calendar events
// ============================================================================

func (c *Client) ListEvents(ctx context.Context, petID int64) ([]CalendarEvent, error) {
	return fetch[[]CalendarEvent](ctx, c, petLogPath(petID, eventResource))
}

func (c *Client) CreateEvent(ctx context.Context, petID int64, in CalendarEventInput) (*CalendarEvent, error) {
	list := petLogPath(petID, eventResource)
	return mutate[CalendarEvent](ctx, c, http.MethodPost, list, in, list)
}

func (c *Client) UpdateEvent(ctx context.Context, petID, id int64, in CalendarEventInput) (*CalendarEvent, error) {
	return mutate[CalendarEvent](ctx, c, http.MethodPut, itemPath(eventResource, id), in, petLogPath(petID, eventResource))
}

func (c *Client) DeleteEvent(ctx context.Context, petID, id int64) error {
	return remove(ctx, c, itemPath(eventResource, id), petLogPath(petID, eventResource))
}

// ============================================================================
// Symptoms
// ============================================================================

func (c *Client) ListSymptoms(ctx context.Context, petID int64) ([]Symptom, error) {
	return fetch[[]Symptom](ctx, c, petLogPath(petID, symptomResource))
}

func (c *Client) CreateSymptom(ctx context.Context, petID int64, in SymptomInput) (*Symptom, error) {
	list := petLogPath(petID, symptomResource)
	return mutate[Symptom](ctx, c, http.MethodPost, list, in, list)
}

func (c *Client) UpdateSymptom(ctx context.Context, petID, id int64, in SymptomInput) (*Symptom, error) {
	return mutate[Symptom](ctx, c, http.MethodPut, itemPath(symptomResource, id), in, petLogPath(petID, symptomResource))
}

func (c *Client) DeleteSymptom(ctx context.Context, petID, id int64) error {
	return remove(ctx, c, itemPath(symptomResource, id), petLogPath(petID, symptomResource))
}

// ============================================================================
// Weight
// ============================================================================

func (c *Client) ListWeight(ctx context.Context, petID int64) ([]WeightEntry, error) {
	return fetch[[]WeightEntry](ctx, c, petLogPath(petID, weightResource))
}

func (c *Client) CreateWeight(ctx context.Context, petID int64, in WeightInput) (*WeightEntry, error) {
	list := petLogPath(petID, weightResource)
	return mutate[WeightEntry](ctx, c, http.MethodPost, list, in, list)
}

func (c *Client) DeleteWeight(ctx context.Context, petID, id int64) error {
	return remove(ctx, c, itemPath(weightResource, id), petLogPath(petID, weightResource))
}
