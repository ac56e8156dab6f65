package pawsdk

// ============================================================================
// Auth
// ============================================================================

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// OAuthRequest exchanges a token from an external identity provider
// (e.g. "google", "apple").
type OAuthRequest struct {
	Provider    string `json:"provider"`
	AccessToken string `json:"access_token"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	User         *User  `json:"user,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// ============================================================================
// Pets
// ============================================================================

// Pet is a tracked animal. Dates are kept as the strings the API sends;
// see ParseTime.
type Pet struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Species   string   `json:"species"`
	Breed     string   `json:"breed,omitempty"`
	BirthDate string   `json:"birth_date,omitempty"`
	Weight    *float64 `json:"weight,omitempty"`
	PhotoURL  string   `json:"photo_url,omitempty"`
	Notes     string   `json:"notes,omitempty"`
	CreatedAt string   `json:"created_at,omitempty"`
}

type PetInput struct {
	Name      string   `json:"name,omitempty"`
	Species   string   `json:"species,omitempty"`
	Breed     string   `json:"breed,omitempty"`
	BirthDate string   `json:"birth_date,omitempty"`
	Weight    *float64 `json:"weight,omitempty"`
	PhotoURL  string   `json:"photo_url,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// ============================================================================
// Per-pet logs
// ============================================================================

type FeedingLog struct {
	ID       int64  `json:"id"`
	PetID    int64  `json:"pet_id"`
	FoodType string `json:"food_type"`
	Amount   string `json:"amount,omitempty"`
	FedAt    string `json:"fed_at"`
	Notes    string `json:"notes,omitempty"`
}

type FeedingInput struct {
	FoodType string `json:"food_type"`
	Amount   string `json:"amount,omitempty"`
	FedAt    string `json:"fed_at,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

type WaterLog struct {
	ID       int64   `json:"id"`
	PetID    int64   `json:"pet_id"`
	AmountML float64 `json:"amount_ml"`
	LoggedAt string  `json:"logged_at"`
	Notes    string  `json:"notes,omitempty"`
}

type WaterInput struct {
	AmountML float64 `json:"amount_ml"`
	LoggedAt string  `json:"logged_at,omitempty"`
	Notes    string  `json:"notes,omitempty"`
}

type Vaccine struct {
	ID           int64  `json:"id"`
	PetID        int64  `json:"pet_id"`
	Name         string `json:"name"`
	DateGiven    string `json:"date_given"`
	NextDueDate  string `json:"next_due_date,omitempty"`
	Veterinarian string `json:"veterinarian,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

type VaccineInput struct {
	Name         string `json:"name,omitempty"`
	DateGiven    string `json:"date_given,omitempty"`
	NextDueDate  string `json:"next_due_date,omitempty"`
	Veterinarian string `json:"veterinarian,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

type Medication struct {
	ID           int64  `json:"id"`
	PetID        int64  `json:"pet_id"`
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency,omitempty"`
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
	ReminderTime string `json:"reminder_time,omitempty"`
	Active       bool   `json:"active"`
	Notes        string `json:"notes,omitempty"`
}

type MedicationInput struct {
	Name         string `json:"name,omitempty"`
	Dosage       string `json:"dosage,omitempty"`
	Frequency    string `json:"frequency,omitempty"`
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
	ReminderTime string `json:"reminder_time,omitempty"`
	Active       *bool  `json:"active,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

type CalendarEvent struct {
	ID        int64  `json:"id"`
	PetID     int64  `json:"pet_id"`
	Title     string `json:"title"`
	EventType string `json:"event_type,omitempty"`
	EventDate string `json:"event_date"`
	Notes     string `json:"notes,omitempty"`
}

type CalendarEventInput struct {
	Title     string `json:"title,omitempty"`
	EventType string `json:"event_type,omitempty"`
	EventDate string `json:"event_date,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type Symptom struct {
	ID          int64  `json:"id"`
	PetID       int64  `json:"pet_id"`
	Description string `json:"description"`
	Severity    string `json:"severity,omitempty"`
	ObservedAt  string `json:"observed_at"`
	Notes       string `json:"notes,omitempty"`
}

type SymptomInput struct {
	Description string `json:"description,omitempty"`
	Severity    string `json:"severity,omitempty"`
	ObservedAt  string `json:"observed_at,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type WeightEntry struct {
	ID         int64   `json:"id"`
	PetID      int64   `json:"pet_id"`
	Weight     float64 `json:"weight"`
	Unit       string  `json:"unit,omitempty"`
	RecordedAt string  `json:"recorded_at"`
}

type WeightInput struct {
	Weight     float64 `json:"weight"`
	Unit       string  `json:"unit,omitempty"`
	RecordedAt string  `json:"recorded_at,omitempty"`
}
