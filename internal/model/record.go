package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar date format used for Record.Date.
const DateLayout = "2006-01-02"

// Record represents a single work report.
type Record struct {
	ID          string    `json:"id" yaml:"id"`
	Client      string    `json:"client" yaml:"client"`
	Date        string    `json:"date" yaml:"date"`
	Location    string    `json:"location" yaml:"location"`
	Hours       float64   `json:"hours" yaml:"hours"`
	Description string    `json:"description" yaml:"description"`
	Amount      float64   `json:"amount" yaml:"amount"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
	// ExternalID links a record to the calendar event it was synced from.
	ExternalID string `json:"externalId,omitempty" yaml:"externalId,omitempty"`
}

// recordJSON mirrors Record with nullable numbers. encoding/json refuses NaN,
// which a lenient CSV import can produce, so NaN is stored as null.
type recordJSON struct {
	ID          string    `json:"id"`
	Client      string    `json:"client"`
	Date        string    `json:"date"`
	Location    string    `json:"location"`
	Hours       *float64  `json:"hours"`
	Description string    `json:"description"`
	Amount      *float64  `json:"amount"`
	CreatedAt   time.Time `json:"createdAt"`
	ExternalID  string    `json:"externalId,omitempty"`
}

func nullable(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func orNaN(f *float64) float64 {
	if f == nil {
		return math.NaN()
	}
	return *f
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ID:          r.ID,
		Client:      r.Client,
		Date:        r.Date,
		Location:    r.Location,
		Hours:       nullable(r.Hours),
		Description: r.Description,
		Amount:      nullable(r.Amount),
		CreatedAt:   r.CreatedAt,
		ExternalID:  r.ExternalID,
	})
}

// UnmarshalJSON implements json.Unmarshaler. A null or missing number decodes as NaN.
func (r *Record) UnmarshalJSON(data []byte) error {
	var aux recordJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Record{
		ID:          aux.ID,
		Client:      aux.Client,
		Date:        aux.Date,
		Location:    aux.Location,
		Hours:       orNaN(aux.Hours),
		Description: aux.Description,
		Amount:      orNaN(aux.Amount),
		CreatedAt:   aux.CreatedAt,
		ExternalID:  aux.ExternalID,
	}
	return nil
}

// NewID returns a fresh random record ID.
func NewID() string {
	return uuid.NewString()
}

// Validate checks the fields a user-entered record must satisfy.
// Imported records are not validated and may carry NaN numbers.
func (r Record) Validate() error {
	var errs []error
	if strings.TrimSpace(r.Client) == "" {
		errs = append(errs, errors.New("client is required"))
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		errs = append(errs, fmt.Errorf("date %q is not YYYY-MM-DD", r.Date))
	}
	if math.IsNaN(r.Hours) || math.IsInf(r.Hours, 0) || r.Hours < 0 {
		errs = append(errs, errors.New("hours must be a non-negative number"))
	}
	if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) {
		errs = append(errs, errors.New("amount must be a number"))
	}
	return errors.Join(errs...)
}

// SortByDateDesc orders records newest date first. Records on the same date keep
// their relative order.
func SortByDateDesc(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})
}
