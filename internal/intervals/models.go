package intervals

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"runcoach/internal/analysis"
	"runcoach/internal/store"
)

// localTimeLayout is how intervals.icu formats start_date_local (no zone)
const localTimeLayout = "2006-01-02T15:04:05"

// LocalTime is a wall-clock timestamp without a zone offset
type LocalTime struct {
	time.Time
}

// UnmarshalJSON accepts both zoneless and RFC3339 timestamps
func (t *LocalTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if parsed, err := time.Parse(localTimeLayout, s); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("parsing local time %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// Activity represents an intervals.icu activity from the API
type Activity struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	StartDateLocal   LocalTime `json:"start_date_local"`
	Distance         float64   `json:"distance"`     // meters
	MovingTime       int       `json:"moving_time"`  // seconds
	ElapsedTime      int       `json:"elapsed_time"` // seconds
	AverageSpeed     float64   `json:"average_speed"`
	AverageHeartrate *float64  `json:"average_heartrate"`
	MaxHeartrate     *float64  `json:"max_heartrate"`
	AverageCadence   *float64  `json:"average_cadence"`
	TrainingLoad     *float64  `json:"icu_training_load"`
	PairedEventID    int       `json:"paired_event_id"`
}

// IsRun reports whether the activity is a running session
func (a Activity) IsRun() bool {
	switch a.Type {
	case "Run", "VirtualRun", "TrailRun":
		return true
	}
	return false
}

// ToStore converts the API activity into its persisted form
func (a Activity) ToStore() *store.Activity {
	return &store.Activity{
		ID:               a.ID,
		Name:             a.Name,
		Type:             a.Type,
		StartDateLocal:   a.StartDateLocal.Time,
		Distance:         a.Distance,
		MovingTime:       a.MovingTime,
		ElapsedTime:      a.ElapsedTime,
		AverageSpeed:     a.AverageSpeed,
		AverageHeartrate: a.AverageHeartrate,
		MaxHeartrate:     a.MaxHeartrate,
		AverageCadence:   a.AverageCadence,
		TrainingLoad:     a.TrainingLoad,
		HasHeartrate:     a.AverageHeartrate != nil && *a.AverageHeartrate > 0,
	}
}

// ActivityIntervals is the body of the intervals endpoint
type ActivityIntervals struct {
	ID            string                 `json:"id"`
	ICUIntervals  []analysis.ICUInterval `json:"icu_intervals"`
	AnalyzedSince string                 `json:"analyzed"`
}

// Stream is one entry of the streams endpoint. Data may carry nulls.
type Stream struct {
	Type string     `json:"type"`
	Data []*float64 `json:"data"`
}

// Streams is the list form returned by intervals.icu
type Streams []Stream

// ByType returns the stream of the given type, or nil
func (s Streams) ByType(t string) []*float64 {
	for _, st := range s {
		if st.Type == t {
			return st.Data
		}
	}
	return nil
}

// Len returns the number of samples, keyed off the time stream
func (s Streams) Len() int {
	return len(s.ByType("time"))
}

// ToPoints converts the streams into stream points for one activity.
// Samples without a time value are skipped.
func (s Streams) ToPoints(activityID string) []store.StreamPoint {
	times := s.ByType("time")
	velocity := s.ByType("velocity_smooth")
	heartrate := s.ByType("heartrate")
	cadence := s.ByType("cadence")
	grade := s.ByType("grade_smooth")
	distance := s.ByType("distance")

	points := make([]store.StreamPoint, 0, len(times))
	for i, t := range times {
		if t == nil {
			continue
		}
		points = append(points, store.StreamPoint{
			ActivityID:     activityID,
			TimeOffset:     int(*t),
			VelocitySmooth: at(velocity, i),
			Heartrate:      intAt(heartrate, i),
			Cadence:        intAt(cadence, i),
			GradeSmooth:    at(grade, i),
			Distance:       at(distance, i),
		})
	}
	return points
}

func at(data []*float64, i int) *float64 {
	if i >= len(data) {
		return nil
	}
	return data[i]
}

func intAt(data []*float64, i int) *int {
	v := at(data, i)
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

// Wellness is one day of wellness data. ID is the date (YYYY-MM-DD).
type Wellness struct {
	ID        string   `json:"id"`
	HRV       *float64 `json:"hrv"`
	RestingHR *float64 `json:"restingHR"`
	SleepSecs *float64 `json:"sleepSecs"`
	Stress    *int     `json:"stress"`
	Sick      *int     `json:"sick"`   // severity 1..4 when reported
	Injury    *int     `json:"injury"` // severity 1..4 when reported
}

// ToStore converts a wellness entry into its persisted form
func (w Wellness) ToStore() *store.WellnessDay {
	day := &store.WellnessDay{
		Date:      w.ID,
		HRV:       w.HRV,
		RestingHR: w.RestingHR,
		Stress:    w.Stress,
		Sick:      w.Sick != nil && *w.Sick > 1,
		Injured:   w.Injury != nil && *w.Injury > 1,
	}
	if w.SleepSecs != nil {
		hours := *w.SleepSecs / 3600
		day.SleepHours = &hours
	}
	return day
}

// apiError is the JSON error body intervals.icu returns on failures
type apiError struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

func (e apiError) message(body []byte) string {
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return string(body)
}
