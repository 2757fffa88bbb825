// Package domain holds the request, sample and summary shapes of an extraction run
package domain

import "time"

// Request describes one extraction run over a single file. Zero numeric
// fields fall back to the service configuration.
type Request struct {
	File    string   `json:"file" validate:"required"`
	Inputs  []string `json:"inputs" validate:"required,min=1,dive,varref"`
	Target  string   `json:"target" validate:"required,varref"`
	Filters string   `json:"filters,omitempty"`

	// Start and Stop are window predicates, "Class" or "Class:v1|v2"
	Start string `json:"start,omitempty"`
	Stop  string `json:"stop,omitempty"`

	Norm string `json:"norm,omitempty"`

	// MinIntervalHours overrides the configured interval when set; 0 keeps every step
	MinIntervalHours *int `json:"min_interval_hours,omitempty" validate:"omitempty,gte=0"`

	MinSamples   int   `json:"min_samples,omitempty" validate:"gte=0"`
	ClipSubjects int   `json:"clip_subjects,omitempty" validate:"gte=0"`
	Chunk        int64 `json:"chunk,omitempty" validate:"gte=0"`
	Workers      int   `json:"workers,omitempty" validate:"gte=0,lte=256"`
}

// Sample is one aligned row
type Sample struct {
	Subject string    `json:"subject"`
	Window  int       `json:"window"`
	Step    int       `json:"step"`
	Day     int       `json:"day"`
	Hour    int       `json:"hour"`
	Inputs  []float64 `json:"inputs"`
	Target  float64   `json:"target"`
	Class   int       `json:"class"`
}

// Batch carries the samples of one subject
type Batch struct {
	RunID     string
	Partition int
	Subject   string
	Samples   []Sample
}

// Summary reports what a run did
type Summary struct {
	RunID        string        `json:"run_id"`
	File         string        `json:"file"`
	CacheHit     bool          `json:"cache_hit"`
	Partitions   int           `json:"partitions"`
	Records      int           `json:"records"`
	Subjects     int           `json:"subjects"`
	Windows      int           `json:"windows"`
	Samples      int           `json:"samples"`
	Skipped      int           `json:"skipped"`
	Clipped      int           `json:"clipped"`
	DecodeErrors int           `json:"decode_errors"`
	Elapsed      time.Duration `json:"elapsed_ns"`

	// ClassHistogram counts samples per target result class
	ClassHistogram []int `json:"class_histogram"`
}
