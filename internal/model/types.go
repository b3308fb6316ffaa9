package model

import "micronas/internal/arch"

// Current persistence format versions. Bump SchemaVersion on incompatible
// record shape changes, CodecVersion on encoding changes.
const (
	SchemaVersion = 1
	CodecVersion  = 1
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Metrics are the measured costs of one trained candidate. All four are
// upper-bounded by the run's bound configuration.
type Metrics struct {
	Error     float64 `json:"error"`
	PeakMem   uint64  `json:"peak_mem"`
	ModelSize uint64  `json:"model_size"`
	MACs      uint64  `json:"macs"`
}

// Individual is one population member: an architecture plus its measured
// metrics, derived fitness, and age in rounds. Metrics is nil until the
// candidate has been evaluated.
type Individual struct {
	ID       string     `json:"id"`
	Arch     arch.Graph `json:"arch"`
	Metrics  *Metrics   `json:"metrics,omitempty"`
	Fitness  float64    `json:"fitness"`
	Feasible bool       `json:"feasible"`
	Age      int        `json:"age"`
}

// SearchState is the full resumable state of a search run.
type SearchState struct {
	VersionedRecord
	RunID      string       `json:"run_id"`
	Space      string       `json:"space"`
	Round      int          `json:"round"`
	Population []Individual `json:"population"`
	RNGState   []byte       `json:"rng_state"`
	Best       *Individual  `json:"best,omitempty"`
}

// RoundRecord summarizes one completed search round for run history.
type RoundRecord struct {
	Round        int     `json:"round"`
	CandidateID  string  `json:"candidate_id"`
	Operation    string  `json:"operation"`
	Fitness      float64 `json:"fitness"`
	Feasible     bool    `json:"feasible"`
	BestFitness  float64 `json:"best_fitness"`
	BestFeasible bool    `json:"best_feasible"`
}

// RunRecord is the persisted summary of a finished or checkpointed run.
type RunRecord struct {
	VersionedRecord
	ID           string  `json:"id"`
	Space        string  `json:"space"`
	Seed         uint64  `json:"seed"`
	Rounds       int     `json:"rounds"`
	CreatedAtUTC string  `json:"created_at_utc"`
	BestFitness  float64 `json:"best_fitness"`
	BestFeasible bool    `json:"best_feasible"`
}

// LayerSpec is one materialized layer of a network. Inputs index earlier
// layers in the flat layer list; an empty Inputs means the preceding layer.
type LayerSpec struct {
	Kind    string `json:"kind"`
	Filters int    `json:"filters,omitempty"`
	Kernel  int    `json:"kernel,omitempty"`
	Stride  int    `json:"stride,omitempty"`
	Pool    int    `json:"pool,omitempty"`
	Units   int    `json:"units,omitempty"`
	Inputs  []int  `json:"inputs,omitempty"`
}

// NetSpec is the evaluator-facing materialization of an architecture:
// a flat layer list in topological order plus the data shape it consumes.
type NetSpec struct {
	InputShape []int       `json:"input_shape"`
	NumClasses int         `json:"num_classes"`
	Layers     []LayerSpec `json:"layers"`
}
