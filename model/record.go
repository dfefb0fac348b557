// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

// Record is one step within one case.
// Records are immutable once decoded; nothing in this module writes to a loaded Record.
type Record struct {
	DatasetVersion *string        `json:"dataset_version"`
	SchemaVersion  *string        `json:"schema_version"`
	CaseID         string         `json:"case_id"`
	StepID         int            `json:"step_id"`
	StepName       *string        `json:"step_name"`
	RulesText      *string        `json:"rules_text"`
	RulesJSON      map[string]any `json:"rules_json"`
	GeneratedAt    *string        `json:"generated_at"`

	FPS             Number  `json:"fps"`
	NFrames         Number  `json:"n_frames"`
	DurationS       Number  `json:"duration_s"`
	Resolution      *string `json:"resolution"`
	BleedingScore   Number  `json:"bleeding_score"`
	MovementEconomy Number  `json:"movement_economy"`
	R               Number  `json:"R"`
	ROverG          Number  `json:"R_over_G"`

	VideoMeta *VideoMeta `json:"video_meta"`
	Metrics   *Metrics   `json:"metrics"`

	// search is the lowercased canonical text of the source line.
	search string
}

// VideoMeta is the nested video metadata object.
type VideoMeta struct {
	Resolution *string `json:"resolution"`
	FPS        Number  `json:"fps"`
	NFrames    Number  `json:"n_frames"`
	DurationS  Number  `json:"duration_s"`
	Format     *string `json:"format"`
	SourceFile *string `json:"source_file"`
}

// Metrics is the nested computed-metrics object.
type Metrics struct {
	BleedingScore      Number `json:"bleeding_score"`
	MovementEconomy    Number `json:"movement_economy"`
	R                  Number `json:"R"`
	ROverG             Number `json:"R_over_G"`
	MovementIndexDelta Number `json:"movement_index_delta"`
}

// SearchText returns the lowercased canonical text used for substring search.
func (r *Record) SearchText() string {
	return r.search
}

// ResolveFPS returns the frame rate. video_meta.fps is consulted only when the
// top-level key is absent; a top-level null or non-number resolves to unset.
func (r *Record) ResolveFPS() (float64, bool) {
	if r.FPS.Present {
		return r.FPS.Get()
	}
	if r.VideoMeta != nil {
		return r.VideoMeta.FPS.Get()
	}
	return 0, false
}

// ResolveBleedingScore returns the bleeding score. metrics.bleeding_score is
// consulted only when the top-level key is absent.
func (r *Record) ResolveBleedingScore() (float64, bool) {
	if r.BleedingScore.Present {
		return r.BleedingScore.Get()
	}
	if r.Metrics != nil {
		return r.Metrics.BleedingScore.Get()
	}
	return 0, false
}
