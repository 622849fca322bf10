package models

import "time"

// Draft is the persisted (answers, step) tuple that makes a session
// resumable. One active draft exists per session owner.
type Draft struct {
	Answers     *Answers  `json:"answers"`
	CurrentStep StepName  `json:"current_step"`
	Timestamp   time.Time `json:"timestamp"`
}

// SavedDraft is a save-for-later record: the full packaged intake plus the
// email it should be delivered to. Saved drafts live under their own key
// family and are never cleared together with the active draft.
type SavedDraft struct {
	Key       string    `json:"key"`
	Email     string    `json:"email"`
	Answers   *Answers  `json:"answers"`
	Solution  *Solution `json:"solution"`
	CreatedAt time.Time `json:"created_at"`
}
