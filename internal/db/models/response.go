// Package models - response.go defines the Response model holding one answer to
// one questionnaire question on an assessment.
package models

import "time"

// Response is a per-question answer. It is editable as a draft until the
// vendor submits it; a submitted response is frozen and re-submitting is a
// conflict.
type Response struct {
	ID           string    `db:"id" json:"id"`
	OrgID        string    `db:"org_id" json:"org_id"`
	AssessmentID string    `db:"assessment_id" json:"assessment_id"`
	QuestionID   string    `db:"question_id" json:"question_id"`
	AnswerText   string    `db:"answer_text" json:"answer_text"`
	Submitted    bool      `db:"submitted" json:"submitted"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
