package models

import "time"

type IncidentType string

const (
	IncidentTypeDangerous     IncidentType = "DANGEROUS"
	IncidentTypeFraud         IncidentType = "FRAUD"
	IncidentTypeInappropriate IncidentType = "INAPPROPRIATE"
	IncidentTypeOther         IncidentType = "OTHER"
)

type IncidentStatus string

const (
	IncidentStatusPending  IncidentStatus = "PENDING"
	IncidentStatusAccepted IncidentStatus = "ACCEPTED"
	IncidentStatusRejected IncidentStatus = "REJECTED"
	IncidentStatusAppealed IncidentStatus = "APPEALED"
)

// IncidentPhase tags which review an incident is in. An incident starts in
// INITIAL and moves to APPEAL exactly once, when the product owner appeals.
// The phase, not the presence of an appeal moderator, decides whether an
// accepted resolution suspends or bans the product.
type IncidentPhase string

const (
	IncidentPhaseInitial IncidentPhase = "INITIAL"
	IncidentPhaseAppeal  IncidentPhase = "APPEAL"
)

// SystemReporterID marks incidents raised by the detection pipeline rather
// than a human reporter.
const SystemReporterID = "0"

// SystemDetectionComment is the fixed comment on automatic incidents.
const SystemDetectionComment = "Automatically flagged by content detection"

func IsValidIncidentType(t IncidentType) bool {
	switch t {
	case IncidentTypeDangerous, IncidentTypeFraud, IncidentTypeInappropriate, IncidentTypeOther:
		return true
	}
	return false
}

func IsValidIncidentStatus(s IncidentStatus) bool {
	switch s {
	case IncidentStatusPending, IncidentStatusAccepted, IncidentStatusRejected, IncidentStatusAppealed:
		return true
	}
	return false
}

// Incident is a persisted report against a product. Incidents are never
// deleted; the product keeps its full moderation history.
type Incident struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	ProductID         uint           `json:"product_id" gorm:"not null;index"`
	Type              IncidentType   `json:"type" gorm:"not null"`
	Comment           *string        `json:"comment,omitempty"`
	ReporterID        string         `json:"reporter_id" gorm:"not null"`
	Status            IncidentStatus `json:"status" gorm:"default:PENDING;index"`
	Phase             IncidentPhase  `json:"phase" gorm:"default:INITIAL"`
	ModeratorID       *uint          `json:"moderator_id,omitempty"`
	AppealModeratorID *uint          `json:"appeal_moderator_id,omitempty"`
	AppealReason      *string        `json:"appeal_reason,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`

	// Relations
	Product         Product `json:"product,omitempty"`
	Moderator       *User   `json:"moderator,omitempty" gorm:"foreignKey:ModeratorID"`
	AppealModerator *User   `json:"appeal_moderator,omitempty" gorm:"foreignKey:AppealModeratorID"`
}

func (Incident) TableName() string {
	return "incidents"
}
