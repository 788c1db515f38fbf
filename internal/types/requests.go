package types

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// MatchRequest is the body of POST /matches.
// Either raw texts or ingested document ids must be given for each side.
type MatchRequest struct {
	CVText        string `json:"cv_text,omitempty" validate:"required_without=CVDocumentID"`
	JDText        string `json:"jd_text,omitempty" validate:"required_without=JDDocumentID"`
	CVDocumentID  string `json:"cv_document_id,omitempty" validate:"omitempty,uuid"`
	JDDocumentID  string `json:"jd_document_id,omitempty" validate:"omitempty,uuid"`
	CVSource      string `json:"cv_source,omitempty" validate:"max=512"`
	JDSource      string `json:"jd_source,omitempty" validate:"max=512"`
	PersistResult *bool  `json:"persist,omitempty"`
}

// Validate validates the MatchRequest using the validator.
func (r *MatchRequest) Validate() error {
	return validate.Struct(r)
}

// GenerateRoadmapRequest is the body of POST /roadmaps/generate
type GenerateRoadmapRequest struct {
	Category      string        `json:"category" validate:"required,min=2,max=120"`
	Source        RoadmapSource `json:"source" validate:"required,oneof=profile cv-analysis jd-analysis hybrid manual"`
	MatchResultID string        `json:"match_result_id,omitempty" validate:"omitempty,uuid"`
	Context       string        `json:"context,omitempty" validate:"max=20000"`
	Profile       UserProfile   `json:"profile"`
	Activate      bool          `json:"activate,omitempty"`
}

// Validate validates the GenerateRoadmapRequest using the validator.
func (r *GenerateRoadmapRequest) Validate() error {
	return validate.Struct(r)
}

// UpdateModuleRequest is the body of PATCH /roadmaps/{id}/modules/{module_id}
type UpdateModuleRequest struct {
	Status   ModuleStatus `json:"status" validate:"required,oneof=available in-progress completed"`
	Progress *float64     `json:"progress,omitempty" validate:"omitempty,min=0,max=100"`
}

// Validate validates the UpdateModuleRequest using the validator.
func (r *UpdateModuleRequest) Validate() error {
	return validate.Struct(r)
}

// UpdateResourceRequest is the body of PATCH /roadmaps/{id}/modules/{module_id}/resources/{resource_id}
type UpdateResourceRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

// Validate validates the UpdateResourceRequest using the validator.
func (r *UpdateResourceRequest) Validate() error {
	return validate.Struct(r)
}

// IngestTextRequest is the body of POST /documents/text
type IngestTextRequest struct {
	Text   string       `json:"text" validate:"required,min=1"`
	Source string       `json:"source,omitempty" validate:"max=512"`
	Type   DocumentType `json:"type,omitempty" validate:"omitempty,oneof=cv jd profile repo other"`
}

// Validate validates the IngestTextRequest using the validator.
func (r *IngestTextRequest) Validate() error {
	return validate.Struct(r)
}

// IngestURLRequest is the body of POST /documents/url
type IngestURLRequest struct {
	URL  string       `json:"url" validate:"required,url,max=2048"`
	Type DocumentType `json:"type,omitempty" validate:"omitempty,oneof=cv jd profile repo other"`
}

// Validate validates the IngestURLRequest using the validator.
func (r *IngestURLRequest) Validate() error {
	return validate.Struct(r)
}
