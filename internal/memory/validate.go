package memory

import (
	"fmt"
	"unicode/utf8"

	"github.com/iammorganparry/recall/internal/models"
)

const (
	maxTitleLen = 500
	maxBodyLen  = 65536
	maxTagLen   = 100
	maxTagCount = 32
)

// ValidatePayload checks a store payload against every field constraint
// before any mutation begins. It returns nil when the payload is valid,
// otherwise a ValidationError listing all violated fields.
func ValidatePayload(req *models.StoreRequest) *models.ValidationError {
	verr := &models.ValidationError{}

	if req.ProjectID <= 0 {
		verr.Add("projectId", "must be a positive project id")
	}
	if req.Kind == "" {
		verr.Add("kind", "is required")
	} else if !req.Kind.IsValid() {
		verr.Add("kind", fmt.Sprintf("unknown kind %q", req.Kind))
	}
	if req.Body == "" {
		verr.Add("body", "is required")
	} else if len(req.Body) > maxBodyLen {
		verr.Add("body", fmt.Sprintf("exceeds %d bytes", maxBodyLen))
	}
	if len(req.Title) > maxTitleLen {
		verr.Add("title", fmt.Sprintf("exceeds %d bytes", maxTitleLen))
	}
	if !utf8.ValidString(req.Title) {
		verr.Add("title", "is not valid UTF-8")
	}
	if !utf8.ValidString(req.Body) {
		verr.Add("body", "is not valid UTF-8")
	}
	if req.Importance < 0.0 || req.Importance > 1.0 {
		verr.Add("importance", "must be within [0, 1]")
	}
	if len(req.Tags) > maxTagCount {
		verr.Add("tags", fmt.Sprintf("more than %d tags", maxTagCount))
	}
	for i, tag := range req.Tags {
		if tag == "" || len(tag) > maxTagLen {
			verr.Add("tags", fmt.Sprintf("tag %d must be 1-%d bytes", i, maxTagLen))
			break
		}
	}
	if req.ExpiresAt != nil && *req.ExpiresAt <= 0 {
		verr.Add("expiresAt", "must be a positive unix timestamp")
	}
	if req.Vector != nil && len(req.Vector) == 0 {
		verr.Add("vector", "must not be empty when supplied")
	}

	if verr.Empty() {
		return nil
	}
	return verr
}
