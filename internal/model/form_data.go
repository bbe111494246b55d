package model

import (
	"encoding/json"
	"maps"
	"reflect"
	"strings"
)

// FormData is the document accumulated by the submission wizard. Each known
// field is optional: a nil pointer (or empty map) means "not provided", which
// lets the same type describe both the stored document and a partial update.
// Keys the server does not know about are preserved in Extra.
type FormData struct {
	// Step 1: personal information.
	FullName    *string `json:"fullName,omitempty" binding:"omitempty,max=200"`
	Email       *string `json:"email,omitempty" binding:"omitempty,email,max=255"`
	Phone       *string `json:"phone,omitempty" binding:"omitempty,max=32"`
	CollegeName *string `json:"collegeName,omitempty" binding:"omitempty,max=300"`
	Department  *string `json:"department,omitempty" binding:"omitempty,max=200"`
	Role        *string `json:"role,omitempty" binding:"omitempty,max=100"`
	Year        *string `json:"year,omitempty" binding:"omitempty,max=20"`
	Semester    *string `json:"semester,omitempty" binding:"omitempty,max=20"`

	// Step 2: assessment. MCQAnswers maps question ID to the selected option index.
	MCQAnswers      map[string]int `json:"mcqAnswers,omitempty" binding:"omitempty,max=200,dive,gte=0"`
	AssessmentScore *float64       `json:"assessmentScore,omitempty" binding:"omitempty,gte=0,lte=100"`

	// Step 3: project information.
	ProjectTitle       *string `json:"projectTitle,omitempty" binding:"omitempty,max=300"`
	ProjectDescription *string `json:"projectDescription,omitempty" binding:"omitempty,max=5000"`
	WebsiteURL         *string `json:"websiteUrl,omitempty" binding:"omitempty,max=500,project_link"`
	GithubRepo         *string `json:"githubRepo,omitempty" binding:"omitempty,max=500,project_link"`

	Extra map[string]json.RawMessage `json:"-"`
}

// formDataFields has FormData's layout without its JSON methods.
type formDataFields FormData

// knownFormKeys is the set of JSON keys bound to typed fields.
var knownFormKeys = func() map[string]struct{} {
	keys := make(map[string]struct{})
	t := reflect.TypeOf(FormData{})
	for i := 0; i < t.NumField(); i++ {
		name := strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0]
		if name != "" && name != "-" {
			keys[name] = struct{}{}
		}
	}
	return keys
}()

// UnmarshalJSON decodes known fields and keeps every other key in Extra.
func (f *FormData) UnmarshalJSON(data []byte) error {
	var fields formDataFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range raw {
		if _, known := knownFormKeys[k]; known {
			delete(raw, k)
		}
	}

	*f = FormData(fields)
	if len(raw) > 0 {
		f.Extra = raw
	}
	return nil
}

// MarshalJSON encodes known fields and re-emits Extra alongside them.
func (f FormData) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(formDataFields(f))
	if err != nil || len(f.Extra) == 0 {
		return data, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range f.Extra {
		if _, known := knownFormKeys[k]; !known {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// Merge copies every field present in patch over f. Absent fields are left
// untouched; nothing is ever removed.
func (f *FormData) Merge(patch FormData) {
	mergeString(&f.FullName, patch.FullName)
	mergeString(&f.Email, patch.Email)
	mergeString(&f.Phone, patch.Phone)
	mergeString(&f.CollegeName, patch.CollegeName)
	mergeString(&f.Department, patch.Department)
	mergeString(&f.Role, patch.Role)
	mergeString(&f.Year, patch.Year)
	mergeString(&f.Semester, patch.Semester)
	mergeString(&f.ProjectTitle, patch.ProjectTitle)
	mergeString(&f.ProjectDescription, patch.ProjectDescription)
	mergeString(&f.WebsiteURL, patch.WebsiteURL)
	mergeString(&f.GithubRepo, patch.GithubRepo)

	if len(patch.MCQAnswers) > 0 {
		f.MCQAnswers = maps.Clone(patch.MCQAnswers)
	}
	if patch.AssessmentScore != nil {
		f.AssessmentScore = clonePtr(patch.AssessmentScore)
	}
	if len(patch.Extra) > 0 {
		if f.Extra == nil {
			f.Extra = make(map[string]json.RawMessage, len(patch.Extra))
		}
		for k, v := range patch.Extra {
			f.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
}

// Clone returns a deep copy.
func (f FormData) Clone() FormData {
	var c FormData
	c.Merge(f)
	return c
}

// Str dereferences an optional string field.
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// StrPtr returns a pointer to s, for building partial updates.
func StrPtr(s string) *string {
	return &s
}

func mergeString(dst **string, src *string) {
	if src != nil {
		*dst = clonePtr(src)
	}
}
