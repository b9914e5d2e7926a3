package testcase

import (
	"encoding/json"
	"strings"
)

// TagRefKind discriminates the normalized forms of a tag reference.
type TagRefKind int

const (
	// TagRefSkip marks a blank reference that is silently dropped.
	TagRefSkip TagRefKind = iota
	// TagRefByID references an existing tag by id.
	TagRefByID
	// TagRefByName references a tag by name, creating it if absent.
	TagRefByName
)

// TagRef is a tagged variant for a tag reference. On the wire it accepts a
// bare string (the name), {"id": N} or {"name": S}. Blank names normalize
// to Skip before any database access.
type TagRef struct {
	kind TagRefKind
	id   uint
	name string
}

// TagByID builds a reference to an existing tag.
func TagByID(id uint) TagRef {
	return TagRef{kind: TagRefByID, id: id}
}

// TagByName builds a by-name reference. Blank names become Skip.
func TagByName(name string) TagRef {
	name = strings.TrimSpace(name)
	if name == "" {
		return TagRef{kind: TagRefSkip}
	}
	return TagRef{kind: TagRefByName, name: name}
}

// Kind returns the normalized variant of the reference.
func (r TagRef) Kind() TagRefKind { return r.kind }

// ID returns the referenced tag id for TagRefByID references.
func (r TagRef) ID() uint { return r.id }

// Name returns the referenced tag name for TagRefByName references.
func (r TagRef) Name() string { return r.name }

// UnmarshalJSON accepts a string, {"id": N} or {"name": S}.
func (r *TagRef) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*r = TagByName(asString)
		return nil
	}

	var asObject struct {
		ID   *json.Number `json:"id"`
		Name *string      `json:"name"`
	}
	if err := json.Unmarshal(data, &asObject); err == nil {
		if asObject.ID != nil {
			id, err := asObject.ID.Int64()
			if err != nil || id < 0 {
				return NewValidationError("tag 'id' must be a non-negative integer")
			}
			*r = TagByID(uint(id))
			return nil
		}
		if asObject.Name != nil {
			*r = TagByName(*asObject.Name)
			return nil
		}
	}

	return NewValidationError("each tag must be a string (name) or an object with 'id' or 'name'")
}

// MarshalJSON renders the reference back to its wire shape.
func (r TagRef) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case TagRefByID:
		return json.Marshal(map[string]uint{"id": r.id})
	case TagRefByName:
		return json.Marshal(r.name)
	default:
		return json.Marshal("")
	}
}

// SuiteRef references a suite link by {suite_id} or {suite_name}, with an
// optional integer position.
type SuiteRef struct {
	SuiteID   *uint
	SuiteName string
	Position  *int
}

// UnmarshalJSON enforces the object shape and integer position up front so
// validation stays independent of the database.
func (r *SuiteRef) UnmarshalJSON(data []byte) error {
	var asObject struct {
		SuiteID   *json.Number `json:"suite_id"`
		SuiteName *string      `json:"suite_name"`
		Position  *json.Number `json:"position"`
	}
	if err := json.Unmarshal(data, &asObject); err != nil {
		return NewValidationError("each suite_link must be an object")
	}

	out := SuiteRef{}
	if asObject.SuiteID != nil {
		id, err := asObject.SuiteID.Int64()
		if err != nil || id < 0 {
			return NewValidationError("'suite_id' in suite_links must be a non-negative integer")
		}
		suiteID := uint(id)
		out.SuiteID = &suiteID
	}
	if asObject.SuiteName != nil {
		out.SuiteName = strings.TrimSpace(*asObject.SuiteName)
	}
	if asObject.Position != nil {
		pos, err := asObject.Position.Int64()
		if err != nil {
			return NewValidationError("'position' in suite_links must be an integer")
		}
		position := int(pos)
		out.Position = &position
	}

	*r = out
	return nil
}

// MarshalJSON renders the reference back to its wire shape.
func (r SuiteRef) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{}
	if r.SuiteID != nil {
		out["suite_id"] = *r.SuiteID
	}
	if r.SuiteName != "" {
		out["suite_name"] = r.SuiteName
	}
	if r.Position != nil {
		out["position"] = *r.Position
	}
	return json.Marshal(out)
}

// validate checks that the reference targets a suite at all.
func (r SuiteRef) validate() error {
	if r.SuiteID == nil && r.SuiteName == "" {
		return NewValidationError("each suite_link must contain 'suite_id' or 'suite_name'")
	}
	return nil
}

// StepInput is a single step of a payload. Position may be omitted and is
// then assigned sequentially.
type StepInput struct {
	Position    *int            `json:"position"`
	Action      string          `json:"action"`
	Expected    *string         `json:"expected"`
	Attachments StepAttachments `json:"attachments"`
}

// UnmarshalJSON rejects non-integer positions with a ValidationError.
func (s *StepInput) UnmarshalJSON(data []byte) error {
	var asObject struct {
		Position    *json.Number    `json:"position"`
		Action      string          `json:"action"`
		Expected    *string         `json:"expected"`
		Attachments StepAttachments `json:"attachments"`
	}
	if err := json.Unmarshal(data, &asObject); err != nil {
		return NewValidationError("each step must be an object")
	}

	out := StepInput{
		Action:      asObject.Action,
		Expected:    asObject.Expected,
		Attachments: asObject.Attachments,
	}
	if asObject.Position != nil {
		pos, err := asObject.Position.Int64()
		if err != nil {
			return NewValidationError("step 'position' must be an integer")
		}
		position := int(pos)
		out.Position = &position
	}

	*s = out
	return nil
}

// Payload is the desired state of a test case for Create and Update.
// Update applies it with full-replace semantics.
type Payload struct {
	Name           string      `json:"name"`
	Preconditions  *string     `json:"preconditions"`
	Description    *string     `json:"description"`
	ExpectedResult *string     `json:"expected_result"`
	Steps          []StepInput `json:"steps"`
	Tags           []TagRef    `json:"tags"`
	SuiteLinks     []SuiteRef  `json:"suite_links"`
}

// normalize validates required fields and returns a copy with the name
// and step actions trimmed and nil slices replaced by empty ones.
func (p Payload) normalize() (Payload, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return Payload{}, NewValidationError("'name' is required and must not be blank")
	}

	out := Payload{
		Name:           name,
		Preconditions:  p.Preconditions,
		Description:    p.Description,
		ExpectedResult: p.ExpectedResult,
		Steps:          make([]StepInput, 0, len(p.Steps)),
		Tags:           p.Tags,
		SuiteLinks:     p.SuiteLinks,
	}
	if out.Tags == nil {
		out.Tags = []TagRef{}
	}
	if out.SuiteLinks == nil {
		out.SuiteLinks = []SuiteRef{}
	}

	for _, step := range p.Steps {
		action := strings.TrimSpace(step.Action)
		if action == "" {
			return Payload{}, NewValidationError("each step must contain a non-blank 'action'")
		}
		step.Action = action
		out.Steps = append(out.Steps, step)
	}

	for _, link := range out.SuiteLinks {
		if err := link.validate(); err != nil {
			return Payload{}, err
		}
	}

	return out, nil
}

// assignStepPositions turns step inputs into step rows, taking explicit
// positions as given and filling the rest sequentially from 1. Duplicate
// positions within one payload are rejected.
func assignStepPositions(steps []StepInput) ([]TestCaseStep, error) {
	out := make([]TestCaseStep, 0, len(steps))
	seen := make(map[int]struct{}, len(steps))
	auto := 1

	for _, step := range steps {
		position := auto
		if step.Position != nil {
			position = *step.Position
		}
		if _, dup := seen[position]; dup {
			return nil, NewValidationError("duplicate step position: %d", position)
		}
		seen[position] = struct{}{}
		if position+1 > auto {
			auto = position + 1
		}

		out = append(out, TestCaseStep{
			Position:    position,
			Action:      step.Action,
			Expected:    step.Expected,
			Attachments: step.Attachments,
		})
	}

	return out, nil
}
