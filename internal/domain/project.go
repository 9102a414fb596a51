package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ID is an opaque, server-assigned identifier. The hosted service may hand out
// numeric identity keys or UUIDs, so both JSON numbers and strings decode.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Technologies is the ordered list of tech labels on a project. On the wire it
// is normally an array, but a comma-joined string is accepted as well.
type Technologies []string

func (t *Technologies) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = Technologies{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = ParseTechnologies(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("technologies: %w", err)
	}
	*t = Technologies(list)
	return nil
}

func (t Technologies) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

type Project struct {
	ID           ID           `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Image        string       `json:"image"`
	Technologies Technologies `json:"technologies"`
	GitHub       string       `json:"github"`
	LiveDemo     string       `json:"liveDemo"`
	Category     string       `json:"category,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ProjectFields are the caller-editable attributes of a project. id and
// created_at are assigned by the data service and never written by us.
type ProjectFields struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Image        string       `json:"image"`
	Technologies Technologies `json:"technologies"`
	GitHub       string       `json:"github"`
	LiveDemo     string       `json:"liveDemo"`
	Category     string       `json:"category,omitempty"`
}

// Normalize trims the technology labels and drops empty ones.
func (f ProjectFields) Normalize() ProjectFields {
	out := f
	out.Technologies = ParseTechnologies(JoinTechnologies(f.Technologies))
	return out
}

func (p Project) Fields() ProjectFields {
	return ProjectFields{
		Title:        p.Title,
		Description:  p.Description,
		Image:        p.Image,
		Technologies: p.Technologies,
		GitHub:       p.GitHub,
		LiveDemo:     p.LiveDemo,
		Category:     p.Category,
	}
}

// ParseTechnologies splits a comma-separated list, trimming each entry and
// dropping empty ones.
func ParseTechnologies(s string) Technologies {
	parts := strings.Split(s, ",")
	out := make(Technologies, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func JoinTechnologies(t []string) string {
	return strings.Join(t, ", ")
}

// ProjectDraft is the in-memory form state for a project being created or
// edited. Technologies stay free text until submission.
type ProjectDraft struct {
	Title        string `form:"title" json:"title"`
	Description  string `form:"description" json:"description"`
	Image        string `form:"image" json:"image"`
	Technologies string `form:"technologies" json:"technologies"`
	GitHub       string `form:"github" json:"github"`
	LiveDemo     string `form:"liveDemo" json:"liveDemo"`
	Category     string `form:"category" json:"category"`
}

func DraftFromProject(p Project) ProjectDraft {
	return ProjectDraft{
		Title:        p.Title,
		Description:  p.Description,
		Image:        p.Image,
		Technologies: JoinTechnologies(p.Technologies),
		GitHub:       p.GitHub,
		LiveDemo:     p.LiveDemo,
		Category:     p.Category,
	}
}

// Validate enforces the required fields. image and category may stay blank.
func (d ProjectDraft) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"title", d.Title},
		{"description", d.Description},
		{"technologies", d.Technologies},
		{"github", d.GitHub},
		{"liveDemo", d.LiveDemo},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Message: r.field + " is required"}
		}
	}
	if len(ParseTechnologies(d.Technologies)) == 0 {
		return &ValidationError{Field: "technologies", Message: "technologies is required"}
	}
	return nil
}

func (d ProjectDraft) Fields() ProjectFields {
	return ProjectFields{
		Title:        strings.TrimSpace(d.Title),
		Description:  strings.TrimSpace(d.Description),
		Image:        strings.TrimSpace(d.Image),
		Technologies: ParseTechnologies(d.Technologies),
		GitHub:       strings.TrimSpace(d.GitHub),
		LiveDemo:     strings.TrimSpace(d.LiveDemo),
		Category:     strings.TrimSpace(d.Category),
	}
}
