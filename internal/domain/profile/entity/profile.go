package entity

import (
	"strings"
	"time"
)

// Plan is the subscription tier of a user
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// IsValid reports whether the plan is a known tier
func (p Plan) IsValid() bool {
	switch p {
	case PlanFree, PlanPro, PlanEnterprise:
		return true
	default:
		return false
	}
}

const (
	DefaultCredits = 50
	DefaultAvatar  = "https://picsum.photos/100/100"
)

// ProfileData is the display data shown next to a user's posts
type ProfileData struct {
	Name           string `json:"name"`
	Headline       string `json:"headline,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	Connections    int    `json:"connections,omitempty"`
}

// Profile is the operator's account and its integration credentials.
// API keys are opaque secrets and never serialized.
type Profile struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Plan        Plan        `json:"plan"`
	Credits     int         `json:"credits"`
	ProfileData ProfileData `json:"profile_data"`
	AyrshareKey string      `json:"-"`
	DeepSeekKey string      `json:"-"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewDefault builds the profile of a first-time user
func NewDefault(id, email string) *Profile {
	name, _, _ := strings.Cut(email, "@")
	return &Profile{
		ID:      id,
		Email:   email,
		Plan:    PlanFree,
		Credits: DefaultCredits,
		ProfileData: ProfileData{
			Name:           name,
			ProfilePicture: DefaultAvatar,
		},
	}
}

// HasAyrshareKey reports whether publishing and analytics are available
func (p *Profile) HasAyrshareKey() bool {
	return strings.TrimSpace(p.AyrshareKey) != ""
}

// HasDeepSeekKey reports whether the alternate generation backend is available
func (p *Profile) HasDeepSeekKey() bool {
	return strings.TrimSpace(p.DeepSeekKey) != ""
}

// View is the JSON shape of a profile returned to clients
type View struct {
	*Profile
	HasAyrshareKey bool `json:"has_ayrshare_key"`
	HasDeepSeekKey bool `json:"has_deepseek_key"`
}

// ToView hides the keys behind presence flags
func (p *Profile) ToView() View {
	return View{
		Profile:        p,
		HasAyrshareKey: p.HasAyrshareKey(),
		HasDeepSeekKey: p.HasDeepSeekKey(),
	}
}
