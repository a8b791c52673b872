package entity

// Visibility controls who can see a LinkedIn post
type Visibility string

const (
	VisibilityPublic      Visibility = "public"
	VisibilityConnections Visibility = "connections"
	VisibilityLoggedIn    Visibility = "loggedin"
)

// Targeting narrows the audience of a company page post
type Targeting struct {
	Countries        []string `json:"countries,omitempty"`
	Seniorities      []string `json:"seniorities,omitempty"`
	Industries       []string `json:"industries,omitempty"`
	Degrees          []string `json:"degrees,omitempty"`
	FieldsOfStudy    []string `json:"fieldsOfStudy,omitempty"`
	JobFunctions     []string `json:"jobFunctions,omitempty"`
	StaffCountRanges []string `json:"staffCountRanges,omitempty"`
}

// IsEmpty reports whether no facet is set
func (t *Targeting) IsEmpty() bool {
	return t == nil || len(t.Countries)+len(t.Seniorities)+len(t.Industries)+len(t.Degrees)+
		len(t.FieldsOfStudy)+len(t.JobFunctions)+len(t.StaffCountRanges) == 0
}

// LinkedInOptions is the network-specific option bag sent to the aggregator
type LinkedInOptions struct {
	Visibility   Visibility `json:"visibility,omitempty"`
	DisableShare bool       `json:"disableShare,omitempty"`
	Title        string     `json:"title,omitempty"`
	AltText      []string   `json:"altText,omitempty"`
	ThumbNail    string     `json:"thumbNail,omitempty"`
	Targeting    *Targeting `json:"targeting,omitempty"`
}

// Validate checks the option bag
func (o LinkedInOptions) Validate() error {
	switch o.Visibility {
	case "", VisibilityPublic, VisibilityConnections, VisibilityLoggedIn:
		return nil
	default:
		return ErrInvalidVisibility
	}
}

// WithDefaults returns a copy with visibility defaulted to public
func (o LinkedInOptions) WithDefaults() LinkedInOptions {
	if o.Visibility == "" {
		o.Visibility = VisibilityPublic
	}
	if o.Targeting.IsEmpty() {
		o.Targeting = nil
	}
	return o
}
