package selectors

// Profile holds the CSS locators for every product attribute on one source
// site, plus the marker text that flags an option as sold out.
type Profile struct {
	Title         string
	Price         string
	Description   string
	Images        string
	Options       string
	Origin        string
	SoldOutMarker string
}

// Empty reports whether the profile carries no locators at all. The pipeline
// treats an empty profile as a configuration failure rather than extracting
// nothing silently.
func (p Profile) Empty() bool {
	return p.Title == "" && p.Price == "" && p.Description == "" &&
		p.Images == "" && p.Options == "" && p.Origin == ""
}

// Registry maps site identifiers to selector profiles. It is populated once
// at startup and read-only afterwards; new sites are added by inserting
// entries, never by branching logic.
type Registry struct {
	profiles map[string]Profile
}

func NewRegistry() *Registry {
	return &Registry{profiles: make(map[string]Profile)}
}

// Register adds or replaces the profile for a site identifier.
func (r *Registry) Register(site string, profile Profile) {
	r.profiles[site] = profile
}

// Lookup returns the profile for a site identifier. Unknown identifiers yield
// a zero profile and false; no error.
func (r *Registry) Lookup(site string) (Profile, bool) {
	p, ok := r.profiles[site]
	return p, ok
}

// Sites lists the registered site identifiers.
func (r *Registry) Sites() []string {
	sites := make([]string, 0, len(r.profiles))
	for site := range r.profiles {
		sites = append(sites, site)
	}
	return sites
}

// DefaultRegistry ships the selector tables for the supported source sites.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("domeggook", Profile{
		Title:         "h1#lInfoItemTitle",
		Price:         "div.lItemPrice",
		Description:   "div#lInfoViewItemContents",
		Images:        "img.mainThumb",
		Options:       "ul.pSelectUIMenu li:not(.pDisabled) button.pSelectUIBtn",
		Origin:        "td.lInfoItemCountryContent",
		SoldOutMarker: "판매종료",
	})
	r.Register("consignment1", Profile{
		Title:         "h1.product-name",
		Price:         "span.price",
		Description:   "div.description",
		Images:        "div.product-gallery img",
		SoldOutMarker: "판매종료",
	})
	return r
}
