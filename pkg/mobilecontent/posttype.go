package mobilecontent

// PostTypeFeature names a capability a post type supports.
type PostTypeFeature string

// Post type feature constants (typed).
const (
	FeatureTitle        PostTypeFeature = "title"
	FeatureEditor       PostTypeFeature = "editor"
	FeatureAuthor       PostTypeFeature = "author"
	FeatureThumbnail    PostTypeFeature = "thumbnail"
	FeatureCustomFields PostTypeFeature = "custom-fields"
)

// PostType is a declarative definition of a content kind. Definitions are
// registered on the service at construction time; submissions naming an
// unregistered kind are rejected.
type PostType struct {
	Name         string
	SingularName string
	Supports     []PostTypeFeature
	Taxonomies   []string
}

// MobilesPostType returns the definition of the "mobiles" content kind.
func MobilesPostType() PostType {
	return PostType{
		Name:         PostTypeMobiles,
		SingularName: "Mobile",
		Supports: []PostTypeFeature{
			FeatureTitle,
			FeatureEditor,
			FeatureAuthor,
			FeatureThumbnail,
			FeatureCustomFields,
		},
		Taxonomies: []string{TaxonomyCategory, TaxonomyTag},
	}
}

// SupportsFeature reports whether the post type declares the given feature.
func (pt PostType) SupportsFeature(f PostTypeFeature) bool {
	for _, s := range pt.Supports {
		if s == f {
			return true
		}
	}
	return false
}

// HasTaxonomy reports whether the post type is associated with the taxonomy.
func (pt PostType) HasTaxonomy(taxonomy string) bool {
	for _, t := range pt.Taxonomies {
		if t == taxonomy {
			return true
		}
	}
	return false
}
