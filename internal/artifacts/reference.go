package artifacts

import "fmt"

// Reference identifies a remote artifact. It is created by the caller and
// never mutated.
type Reference struct {
	// Type is a tag identifying the kind of source, e.g. "helm/chart".
	Type string `json:"type"`
	// Account is the name of the credential that should be used to fetch the
	// artifact. When empty, the first credential handling Type is used.
	Account string `json:"artifactAccount,omitempty"`
	// Name is the artifact's name, e.g. the name of a chart.
	Name string `json:"name,omitempty"`
	// Reference is a type-specific locator, e.g. a URL, an s3:// URI or an
	// inline base64 payload.
	Reference string `json:"reference,omitempty"`
	// Version is optional. Its meaning depends on Type.
	Version string `json:"version,omitempty"`
	// Location is optional and type-specific, e.g. a region.
	Location string `json:"location,omitempty"`
}

func (r Reference) String() string {
	switch {
	case r.Name != "" && r.Version != "":
		return fmt.Sprintf("%s %s@%s", r.Type, r.Name, r.Version)
	case r.Name != "":
		return fmt.Sprintf("%s %s", r.Type, r.Name)
	default:
		return fmt.Sprintf("%s %s", r.Type, r.Reference)
	}
}
