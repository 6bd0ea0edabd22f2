package domain

// ResourceDescriptor describes a registered, readable data resource.
type ResourceDescriptor struct {
	Name        string `json:"name"`
	URI         string `json:"uri"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mime_type"`
}
