// Package prompts builds the text sent to the model for each engine
// operation: the full and minimal rename prompts, the sort and keep prompts,
// and the format-fix reprompt.
package prompts

// FileMetadata describes the file a rename prompt is about.
type FileMetadata struct {
	Title       string
	Summary     string
	Description string
	Keywords    []string
	Extension   string
	MIMEType    string
	SizeBytes   int64
	// Extra holds collector-specific fields such as EXIF camera model.
	Extra map[string]string
}

type RenameRequest struct {
	CurrentName string
	Metadata    FileMetadata
	Context     string
}

type SortItem struct {
	Path        string
	Name        string
	Ext         string
	Description string
}

type SortRequest struct {
	Files   []SortItem
	Context string
}

type KeepRequest struct {
	OriginalStem  string
	SuggestedName string
	Extension     string
	Features      map[string]any
	Context       string
}

// Paths returns the item paths in request order.
func (request SortRequest) Paths() []string {
	paths := make([]string, 0, len(request.Files))
	for _, item := range request.Files {
		paths = append(paths, item.Path)
	}
	return paths
}
