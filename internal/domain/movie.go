package domain

// ScanMode classifies how a directory was interpreted during a library scan.
type ScanMode string

const (
	// FolderBased means the directory held exactly one video: the folder
	// represents one movie and lends it its display name.
	FolderBased ScanMode = "folder"
	// FileBased means the directory held zero or two-plus videos: each
	// video is an independent entry named after its own file.
	FileBased ScanMode = "file"
)

// MovieEntry is one discovered playable video. VideoPath uniquely identifies
// an entry within a scan. GeneratedCoverPath and GeneratedPreviewPath are
// always computed from (root, videoPath, mode), whether or not the files
// exist yet; CoverPath and PreviewPath are empty unless an asset was actually
// found on disk.
type MovieEntry struct {
	DisplayName          string   `json:"name"`
	VideoPath            string   `json:"videoPath"`
	SizeBytes            int64    `json:"size"`
	ScanMode             ScanMode `json:"scanMode"`
	CoverPath            string   `json:"coverPath,omitempty"`
	GeneratedCoverPath   string   `json:"generatedCoverPath"`
	PreviewPath          string   `json:"previewPath,omitempty"`
	GeneratedPreviewPath string   `json:"generatedPreviewPath"`
}

// HasCover reports whether a cover image (user-provided or adopted generated)
// is known for the entry.
func (m *MovieEntry) HasCover() bool { return m.CoverPath != "" }

// HasPreview reports whether a preview clip (legacy or adopted generated) is
// known for the entry.
func (m *MovieEntry) HasPreview() bool { return m.PreviewPath != "" }

// NeedsGeneration groups the entries that require asset generation after a scan.
type NeedsGeneration struct {
	Covers   []MovieEntry `json:"covers"`
	Previews []MovieEntry `json:"previews"`
}

// ScanResult is the complete outcome of one library walk. Entries are sorted
// by display name (locale-aware, numeric-aware). It is rebuilt from scratch
// on every scan; only the generator and repair pipeline write back into
// individual entries afterwards.
type ScanResult struct {
	Root            string          `json:"root"`
	Entries         []MovieEntry    `json:"movies"`
	NeedsGeneration NeedsGeneration `json:"needsGeneration"`
}

// AssetKind identifies which generated asset an operation concerns.
type AssetKind string

const (
	AssetCover   AssetKind = "cover"
	AssetPreview AssetKind = "preview"
)

// GenerationProgress is an ephemeral per-unit progress event emitted by the
// asset generator. Current counts completed units (success or failure)
// against a Total fixed when the batch was queued.
type GenerationProgress struct {
	Current int        `json:"current"`
	Total   int        `json:"total"`
	Kind    AssetKind  `json:"kind"`
	Entry   MovieEntry `json:"movie"`
	Failed  bool       `json:"failed,omitempty"`
}
