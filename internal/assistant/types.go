package assistant

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// UpdateInfo mirrors /mobile/update/latest.
type UpdateInfo struct {
	VersionCode  int    `json:"version_code"`
	VersionName  string `json:"version_name"`
	APKURL       string `json:"apk_url"`
	ReleaseNotes string `json:"release_notes"`
	PublishedAt  string `json:"published_at"`
	SHA256       string `json:"sha256"`
}

// UpdateAction is the outcome of comparing the running build to the latest.
type UpdateAction int

const (
	ActionNone UpdateAction = iota
	ActionDownload
)

func (a UpdateAction) String() string {
	switch a {
	case ActionDownload:
		return "download"
	default:
		return "none"
	}
}
