package assistant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseUpdateInfo decodes an update record. version_code must be positive and
// version_name and apk_url non-blank; the remaining fields are optional.
func ParseUpdateInfo(body []byte) (*UpdateInfo, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty update response body", ErrInvalidPayload)
	}
	var info UpdateInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: decode update info: %w", ErrInvalidPayload, err)
	}
	info.VersionName = strings.TrimSpace(info.VersionName)
	info.APKURL = strings.TrimSpace(info.APKURL)
	if info.VersionCode <= 0 || info.VersionName == "" || info.APKURL == "" {
		return nil, fmt.Errorf("%w: update info missing required fields", ErrInvalidPayload)
	}
	return &info, nil
}

// DecideUpdateAction reports ActionDownload only when latest is strictly
// newer than current.
func DecideUpdateAction(current int, latest *UpdateInfo) UpdateAction {
	if latest == nil || latest.VersionCode <= current {
		return ActionNone
	}
	return ActionDownload
}
