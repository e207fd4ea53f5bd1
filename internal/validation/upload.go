package validation

import "strings"

// UploadRejectionCode maps the uploader's human-readable rejection message
// onto a stable issue code. The uploader only hands back prose, so matching
// is by the distinctive fragment of each known message; anything
// unrecognised falls through to the generic rejection code.
func UploadRejectionCode(errorMessage string) string {
	message := strings.ToLower(errorMessage)
	switch {
	case strings.Contains(message, "virus"):
		return CodeFileVirusDetected
	case strings.Contains(message, "empty"):
		return CodeFileEmpty
	case strings.Contains(message, "smaller than"):
		return CodeFileTooLarge
	case strings.Contains(message, "must be a"):
		return CodeFileWrongType
	case strings.Contains(message, "could not be uploaded"):
		return CodeFileUploadFailed
	case strings.Contains(message, "could not be downloaded"):
		return CodeFileDownloadFailed
	default:
		return CodeFileRejected
	}
}
