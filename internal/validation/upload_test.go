package validation

import "testing"

func TestUploadRejectionCode(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"The selected file contains a virus", CodeFileVirusDetected},
		{"The selected file is empty", CodeFileEmpty},
		{"The selected file must be smaller than 100MB", CodeFileTooLarge},
		{"The selected file must be a XLSX", CodeFileWrongType},
		{"The selected file could not be uploaded – try again", CodeFileUploadFailed},
		{"The selected file could not be downloaded", CodeFileDownloadFailed},
		{"something unexpected happened", CodeFileRejected},
		{"", CodeFileRejected},
	}
	for _, tt := range tests {
		if got := UploadRejectionCode(tt.message); got != tt.want {
			t.Errorf("UploadRejectionCode(%q) = %s, want %s", tt.message, got, tt.want)
		}
	}
}
