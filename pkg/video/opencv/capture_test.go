package opencv

import "testing"

func TestOpenMissingFile(t *testing.T) {
	_, err := Open("/nonexistent/walk.mp4")
	if err == nil {
		t.Error("expected error for missing video file")
	}
}
