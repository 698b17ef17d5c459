package notify

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testSummary(success bool) Summary {
	s := Summary{
		RunID:    "3f1c9a8e",
		Started:  time.Date(2024, time.March, 1, 6, 0, 0, 0, time.UTC),
		Finished: time.Date(2024, time.March, 1, 6, 4, 12, 0, time.UTC),
		Success:  success,
		Steps: []string{
			"spreadsheet feed: 120 rows read, 3 appended",
			"completion feed: 45 rows read, 7 appended",
		},
	}
	if !success {
		s.Err = errors.New("roster unreachable")
	}
	return s
}

func TestSubject(t *testing.T) {
	got := subject(testSummary(true))
	want := "Training completions 2024-03-01: success"
	if got != want {
		t.Fatalf("subject = %q, want %q", got, want)
	}

	got = subject(testSummary(false))
	if !strings.HasSuffix(got, "FAILED") {
		t.Fatalf("failure subject = %q", got)
	}
}

func TestBuildBody(t *testing.T) {
	body := buildBody(testSummary(true), nil)

	for _, want := range []string{
		"Run 3f1c9a8e finished with success.",
		"spreadsheet feed: 120 rows read, 3 appended",
		"completion feed: 45 rows read, 7 appended",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "Error:") {
		t.Errorf("success body carries an error section:\n%s", body)
	}
}

func TestBuildBody_FailureAndMissingAttachments(t *testing.T) {
	body := buildBody(testSummary(false), []string{"/tmp/run/out.txt"})

	if !strings.Contains(body, "Error: roster unreachable") {
		t.Errorf("body missing error section:\n%s", body)
	}
	if !strings.Contains(body, "Missing attachments:") ||
		!strings.Contains(body, "/tmp/run/out.txt") {
		t.Errorf("body missing attachment note:\n%s", body)
	}
}
