package classify

import (
	"strings"
	"testing"
)

func TestExtractScreenshots_DataURI(t *testing.T) {
	img := "data:image/png;base64," + strings.Repeat("A", 200)
	text := "Here is the result: " + img + " done."

	got, attachments := ExtractScreenshots(text)

	if len(attachments) != 1 || attachments[0] != img {
		t.Fatalf("attachments = %v, want [%q]", attachments, img)
	}
	want := "Here is the result: " + screenshotPlaceholder + " done."
	if got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
}

func TestExtractScreenshots_BarePNG(t *testing.T) {
	blob := "iVBORw0" + strings.Repeat("B", 150)
	text := "screenshot: " + blob

	got, attachments := ExtractScreenshots(text)

	if len(attachments) != 1 || attachments[0] != blob {
		t.Fatalf("attachments = %v, want [%q]", attachments, blob)
	}
	if got != "screenshot: "+screenshotPlaceholder {
		t.Errorf("text = %q", got)
	}
}

func TestExtractScreenshots_BarePNGBelowLengthThresholdIsIgnored(t *testing.T) {
	blob := "iVBORw0" + strings.Repeat("B", 50) // fewer than 100 base64 chars
	text := "screenshot: " + blob

	got, attachments := ExtractScreenshots(text)

	if len(attachments) != 0 {
		t.Fatalf("attachments = %v, want none", attachments)
	}
	if got != text {
		t.Errorf("text should be unchanged, got %q", got)
	}
}

func TestExtractScreenshots_CollapsesConsecutivePlaceholders(t *testing.T) {
	img1 := "data:image/png;base64," + strings.Repeat("A", 120)
	img2 := "data:image/jpeg;base64," + strings.Repeat("B", 120)
	text := img1 + "\n" + img2

	got, attachments := ExtractScreenshots(text)

	if len(attachments) != 2 {
		t.Fatalf("attachments = %d, want 2", len(attachments))
	}
	if strings.Count(got, screenshotPlaceholder) != 1 {
		t.Errorf("text = %q, want exactly one placeholder", got)
	}
}

func TestExtractScreenshots_NoImages(t *testing.T) {
	text := "nothing to see here"
	got, attachments := ExtractScreenshots(text)
	if got != text || attachments != nil {
		t.Errorf("got %q, %v; want input unchanged and no attachments", got, attachments)
	}
}
