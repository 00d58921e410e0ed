package classify

import "regexp"

// dataURIPattern matches an embedded data: URI carrying a screenshot.
var dataURIPattern = regexp.MustCompile(`data:image/(?:png|jpeg|jpg|webp);base64,[A-Za-z0-9+/=]+`)

// barePNGPattern matches a bare base64 PNG run with no data: URI wrapper —
// some tools emit the raw payload directly. iVBORw0 is the base64 encoding
// of a PNG file's magic bytes.
var barePNGPattern = regexp.MustCompile(`iVBORw0[A-Za-z0-9+/=]{100,}`)

const screenshotPlaceholder = "[Screenshot captured]"

var consecutivePlaceholdersPattern = regexp.MustCompile(regexp.QuoteMeta(screenshotPlaceholder) + `(\s*` + regexp.QuoteMeta(screenshotPlaceholder) + `)+`)

// ExtractScreenshots finds every embedded screenshot in text, returns the
// attachments found (in order of appearance) and the text with each blob
// replaced by a placeholder. Consecutive placeholders are collapsed into
// one, since back-to-back screenshots add nothing a host would want to
// render twice.
func ExtractScreenshots(text string) (string, []string) {
	var attachments []string

	replace := func(pattern *regexp.Regexp, s string) string {
		return pattern.ReplaceAllStringFunc(s, func(match string) string {
			attachments = append(attachments, match)
			return screenshotPlaceholder
		})
	}

	text = replace(dataURIPattern, text)
	text = replace(barePNGPattern, text)
	text = collapseConsecutivePlaceholders(text)

	return text, attachments
}

func collapseConsecutivePlaceholders(s string) string {
	return consecutivePlaceholdersPattern.ReplaceAllString(s, screenshotPlaceholder)
}
