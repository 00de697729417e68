package index

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// CleanTitle turns a catalog title into the stable key used for file names
// and the covers table: letters, digits, spaces, '-' and '_' are kept, the
// result is trimmed, lowercased and spaces become underscores.
func CleanTitle(title string) string {
	var sb strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
	}
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(sb.String())), " ", "_")
}

var (
	widthRe  = regexp.MustCompile(`w_\d+`)
	cScaleRe = regexp.MustCompile(`c_scale`)
)

// HiResURL asks an image CDN for a wider rendition: an existing w_NNN
// parameter is replaced, c_scale without a width gains one, anything else is
// returned unchanged.
func HiResURL(imageURL string, width int) string {
	w := "w_" + strconv.Itoa(width)
	if widthRe.MatchString(imageURL) {
		return widthRe.ReplaceAllString(imageURL, w)
	}
	if cScaleRe.MatchString(imageURL) {
		return cScaleRe.ReplaceAllString(imageURL, "c_scale,"+w)
	}
	return imageURL
}
