package content

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ImageBuilder turns asset references of the form
// "image-<id>-<width>x<height>-<format>" into CDN URLs.
type ImageBuilder struct {
	BaseURL   string
	ProjectID string
	Dataset   string
}

// URL returns the asset URL resized to width (0 keeps the original size).
// Malformed references yield "".
func (b ImageBuilder) URL(ref string, width int) string {
	if ref == "" || b.BaseURL == "" {
		return ""
	}

	parts := strings.Split(ref, "-")
	if len(parts) != 4 || parts[0] != "image" {
		return ""
	}
	id, dims, format := parts[1], parts[2], parts[3]
	w, h, ok := strings.Cut(dims, "x")
	if !ok || id == "" || format == "" {
		return ""
	}
	if _, err := strconv.Atoi(w); err != nil {
		return ""
	}
	if _, err := strconv.Atoi(h); err != nil {
		return ""
	}

	u := fmt.Sprintf("%s/images/%s/%s/%s-%s.%s",
		strings.TrimRight(b.BaseURL, "/"), b.ProjectID, b.Dataset, id, dims, format)
	if width > 0 {
		q := url.Values{}
		q.Set("w", strconv.Itoa(width))
		q.Set("auto", "format")
		u += "?" + q.Encode()
	}
	return u
}
