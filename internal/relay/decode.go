package relay

import (
	"encoding/base64"
	"fmt"
	"regexp"
)

// Placeholder text substituted for multimodal content that cannot be used.
// Decode failures are non-fatal: the request continues with the placeholder
// so a mixed text+image turn still produces a reply.
const (
	PlaceholderDecodeFailed  = "[Image data failed to decode]"
	PlaceholderImageFileRef  = "[Image file reference not supported]"
	placeholderImageURLShape = "[Image URL not supported: %s]"
)

// PlaceholderImageURL names an unsupported remote image reference. Remote
// URLs are never fetched.
func PlaceholderImageURL(url string) string {
	return fmt.Sprintf(placeholderImageURLShape, url)
}

// dataURIPattern matches data:<type>/<subtype>;base64,<payload> structurally,
// not by naive splitting, so a stray "data:" prefix inside a payload cannot
// be mistaken for a URI.
var dataURIPattern = regexp.MustCompile(`^data:([a-zA-Z0-9][a-zA-Z0-9.+-]*/[a-zA-Z0-9.+-]+);base64,([A-Za-z0-9+/=]+)$`)

// DecodeImageData decodes an inline image payload into its mime type and raw
// bytes. The payload may be a bare base64 string (declaredMime applies) or a
// full data URI, in which case the mime type embedded in the URI wins.
func DecodeImageData(raw, declaredMime string) (string, []byte, error) {
	payload := raw
	mimeType := declaredMime
	if m := dataURIPattern.FindStringSubmatch(raw); m != nil {
		mimeType = m[1]
		payload = m[2]
	} else if len(raw) > 5 && raw[:5] == "data:" {
		return "", nil, fmt.Errorf("malformed data URI")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 image data: %w", err)
	}
	return mimeType, data, nil
}

// EncodeImageDataURI renders an image part back into a data URI, the inline
// form every supported protocol accepts.
func EncodeImageDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
