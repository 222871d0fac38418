package verification

import (
	"fmt"
	"net/http"
	"strings"
)

const pingPrompt = "Reply with the single word: ready"

// Prompt builds the instruction sent alongside the photo.
func Prompt(claim Claim) string {
	return fmt.Sprintf(`You are an expert in waste management. Analyze this image and answer:
1. Does the waste type match: %s?
2. Is the quantity approximately: %s?
3. Confidence level (0-1).

Respond in JSON only:
{
  "wasteTypeMatch": true/false,
  "quantityMatch": true/false,
  "confidence": 0.0 - 1.0
}`, claim.WasteType, claim.Amount)
}

// MIMEType sniffs the image type, defaulting to JPEG for anything that is
// not recognised as an image.
func MIMEType(image []byte) string {
	mime := http.DetectContentType(image)
	if !strings.HasPrefix(mime, "image/") {
		return "image/jpeg"
	}
	return mime
}
