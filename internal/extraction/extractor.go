package extraction

import "strings"

// Extractor defines the interface for pulling raw text out of an uploaded
// revenue log document (PDF or image)
type Extractor interface {
	// ExtractText reads a document and returns its text content, best effort.
	// The text may contain OCR noise; cleaning it up is the parser's job.
	ExtractText(data []byte, contentType string) (string, error)
	// Close closes the extractor and releases resources
	Close() error
}

// transcribePrompt is the shared prompt used by all vision-model providers.
// The model is asked to transcribe, not interpret: hour/amount parsing stays
// in one place downstream regardless of which extractor produced the text.
const transcribePrompt = `You are transcribing a scanned business revenue log. Read every line of text visible in the image(s) and write it out verbatim, one line of output per line in the image, top to bottom.

The document contains hourly revenue entries, typically formatted like:
  11 HRS 36 $195.88
  07 HRS 5 32.15
or with clock times such as "3:00 PM $120.00".

Important:
- Transcribe exactly what you see, including hour numbers, quantities, and dollar amounts. Do not correct, summarize, reorder, or omit lines.
- Pay close attention to hour numbers around 14 and 15; OCR-damaged prints can render "14" as "l4" - still transcribe what is visibly printed.
- Do not invent entries that are not present.
- Output plain text only. No commentary, no markdown code blocks.`

// Lines splits extracted text into individual lines for the parser,
// normalizing Windows line endings
func Lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// cleanTranscript strips markdown code fences that vision models sometimes
// wrap their output in
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
