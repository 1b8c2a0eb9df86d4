package utils

import "strings"

// SplitText splits text into windows of at most chunkSize runes. Consecutive
// windows share overlap runes so a sentence cut at a boundary is seen whole
// by at least one of them. A non-positive chunkSize returns the text as is.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	totalLen := len(runes)
	if chunkSize <= 0 || totalLen <= chunkSize {
		return []string{text}
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	var chunks []string
	start := 0
	for start < totalLen {
		end := start + chunkSize
		if end > totalLen {
			end = totalLen
		}

		// prefer ending on a line break in the last fifth of the window
		if end < totalLen {
			if cut := strings.LastIndexByte(string(runes[start:end]), '\n'); cut > 0 {
				cutRunes := len([]rune(string(runes[start:end])[:cut])) + 1
				if cutRunes > chunkSize*4/5 {
					end = start + cutRunes
				}
			}
		}

		chunks = append(chunks, string(runes[start:end]))
		if end == totalLen {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}
