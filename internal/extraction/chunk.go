package extraction

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ChunkText splits text into windows of size runes where consecutive windows
// share overlap runes. Windows prefer to end on whitespace and are trimmed;
// empty windows are dropped.
func ChunkText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" || size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else if cut := lastSpace(runes[start:end]); cut > size/2 {
			end = start + cut
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
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

// JoinChunks reverses ChunkText: the shared prefix of each chunk, at most
// overlap runes long, is dropped when it ends the previous chunk. Chunks with
// no detectable overlap are joined with a newline.
func JoinChunks(chunks []string, overlap int) string {
	if len(chunks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(chunks[0])
	for i := 1; i < len(chunks); i++ {
		prev, next := chunks[i-1], chunks[i]
		if n := sharedPrefix(prev, next, overlap); n > 0 {
			b.WriteString(next[n:])
			continue
		}
		b.WriteString("\n")
		b.WriteString(next)
	}
	return b.String()
}

// sharedPrefix returns the byte length of the longest prefix of next, up to
// overlap runes and ignoring trailing whitespace, that prev ends with.
func sharedPrefix(prev, next string, overlap int) int {
	if overlap <= 0 {
		return 0
	}
	rs := []rune(next)
	floor := max(overlap/2, 1)
	for k := min(overlap, len(rs)); k >= floor; k-- {
		cand := strings.TrimRightFunc(string(rs[:k]), unicode.IsSpace)
		if cand != "" && strings.HasSuffix(prev, cand) {
			return len(cand)
		}
	}
	return 0
}

func lastSpace(rs []rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == ' ' || rs[i] == '\n' || rs[i] == '\t' {
			return i
		}
	}
	return -1
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
