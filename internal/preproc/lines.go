package preproc

import "strings"

// logicalLine is one line after line splicing and comment removal, with
// the physical line it starts on.
type logicalLine struct {
	text string
	line int
}

// splitLines performs the early translation phases on a template file:
// CRLF normalisation, backslash-newline splicing and replacement of each
// comment by a single space. A block comment spanning lines joins them into
// one logical line. Comment markers inside string literals are left alone.
func splitLines(file, src string) ([]logicalLine, error) {
	src = strings.ReplaceAll(src, "\r\n", "\n")

	var (
		lines     []logicalLine
		cur       strings.Builder
		phys      = 1
		start     = 1
		inString  bool
		inBlock   bool
		blockLine int
	)

	for i := 0; i < len(src); i++ {
		ch := src[i]

		if ch == '\\' && i+1 < len(src) && src[i+1] == '\n' {
			i++
			phys++
			continue
		}

		if inBlock {
			switch {
			case ch == '*' && i+1 < len(src) && src[i+1] == '/':
				inBlock = false
				cur.WriteByte(' ')
				i++
			case ch == '\n':
				phys++
			}
			continue
		}

		if inString {
			switch ch {
			case '\n':
				// Unterminated literal; the newline ends it like it ends the line.
				inString = false
			case '\\':
				cur.WriteByte(ch)
				if i+1 < len(src) && src[i+1] != '\n' {
					i++
					cur.WriteByte(src[i])
				}
				continue
			case '"':
				inString = false
				cur.WriteByte(ch)
				continue
			default:
				cur.WriteByte(ch)
				continue
			}
		}

		switch {
		case ch == '"':
			inString = true
			cur.WriteByte(ch)
		case ch == '/' && i+1 < len(src) && src[i+1] == '/':
			// Splicing comes first, so a trailing backslash extends the comment.
			for i+1 < len(src) && src[i+1] != '\n' {
				i++
				if src[i] == '\\' && i+1 < len(src) && src[i+1] == '\n' {
					i++
					phys++
				}
			}
			cur.WriteByte(' ')
		case ch == '/' && i+1 < len(src) && src[i+1] == '*':
			inBlock = true
			blockLine = phys
			i++
		case ch == '\n':
			lines = append(lines, logicalLine{text: cur.String(), line: start})
			cur.Reset()
			phys++
			start = phys
		default:
			cur.WriteByte(ch)
		}
	}

	if inBlock {
		return nil, errorf(Origin{File: file, Line: blockLine}, "unterminated comment")
	}
	if cur.Len() > 0 {
		lines = append(lines, logicalLine{text: cur.String(), line: start})
	}
	return lines, nil
}
