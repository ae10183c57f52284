package html

import (
	gohtml "html"
	"strings"
	"unicode"
)

type TokenType int

const (
	TokenStartTag TokenType = iota
	TokenEndTag
	TokenText
	TokenEOF
)

type Token struct {
	Type        TokenType
	TagName     string
	Attributes  map[string]string
	Text        string
	SelfClosing bool // tag ended with />
}

// Tokenizer splits markup into tags and text. It never fails: anything it
// cannot read as markup is returned as text or dropped.
type Tokenizer struct {
	input string
	pos   int
}

func NewTokenizer(html string) *Tokenizer {
	return &Tokenizer{input: html}
}

func (t *Tokenizer) NextToken() Token {
	for t.pos < len(t.input) {
		if t.input[t.pos] != '<' {
			return t.readText()
		}
		if tok, ok := t.readTag(); ok {
			return tok
		}
	}
	return Token{Type: TokenEOF}
}

// readTag reads the construct starting at '<'. ok is false when the
// construct was skipped (comment, doctype, processing instruction).
func (t *Tokenizer) readTag() (Token, bool) {
	rest := t.input[t.pos+1:]
	switch {
	case strings.HasPrefix(rest, "!--"):
		t.skipPast("-->", t.pos+4)
		return Token{}, false
	case strings.HasPrefix(rest, "?"), strings.HasPrefix(rest, "!"):
		t.skipPast(">", t.pos+1)
		return Token{}, false
	case strings.HasPrefix(rest, "/"):
		if len(rest) > 1 && isTagStart(rest[1]) {
			t.pos += 2
			name := t.readTagName()
			t.skipPast(">", t.pos)
			return Token{Type: TokenEndTag, TagName: name}, true
		}
		// "</>" or "</ " is dropped
		t.skipPast(">", t.pos+2)
		return Token{}, false
	case len(rest) > 0 && isTagStart(rest[0]):
		t.pos++
		return t.readStartTag(), true
	}
	// A bare '<' is literal text.
	t.pos++
	return Token{Type: TokenText, Text: gohtml.UnescapeString("<" + t.readRawText())}, true
}

func (t *Tokenizer) readStartTag() Token {
	tok := Token{Type: TokenStartTag, TagName: t.readTagName(), Attributes: map[string]string{}}
	for {
		t.skipWhitespace()
		if t.pos >= len(t.input) {
			return tok
		}
		switch c := t.input[t.pos]; c {
		case '>':
			t.pos++
			return tok
		case '/':
			t.pos++
			t.skipWhitespace()
			if t.pos < len(t.input) && t.input[t.pos] == '>' {
				t.pos++
				tok.SelfClosing = true
				return tok
			}
			continue
		}
		name, value, ok := t.readAttribute()
		if !ok {
			// skip a character the attribute grammar cannot use
			t.pos++
			continue
		}
		if _, dup := tok.Attributes[name]; !dup {
			tok.Attributes[name] = value
		}
	}
}

func (t *Tokenizer) readTagName() string {
	start := t.pos
	for t.pos < len(t.input) && isTagNameChar(t.input[t.pos]) {
		t.pos++
	}
	return strings.ToLower(t.input[start:t.pos])
}

func (t *Tokenizer) readAttribute() (string, string, bool) {
	start := t.pos
	for t.pos < len(t.input) && isAttributeNameChar(t.input[t.pos]) {
		t.pos++
	}
	name := strings.ToLower(t.input[start:t.pos])
	if name == "" {
		return "", "", false
	}
	t.skipWhitespace()
	if t.pos >= len(t.input) || t.input[t.pos] != '=' {
		return name, "", true
	}
	t.pos++
	t.skipWhitespace()
	return name, gohtml.UnescapeString(t.readAttributeValue()), true
}

func (t *Tokenizer) readAttributeValue() string {
	if t.pos >= len(t.input) {
		return ""
	}
	quote := t.input[t.pos]
	if quote == '"' || quote == '\'' {
		t.pos++
		start := t.pos
		end := strings.IndexByte(t.input[start:], quote)
		if end < 0 {
			// unterminated: the value runs to the end of the tag
			end = strings.IndexByte(t.input[start:], '>')
			if end < 0 {
				end = len(t.input) - start
			}
			t.pos = start + end
			return t.input[start:t.pos]
		}
		t.pos = start + end + 1
		return t.input[start : start+end]
	}
	start := t.pos
	for t.pos < len(t.input) && !unicode.IsSpace(rune(t.input[t.pos])) && t.input[t.pos] != '>' {
		t.pos++
	}
	return t.input[start:t.pos]
}

func (t *Tokenizer) readText() Token {
	return Token{Type: TokenText, Text: gohtml.UnescapeString(t.readRawText())}
}

func (t *Tokenizer) readRawText() string {
	start := t.pos
	for t.pos < len(t.input) && t.input[t.pos] != '<' {
		t.pos++
	}
	return t.input[start:t.pos]
}

func (t *Tokenizer) skipWhitespace() {
	for t.pos < len(t.input) && unicode.IsSpace(rune(t.input[t.pos])) {
		t.pos++
	}
}

// skipPast moves to just after the next occurrence of needle at or after
// from, or to the end of input.
func (t *Tokenizer) skipPast(needle string, from int) {
	if from > len(t.input) {
		from = len(t.input)
	}
	i := strings.Index(t.input[from:], needle)
	if i < 0 {
		t.pos = len(t.input)
		return
	}
	t.pos = from + i + len(needle)
}

// ReadRawUntil reads raw content up to the closing tag (e.g. </style>),
// where '<' does not start a new tag. A missing end tag consumes the rest.
func (t *Tokenizer) ReadRawUntil(endTag string) string {
	needle := "</" + endTag
	lower := strings.ToLower(t.input[t.pos:])
	i := strings.Index(lower, needle)
	if i < 0 {
		content := t.input[t.pos:]
		t.pos = len(t.input)
		return content
	}
	content := t.input[t.pos : t.pos+i]
	t.skipPast(">", t.pos+i+len(needle))
	return content
}

func isTagStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isTagNameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' || c == ':'
}

func isAttributeNameChar(c byte) bool {
	return c > ' ' && c != '/' && c != '>' && c != '=' && c != '"' && c != '\'' && c != '<'
}
