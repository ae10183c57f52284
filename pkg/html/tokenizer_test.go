package html

import "testing"

func TestTokenizer_SimpleStartTag(t *testing.T) {
	tok := NewTokenizer("<div>").NextToken()
	if tok.Type != TokenStartTag {
		t.Errorf("expected TokenStartTag, got %v", tok.Type)
	}
	if tok.TagName != "div" {
		t.Errorf("expected tag name 'div', got '%s'", tok.TagName)
	}
}

func TestTokenizer_TagWithAttributes(t *testing.T) {
	tok := NewTokenizer(`<DIV Style="color: red" id=main hidden>`).NextToken()
	if tok.Attributes["style"] != "color: red" {
		t.Errorf("expected style='color: red', got '%s'", tok.Attributes["style"])
	}
	if tok.Attributes["id"] != "main" {
		t.Errorf("expected id='main', got '%s'", tok.Attributes["id"])
	}
	if _, ok := tok.Attributes["hidden"]; !ok {
		t.Error("expected bare attribute 'hidden'")
	}
}

func TestTokenizer_AttributeEntities(t *testing.T) {
	tok := NewTokenizer(`<a title="Fish &amp; Chips">`).NextToken()
	if tok.Attributes["title"] != "Fish & Chips" {
		t.Errorf("got %q", tok.Attributes["title"])
	}
}

func TestTokenizer_SkipsCommentsAndDoctype(t *testing.T) {
	tz := NewTokenizer("<!DOCTYPE html><!-- note --><?xml x?><b>")
	tok := tz.NextToken()
	if tok.Type != TokenStartTag || tok.TagName != "b" {
		t.Fatalf("expected <b>, got %+v", tok)
	}
	if tz.NextToken().Type != TokenEOF {
		t.Error("expected EOF")
	}
}

func TestTokenizer_Tolerant(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"eof in tag", "<div class="},
		{"unterminated attribute", `<div class="open>text`},
		{"unterminated comment", "<!-- never closed"},
		{"bare less-than", "a < b"},
		{"empty end tag", "</>"},
		{"junk in tag", `<p "=x <>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tz := NewTokenizer(tt.input)
			for i := 0; i < 100; i++ {
				if tz.NextToken().Type == TokenEOF {
					return
				}
			}
			t.Fatal("tokenizer did not reach EOF")
		})
	}
}

func TestTokenizer_BareLessThanIsText(t *testing.T) {
	tz := NewTokenizer("a < b")
	var text string
	for tok := tz.NextToken(); tok.Type != TokenEOF; tok = tz.NextToken() {
		text += tok.Text
	}
	if text != "a < b" {
		t.Errorf("expected literal text, got %q", text)
	}
}

func TestTokenizer_SelfClosing(t *testing.T) {
	tok := NewTokenizer("<br/>").NextToken()
	if !tok.SelfClosing {
		t.Error("expected self-closing flag")
	}
}

func TestTokenizer_ReadRawUntil(t *testing.T) {
	tz := NewTokenizer("<style>p > a { color: red }</STYLE><b>")
	tz.NextToken()
	raw := tz.ReadRawUntil("style")
	if raw != "p > a { color: red }" {
		t.Errorf("got %q", raw)
	}
	if tok := tz.NextToken(); tok.TagName != "b" {
		t.Errorf("expected <b> after raw text, got %+v", tok)
	}
}
