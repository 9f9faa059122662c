package parks

import (
	"fmt"
	"strconv"
	"strings"
)

// literal is a parsed coordinate literal: a number or a sequence.
type literal struct {
	num   float64
	items []literal
	seq   bool
}

// parseLiteral reads nested lists and tuples of numbers, e.g.
// "[(32.8, 39.9), (32.81, 39.9),]". Trailing commas, "+" signs, "32." and
// digit underscores are accepted, matching Python literal syntax.
func parseLiteral(s string) (literal, error) {
	p := &literalParser{src: s}
	v, err := p.value()
	if err != nil {
		return literal{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return literal{}, fmt.Errorf("unexpected %q at offset %d", p.src[p.pos], p.pos)
	}
	return v, nil
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) && strings.ContainsRune(" \t\r\n", rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *literalParser) value() (literal, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return literal{}, fmt.Errorf("unexpected end of literal")
	}
	switch c := p.src[p.pos]; c {
	case '[':
		return p.sequence(']')
	case '(':
		return p.sequence(')')
	default:
		return p.number()
	}
}

func (p *literalParser) sequence(closing byte) (literal, error) {
	p.pos++ // opening bracket
	v := literal{seq: true}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return literal{}, fmt.Errorf("missing %q", closing)
		}
		if p.src[p.pos] == closing {
			p.pos++
			return v, nil
		}

		item, err := p.value()
		if err != nil {
			return literal{}, err
		}
		v.items = append(v.items, item)

		p.skipSpace()
		if p.pos >= len(p.src) {
			return literal{}, fmt.Errorf("missing %q", closing)
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case closing:
		default:
			return literal{}, fmt.Errorf("unexpected %q at offset %d", p.src[p.pos], p.pos)
		}
	}
}

func (p *literalParser) number() (literal, error) {
	start := p.pos
	for p.pos < len(p.src) && strings.ContainsRune("0123456789+-.eE_", rune(p.src[p.pos])) {
		p.pos++
	}
	tok := p.src[start:p.pos]
	if tok == "" {
		return literal{}, fmt.Errorf("unexpected %q at offset %d", p.src[start], start)
	}
	if strings.HasPrefix(tok, "_") || strings.HasSuffix(tok, "_") || strings.Contains(tok, "__") {
		return literal{}, fmt.Errorf("invalid number %q", tok)
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(tok, "_", ""), 64)
	if err != nil {
		return literal{}, fmt.Errorf("invalid number %q", tok)
	}
	return literal{num: f}, nil
}
