package agent

import (
	"fmt"
	"strconv"
	"strings"
)

// Calculator evaluates basic arithmetic expressions with a dedicated parser.
// Input is screened against a character whitelist and a keyword blacklist
// before parsing; nothing is handed to an interpreter.
type Calculator struct{}

const calculatorAllowedChars = "0123456789+-*/(). "

var calculatorBlockedKeywords = []string{
	"import", "os", "sys", "eval", "exec", "lambda", "def", "__",
}

// Evaluate computes an arithmetic expression and returns a human-readable
// result or error message. The message is what the model sees, so failures
// are reported as text rather than errors.
func (c *Calculator) Evaluate(expression string) string {
	for _, r := range expression {
		if !strings.ContainsRune(calculatorAllowedChars, r) {
			return "Error: Expression contains invalid characters for the calculator."
		}
	}
	lowered := strings.ToLower(expression)
	for _, keyword := range calculatorBlockedKeywords {
		if strings.Contains(lowered, keyword) {
			return "Error: Expression contains disallowed keywords for safety."
		}
	}

	value, err := evalExpression(expression)
	if err != nil {
		if strings.Contains(err.Error(), "division by zero") {
			return fmt.Sprintf("Error: Division by zero in expression '%s'.", expression)
		}
		return fmt.Sprintf("Error: Could not evaluate the expression '%s'. Ensure it's a valid simple arithmetic expression.", expression)
	}

	return fmt.Sprintf("The result of '%s' is %s.", expression, strconv.FormatFloat(value, 'f', -1, 64))
}

// evalExpression parses and evaluates the grammar
//
//	expr   = term { ("+" | "-") term }
//	term   = factor { ("*" | "/") factor }
//	factor = number | "(" expr ")" | ("+" | "-") factor
func evalExpression(input string) (float64, error) {
	p := &exprParser{input: []rune(input)}
	value, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return 0, fmt.Errorf("unexpected character %q at position %d", p.input[p.pos], p.pos)
	}
	return value, nil
}

type exprParser struct {
	input []rune
	pos   int
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() (rune, bool) {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *exprParser) parseExpr() (float64, error) {
	value, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.peek()
		if !ok || (op != '+' && op != '-') {
			return value, nil
		}
		p.pos++
		rhs, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			value += rhs
		} else {
			value -= rhs
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	value, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.peek()
		if !ok || (op != '*' && op != '/') {
			return value, nil
		}
		p.pos++
		rhs, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			value *= rhs
		} else {
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			value /= rhs
		}
	}
}

func (p *exprParser) parseFactor() (float64, error) {
	r, ok := p.peek()
	if !ok {
		return 0, fmt.Errorf("unexpected end of expression")
	}

	switch r {
	case '+':
		p.pos++
		return p.parseFactor()
	case '-':
		p.pos++
		value, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		return -value, nil
	case '(':
		p.pos++
		value, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		r, ok := p.peek()
		if !ok || r != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return value, nil
	}

	return p.parseNumber()
}

func (p *exprParser) parseNumber() (float64, error) {
	p.skipSpaces()
	start := p.pos
	sawDot := false
	for p.pos < len(p.input) {
		r := p.input[p.pos]
		if r >= '0' && r <= '9' {
			p.pos++
			continue
		}
		if r == '.' && !sawDot {
			sawDot = true
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return 0, fmt.Errorf("expected a number at position %d", start)
	}
	value, err := strconv.ParseFloat(string(p.input[start:p.pos]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", string(p.input[start:p.pos]), err)
	}
	return value, nil
}
