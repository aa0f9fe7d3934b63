package core

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/dop251/goja"
)

type CalculatorInput struct {
	Expression string `json:"expression" jsonschema_description:"Arithmetic expression, e.g. (2 + 3) * sqrt(16) or 2^10. Math functions such as sin, log and pow are available by name."`
}

// Calculate evaluates the expression in a fresh JavaScript VM with the Math
// object in scope. "^" means exponentiation. Evaluation is interrupted when
// ctx is done.
func (c *Client) Calculate(ctx context.Context, input CalculatorInput) (any, error) {
	expr := strings.TrimSpace(input.Expression)
	if expr == "" {
		return nil, fmt.Errorf("expression is required")
	}
	expr, err := rewritePower(expr)
	if err != nil {
		return nil, err
	}

	vm := goja.New()
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	val, err := vm.RunString("with (Math) {\n" + expr + "\n}")
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate expression: %w", err)
	}

	switch n := val.Export().(type) {
	case int64:
		return n, nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("result is not a finite number: %v", n)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("result is not a number: %v", val)
	}
}

// rewritePower turns every a ^ b into pow(a, b). "^" binds tighter than a
// leading unary sign and is right associative, so -2^2 is -4 and 2^3^2 is
// 512.
func rewritePower(expr string) (string, error) {
	if !strings.Contains(expr, "^") {
		return expr, nil
	}
	toks, err := tokenize(expr)
	if err != nil {
		return "", err
	}

	// rightmost first gives right associativity
	for i := len(toks) - 1; i >= 0; i-- {
		if toks[i] != "^" {
			continue
		}
		start := operandStart(toks, i)
		end := operandEnd(toks, i)
		if start < 0 || end < 0 {
			return "", fmt.Errorf("missing operand for ^")
		}
		call := "pow(" + strings.Join(toks[start:i], " ") + ", " + strings.Join(toks[i+1:end+1], " ") + ")"
		rest := append([]string{call}, toks[end+1:]...)
		toks = append(toks[:start], rest...)
		i = start
	}
	return strings.Join(toks, " "), nil
}

func tokenize(expr string) ([]string, error) {
	var toks []string
	r := []rune(expr)
	for i := 0; i < len(r); {
		c := r[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(' || c == ')' || c == ',' || c == '^':
			toks = append(toks, string(c))
			i++
		case unicode.IsDigit(c) || (c == '.' && i+1 < len(r) && unicode.IsDigit(r[i+1])):
			j := i
			for j < len(r) && (unicode.IsDigit(r[j]) || r[j] == '.') {
				j++
			}
			if j < len(r) && (r[j] == 'e' || r[j] == 'E') {
				k := j + 1
				if k < len(r) && (r[k] == '+' || r[k] == '-') {
					k++
				}
				if k < len(r) && unicode.IsDigit(r[k]) {
					for k < len(r) && unicode.IsDigit(r[k]) {
						k++
					}
					j = k
				}
			}
			toks = append(toks, string(r[i:j]))
			i = j
		case isIdentRune(c):
			j := i
			for j < len(r) && (isIdentRune(r[j]) || unicode.IsDigit(r[j]) || r[j] == '.') {
				j++
			}
			toks = append(toks, string(r[i:j]))
			i = j
		case c == '\'' || c == '"':
			j := i + 1
			for j < len(r) && r[j] != c {
				if r[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(r) {
				return nil, fmt.Errorf("unterminated string")
			}
			toks = append(toks, string(r[i:j+1]))
			i = j + 1
		default:
			// other operator characters are kept together, e.g. "**" or "<="
			j := i
			for j < len(r) && isOperatorRune(r[j]) {
				j++
			}
			if j == i {
				j++
			}
			toks = append(toks, string(r[i:j]))
			i = j
		}
	}
	return toks, nil
}

func isIdentRune(c rune) bool {
	return unicode.IsLetter(c) || c == '_' || c == '$'
}

func isOperatorRune(c rune) bool {
	return strings.ContainsRune("+-*/%<>=!&|~?:", c)
}

// isOperand reports whether tok is a number, name, string or rewritten call
func isOperand(tok string) bool {
	r := []rune(tok)[0]
	return unicode.IsDigit(r) || r == '.' || isIdentRune(r) || r == '\'' || r == '"'
}

// operandStart returns the index of the first token of the operand left of
// toks[op], or -1.
func operandStart(toks []string, op int) int {
	i := op - 1
	if i < 0 {
		return -1
	}
	if toks[i] == ")" {
		open := matchBackward(toks, i)
		if open < 0 {
			return -1
		}
		if open > 0 && isOperand(toks[open-1]) {
			return open - 1
		}
		return open
	}
	if isOperand(toks[i]) {
		return i
	}
	return -1
}

// operandEnd returns the index of the last token of the operand right of
// toks[op], including any leading signs, or -1.
func operandEnd(toks []string, op int) int {
	i := op + 1
	for i < len(toks) && strings.Trim(toks[i], "+-!~") == "" {
		i++
	}
	if i >= len(toks) {
		return -1
	}
	if toks[i] == "(" {
		return matchForward(toks, i)
	}
	if !isOperand(toks[i]) {
		return -1
	}
	if i+1 < len(toks) && toks[i+1] == "(" {
		return matchForward(toks, i+1)
	}
	return i
}

func matchBackward(toks []string, closeIdx int) int {
	depth := 0
	for i := closeIdx; i >= 0; i-- {
		switch toks[i] {
		case ")":
			depth++
		case "(":
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func matchForward(toks []string, openIdx int) int {
	depth := 0
	for i := openIdx; i < len(toks); i++ {
		switch toks[i] {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
