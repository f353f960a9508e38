package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/extism/go-pdk"
)

type evalInput struct {
	Expression string `json:"expression"`
}

type evalOutput struct {
	Result float64 `json:"result"`
}

//export evaluate
func evaluate() int32 {
	var req evalInput
	if err := json.Unmarshal(pdk.Input(), &req); err != nil {
		return fail("invalid input: " + err.Error())
	}
	if strings.TrimSpace(req.Expression) == "" {
		return fail("expression is required")
	}

	result, err := eval(req.Expression)
	if err != nil {
		return fail(err.Error())
	}

	out, _ := json.Marshal(evalOutput{Result: result})
	pdk.Output(out)
	return 0
}

func fail(msg string) int32 {
	out, _ := json.Marshal(map[string]string{"error": msg})
	pdk.Output(out)
	return 1
}

// eval parses and evaluates an arithmetic expression using the
// shunting-yard algorithm. Supported: + - * /, parentheses, unary
// minus, decimal numbers.
func eval(expr string) (float64, error) {
	output, err := toRPN(expr)
	if err != nil {
		return 0, err
	}
	return evalRPN(output)
}

type rpnToken struct {
	op  byte // 0 for numbers
	num float64
}

func precedence(op byte) int {
	switch op {
	case '+', '-':
		return 1
	case '*', '/':
		return 2
	}
	return 0
}

func toRPN(expr string) ([]rpnToken, error) {
	var output []rpnToken
	var ops []byte
	prevWasValue := false

	i := 0
	for i < len(expr) {
		ch := expr[i]
		switch {
		case ch == ' ' || ch == '\t':
			i++
		case ch >= '0' && ch <= '9' || ch == '.':
			j := i
			for j < len(expr) && (expr[j] == '.' || expr[j] >= '0' && expr[j] <= '9') {
				j++
			}
			num, err := strconv.ParseFloat(expr[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", expr[i:j])
			}
			output = append(output, rpnToken{num: num})
			prevWasValue = true
			i = j
		case ch == '(':
			ops = append(ops, '(')
			prevWasValue = false
			i++
		case ch == ')':
			for len(ops) > 0 && ops[len(ops)-1] != '(' {
				output = append(output, rpnToken{op: ops[len(ops)-1]})
				ops = ops[:len(ops)-1]
			}
			if len(ops) == 0 {
				return nil, fmt.Errorf("unbalanced parentheses")
			}
			ops = ops[:len(ops)-1]
			prevWasValue = true
			i++
		case ch == '+' || ch == '-' || ch == '*' || ch == '/':
			if ch == '-' && !prevWasValue {
				// Unary minus: rewrite as 0 - x.
				output = append(output, rpnToken{num: 0})
			} else if !prevWasValue {
				return nil, fmt.Errorf("unexpected operator %q", string(ch))
			}
			for len(ops) > 0 && precedence(ops[len(ops)-1]) >= precedence(ch) {
				output = append(output, rpnToken{op: ops[len(ops)-1]})
				ops = ops[:len(ops)-1]
			}
			ops = append(ops, ch)
			prevWasValue = false
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q", string(ch))
		}
	}
	for len(ops) > 0 {
		if ops[len(ops)-1] == '(' {
			return nil, fmt.Errorf("unbalanced parentheses")
		}
		output = append(output, rpnToken{op: ops[len(ops)-1]})
		ops = ops[:len(ops)-1]
	}
	if len(output) == 0 {
		return nil, fmt.Errorf("empty expression")
	}
	return output, nil
}

func evalRPN(tokens []rpnToken) (float64, error) {
	var stack []float64
	for _, t := range tokens {
		if t.op == 0 {
			stack = append(stack, t.num)
			continue
		}
		if len(stack) < 2 {
			return 0, fmt.Errorf("malformed expression")
		}
		b := stack[len(stack)-1]
		a := stack[len(stack)-2]
		stack = stack[:len(stack)-2]
		switch t.op {
		case '+':
			stack = append(stack, a+b)
		case '-':
			stack = append(stack, a-b)
		case '*':
			stack = append(stack, a*b)
		case '/':
			if b == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			stack = append(stack, a/b)
		}
	}
	if len(stack) != 1 {
		return 0, fmt.Errorf("malformed expression")
	}
	return stack[0], nil
}

func main() {}
