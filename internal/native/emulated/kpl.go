package emulated

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// assignment is one "NAME = value" or "NAME += value" directive of a text kernel.
type assignment struct {
	name  string
	add   bool
	nums  []float64
	strs  []string
	isStr bool
}

// textKernel is a parsed text kernel.
type textKernel struct {
	idWord      string
	assignments []assignment
}

// parseTextKernel reads the data sections of a text kernel.
func parseTextKernel(src string) (*textKernel, error) {
	k := &textKernel{}

	var data strings.Builder
	inData := false
	first := true

	sc := bufio.NewScanner(strings.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if first {
			first = false
			if strings.HasPrefix(trimmed, "KPL/") || strings.HasPrefix(trimmed, "DAF/") || strings.HasPrefix(trimmed, "DAS/") {
				k.idWord = strings.Fields(trimmed)[0]
				continue
			}
		}
		switch trimmed {
		case `\begindata`:
			inData = true
			continue
		case `\begintext`:
			inData = false
			continue
		}
		if inData {
			data.WriteString(line)
			data.WriteByte('\n')
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	toks, err := tokenize(data.String())
	if err != nil {
		return nil, err
	}
	k.assignments, err = parseAssignments(toks)
	if err != nil {
		return nil, err
	}
	return k, nil
}

type tokKind uint8

const (
	tokWord tokKind = iota + 1
	tokString
	tokDate
	tokAssign
	tokAppend
	tokOpen
	tokClose
)

type token struct {
	kind tokKind
	text string
}

func tokenize(s string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == ',':
			i++
		case c == '(':
			toks = append(toks, token{tokOpen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokClose, ")"})
			i++
		case c == '=':
			toks = append(toks, token{tokAssign, "="})
			i++
		case c == '+' && i+1 < len(s) && s[i+1] == '=':
			toks = append(toks, token{tokAppend, "+="})
			i += 2
		case c == '\'':
			var b strings.Builder
			i++
			closed := false
			for i < len(s) {
				if s[i] == '\'' {
					if i+1 < len(s) && s[i+1] == '\'' {
						b.WriteByte('\'')
						i += 2
						continue
					}
					i++
					closed = true
					break
				}
				if s[i] == '\n' {
					break
				}
				b.WriteByte(s[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string %q", b.String())
			}
			toks = append(toks, token{tokString, b.String()})
		default:
			start := i
			for i < len(s) && !strings.ContainsRune(" \t\n,()=", rune(s[i])) {
				if s[i] == '+' && i+1 < len(s) && s[i+1] == '=' {
					break
				}
				i++
			}
			word := s[start:i]
			if strings.HasPrefix(word, "@") {
				toks = append(toks, token{tokDate, word[1:]})
			} else {
				toks = append(toks, token{tokWord, word})
			}
		}
	}
	return toks, nil
}

func parseAssignments(toks []token) ([]assignment, error) {
	var out []assignment
	for i := 0; i < len(toks); {
		if toks[i].kind != tokWord {
			return nil, fmt.Errorf("expected variable name, found %q", toks[i].text)
		}
		name := toks[i].text
		if len(name) > 32 {
			return nil, fmt.Errorf("variable name %q is longer than 32 characters", name)
		}
		i++
		if i >= len(toks) || (toks[i].kind != tokAssign && toks[i].kind != tokAppend) {
			return nil, fmt.Errorf("expected = or += after %s", name)
		}
		a := assignment{name: name, add: toks[i].kind == tokAppend}
		i++
		if i >= len(toks) {
			return nil, fmt.Errorf("missing value for %s", name)
		}

		var values []token
		if toks[i].kind == tokOpen {
			i++
			for i < len(toks) && toks[i].kind != tokClose {
				values = append(values, toks[i])
				i++
			}
			if i >= len(toks) {
				return nil, fmt.Errorf("unterminated list for %s", name)
			}
			i++
		} else {
			values = append(values, toks[i])
			i++
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("empty value list for %s", name)
		}

		a.isStr = values[0].kind == tokString
		for _, v := range values {
			if (v.kind == tokString) != a.isStr {
				return nil, fmt.Errorf("%s mixes strings and numbers", name)
			}
			switch v.kind {
			case tokString:
				a.strs = append(a.strs, v.text)
			case tokWord:
				f, err := parseNumber(v.text)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", name, err)
				}
				a.nums = append(a.nums, f)
			case tokDate:
				f, err := parseKernelDate(v.text)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", name, err)
				}
				a.nums = append(a.nums, f)
			default:
				return nil, fmt.Errorf("unexpected %q in value of %s", v.text, name)
			}
		}
		out = append(out, a)
	}
	return out, nil
}

// parseNumber accepts Fortran-style D exponents.
func parseNumber(s string) (float64, error) {
	norm := strings.Map(func(r rune) rune {
		if r == 'D' || r == 'd' {
			return 'E'
		}
		return r
	}, s)
	f, err := strconv.ParseFloat(norm, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}

// parseKernelDate converts an @date value to formal seconds past J2000.
func parseKernelDate(s string) (float64, error) {
	spec, err := parseTimeString(strings.ReplaceAll(s, "/", " "))
	if err != nil {
		return 0, err
	}
	if spec.isJD {
		return (spec.jd - j2000JD) * secondsPerDay, nil
	}
	return spec.formalSeconds(), nil
}
