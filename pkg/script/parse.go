package script

import (
	"fmt"
	"strconv"
	"strings"
)

// Tables carries the alias and macro state threaded through one
// compilation run. Warn, when set, receives non-fatal diagnostics such as
// duplicate definitions.
type Tables struct {
	Aliases *AliasTable
	Macros  *MacroTable
	Warn    func(pos Position, msg string)
}

// NewTables returns fresh, empty tables for a compilation run.
func NewTables() *Tables {
	return &Tables{
		Aliases: NewAliasTable(),
		Macros:  NewMacroTable(),
	}
}

func (t *Tables) warn(pos Position, format string, args ...any) {
	if t.Warn != nil {
		t.Warn(pos, fmt.Sprintf(format, args...))
	}
}

// argKind describes one expected command argument.
type argKind int

const (
	argHex  argKind = iota // bare hex value, eg. 8045bf28
	argSHex                // signed bare hex value, eg. -20
	argStr                 // quoted string, eg. "file.bin"
	argVar                 // any bare word
	argInt                 // decimal or 0x-prefixed integer
	argData                // hex run or %-prefixed binary run
	argRest                // the remainder of the line, unsplit
)

// commandArgs lists each !command and its expected argument shapes.
var commandArgs = map[string][]argKind{
	"loc":           {argHex},
	"gci":           {argHex},
	"patch":         {argHex},
	"add":           {argSHex},
	"src":           {argStr},
	"asmsrc":        {argStr},
	"file":          {argStr},
	"geckocodelist": {argStr},
	"string":        {argStr},
	"fill":          {argInt, argData},
	"asm":           {},
	"asmend":        {},
	"c2":            {argHex},
	"c2end":         {},
	"begin":         {},
	"end":           {},
	"echo":          {argStr},
	"macro":         {argVar},
	"macroend":      {},
	"define":        {argVar, argRest},
	"blockorder":    {argInt, argInt, argInt, argInt, argInt, argInt, argInt, argInt, argInt, argInt},
}

// Parse classifies stripped lines into directives, collecting alias and
// macro definitions into the tables as it goes. Macro and asm bodies are
// captured as opaque line spans; macro bodies stay unparsed until
// expansion.
func Parse(file string, lines []Line, tables *Tables) ([]Directive, error) {
	p := &parser{file: file, tables: tables}
	return p.run(lines)
}

type parser struct {
	file   string
	tables *Tables
}

func (p *parser) pos(n int) Position {
	return Position{File: p.file, Line: n}
}

func (p *parser) run(lines []Line) ([]Directive, error) {
	var out []Directive
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch leadingCommand(line.Text) {
		case "macro":
			body, next, err := p.captureBody(lines, i, "macroend")
			if err != nil {
				return nil, err
			}
			if err := p.defineMacro(line, body); err != nil {
				return nil, err
			}
			i = next
			continue
		case "asm", "c2":
			name := leadingCommand(line.Text)
			body, next, err := p.captureBody(lines, i, name+"end")
			if err != nil {
				return nil, err
			}
			d, err := p.asmDirective(line, name, body)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
			i = next
			continue
		}

		d, err := p.parseLine(line)
		if err != nil {
			return nil, err
		}
		if d != nil {
			out = append(out, d)
		}
	}
	return out, nil
}

// captureBody collects the raw lines between an opening command at index
// start and its matching end marker. It returns the body and the index of
// the end marker.
func (p *parser) captureBody(lines []Line, start int, endName string) ([]Line, int, error) {
	for i := start + 1; i < len(lines); i++ {
		switch leadingCommand(lines[i].Text) {
		case endName:
			return lines[start+1 : i], i, nil
		case "macro":
			if endName == "macroend" {
				return nil, 0, Errorf(p.pos(lines[i].Number), ErrSyntax,
					"macros cannot define other macros")
			}
		}
	}
	return nil, 0, Errorf(p.pos(lines[start].Number), ErrSyntax,
		"!%s block is never closed", strings.TrimSuffix(endName, "end"))
}

func (p *parser) defineMacro(open Line, body []Line) error {
	pos := p.pos(open.Number)
	args, err := p.commandFields(open.Text, pos)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return Errorf(pos, ErrSyntax, "!macro expects a name")
	}
	m := &Macro{Name: args[1], File: p.file, Body: body}
	if p.tables.Macros.Define(m) {
		p.tables.warn(pos, "macro %s is already defined; overwriting", m.Name)
	}
	return nil
}

func (p *parser) asmDirective(open Line, name string, body []Line) (Directive, error) {
	pos := p.pos(open.Number)
	text := joinLines(body)
	if name == "c2" {
		args, err := p.typedArgs(open.Text, pos)
		if err != nil {
			return nil, err
		}
		return C2Block{base: base{P: pos}, Addr: args[0].(uint32), Source: text}, nil
	}
	if _, err := p.typedArgs(open.Text, pos); err != nil {
		return nil, err
	}
	return AsmBlock{base: base{P: pos}, Source: text}, nil
}

// parseLine classifies one non-block line. A nil directive with nil error
// means the line only mutated parser state (eg. !define).
func (p *parser) parseLine(line Line) (Directive, error) {
	pos := p.pos(line.Number)
	text, err := p.tables.Aliases.Apply(line.Text, pos)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	switch {
	case isHexStart(text[0]):
		data, err := decodeHexRun(text, pos)
		if err != nil {
			return nil, err
		}
		return RawBytes{base: base{P: pos}, Data: data}, nil
	case text[0] == '%':
		data, err := decodeBinaryRun(text[1:], pos)
		if err != nil {
			return nil, err
		}
		return RawBytes{base: base{P: pos}, Data: data}, nil
	case text[0] == '+':
		return p.macroInvocation(text[1:], pos)
	case text[0] == '!':
		return p.command(text, pos)
	case text[0] == '[':
		// Defined aliases were substituted above, so this one is unknown.
		name, _, _ := strings.Cut(text[1:], "]")
		return nil, Errorf(pos, ErrUndefinedAlias, "[%s]", name)
	}
	return nil, Errorf(pos, ErrSyntax, "unrecognized leading token %q", text[0])
}

func (p *parser) macroInvocation(rest string, pos Position) (Directive, error) {
	fields := strings.Fields(rest)
	switch len(fields) {
	case 1:
		return InvokeMacro{base: base{P: pos}, Name: fields[0], Count: 1}, nil
	case 2:
		count, err := parseInt(fields[1])
		if err != nil {
			return nil, Errorf(pos, ErrSyntax, "invalid macro count %q", fields[1])
		}
		if count < 1 {
			return nil, Errorf(pos, ErrSyntax, "macro count must be greater than 0")
		}
		return InvokeMacro{base: base{P: pos}, Name: fields[0], Count: count}, nil
	}
	return nil, Errorf(pos, ErrSyntax, "macro invocation expects at most a name and a count")
}

func (p *parser) command(text string, pos Position) (Directive, error) {
	name := leadingCommand(text)
	args, err := p.typedArgs(text, pos)
	if err != nil {
		return nil, err
	}

	switch name {
	case "loc":
		return SetLocation{base: base{P: pos}, Addr: args[0].(uint32)}, nil
	case "gci":
		return SetGCIOffset{base: base{P: pos}, Offset: args[0].(uint32)}, nil
	case "patch":
		return SetPatchOffset{base: base{P: pos}, Offset: args[0].(uint32)}, nil
	case "add":
		return AddOffset{base: base{P: pos}, Delta: args[0].(int64)}, nil
	case "src":
		return IncludeSource{base: base{P: pos}, Path: args[0].(string)}, nil
	case "asmsrc":
		return IncludeAssembly{base: base{P: pos}, Path: args[0].(string)}, nil
	case "file":
		return IncludeFile{base: base{P: pos}, Path: args[0].(string)}, nil
	case "geckocodelist":
		return IncludeGeckoCodelist{base: base{P: pos}, Path: args[0].(string)}, nil
	case "string":
		data, err := decodeEscapes(args[0].(string), pos)
		if err != nil {
			return nil, err
		}
		return EmitString{base: base{P: pos}, Data: data}, nil
	case "fill":
		count := args[0].(int)
		if count < 1 {
			return nil, Errorf(pos, ErrSyntax, "fill count must be greater than 0")
		}
		pattern := args[1].([]byte)
		data := make([]byte, 0, count*len(pattern))
		for range count {
			data = append(data, pattern...)
		}
		return RawBytes{base: base{P: pos}, Data: data}, nil
	case "echo":
		return Echo{base: base{P: pos}, Message: args[0].(string)}, nil
	case "define":
		if p.tables.Aliases.Define(args[0].(string), args[1].(string)) {
			p.tables.warn(pos, "alias [%s] is already defined; overwriting", args[0].(string))
		}
		return nil, nil
	case "blockorder":
		var order [10]int
		for i, a := range args {
			n := a.(int)
			if n < 0 || n > 9 {
				return nil, Errorf(pos, ErrSyntax, "block number %d is outside 0-9", n)
			}
			order[i] = n
		}
		return BlockOrder{base: base{P: pos}, Order: order}, nil
	case "begin", "end":
		// Only reachable when the marker appears more than once.
		p.tables.warn(pos, "!%s appears mid-script; ignoring", name)
		return nil, nil
	case "asmend", "c2end", "macroend":
		return nil, Errorf(pos, ErrSyntax, "!%s without a matching !%s", name, strings.TrimSuffix(name, "end"))
	}
	return nil, Errorf(pos, ErrSyntax, "unknown command !%s", name)
}

// typedArgs splits a !command line and validates its arguments against
// commandArgs.
func (p *parser) typedArgs(text string, pos Position) ([]any, error) {
	name := leadingCommand(text)
	kinds, ok := commandArgs[name]
	if !ok {
		return nil, Errorf(pos, ErrSyntax, "unknown command !%s", name)
	}

	var raw []string
	if len(kinds) > 0 && kinds[len(kinds)-1] == argRest {
		fields, err := p.commandFields(text, pos)
		if err != nil {
			return nil, err
		}
		if len(fields) < len(kinds)+1 {
			return nil, Errorf(pos, ErrSyntax, "!%s expects %d arg(s)", name, len(kinds))
		}
		raw = fields[1:len(kinds)]
		rest := strings.Join(fields[len(kinds):], " ")
		raw = append(raw, rest)
	} else {
		fields, err := p.commandFields(text, pos)
		if err != nil {
			return nil, err
		}
		raw = fields[1:]
		if len(raw) != len(kinds) {
			return nil, Errorf(pos, ErrSyntax, "!%s expects %d arg(s) but received %d", name, len(kinds), len(raw))
		}
	}

	typed := make([]any, 0, len(raw))
	for i, arg := range raw {
		v, err := typeArg(kinds[i], arg, pos)
		if err != nil {
			return nil, err
		}
		typed = append(typed, v)
	}
	return typed, nil
}

func typeArg(kind argKind, arg string, pos Position) (any, error) {
	switch kind {
	case argHex:
		v, err := strconv.ParseUint(strings.TrimPrefix(arg, "0x"), 16, 32)
		if err != nil {
			return nil, Errorf(pos, ErrSyntax, "argument %q must be a hex value", arg)
		}
		return uint32(v), nil
	case argSHex:
		v, err := strconv.ParseInt(strings.TrimPrefix(arg, "0x"), 16, 64)
		if err != nil {
			return nil, Errorf(pos, ErrSyntax, "argument %q must be a signed hex value", arg)
		}
		return v, nil
	case argStr:
		if len(arg) < 2 || arg[0] != '"' || arg[len(arg)-1] != '"' {
			return nil, Errorf(pos, ErrSyntax, "argument %s must be a quoted string", arg)
		}
		return arg[1 : len(arg)-1], nil
	case argVar, argRest:
		return arg, nil
	case argInt:
		v, err := parseInt(arg)
		if err != nil {
			return nil, Errorf(pos, ErrSyntax, "argument %q must be an integer", arg)
		}
		return v, nil
	case argData:
		if arg != "" && arg[0] == '%' {
			return decodeBinaryRun(arg[1:], pos)
		}
		return decodeHexRun(arg, pos)
	}
	return nil, Errorf(pos, ErrSyntax, "unsupported argument kind")
}

// commandFields splits a command line on spaces, keeping double-quoted
// spans intact. Unbalanced quotes are a syntax error.
func (p *parser) commandFields(text string, pos Position) ([]string, error) {
	if strings.Count(text, `"`)%2 == 1 {
		return nil, Errorf(pos, ErrSyntax, "unbalanced quotes")
	}
	var fields []string
	var cur strings.Builder
	inQuote := false
	for _, r := range text {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune('"')
		case r == ' ' && !inQuote:
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields, nil
}

// leadingCommand returns the command name when the trimmed line starts
// with !name, and "" otherwise.
func leadingCommand(text string) string {
	text = strings.TrimSpace(text)
	if len(text) < 2 || text[0] != '!' {
		return ""
	}
	name, _, _ := strings.Cut(text[1:], " ")
	return name
}

func isHexStart(b byte) bool {
	switch {
	case b >= '0' && b <= '9', b >= 'a' && b <= 'f', b >= 'A' && b <= 'F':
		return true
	}
	return false
}

// decodeHexRun decodes a whitespace- and case-insensitive hex run. Runs
// that do not total a whole number of bytes are a syntax error.
func decodeHexRun(text string, pos Position) ([]byte, error) {
	compact := removeSpaces(text)
	if compact == "" {
		return nil, Errorf(pos, ErrSyntax, "empty hex run")
	}
	if len(compact)%2 != 0 {
		return nil, Errorf(pos, ErrSyntax, "hex run is not byte-aligned")
	}
	data := make([]byte, len(compact)/2)
	for i := 0; i < len(compact); i += 2 {
		hi, ok1 := hexVal(compact[i])
		lo, ok2 := hexVal(compact[i+1])
		if !ok1 || !ok2 {
			return nil, Errorf(pos, ErrSyntax, "invalid hex digit in %q", text)
		}
		data[i/2] = hi<<4 | lo
	}
	return data, nil
}

// decodeBinaryRun decodes a %-prefixed binary run, 8 bits per byte.
func decodeBinaryRun(text string, pos Position) ([]byte, error) {
	compact := removeSpaces(text)
	if compact == "" {
		return nil, Errorf(pos, ErrSyntax, "empty binary run")
	}
	if len(compact)%8 != 0 {
		return nil, Errorf(pos, ErrSyntax, "binary run is not byte-aligned")
	}
	data := make([]byte, len(compact)/8)
	for i, r := range compact {
		switch r {
		case '1':
			data[i/8] |= 1 << (7 - i%8)
		case '0':
		default:
			return nil, Errorf(pos, ErrSyntax, "invalid binary digit in %q", text)
		}
	}
	return data, nil
}

func removeSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

// decodeEscapes turns a !string argument into ASCII bytes, decoding the
// common backslash escapes. The result carries no terminator.
func decodeEscapes(s string, pos Position) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i >= len(s) {
			return nil, Errorf(pos, ErrSyntax, "dangling escape at end of string")
		}
		switch s[i] {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case '0':
			out = append(out, 0)
		case '\\':
			out = append(out, '\\')
		case '"':
			out = append(out, '"')
		case 'x':
			if i+2 >= len(s) {
				return nil, Errorf(pos, ErrSyntax, "truncated \\x escape")
			}
			hi, ok1 := hexVal(s[i+1])
			lo, ok2 := hexVal(s[i+2])
			if !ok1 || !ok2 {
				return nil, Errorf(pos, ErrSyntax, "invalid \\x escape")
			}
			out = append(out, hi<<4|lo)
			i += 2
		default:
			return nil, Errorf(pos, ErrSyntax, "unknown escape \\%c", s[i])
		}
	}
	return out, nil
}

func joinLines(lines []Line) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}

func parseInt(s string) (int, error) {
	if strings.HasPrefix(s, "0x") {
		v, err := strconv.ParseInt(s[2:], 16, 32)
		return int(v), err
	}
	v, err := strconv.ParseInt(s, 10, 32)
	return int(v), err
}
