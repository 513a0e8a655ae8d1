package stripper

import "log/slog"

// rewriteFunction rewrites the signature of a function whose "def"
// keyword is in the term buffer. Parameter and return hints are dropped
// unless the function name is in the ignore set. The body is left to the
// main loop.
func (e *engine) rewriteFunction(delim byte) error {
	if delim == 0 {
		return e.fatal(ErrFunctionParse|ErrUnexpectedEOF, "got EOF instead of function name at line %d", e.line)
	}
	if err := e.push(delim); err != nil {
		return err
	}
	for {
		c, ok := e.sc.read()
		if !ok {
			return e.fatal(ErrFunctionParse|ErrUnexpectedEOF, "got EOF instead of function name at line %d, term '%s'", e.line, e.buf)
		}
		if !isSignatureSpace(c) {
			e.sc.unread(c)
			break
		}
		if err := e.push(c); err != nil {
			return err
		}
	}

	name, err := e.readFunctionName()
	if err != nil {
		return err
	}
	e.functions = append(e.functions, name)
	ignored := e.ignored.Contains(name)
	if ignored {
		e.logf(slog.LevelInfo, "keeping type hints of function '%s' at line %d", name, e.line)
	}

	if err := e.readParameters(ignored); err != nil {
		return err
	}
	if err := e.readReturnHint(ignored); err != nil {
		return err
	}
	e.sc.reset()
	return e.writeTerm(0, brackets{})
}

// readFunctionName copies the name and type parameters of a function up
// to and including the opening round bracket.
func (e *engine) readFunctionName() (string, error) {
	var name []byte
	typeParams := false
	square := 0
	for {
		c, ok := e.sc.read()
		if !ok {
			return "", e.fatal(ErrFunctionParse|ErrFunctionNameParse|ErrUnexpectedEOF,
				"got EOF instead of function name at line %d, term '%s'", e.line, e.buf)
		}

		if !e.sc.inComment && (c == '\'' || c == '"') {
			err := e.fail(ErrFunctionParse|ErrFunctionNameParse,
				"string opening chars like ' and \" at line %d are not allowed for function name", e.line)
			if err != nil {
				return "", err
			}
			if err := e.push(c); err != nil {
				return "", err
			}
			continue
		}
		lit, err := e.sc.literal(c, e.push)
		if err != nil {
			return "", err
		}
		if lit {
			continue
		}
		if err := e.push(c); err != nil {
			return "", err
		}

		switch c {
		case '(':
			if square == 0 {
				return string(name), nil
			}
		case '[':
			typeParams = true
			square++
		case ']':
			square--
		case ' ', '\t', '\\', '\n', '\r':
		default:
			if !typeParams {
				name = append(name, c)
			}
		}
	}
}

// readParameters copies the parameter list up to the closing round
// bracket, dropping each parameter's hint unless ignored is set.
func (e *engine) readParameters(ignored bool) error {
	var (
		depth     = brackets{round: 1}
		inHint    bool
		inDefault bool
		skipSpace bool
	)
	emit := func(c byte) error {
		if e.sc.inComment || !inHint || ignored {
			return e.push(c)
		}
		return nil
	}

	for {
		c, ok := e.sc.read()
		if !ok {
			kind := ErrFunctionParse | ErrFunctionArgumentParse | ErrUnexpectedEOF
			if e.sc.inString {
				kind |= ErrStringNotClosed
			}
			return e.fatal(kind, "got EOF instead of function args, body or return type at line %d, term '%s'", e.line, e.buf)
		}
		if skipSpace {
			if c == ' ' || c == '\t' {
				continue
			}
			skipSpace = false
		}

		lit, err := e.sc.literal(c, emit)
		if err != nil {
			return err
		}
		if lit {
			continue
		}

		top := depth == brackets{round: 1}
		switch c {
		case ',':
			if top {
				inHint, inDefault = false, false
			}
		case ':':
			if top && !inHint && !inDefault {
				inHint = true
			}
		case '=':
			if top && !inDefault && !e.sc.peekRun('=', 1) {
				inDefault = true
				if inHint {
					inHint = false
					skipSpace = !ignored
				}
			}
		case '(':
			depth.round++
		case ')':
			depth.round--
			if depth.round == 0 {
				return e.push(c)
			}
		case '[':
			depth.square++
		case ']':
			if depth.square == 0 {
				err := e.fail(ErrFunctionParse|ErrFunctionArgumentTypeHintParse,
					"too many closing square brackets in the function argument type hint at line %d, term '%s'", e.line, e.buf)
				if err != nil {
					return err
				}
				break
			}
			depth.square--
		case '{':
			depth.curly++
		case '}':
			if depth.curly == 0 {
				err := e.fail(ErrFunctionParse|ErrFunctionArgumentParse,
					"too many closing curly brackets in the function arguments at line %d, term '%s'", e.line, e.buf)
				if err != nil {
					return err
				}
				break
			}
			depth.curly--
		case '\n', '\r':
			if err := e.push(c); err != nil {
				return err
			}
			continue
		}

		if err := emit(c); err != nil {
			return err
		}
	}
}

// readReturnHint copies everything from the closing round bracket of the
// parameter list to the colon that opens the body, dropping the return
// hint unless ignored is set.
func (e *engine) readReturnHint(ignored bool) error {
	e.fallback = e.fallback[:0]
	var c byte
	for {
		var ok bool
		c, ok = e.sc.read()
		if !ok {
			return e.fatal(ErrFunctionParse|ErrFunctionReturnTypeHintParse|ErrUnexpectedEOF,
				"got EOF instead of function body or return type at line %d, term '%s'", e.line, e.buf)
		}
		if !isSignatureSpace(c) {
			break
		}
		if err := e.appendFallback(c); err != nil {
			return err
		}
	}

	switch c {
	case ':':
		if err := e.pushAll(e.fallback); err != nil {
			return err
		}
		return e.push(c)
	case '-':
		next, ok := e.sc.read()
		if !ok {
			return e.fatal(ErrFunctionParse|ErrFunctionReturnTypeHintParse|ErrUnexpectedEOF,
				"got EOF instead of function return type hint at line %d", e.line)
		}
		if next != '>' {
			if err := e.badReturnArrow(next); err != nil {
				return err
			}
			return e.push(c)
		}
		if ignored {
			if err := e.pushAll(e.fallback); err != nil {
				return err
			}
			if err := e.pushAll([]byte("->")); err != nil {
				return err
			}
		}
	default:
		return e.badReturnArrow(c)
	}

	emit := func(c byte) error {
		if ignored {
			return e.push(c)
		}
		return nil
	}
	var depth brackets
	for {
		c, ok := e.sc.read()
		if !ok {
			return e.fatal(ErrFunctionParse|ErrFunctionReturnTypeHintParse|ErrUnexpectedEOF,
				"got EOF instead of function initialization end symbol ':' at line %d", e.line)
		}
		lit, err := e.sc.literal(c, emit)
		if err != nil {
			return err
		}
		if lit {
			continue
		}

		switch c {
		case '(':
			depth.round++
		case ')':
			depth.round--
		case '[':
			depth.square++
		case ']':
			depth.square--
		case '{':
			depth.curly++
		case '}':
			depth.curly--
		case ':':
			if depth.zero() {
				return e.push(c)
			}
		}
		if kind := unmatchedClosing(depth); kind != NoErrors {
			return e.fatal(ErrFunctionParse|ErrFunctionReturnTypeHintParse|kind,
				"unbalanced brackets in function return type hint at line %d", e.line)
		}
		if err := emit(c); err != nil {
			return err
		}
	}
}

// badReturnArrow reports a signature that continues with neither ':'
// nor '->'. When processing continues, c is handed back to the main loop.
func (e *engine) badReturnArrow(c byte) error {
	err := e.fail(ErrFunctionParse|ErrFunctionReturnTypeHintParse,
		"expected ':' or '->' after function params, got '%c' at line %d, term '%s'", c, e.line, e.buf)
	if err != nil {
		return err
	}
	if err := e.pushAll(e.fallback); err != nil {
		return err
	}
	e.sc.unread(c)
	return nil
}
