package shader

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrPreprocess is wrapped by every preprocessor failure.
var ErrPreprocess = errors.New("shader: preprocess")

var substitution = regexp.MustCompile(`#\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Preprocess resolves shader definitions in src.
//
// Supported directives, each on its own line:
//
//	#ifdef NAME
//	#ifndef NAME
//	#else
//	#endif
//
// A name is defined when it is a key of defs. Inside kept lines every
// #{NAME} is replaced by defs[NAME]; referencing an undefined name is an
// error. Directives nest.
func Preprocess(src string, defs map[string]string) (string, error) {
	type frame struct {
		active   bool // this branch is emitted
		parent   bool // enclosing block is emitted
		sawElse  bool
		openLine int
	}
	var stack []frame
	emitting := func() bool {
		return len(stack) == 0 || stack[len(stack)-1].active
	}

	var out strings.Builder
	out.Grow(len(src))
	for i, line := range strings.Split(src, "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		directive, arg, _ := strings.Cut(trimmed, " ")
		arg = strings.TrimSpace(arg)

		switch directive {
		case "#ifdef", "#ifndef":
			if arg == "" {
				return "", fmt.Errorf("%w: line %d: %s without a name", ErrPreprocess, lineNo, directive)
			}
			_, defined := defs[arg]
			cond := defined == (directive == "#ifdef")
			parent := emitting()
			stack = append(stack, frame{active: parent && cond, parent: parent, openLine: lineNo})
			continue

		case "#else":
			if len(stack) == 0 {
				return "", fmt.Errorf("%w: line %d: #else without #ifdef", ErrPreprocess, lineNo)
			}
			top := &stack[len(stack)-1]
			if top.sawElse {
				return "", fmt.Errorf("%w: line %d: second #else", ErrPreprocess, lineNo)
			}
			top.sawElse = true
			top.active = top.parent && !top.active
			continue

		case "#endif":
			if len(stack) == 0 {
				return "", fmt.Errorf("%w: line %d: #endif without #ifdef", ErrPreprocess, lineNo)
			}
			stack = stack[:len(stack)-1]
			continue
		}

		if !emitting() {
			continue
		}

		var substErr error
		line = substitution.ReplaceAllStringFunc(line, func(m string) string {
			name := m[2 : len(m)-1]
			v, ok := defs[name]
			if !ok && substErr == nil {
				substErr = fmt.Errorf("%w: line %d: undefined value %s", ErrPreprocess, lineNo, name)
			}
			return v
		})
		if substErr != nil {
			return "", substErr
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}

	if len(stack) > 0 {
		return "", fmt.Errorf("%w: line %d: unterminated #ifdef", ErrPreprocess, stack[len(stack)-1].openLine)
	}
	return out.String(), nil
}
