// Package engine evaluates site scripts. It wraps zygomys in a sandboxed
// environment with the site DSL installed and produces a site.Site from the
// script.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/sitegeom/pkg/site"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError is a non-fatal error in user code, such as a parse error or a
// bad builtin argument.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalResult bundles an evaluation with the validation of its site.
type EvalResult struct {
	Site       *site.Site
	Errors     []EvalError
	Validation site.ValidationResult
}

// Engine evaluates site scripts. It is safe for concurrent use; each call
// to Evaluate runs in a fresh sandbox.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// NewEngine returns an Engine with the default EvalTimeout.
func NewEngine() *Engine {
	return &Engine{timeout: EvalTimeout}
}

// NewEngineWithTimeout returns an Engine that abandons evaluations after d.
// A non-positive d selects EvalTimeout.
func NewEngineWithTimeout(d time.Duration) *Engine {
	if d <= 0 {
		d = EvalTimeout
	}
	return &Engine{timeout: d}
}

// Evaluate runs source and returns the site it builds. name seeds
// Site.Name; a (site :name ...) form overrides it.
//
// Return semantics:
//   - On success: site + nil eval errors + nil error
//   - On parse/eval failure: nil site + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): nil + nil + error
func (e *Engine) Evaluate(name, source string) (*site.Site, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	timeout := e.timeout
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("%w: %v", ErrPanic, r)}
			}
		}()

		s, evalErrs, err := evaluate(name, source)
		ch <- evalResult{site: s, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, timeout, &e.mu, &e.generation)
}

// Run evaluates source and validates the resulting site.
func (e *Engine) Run(name, source string) (*EvalResult, error) {
	s, evalErrs, err := e.Evaluate(name, source)
	if err != nil {
		return nil, err
	}
	res := &EvalResult{Site: s, Errors: evalErrs}
	if s != nil {
		res.Validation = site.Validate(s)
	}
	return res, nil
}

// evaluate performs the zygomys evaluation in a fresh sandbox.
func evaluate(name, source string) (*site.Site, []EvalError, error) {
	s := site.New(name)

	// Empty source is a valid script that produces an empty site.
	if strings.TrimSpace(source) == "" {
		return s, nil, nil
	}

	// Sandbox mode keeps scripts away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, s)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return s, nil, nil
}

// linePattern matches zygomys messages of the form "Error on line N: ...".
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches "line N: ..." messages.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalErrors, extracting the
// line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
