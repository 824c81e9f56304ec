package sandbox

import (
	"context"
	"strings"
	"time"

	"github.com/dop251/goja"
	"golang.org/x/net/html"

	"github.com/conneroisu/codeplay/internal/clock"
	"github.com/conneroisu/codeplay/internal/console"
	"github.com/conneroisu/codeplay/internal/errors"
	"github.com/conneroisu/codeplay/internal/preview"
)

// DefaultTimeout bounds a headless run.
const DefaultTimeout = 2 * time.Second

// Result is what a headless run observed.
type Result struct {
	// Output is the innerHTML of the #output region after every script ran,
	// or "" when the document has none.
	Output string `json:"output"`
	// Console is the document's own console, not the host bridge.
	Console []console.LogEntry `json:"console"`
	// Errors holds uncaught script errors in the order they were thrown.
	Errors []string `json:"errors,omitempty"`
	// Skipped counts scripts that were not run: external, module or
	// non-JavaScript (text/babel) scripts.
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

// Executor runs the classic inline scripts of a document in an embedded
// JavaScript VM against a small DOM. Timers never fire and nothing is
// fetched over the network.
type Executor struct {
	timeout time.Duration
	clock   clock.Clock
}

// NewExecutor creates an executor. A non-positive timeout uses DefaultTimeout.
func NewExecutor(timeout time.Duration, clk clock.Clock) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Executor{timeout: timeout, clock: clk}
}

// Run executes doc. The error is non-nil only when the document could not be
// parsed or the run was interrupted by the deadline or ctx. Script errors
// are reported in the Result, the way a page reports them in its console.
func (e *Executor) Run(ctx context.Context, doc preview.Document) (*Result, error) {
	root, err := html.Parse(strings.NewReader(string(doc)))
	if err != nil {
		return nil, errors.NewSandboxError("DOC_PARSE", "parsing document", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	vm := goja.New()
	page := newPage(vm, root, e.clock)
	if err := page.install(); err != nil {
		return nil, errors.NewInternalError("VM_SETUP", "installing globals", err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	result := &Result{}
	for _, s := range scripts(root) {
		if !s.classic {
			result.Skipped++
			continue
		}

		_, runErr := vm.RunString(s.source)
		if runErr == nil {
			continue
		}

		var interrupted *goja.InterruptedError
		if errors.As(runErr, &interrupted) {
			result.Console = page.entries()
			result.Duration = time.Since(start)
			return result, errors.NewSandboxError("SCRIPT_TIMEOUT", "script interrupted", ctx.Err())
		}

		msg := "Uncaught " + scriptErrorMessage(runErr)
		result.Errors = append(result.Errors, msg)
		page.log(console.LevelError, msg)
	}

	if out := findByID(root, preview.OutputID); out != nil {
		result.Output = innerHTML(out)
	}
	result.Console = page.entries()
	result.Duration = time.Since(start)
	return result, nil
}

func scriptErrorMessage(err error) string {
	var exc *goja.Exception
	if errors.As(err, &exc) {
		if obj, ok := exc.Value().(*goja.Object); ok {
			name := obj.Get("name")
			message := obj.Get("message")
			if message != nil && !goja.IsUndefined(message) {
				if name != nil && !goja.IsUndefined(name) {
					return name.String() + ": " + message.String()
				}
				return message.String()
			}
		}
		return exc.Value().String()
	}
	return err.Error()
}

type inlineScript struct {
	source  string
	classic bool
}

// scripts returns every script element in document order.
func scripts(root *html.Node) []inlineScript {
	var out []inlineScript
	walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "script" {
			return
		}
		_, external := attr(n, "src")
		typ, _ := attr(n, "type")
		out = append(out, inlineScript{
			source:  textContent(n),
			classic: !external && isClassicType(typ),
		})
	})
	return out
}

func isClassicType(t string) bool {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", "text/javascript", "application/javascript", "text/ecmascript":
		return true
	default:
		return false
	}
}
