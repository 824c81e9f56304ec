package sandbox

import (
	"strings"
	"sync"

	"github.com/dop251/goja"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/conneroisu/codeplay/internal/clock"
	"github.com/conneroisu/codeplay/internal/console"
)

// page is the browser surface a headless run sees: a document over the
// parsed tree, a console and inert timers.
type page struct {
	vm      *goja.Runtime
	root    *html.Node
	clock   clock.Clock
	objects map[*html.Node]*goja.Object
	nodes   map[*goja.Object]*html.Node
	timerID int64

	mutex sync.Mutex
	logs  []console.LogEntry
}

func newPage(vm *goja.Runtime, root *html.Node, clk clock.Clock) *page {
	return &page{
		vm:      vm,
		root:    root,
		clock:   clk,
		objects: make(map[*html.Node]*goja.Object),
		nodes:   make(map[*goja.Object]*html.Node),
	}
}

func (p *page) install() error {
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := p.vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	con := p.vm.NewObject()
	for method, level := range map[string]console.Level{
		"log":   console.LevelInfo,
		"info":  console.LevelInfo,
		"debug": console.LevelInfo,
		"warn":  console.LevelWarn,
		"error": console.LevelError,
	} {
		if err := con.Set(method, p.consoleFunc(level)); err != nil {
			return err
		}
	}

	doc := p.vm.NewObject()
	_ = doc.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		return p.wrap(findByID(p.root, call.Argument(0).String()))
	})
	_ = doc.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		matches := query(p.root, call.Argument(0).String(), true)
		if len(matches) == 0 {
			return goja.Null()
		}
		return p.wrap(matches[0])
	})
	_ = doc.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		matches := query(p.root, call.Argument(0).String(), false)
		list := make([]interface{}, len(matches))
		for i, n := range matches {
			list[i] = p.wrap(n)
		}
		return p.vm.NewArray(list...)
	})
	_ = doc.Set("createElement", func(call goja.FunctionCall) goja.Value {
		tag := strings.ToLower(call.Argument(0).String())
		return p.wrap(&html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))})
	})
	_ = doc.Set("addEventListener", noop)
	_ = doc.Set("body", p.wrap(findTag(p.root, "body")))
	_ = doc.Set("head", p.wrap(findTag(p.root, "head")))
	_ = doc.Set("documentElement", p.wrap(findTag(p.root, "html")))

	window := p.vm.GlobalObject()
	globals := map[string]interface{}{
		"console":          con,
		"document":         doc,
		"window":           window,
		"setTimeout":       p.timer,
		"setInterval":      p.timer,
		"clearTimeout":     noop,
		"clearInterval":    noop,
		"addEventListener": noop,
		"alert": func(call goja.FunctionCall) goja.Value {
			p.log(console.LevelInfo, "alert: "+call.Argument(0).String())
			return goja.Undefined()
		},
	}
	for name, v := range globals {
		if err := p.vm.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

func noop(goja.FunctionCall) goja.Value { return goja.Undefined() }

// timer hands out ids for callbacks that never run.
func (p *page) timer(goja.FunctionCall) goja.Value {
	p.timerID++
	return p.vm.ToValue(p.timerID)
}

func (p *page) consoleFunc(level console.Level) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		p.log(level, strings.Join(parts, " "))
		return goja.Undefined()
	}
}

func (p *page) log(level console.Level, msg string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.logs = append(p.logs, console.LogEntry{
		Timestamp: p.clock.Now(),
		Level:     level,
		Message:   msg,
	})
}

func (p *page) entries() []console.LogEntry {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	out := make([]console.LogEntry, len(p.logs))
	copy(out, p.logs)
	return out
}

// wrap returns the script-side object for n, creating it once.
func (p *page) wrap(n *html.Node) goja.Value {
	if n == nil {
		return goja.Null()
	}
	if obj, ok := p.objects[n]; ok {
		return obj
	}

	obj := p.vm.NewObject()
	p.objects[n] = obj
	p.nodes[obj] = n

	p.accessor(obj, "innerHTML",
		func() string { return innerHTML(n) },
		func(v string) { setInnerHTML(n, v) })
	p.accessor(obj, "textContent",
		func() string { return textContent(n) },
		func(v string) { setTextContent(n, v) })
	p.accessor(obj, "id",
		func() string { v, _ := attr(n, "id"); return v },
		func(v string) { setAttr(n, "id", v) })
	p.accessor(obj, "className",
		func() string { v, _ := attr(n, "class"); return v },
		func(v string) { setAttr(n, "class", v) })

	_ = obj.Set("tagName", strings.ToUpper(n.Data))
	_ = obj.Set("style", p.vm.NewObject())
	_ = obj.Set("getAttribute", func(call goja.FunctionCall) goja.Value {
		v, ok := attr(n, call.Argument(0).String())
		if !ok {
			return goja.Null()
		}
		return p.vm.ToValue(v)
	})
	_ = obj.Set("setAttribute", func(call goja.FunctionCall) goja.Value {
		setAttr(n, call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	_ = obj.Set("appendChild", func(call goja.FunctionCall) goja.Value {
		child, ok := call.Argument(0).(*goja.Object)
		if !ok {
			return goja.Undefined()
		}
		if cn, ok := p.nodes[child]; ok {
			if cn.Parent != nil {
				cn.Parent.RemoveChild(cn)
			}
			n.AppendChild(cn)
		}
		return child
	})
	_ = obj.Set("remove", func(goja.FunctionCall) goja.Value {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return goja.Undefined()
	})
	_ = obj.Set("addEventListener", noop)
	return obj
}

func (p *page) accessor(obj *goja.Object, name string, get func() string, set func(string)) {
	getter := p.vm.ToValue(func(goja.FunctionCall) goja.Value {
		return p.vm.ToValue(get())
	})
	setter := p.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		set(call.Argument(0).String())
		return goja.Undefined()
	})
	_ = obj.DefineAccessorProperty(name, getter, setter, goja.FLAG_TRUE, goja.FLAG_TRUE)
}
