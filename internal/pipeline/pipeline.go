// Package pipeline runs tamper's stages (load, discover, fingerprint, bind,
// render, write) over a shared Context.
package pipeline

// Processor is one stage.
type Processor interface {
	Process(ctx *Context) *Context
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx *Context) *Context

func (f ProcessorFunc) Process(ctx *Context) *Context { return f(ctx) }

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline.
func (p *Pipeline) Run(initialCtx *Context) *Context {
	ctx := initialCtx
	for _, processor := range p.processors {
		if ctx.Halted {
			break
		}
		ctx = processor.Process(ctx)
		// Stages keep going after errors so one run reports every broken
		// proxy; only Halt stops the chain.
	}
	return ctx
}

// Generate returns the stages of `tamper gen`.
func Generate() *Pipeline {
	return New(
		ProcessorFunc(loadProxies),
		ProcessorFunc(discover),
		ProcessorFunc(fingerprint),
		ProcessorFunc(bindProxies),
		ProcessorFunc(render),
		ProcessorFunc(write),
	)
}

// Check returns the stages of `tamper check`: everything up to rendering,
// nothing is written and the cache is ignored.
func Check() *Pipeline {
	return New(
		ProcessorFunc(loadProxies),
		ProcessorFunc(discover),
		ProcessorFunc(bindProxies),
		ProcessorFunc(render),
	)
}

// Expose returns the stages of `tamper expose`.
func Expose() *Pipeline {
	return New(
		ProcessorFunc(exposeTables),
		ProcessorFunc(write),
	)
}
