package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// maxOptionSets bounds how many distinct option sets keep renderers. Width
// is part of the set, so every terminal resize adds one.
const maxOptionSets = 4

// rendererPool hands out glamour renderers per option set. A TermRenderer
// must not serve two Render calls at once, so each caller takes its own.
// When more than maxOptionSets are in use the least recently used set is
// dropped.
type rendererPool struct {
	mu    sync.Mutex
	pools map[Options]*sync.Pool
	order []Options // least recently used first
}

var globalPool = newRendererPool()

func newRendererPool() *rendererPool {
	return &rendererPool{pools: make(map[Options]*sync.Pool)}
}

func (p *rendererPool) poolFor(opts Options) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool, ok := p.pools[opts]
	if ok {
		p.touch(opts)
		return pool
	}

	pool = &sync.Pool{
		New: func() any {
			r, err := newTermRenderer(opts)
			if err != nil {
				return nil
			}
			return r
		},
	}
	p.pools[opts] = pool
	p.order = append(p.order, opts)
	for len(p.order) > maxOptionSets {
		delete(p.pools, p.order[0])
		p.order = p.order[1:]
	}
	return pool
}

// touch moves opts to the most recently used end
func (p *rendererPool) touch(opts Options) {
	for i, o := range p.order {
		if o == opts {
			p.order = append(append(p.order[:i:i], p.order[i+1:]...), opts)
			return
		}
	}
}

func (p *rendererPool) get(opts Options) (*glamour.TermRenderer, error) {
	if r, ok := p.poolFor(opts).Get().(*glamour.TermRenderer); ok && r != nil {
		return r, nil
	}
	return newTermRenderer(opts)
}

// put returns r to its set. Renderers of an evicted set are dropped.
func (p *rendererPool) put(opts Options, r *glamour.TermRenderer) {
	if r == nil {
		return
	}
	p.mu.Lock()
	pool, ok := p.pools[opts]
	p.mu.Unlock()
	if ok {
		pool.Put(r)
	}
}

func (p *rendererPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pools)
}

func newTermRenderer(opts Options) (*glamour.TermRenderer, error) {
	rendererOpts := []glamour.TermRendererOption{
		glamour.WithStylePath(opts.Style),
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if opts.EnableEmoji {
		rendererOpts = append(rendererOpts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		rendererOpts = append(rendererOpts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(rendererOpts...)
}
