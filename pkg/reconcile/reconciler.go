package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/vango-dev/spanrender/pkg/dom"
	"github.com/vango-dev/spanrender/pkg/protocol"
	"golang.org/x/net/html"
)

type slotState uint8

const (
	stateAnnounced slotState = iota + 1 // placeholder seen, no content yet
	stateWorking                        // content seen, waiting or morphing
	stateResolved
	stateFailed
)

// Reconciler splices streamed content chunks into their placeholders.
//
// It subscribes to a Document and reacts to inserted
// <template data-hs-content> elements. For each slot it waits for the
// placeholder and for the content's sentinel, morphs the content into the
// placeholder, removes the scaffolding and activates behaviors on the new
// nodes. Each slot is reconciled at most once.
type Reconciler struct {
	doc      *dom.Document
	cfg      *config
	registry *dom.Registry

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	slots  map[string]slotState
	errs   []error
	active int
	idle   chan struct{} // closed while active == 0
	wake   chan struct{} // closed on every mutation batch
	unsub  func()
}

// New returns a reconciler for doc. Call Start to begin observing it.
func New(doc *dom.Document, opts ...Option) *Reconciler {
	cfg := newConfig(opts)
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	return &Reconciler{
		doc:      doc,
		cfg:      cfg,
		registry: dom.NewRegistry(cfg.behaviors...),
		ctx:      ctx,
		cancel:   cancel,
		slots:    make(map[string]slotState),
		idle:     idle,
		wake:     make(chan struct{}),
	}
}

// Registry returns the behavior registry, so callers can define more
// behaviors after construction.
func (r *Reconciler) Registry() *dom.Registry { return r.registry }

// Start subscribes to the document and picks up any placeholders and
// content already in it. The returned function stops the reconciler,
// abandoning slots still waiting, and blocks until their goroutines exit.
func (r *Reconciler) Start() (stop func()) {
	r.mu.Lock()
	if r.unsub != nil {
		r.mu.Unlock()
		return r.stop
	}
	r.unsub = r.doc.Subscribe(r.observe)
	r.mu.Unlock()

	var found []*html.Node
	r.doc.View(func(t dom.Tree) {
		found = t.QueryAll(t.Root(), dom.Or(dom.HasAttr(protocol.BootAttr), dom.HasAttr(protocol.ContentAttr)))
	})
	r.consider(found)

	if err := r.doc.Mutate(func(m *dom.Mutator) error {
		return r.registry.Scan(m, m.Root())
	}); err != nil {
		r.cfg.logger.Warn("behavior activation failed", "error", err)
	}

	return r.stop
}

func (r *Reconciler) stop() {
	r.mu.Lock()
	unsub := r.unsub
	r.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	r.cancel()
	_ = r.Wait(context.Background())
}

// Resolve starts reconciling slot. It reports false when the slot is
// already being reconciled or is done, in which case nothing happens.
func (r *Reconciler) Resolve(slot string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.slots[slot] {
	case stateWorking, stateResolved, stateFailed:
		return false
	case stateAnnounced:
		// Already waiting since the placeholder was announced.
		r.slots[slot] = stateWorking
		return true
	}
	r.slots[slot] = stateWorking
	r.spawn(slot)
	return true
}

// spawn starts the goroutine reconciling slot. r.mu must be held.
func (r *Reconciler) spawn(slot string) {
	if r.active == 0 {
		r.idle = make(chan struct{})
	}
	r.active++
	go r.reconcile(slot)
}

// Wait blocks until every slot seen so far is reconciled or has failed,
// and returns the errors of every slot that failed. A placeholder whose
// content never arrives fails after the timeout.
func (r *Reconciler) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		if r.active == 0 {
			err := errors.Join(r.errs...)
			r.mu.Unlock()
			return err
		}
		idle := r.idle
		r.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Pending returns the slots that have a placeholder or content in the
// document but are not reconciled yet, sorted.
func (r *Reconciler) Pending() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for slot, st := range r.slots {
		if st == stateAnnounced || st == stateWorking {
			out = append(out, slot)
		}
	}
	slices.Sort(out)
	return out
}

// Resolved reports whether slot has been reconciled successfully.
func (r *Reconciler) Resolved(slot string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slots[slot] == stateResolved
}

// observe is the document subscription.
func (r *Reconciler) observe(records []dom.MutationRecord) {
	r.mu.Lock()
	close(r.wake)
	r.wake = make(chan struct{})
	r.mu.Unlock()

	var added []*html.Node
	for _, rec := range records {
		if rec.Type != dom.MutationChildList {
			continue
		}
		added = append(added, rec.Added...)
	}
	if len(added) == 0 {
		return
	}

	var found []*html.Node
	r.doc.View(func(t dom.Tree) {
		for _, n := range added {
			if n.Parent == nil {
				continue
			}
			found = append(found, t.QueryAll(n, dom.Or(dom.HasAttr(protocol.BootAttr), dom.HasAttr(protocol.ContentAttr)))...)
		}
	})
	r.consider(found)
}

func (r *Reconciler) consider(nodes []*html.Node) {
	for _, n := range nodes {
		if slot, ok := dom.Attr(n, protocol.BootAttr); ok {
			r.announce(slot)
			continue
		}
		id, _ := dom.Attr(n, "id")
		if slot, ok := protocol.SlotFromContentID(id); ok {
			r.Resolve(slot)
		}
	}
}

func (r *Reconciler) announce(slot string) {
	if !protocol.ValidSlotID(slot) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slots[slot] != 0 {
		return
	}
	r.slots[slot] = stateAnnounced
	r.spawn(slot)
}

func (r *Reconciler) reconcile(slot string) {
	err := r.run(slot)

	r.mu.Lock()
	if err != nil {
		r.slots[slot] = stateFailed
		r.errs = append(r.errs, err)
	} else {
		r.slots[slot] = stateResolved
	}
	r.mu.Unlock()

	switch {
	case err == nil:
		r.cfg.logger.Debug("slot reconciled", "slot", slot)
	case errors.Is(err, ErrStopped):
		r.cfg.logger.Debug("slot abandoned", "slot", slot)
	default:
		r.cfg.logger.Error("slot not reconciled", "slot", slot, "error", err)
		if r.cfg.onError != nil {
			r.cfg.onError(slot, err)
		}
	}

	r.mu.Lock()
	r.active--
	if r.active == 0 {
		close(r.idle)
	}
	r.mu.Unlock()
}

func (r *Reconciler) run(slot string) error {
	contentID := protocol.ContentID(slot)

	if err := r.waitFor(slot); err != nil {
		return err
	}

	return r.doc.Mutate(func(m *dom.Mutator) error {
		ph := placeholder(m.Tree, slot)
		tpl := m.GetElementByID(contentID)
		if ph == nil || tpl == nil {
			return fmt.Errorf("slot %s: %w", slot, ErrSlotRemoved)
		}
		end := sentinel(tpl)
		if end == nil {
			return fmt.Errorf("slot %s: %w", slot, ErrSlotRemoved)
		}
		if err := m.Remove(end); err != nil {
			return err
		}

		content := dom.Clone(tpl)
		dom.MorphChildren(m, ph, content)
		moved, err := m.Unwrap(ph)
		if err != nil {
			return err
		}
		if err := m.Remove(tpl); err != nil {
			return err
		}
		for _, boot := range m.QueryAll(m.Root(), dom.AttrEquals(protocol.BootAttr, slot)) {
			_ = m.Remove(boot)
		}

		var errs []error
		for _, n := range moved {
			if n.Parent == nil {
				continue
			}
			if err := r.registry.Scan(m, n); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			r.cfg.logger.Warn("behavior activation failed", "slot", slot, "error", err)
		}
		return nil
	})
}

// waitFor polls until slot is complete, the timeout expires or the
// reconciler stops. Document mutations wake it early. The timeout covers
// the whole wait, from the first sighting of the slot.
func (r *Reconciler) waitFor(slot string) error {
	wake := r.wakeChan()
	missing, ok := r.check(slot)
	if ok {
		return nil
	}

	timer := r.cfg.clock.NewTimer(r.cfg.timeout)
	defer timer.Stop()
	ticker := r.cfg.clock.NewTicker(r.cfg.interval)
	defer ticker.Stop()

	for {
		select {
		case <-wake:
		case <-ticker.Chan():
		case <-timer.Chan():
			if missing, ok = r.check(slot); ok {
				return nil
			}
			return &TimeoutError{SlotID: slot, Phase: missing, Timeout: r.cfg.timeout}
		case <-r.ctx.Done():
			return fmt.Errorf("slot %s: %w", slot, ErrStopped)
		}

		wake = r.wakeChan()
		if missing, ok = r.check(slot); ok {
			return nil
		}
	}
}

// check reports whether slot has its placeholder and its complete content
// in the document, or else what is missing first.
func (r *Reconciler) check(slot string) (missing Phase, ok bool) {
	r.doc.View(func(t dom.Tree) {
		if placeholder(t, slot) == nil {
			missing = PhasePlaceholder
			return
		}
		tpl := t.GetElementByID(protocol.ContentID(slot))
		switch {
		case tpl == nil:
			missing = PhaseArrival
		case sentinel(tpl) == nil:
			missing = PhaseContent
		default:
			ok = true
		}
	})
	return missing, ok
}

func (r *Reconciler) wakeChan() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wake
}

// placeholder returns the live placeholder element for slot.
func placeholder(t dom.Tree, slot string) *html.Node {
	n := t.GetElementByID(slot)
	if _, ok := dom.Attr(n, protocol.SlotAttr); !ok {
		return nil
	}
	return n
}

// sentinel returns the comment marking the end of a content template.
func sentinel(tpl *html.Node) *html.Node {
	for c := tpl.LastChild; c != nil; c = c.PrevSibling {
		if c.Type == html.CommentNode && c.Data == protocol.Sentinel {
			return c
		}
	}
	return nil
}
