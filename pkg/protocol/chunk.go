package protocol

import (
	"strings"
)

// ChunkKind identifies what a chunk carries.
type ChunkKind uint8

const (
	ChunkSync        ChunkKind = iota + 1 // Markup that needs no reconciliation
	ChunkPlaceholder                      // Slot markup awaiting content
	ChunkContent                          // Out-of-band content for a slot
)

// String returns the string representation of the chunk kind.
func (k ChunkKind) String() string {
	switch k {
	case ChunkSync:
		return "Sync"
	case ChunkPlaceholder:
		return "Placeholder"
	case ChunkContent:
		return "Content"
	default:
		return "Unknown"
	}
}

// Markup conventions shared with the reconcilers.
const (
	SlotAttr      = "data-hs-slot"
	BootAttr      = "data-hs-boot"
	ContentAttr   = "data-hs-content"
	ContentSuffix = "_content"
	Sentinel      = "end"
	QueueVar      = "__hs_q"

	// MaxSlotIDLength bounds the length of a slot id.
	MaxSlotIDLength = 128
)

// Chunk is one unit of streamed output. HTML holds the complete markup to
// write for the chunk; SlotID is empty for sync chunks.
type Chunk struct {
	Kind   ChunkKind
	SlotID string
	HTML   string
}

// Bytes returns the chunk's markup.
func (c Chunk) Bytes() []byte {
	return []byte(c.HTML)
}

// Sync returns a chunk of plain markup.
func Sync(markup string) Chunk {
	return Chunk{Kind: ChunkSync, HTML: markup}
}

// Placeholder returns the chunk marking slot, showing loading until the
// slot's content arrives.
func Placeholder(slot, loading string) Chunk {
	return Chunk{Kind: ChunkPlaceholder, SlotID: slot, HTML: PlaceholderMarkup(slot, loading)}
}

// Content returns the chunk delivering markup for slot.
func Content(slot, markup string) Chunk {
	return Chunk{Kind: ChunkContent, SlotID: slot, HTML: ContentMarkup(slot, markup)}
}

// PlaceholderMarkup renders the placeholder element for slot followed by
// the boot script that queues the slot for the client reconciler.
// slot must satisfy ValidSlotID.
func PlaceholderMarkup(slot, loading string) string {
	var b strings.Builder
	b.Grow(len(slot)*2 + len(loading) + 112)
	b.WriteString(`<div id="`)
	b.WriteString(slot)
	b.WriteString(`" ` + SlotAttr + `>`)
	b.WriteString(loading)
	b.WriteString(`</div><script ` + BootAttr + `="`)
	b.WriteString(slot)
	b.WriteString(`">(self.` + QueueVar + `=self.` + QueueVar + `||[]).push("`)
	b.WriteString(slot)
	b.WriteString(`")</script>`)
	return b.String()
}

// ContentMarkup renders the inert content container for slot, terminated
// by the sentinel comment.
func ContentMarkup(slot, markup string) string {
	var b strings.Builder
	b.Grow(len(slot) + len(markup) + 64)
	b.WriteString(`<template id="`)
	b.WriteString(ContentID(slot))
	b.WriteString(`" ` + ContentAttr + `>`)
	b.WriteString(markup)
	b.WriteString(`<!--` + Sentinel + `--></template>`)
	return b.String()
}

// ContentID returns the id of the content container for slot.
func ContentID(slot string) string {
	return slot + ContentSuffix
}

// IsContentID reports whether id names a content container.
func IsContentID(id string) bool {
	_, ok := SlotFromContentID(id)
	return ok
}

// SlotFromContentID returns the slot a content container id belongs to.
func SlotFromContentID(id string) (string, bool) {
	slot, ok := strings.CutSuffix(id, ContentSuffix)
	if !ok || !ValidSlotID(slot) {
		return "", false
	}
	return slot, true
}

// ValidSlotID reports whether s can be used as a slot id: a letter
// followed by letters, digits, '-' or '_', at most MaxSlotIDLength long.
// Such ids need no escaping in attributes or script strings.
func ValidSlotID(s string) bool {
	if s == "" || len(s) > MaxSlotIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '-' || c == '_'):
		default:
			return false
		}
	}
	return true
}
