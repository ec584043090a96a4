// Package protocol defines the chunk protocol spoken between the streaming
// renderer and the client reconciler.
//
// A streamed response is a sequence of chunks. Sync chunks are ordinary
// markup. A Placeholder chunk marks a slot whose content is still being
// computed, and a Content chunk later delivers that content out of band:
//
//	<div id="async1" data-hs-slot>Loading…</div>
//	<script data-hs-boot="async1">(self.__hs_q=self.__hs_q||[]).push("async1")</script>
//	...
//	<template id="async1_content" data-hs-content><p>Ready</p><!--end--></template>
//
// The trailing <!--end--> comment is the sentinel: a reconciler must not
// touch the content until the sentinel has been parsed, because the browser
// may parse a large template across several network reads.
//
// # Wire Format
//
// Transports that carry discrete messages (WebSocket) send chunks as binary
// frames with a 4-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// The first frame of a chunk carries [uvarint slot length][slot][html].
// Markup beyond MaxPayloadSize continues in further frames of the same
// type carrying only html; the last frame of a chunk has FlagFinal set.
// FrameEnd closes the stream and FrameError aborts it with a message.
package protocol
