// Package diagram implements the element tree of a network diagram.
//
// Every element follows the same lifecycle:
//
//  1. Build: the constructor resolves styles and measures labels. Geometry
//     is provisional and never depends on siblings.
//  2. Normalize: [Service.Normalize] recomputes sizes bottom-up. Children
//     report their natural size, the parent places them relative to its own
//     origin and grows to enclose them, never shrinking below the props
//     minimum. Normalizing twice yields the same geometry.
//  3. Position: the layout engine moves top-level services with
//     [Service.SetPosition].
//  4. Emit: [Service.Emit] and [Arrow.Emit] append the element's XML cells
//     to the diagram root in a fixed order.
//
// Geometry lives in plain [geometry.Rect] fields; XML is produced only at
// emit time, so nothing ever reads sizes back out of serialized fragments.
//
// # Element Kinds
//
//   - [Service]: one box per service with its label, status badge and images
//   - [Container]: the rx or tx channel group of one connector
//   - [Topic]: one channel inside a container
//   - [Connector]: a badge naming a destination service
//   - [Arrow]: an edge between two elements, see [ArrowKind]
//
// # Identifiers
//
// All ids and tags are derived from semantic keys through package ids, e.g.
// "s#orders#topic#kafka#tx#orders.created" for a topic, so that arrows and
// the interactive toggle actions can reference elements by key.
package diagram
