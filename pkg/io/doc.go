// Package io reads and writes the resolved service graph document.
//
// # Overview
//
// The document is the hand-off point between whatever merges and validates
// the service specifications and the diagram compiler. It can be written as
// YAML or JSON; both map onto the same structure:
//
//	categories: [core, edge]
//	hidden_modules: [external]
//	services:
//	  - name: kafka
//	    category: core
//	    broker: kafka
//	  - name: orders
//	    category: core
//	    module: backend
//	    status: ready
//	    connect_to:
//	      - name: kafka
//	        direction: tx
//	        topics:
//	          - name: orders.created
//	            description: emitted after checkout
//
// # Service Fields
//
// Required:
//   - name: unique service name, used in diagram keys and output paths
//
// Optional:
//   - full_name, category, module, language, description, owners
//   - broker: "kafka", "activemq" or "rabbitmq"
//   - status: ready, develop, decommission, deprecated (unknown otherwise)
//   - product: attaches a wiki link to the service label
//   - unavailable: keeps the service out of every diagram
//   - queues: declared rabbitmq queues with their exchange bindings
//
// # Connectors
//
// Each connect_to entry names a destination and a direction ("rx" or "tx").
// The channel kind is inferred once from which collection is present:
// topics, queues, exchanges or celery_tasks. An entry without any of them is
// a plain connection and carries no channels.
//
// # Import
//
// Use [ImportFile] to read a document from a path (the extension selects JSON
// or YAML), or [Read] for any io.Reader. Both validate the document and
// return a frozen [graph.Graph].
//
// # Export
//
// [WriteJSON] writes a graph back as a JSON document, and [WriteFileAtomic]
// replaces a file without leaving partial output behind.
package io
