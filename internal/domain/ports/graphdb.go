package ports

import "context"

// GraphStore executes property-graph statements against a graph database.
type GraphStore interface {
	// Execute runs the statements in order inside one write transaction.
	Execute(ctx context.Context, statements []string) error
}

// TripleStore receives RDF documents through the SPARQL Graph Store
// protocol.
type TripleStore interface {
	// Upload sends data of the given media type. replace swaps out the
	// target graph instead of adding to it.
	Upload(ctx context.Context, contentType string, data []byte, replace bool) error
}
