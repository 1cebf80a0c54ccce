package mocks

import "context"

// GraphStore is a mock implementation of ports.GraphStore.
type GraphStore struct {
	Err error

	ExecuteCallCount int
	Statements       []string
}

// Execute records the statements.
func (m *GraphStore) Execute(ctx context.Context, statements []string) error {
	m.ExecuteCallCount++
	m.Statements = append(m.Statements, statements...)
	return m.Err
}

// TripleStore is a mock implementation of ports.TripleStore.
type TripleStore struct {
	Err error

	Uploads     int
	ContentType string
	Data        []byte
	Replaced    bool
}

// Upload records the last document.
func (m *TripleStore) Upload(ctx context.Context, contentType string, data []byte, replace bool) error {
	m.Uploads++
	m.ContentType = contentType
	m.Data = data
	m.Replaced = replace
	return m.Err
}
