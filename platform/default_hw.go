//go:build hw

package platform

// DefaultKind is the sink a -tags hw build reports through.
const DefaultKind = KindMMIO
