//go:build !hw

package platform

// DefaultKind is the sink a plain build reports through.
const DefaultKind = KindHost
