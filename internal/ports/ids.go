package ports

// IDGenerator yields identifiers that are never handed out twice by the same generator.
type IDGenerator interface {
	NewID() string
}
