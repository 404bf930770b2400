package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Story() StoryRepository
	Review() ReviewRepository

	// Close releases the underlying store connection
	Close() error
}
