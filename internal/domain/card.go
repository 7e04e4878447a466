package domain

import "time"

// UserID identifies a registered user.
type UserID int64

// FlashcardID identifies a stored flashcard.
type FlashcardID int64

// Source records how a flashcard entered the system.
type Source string

const (
	SourceManual Source = "manual"
	SourceAI     Source = "ai"
	SourceImport Source = "import"
)

// Flashcard is a single question-answer pair owned by a user.
type Flashcard struct {
	ID           FlashcardID
	UserID       UserID
	Question     string
	Answer       string
	Source       Source
	GenerationID string // empty unless the card came from an AI generation
	Hash         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Draft is a question-answer pair that has not been stored yet.
// Generators and the markdown parser produce drafts.
type Draft struct {
	Question string
	Answer   string
}

// User is an account that owns flashcards.
type User struct {
	ID           UserID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// GenerationStatus is the lifecycle state of an AI generation request.
type GenerationStatus string

const (
	GenerationCompleted GenerationStatus = "completed"
	GenerationFailed    GenerationStatus = "failed"
)

// Generation records one call to a flashcard generator.
type Generation struct {
	ID             string
	UserID         UserID
	Model          string
	SourceWords    int
	GeneratedCount int
	AcceptedCount  int
	TokensUsed     int
	CostUSD        float64
	Status         GenerationStatus
	Error          string
	CreatedAt      time.Time
}
