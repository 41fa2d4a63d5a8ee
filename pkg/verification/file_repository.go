package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileRegistrationRepository implements RegistrationRepository using
// file-based storage. Intended for development and tests.
type FileRegistrationRepository struct {
	dataDir string
	records map[string]*VerificationRecord // Key: token
	mutex   sync.RWMutex
}

// registrationData represents the structure of data stored in the JSON file
type registrationData struct {
	Records []*VerificationRecord `json:"records"`
}

// NewFileRegistrationRepository creates a new file-based registration repository
func NewFileRegistrationRepository(dataDir string) (*FileRegistrationRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileRegistrationRepository{
		dataDir: dataDir,
		records: make(map[string]*VerificationRecord),
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

// Create inserts a new unverified registration record. Keying the map by
// token gives the same uniqueness guarantee as the database constraint.
func (r *FileRegistrationRepository) Create(ctx context.Context, payload RegistrationPayload, token string, expiresAt time.Time) (*VerificationRecord, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.records[token]; exists {
		return nil, ErrDuplicateToken
	}

	rec := &VerificationRecord{
		ID:         uuid.New(),
		Token:      token,
		Email:      payload.Email,
		Name:       payload.Name,
		Subscribed: payload.Subscribed,
		SourceIP:   payload.SourceIP,
		Verified:   false,
		CreatedAt:  time.Now().UTC(),
		ExpiresAt:  expiresAt,
	}

	r.records[token] = rec

	if err := r.save(); err != nil {
		delete(r.records, token)
		return nil, fmt.Errorf("failed to save: %w", err)
	}

	recCopy := *rec
	return &recCopy, nil
}

// GetByToken retrieves a record by its token, verified or not.
func (r *FileRegistrationRepository) GetByToken(ctx context.Context, token string) (*VerificationRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	rec, exists := r.records[token]
	if !exists || rec.DeletedAt != nil {
		return nil, ErrRecordNotFound
	}

	recCopy := *rec
	return &recCopy, nil
}

// MarkVerified flips the record under the write lock, mirroring the
// conditional update of the database repository.
func (r *FileRegistrationRepository) MarkVerified(ctx context.Context, token string) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	rec, exists := r.records[token]
	if !exists || rec.DeletedAt != nil {
		return false, nil
	}

	now := time.Now().UTC()
	if rec.Verified || now.After(rec.ExpiresAt) {
		return false, nil
	}

	rec.Verified = true
	rec.VerifiedAt = &now

	if err := r.save(); err != nil {
		rec.Verified = false
		rec.VerifiedAt = nil
		return false, fmt.Errorf("failed to save: %w", err)
	}

	return true, nil
}

// CountRecentByEmail counts recent registrations for resend limiting.
func (r *FileRegistrationRepository) CountRecentByEmail(ctx context.Context, email string, since time.Time) (int64, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	count := int64(0)
	for _, rec := range r.records {
		if rec.Email == email && rec.CreatedAt.After(since) && rec.DeletedAt == nil {
			count++
		}
	}

	return count, nil
}

// CleanupExpired soft deletes expired unverified records.
func (r *FileRegistrationRepository) CleanupExpired(ctx context.Context) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now().UTC()
	for _, rec := range r.records {
		if !rec.Verified && rec.DeletedAt == nil && now.After(rec.ExpiresAt) {
			deletedAt := now
			rec.DeletedAt = &deletedAt
		}
	}

	return r.save()
}

// load reads registration data from file
func (r *FileRegistrationRepository) load() error {
	filePath := filepath.Join(r.dataDir, "registrations.json")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var regData registrationData
	if err := json.Unmarshal(data, &regData); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	r.records = make(map[string]*VerificationRecord)
	for _, rec := range regData.Records {
		r.records[rec.Token] = rec
	}

	return nil
}

// save writes registration data to file atomically
func (r *FileRegistrationRepository) save() error {
	records := make([]*VerificationRecord, 0, len(r.records))
	for _, rec := range r.records {
		records = append(records, rec)
	}

	data := registrationData{
		Records: records,
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	// Write to temp file first
	tempFile := filepath.Join(r.dataDir, "registrations.json.tmp")
	if err := os.WriteFile(tempFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Atomic rename
	finalFile := filepath.Join(r.dataDir, "registrations.json")
	if err := os.Rename(tempFile, finalFile); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}
