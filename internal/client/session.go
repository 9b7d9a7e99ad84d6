package client

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"

	"estatecrm/internal/models"
)

// Session — аналог localStorage SPA: token + user в json-файле,
// восстанавливается на старте, чистится при logout и любом 401.
type Session struct {
	mu   sync.Mutex
	path string

	token string
	user  *models.User
}

type sessionFile struct {
	Token string       `json:"token"`
	User  *models.User `json:"user,omitempty"`
}

func NewSession(stateDir string) *Session {
	s := &Session{path: filepath.Join(stateDir, "session.json")}
	s.restore()
	return s
}

func (s *Session) restore() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return // нет файла — нет сессии
	}
	var f sessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		log.Printf("[session] corrupt session file, ignoring: %v", err)
		return
	}
	s.token = f.Token
	s.user = f.User
}

func (s *Session) Set(token string, user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		log.Printf("[session] cannot create state dir: %v", err)
		return
	}
	data, _ := json.Marshal(sessionFile{Token: token, User: user})
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		log.Printf("[session] persist failed: %v", err)
	}
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		log.Printf("[session] remove failed: %v", err)
	}
}
