package client

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"estatecrm/internal/models"
)

// DefaultCacheTTL — свежесть снапшота.
const DefaultCacheTTL = 5 * time.Minute

// Collections — три коллекции, которыми живёт всё приложение.
type Collections struct {
	Leads      []models.Lead       `json:"leads"`
	Properties []models.Property   `json:"properties"`
	Team       []models.TeamMember `json:"team"`
}

// emptyCollections — не-nil списки: потребитель никогда не должен
// держать nil вместо коллекции.
func emptyCollections() Collections {
	return Collections{
		Leads:      []models.Lead{},
		Properties: []models.Property{},
		Team:       []models.TeamMember{},
	}
}

// Cache — одно-слотовый кэш последнего удачного снапшота. Никакой
// по-ключевой инвалидации: единственный потребитель — сам Store.
// Рядом лежит зеркало на диске, чтобы рестарт процесса не начинался
// с пустого состояния (аналог localStorage-зеркала SPA).
type Cache struct {
	mu        sync.Mutex
	data      Collections
	fetchedAt time.Time
	valid     bool

	ttl        time.Duration
	mirrorPath string
	now        func() time.Time // подменяется в тестах
}

type cacheMirror struct {
	Data      Collections `json:"data"`
	FetchedAt time.Time   `json:"fetched_at"`
}

func NewCache(stateDir string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &Cache{
		ttl:        ttl,
		mirrorPath: filepath.Join(stateDir, "cache.json"),
		now:        time.Now,
	}
	c.restoreMirror()
	return c
}

func (c *Cache) restoreMirror() {
	raw, err := os.ReadFile(c.mirrorPath)
	if err != nil {
		return
	}
	var m cacheMirror
	if err := json.Unmarshal(raw, &m); err != nil {
		log.Printf("[cache] corrupt mirror, ignoring: %v", err)
		return
	}
	// протухшее зеркало не воскрешаем
	if c.now().Sub(m.FetchedAt) >= c.ttl {
		return
	}
	c.data = m.Data
	c.fetchedAt = m.FetchedAt
	c.valid = true
}

// Read возвращает снапшот, только пока он валиден и не старше TTL.
func (c *Cache) Read() (Collections, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid || c.now().Sub(c.fetchedAt) >= c.ttl {
		return Collections{}, false
	}
	return c.data, true
}

// Write заменяет снапшот целиком; данные, отметка времени и флаг
// валидности меняются под одной блокировкой.
func (c *Cache) Write(snap Collections) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = snap
	c.fetchedAt = c.now()
	c.valid = true
	c.persistMirror()
}

// Invalidate чистит слот и зеркало: force-refresh не должен уметь
// воскреснуть из файла после рестарта.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = Collections{}
	c.fetchedAt = time.Time{}
	c.valid = false
	if err := os.Remove(c.mirrorPath); err != nil && !os.IsNotExist(err) {
		log.Printf("[cache] mirror remove failed: %v", err)
	}
}

func (c *Cache) persistMirror() {
	if err := os.MkdirAll(filepath.Dir(c.mirrorPath), 0o755); err != nil {
		log.Printf("[cache] cannot create state dir: %v", err)
		return
	}
	raw, err := json.Marshal(cacheMirror{Data: c.data, FetchedAt: c.fetchedAt})
	if err != nil {
		log.Printf("[cache] mirror marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(c.mirrorPath, raw, 0o644); err != nil {
		log.Printf("[cache] mirror write failed: %v", err)
	}
}
