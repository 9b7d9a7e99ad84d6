package client

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"estatecrm/internal/models"
)

// Store — клиентский слой данных CRM: кэш, синхронизация, оптимистичные
// мутации. Не глобальный синглтон: создаётся через New и передаётся
// зависимостью (см. Config), поэтому в тестах живёт против httptest.
type Store struct {
	api     *APIClient
	cache   *Cache
	session *Session

	mu      sync.Mutex
	state   Collections
	lastSeq uint64

	seqMu sync.Mutex
	seq   uint64
}

type Config struct {
	BaseURL  string
	StateDir string        // куда класть session.json и cache.json
	CacheTTL time.Duration // 0 = DefaultCacheTTL

	// вызывается после teardown сессии по 401 (редирект на логин и т.п.)
	OnAuthExpired func()
}

func New(cfg Config) (*Store, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve state dir: %w", err)
		}
		cfg.StateDir = filepath.Join(home, ".estatecrm")
	}

	session := NewSession(cfg.StateDir)
	s := &Store{
		cache:   NewCache(cfg.StateDir, cfg.CacheTTL),
		session: session,
		state:   emptyCollections(),
	}
	s.api = NewAPIClient(cfg.BaseURL, session, cfg.OnAuthExpired)
	return s, nil
}

// Close — парный teardown к New. Фоновых горутин у Store нет,
// состояние уже на диске; метод существует ради явного lifecycle.
func (s *Store) Close() error {
	return nil
}

// --- auth ---

// Login терпит обе исторические формы ответа:
// {success,data:{user,token}} и {success,user,token}.
func (s *Store) Login(email, password string) (*models.User, error) {
	body, err := s.api.Post("/auth/login", map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	var env struct {
		Success bool `json:"success"`
		Data    struct {
			User  *models.User `json:"user"`
			Token string       `json:"token"`
		} `json:"data"`
		User  *models.User `json:"user"`
		Token string       `json:"token"`
	}
	if err := decodeJSON(body, &env); err != nil {
		return nil, err
	}

	user, token := env.Data.User, env.Data.Token
	if token == "" {
		user, token = env.User, env.Token
	}
	if token == "" || user == nil {
		return nil, &ParseError{Err: fmt.Errorf("login response carries no token")}
	}

	s.session.Set(token, user)
	return user, nil
}

func (s *Store) Logout() {
	s.session.Clear()
}

func (s *Store) CurrentUser() *models.User {
	return s.session.User()
}

// --- sync controller ---

func (s *Store) takeSeq() uint64 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.seq++
	return s.seq
}

// publish применяет снапшот, только если он не старше уже применённого:
// перегонки параллельных refresh решаются монотонным номером, отстающий
// ответ молча выбрасывается.
func (s *Store) publish(seq uint64, cols Collections) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.lastSeq {
		log.Printf("[store] discarding stale sync result (seq %d < %d)", seq, s.lastSeq)
		return false
	}
	s.lastSeq = seq
	s.state = cols
	return true
}

// Load — трёхступенчатая загрузка: кэш → агрегат → три параллельных
// запроса по коллекциям. На полном провале состояние обнуляется
// (fail-safe: UI не должен держать неинициализированные структуры).
func (s *Store) Load(force bool) Collections {
	if force {
		s.cache.Invalidate()
	} else if snap, ok := s.cache.Read(); ok {
		// ноль сетевых вызовов
		s.publish(s.takeSeq(), snap)
		return s.Snapshot()
	}

	seq := s.takeSeq()
	cols, ok := s.fetchAll(force)
	if !ok {
		s.publish(seq, emptyCollections())
		return s.Snapshot()
	}
	if s.publish(seq, cols) {
		s.cache.Write(cols)
	}
	return s.Snapshot()
}

// Refresh — тот же конвейер, но фоновый: на полном провале рабочие
// данные не трогаем (асимметрия с Load сохранена намеренно).
func (s *Store) Refresh() {
	if snap, ok := s.cache.Read(); ok {
		s.publish(s.takeSeq(), snap)
		return
	}
	seq := s.takeSeq()
	cols, ok := s.fetchAll(false)
	if !ok {
		log.Printf("[store] refresh failed on all sources, keeping current state")
		return
	}
	if s.publish(seq, cols) {
		s.cache.Write(cols)
	}
}

// fetchAll: агрегат, при его провале — три независимых запроса
// параллельно. Второе значение false только если не ответил вообще
// никто (агрегат и все три коллекции).
func (s *Store) fetchAll(force bool) (Collections, bool) {
	if cols, err := s.fetchAggregate(force); err == nil {
		return cols, true
	} else {
		log.Printf("[store] aggregate fetch failed, falling back to per-collection: %v", err)
	}
	return s.fetchPerCollection()
}

func (s *Store) fetchAggregate(force bool) (Collections, error) {
	path := "/dashboard"
	if force {
		// cache-buster против промежуточных прокси
		path = fmt.Sprintf("/dashboard?_t=%d&force=true", time.Now().UnixMilli())
	}
	body, err := s.api.Get(path)
	if err != nil {
		return Collections{}, err
	}

	var env struct {
		Data struct {
			Leads      json.RawMessage `json:"leads"`
			Properties json.RawMessage `json:"properties"`
			Team       json.RawMessage `json:"team"`
		} `json:"data"`
	}
	if err := decodeJSON(body, &env); err != nil {
		return Collections{}, err
	}

	cols := emptyCollections()
	decodeList(env.Data.Leads, &cols.Leads)
	decodeList(env.Data.Properties, &cols.Properties)
	decodeList(env.Data.Team, &cols.Team)
	return cols, nil
}

// decodeList — отсутствующее/битое поле агрегата даёт пустой список,
// а не ошибку всей загрузки.
func decodeList[T any](raw json.RawMessage, dst *[]T) {
	if len(raw) == 0 {
		return
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Printf("[store] aggregate field undecodable, defaulting to empty: %v", err)
		return
	}
	if out != nil {
		*dst = out
	}
}

func (s *Store) fetchPerCollection() (Collections, bool) {
	cols := emptyCollections()
	okFlags := make([]bool, 3)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		okFlags[0] = fetchCollection(s.api, "/leads", "leads", &cols.Leads)
	}()
	go func() {
		defer wg.Done()
		okFlags[1] = fetchCollection(s.api, "/properties", "properties", &cols.Properties)
	}()
	go func() {
		defer wg.Done()
		okFlags[2] = fetchCollection(s.api, "/team", "team", &cols.Team)
	}()
	wg.Wait()

	// частичные данные лучше полного отказа
	return cols, okFlags[0] || okFlags[1] || okFlags[2]
}

// fetchCollection кладёт результат прямо в dst; провал одной коллекции
// не мешает остальным (dst остаётся пустым списком).
func fetchCollection[T any](api *APIClient, path, name string, dst *[]T) bool {
	body, err := api.Get(path)
	if err != nil {
		log.Printf("[store] %s fetch failed: %v", name, err)
		return false
	}
	var out []T
	if err := json.Unmarshal(Normalize(body, name), &out); err != nil {
		log.Printf("[store] %s undecodable: %v", name, err)
		return false
	}
	if out != nil {
		*dst = out
	}
	return true
}

// --- reads ---

// Snapshot — копия текущего состояния; потребитель не может поломать
// внутренние слайсы Store.
func (s *Store) Snapshot() Collections {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *Store) copyLocked() Collections {
	out := Collections{
		Leads:      make([]models.Lead, len(s.state.Leads)),
		Properties: make([]models.Property, len(s.state.Properties)),
		Team:       make([]models.TeamMember, len(s.state.Team)),
	}
	copy(out.Leads, s.state.Leads)
	copy(out.Properties, s.state.Properties)
	copy(out.Team, s.state.Team)
	return out
}

// ResolveAssignee — канонический ответ на «кто ведёт лида»: nil и есть
// осиротевшее назначение.
func (s *Store) ResolveAssignee(memberID int) *models.TeamMember {
	if memberID == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Team {
		if s.state.Team[i].ID == memberID {
			m := s.state.Team[i]
			return &m
		}
	}
	return nil
}

// ResolveProperty — nil означает «unknown property»; протухшие ссылки
// из interested_properties терпим, не падаем.
func (s *Store) ResolveProperty(propertyID int) *models.Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Properties {
		if s.state.Properties[i].ID == propertyID {
			p := s.state.Properties[i]
			return &p
		}
	}
	return nil
}

// OrphanedLeads — лиды, чей assigned_to_id больше никого не резолвит;
// кандидаты на переназначение.
func (s *Store) OrphanedLeads() []models.Lead {
	snap := s.Snapshot()
	members := make(map[int]struct{}, len(snap.Team))
	for _, m := range snap.Team {
		members[m.ID] = struct{}{}
	}

	var orphaned []models.Lead
	for _, lead := range snap.Leads {
		if lead.AssignedToID == 0 {
			continue
		}
		if _, ok := members[lead.AssignedToID]; !ok {
			orphaned = append(orphaned, lead)
		}
	}
	return orphaned
}

// WelcomeLink запрашивает готовый wa.me deep link для лида.
type WelcomeLink struct {
	WhatsAppURL string `json:"whatsappUrl"`
	LeadName    string `json:"leadName"`
	Agent       string `json:"agent"`
}

func (s *Store) WelcomeLink(leadID int) (*WelcomeLink, error) {
	body, err := s.api.Post(fmt.Sprintf("/whatsapp/welcome/%d", leadID), nil)
	if err != nil {
		return nil, err
	}
	var env struct {
		Data WelcomeLink `json:"data"`
	}
	if err := decodeJSON(body, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}
