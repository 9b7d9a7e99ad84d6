package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"

	"estatecrm/internal/models"
)

// Мутации оптимистичны неравномерно, и это осознанный контракт:
//   - create: ошибка пробрасывается, записи без серверного id не бывает;
//   - update: патч сливается в локальную запись, на сервер уходит ПОЛНАЯ
//     слитая запись (PUT пишет все колонки, частичное тело стёрло бы
//     неприсланные поля); при провале сервера слитая запись остаётся
//     локально, вызов "успешен" с точки зрения потребителя;
//   - delete: подтверждённый, запись исчезает только после 2xx.
// Исключение везде одно: ErrAuth пробрасывается всегда, после 401
// локальных правок не делаем.

// decodeRecord терпит и конверт {data: {...}}, и голый объект.
func decodeRecord[T any](body []byte, dst *T) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 && env.Data[0] == '{' {
		return decodeJSON(env.Data, dst)
	}
	return decodeJSON(body, dst)
}

// mergePatch — shallow-merge JSON-патча в запись. Ключи патча совпадают
// с json-тегами модели, поэтому гоняем через map.
func mergePatch[T any](rec T, patch map[string]any) (T, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return rec, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return rec, err
	}
	for k, v := range patch {
		m[k] = v
	}
	merged, err := json.Marshal(m)
	if err != nil {
		return rec, err
	}
	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return rec, err
	}
	return out, nil
}

// writeThrough — после удачной мутации кэш получает тот же снапшот,
// что и state, иначе следующий Load откатит правку на пятиминутку.
func (s *Store) writeThrough() {
	s.cache.Write(s.Snapshot())
}

// --- leads ---

func (s *Store) AddLead(lead models.Lead) (*models.Lead, error) {
	body, err := s.api.Post("/leads", lead)
	if err != nil {
		return nil, err
	}
	var created models.Lead
	if err := decodeRecord(body, &created); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.state.Leads = append(s.state.Leads, created)
	s.mu.Unlock()
	s.writeThrough()
	return &created, nil
}

func (s *Store) UpdateLead(id int, patch map[string]any) error {
	merged, err := s.mergedLead(id, patch)
	if err != nil {
		return err
	}

	body, err := s.api.Put(fmt.Sprintf("/leads/%d", id), merged)
	if err != nil {
		if errors.Is(err, ErrAuth) {
			return err
		}
		// сервер недоступен или отказал: слитая запись остаётся локально,
		// расхождение с бэкендом доживёт до следующей синхронизации
		log.Printf("[store] lead %d update failed, keeping merged record locally: %v", id, err)
		s.replaceLead(merged)
		return nil
	}

	var updated models.Lead
	if err := decodeRecord(body, &updated); err != nil {
		log.Printf("[store] lead %d update response undecodable, keeping merged record locally: %v", id, err)
		s.replaceLead(merged)
		return nil
	}
	s.replaceLead(updated)
	return nil
}

// mergedLead — текущая локальная запись + shallow-merge патча. Запись
// обязана быть в состоянии: без неё нечего сливать и PUT стёр бы поля.
func (s *Store) mergedLead(id int, patch map[string]any) (models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Leads {
		if s.state.Leads[i].ID != id {
			continue
		}
		merged, err := mergePatch(s.state.Leads[i], patch)
		if err != nil {
			return models.Lead{}, &ParseError{Err: err}
		}
		merged.ID = id
		return merged, nil
	}
	return models.Lead{}, fmt.Errorf("lead %d not found locally", id)
}

func (s *Store) replaceLead(lead models.Lead) {
	s.mu.Lock()
	replaced := false
	for i := range s.state.Leads {
		if s.state.Leads[i].ID == lead.ID {
			s.state.Leads[i] = lead
			replaced = true
			break
		}
	}
	if !replaced {
		s.state.Leads = append(s.state.Leads, lead)
	}
	s.mu.Unlock()
	s.writeThrough()
}

// DeleteLead подтверждённый: локально запись пропадает только после
// успешного ответа сервера.
func (s *Store) DeleteLead(id int) error {
	if _, err := s.api.Delete(fmt.Sprintf("/leads/%d", id)); err != nil {
		return err
	}
	s.mu.Lock()
	s.state.Leads = removeByID(s.state.Leads, id, func(l models.Lead) int { return l.ID })
	s.mu.Unlock()
	s.writeThrough()
	return nil
}

// UpdateLeadStatus — подтверждённый переход по пайплайну; недопустимый
// переход сервер вернёт как 409, локально его не имитируем.
func (s *Store) UpdateLeadStatus(id int, status string) error {
	body, err := s.api.Post(fmt.Sprintf("/leads/%d/status", id), map[string]string{"status": status})
	if err != nil {
		return err
	}
	var updated models.Lead
	if err := decodeRecord(body, &updated); err != nil {
		return err
	}
	s.replaceLead(updated)
	return nil
}

func (s *Store) AssignLead(id, memberID int) error {
	body, err := s.api.Post(fmt.Sprintf("/leads/%d/assign", id), map[string]int{"member_id": memberID})
	if err != nil {
		return err
	}
	var updated models.Lead
	if err := decodeRecord(body, &updated); err != nil {
		return err
	}
	s.replaceLead(updated)
	return nil
}

// --- lead ↔ property links ---

// LinkProperty связывает лида с объектом. Сервер возвращает итоговый
// список строкой (json-массив в строковом поле); при провале делаем
// локальное объединение множеств.
func (s *Store) LinkProperty(leadID, propertyID int) error {
	body, err := s.api.Post(fmt.Sprintf("/leads/%d/link-property/%d", leadID, propertyID), nil)
	if err != nil {
		if errors.Is(err, ErrAuth) {
			return err
		}
		log.Printf("[store] link lead %d ↔ property %d failed, applying locally: %v", leadID, propertyID, err)
		return s.setInterestedLocal(leadID, propertyID, true)
	}
	ids, err := interestedFromResponse(body)
	if err != nil {
		return err
	}
	return s.setInterested(leadID, ids)
}

func (s *Store) UnlinkProperty(leadID, propertyID int) error {
	body, err := s.api.Delete(fmt.Sprintf("/leads/%d/unlink-property/%d", leadID, propertyID))
	if err != nil {
		if errors.Is(err, ErrAuth) {
			return err
		}
		log.Printf("[store] unlink lead %d ↔ property %d failed, applying locally: %v", leadID, propertyID, err)
		return s.setInterestedLocal(leadID, propertyID, false)
	}
	ids, err := interestedFromResponse(body)
	if err != nil {
		return err
	}
	return s.setInterested(leadID, ids)
}

func interestedFromResponse(body []byte) ([]int, error) {
	var env struct {
		Data struct {
			Interested string `json:"interested_properties"`
		} `json:"data"`
	}
	if err := decodeJSON(body, &env); err != nil {
		return nil, err
	}
	if env.Data.Interested == "" {
		return []int{}, nil
	}
	var ids []int
	if err := json.Unmarshal([]byte(env.Data.Interested), &ids); err != nil {
		return nil, &ParseError{Err: err}
	}
	return ids, nil
}

func (s *Store) setInterested(leadID int, ids []int) error {
	s.mu.Lock()
	for i := range s.state.Leads {
		if s.state.Leads[i].ID == leadID {
			s.state.Leads[i].InterestedProperties = ids
			s.mu.Unlock()
			s.writeThrough()
			return nil
		}
	}
	s.mu.Unlock()
	return fmt.Errorf("lead %d not found locally", leadID)
}

func (s *Store) setInterestedLocal(leadID, propertyID int, add bool) error {
	s.mu.Lock()
	idx := -1
	for i := range s.state.Leads {
		if s.state.Leads[i].ID == leadID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return fmt.Errorf("lead %d not found locally", leadID)
	}
	set := make(map[int]struct{}, len(s.state.Leads[idx].InterestedProperties))
	for _, id := range s.state.Leads[idx].InterestedProperties {
		set[id] = struct{}{}
	}
	if add {
		set[propertyID] = struct{}{}
	} else {
		delete(set, propertyID)
	}
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	s.state.Leads[idx].InterestedProperties = ids
	s.mu.Unlock()
	s.writeThrough()
	return nil
}

// --- properties ---

func (s *Store) AddProperty(p models.Property) (*models.Property, error) {
	body, err := s.api.Post("/properties", p)
	if err != nil {
		return nil, err
	}
	var created models.Property
	if err := decodeRecord(body, &created); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.state.Properties = append(s.state.Properties, created)
	s.mu.Unlock()
	s.writeThrough()
	return &created, nil
}

func (s *Store) UpdateProperty(id int, patch map[string]any) error {
	merged, err := s.mergedProperty(id, patch)
	if err != nil {
		return err
	}

	body, err := s.api.Put(fmt.Sprintf("/properties/%d", id), merged)
	if err != nil {
		if errors.Is(err, ErrAuth) {
			return err
		}
		log.Printf("[store] property %d update failed, keeping merged record locally: %v", id, err)
		s.replaceProperty(merged)
		return nil
	}
	var updated models.Property
	if err := decodeRecord(body, &updated); err != nil {
		log.Printf("[store] property %d update response undecodable, keeping merged record locally: %v", id, err)
		s.replaceProperty(merged)
		return nil
	}
	s.replaceProperty(updated)
	return nil
}

func (s *Store) mergedProperty(id int, patch map[string]any) (models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Properties {
		if s.state.Properties[i].ID != id {
			continue
		}
		merged, err := mergePatch(s.state.Properties[i], patch)
		if err != nil {
			return models.Property{}, &ParseError{Err: err}
		}
		merged.ID = id
		return merged, nil
	}
	return models.Property{}, fmt.Errorf("property %d not found locally", id)
}

func (s *Store) replaceProperty(p models.Property) {
	s.mu.Lock()
	for i := range s.state.Properties {
		if s.state.Properties[i].ID == p.ID {
			s.state.Properties[i] = p
			break
		}
	}
	s.mu.Unlock()
	s.writeThrough()
}

func (s *Store) DeleteProperty(id int) error {
	if _, err := s.api.Delete(fmt.Sprintf("/properties/%d", id)); err != nil {
		return err
	}
	s.mu.Lock()
	s.state.Properties = removeByID(s.state.Properties, id, func(p models.Property) int { return p.ID })
	s.mu.Unlock()
	s.writeThrough()
	return nil
}

// --- team ---

func (s *Store) AddTeamMember(m models.TeamMember) (*models.TeamMember, error) {
	body, err := s.api.Post("/team", m)
	if err != nil {
		return nil, err
	}
	var created models.TeamMember
	if err := decodeRecord(body, &created); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.state.Team = append(s.state.Team, created)
	s.mu.Unlock()
	s.writeThrough()
	return &created, nil
}

func (s *Store) UpdateTeamMember(id int, patch map[string]any) error {
	merged, err := s.mergedMember(id, patch)
	if err != nil {
		return err
	}

	body, err := s.api.Put(fmt.Sprintf("/team/%d", id), merged)
	if err != nil {
		if errors.Is(err, ErrAuth) {
			return err
		}
		log.Printf("[store] team member %d update failed, keeping merged record locally: %v", id, err)
		s.replaceMember(merged)
		return nil
	}
	var updated models.TeamMember
	if err := decodeRecord(body, &updated); err != nil {
		log.Printf("[store] team member %d update response undecodable, keeping merged record locally: %v", id, err)
		s.replaceMember(merged)
		return nil
	}
	s.replaceMember(updated)
	return nil
}

func (s *Store) mergedMember(id int, patch map[string]any) (models.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Team {
		if s.state.Team[i].ID != id {
			continue
		}
		merged, err := mergePatch(s.state.Team[i], patch)
		if err != nil {
			return models.TeamMember{}, &ParseError{Err: err}
		}
		merged.ID = id
		return merged, nil
	}
	return models.TeamMember{}, fmt.Errorf("team member %d not found locally", id)
}

func (s *Store) replaceMember(m models.TeamMember) {
	s.mu.Lock()
	for i := range s.state.Team {
		if s.state.Team[i].ID == m.ID {
			s.state.Team[i] = m
			break
		}
	}
	s.mu.Unlock()
	s.writeThrough()
}

// DeleteTeamMember не трогает лиды удалённого агента: осиротевшие
// назначения всплывут через OrphanedLeads.
func (s *Store) DeleteTeamMember(id int) error {
	if _, err := s.api.Delete(fmt.Sprintf("/team/%d", id)); err != nil {
		return err
	}
	s.mu.Lock()
	s.state.Team = removeByID(s.state.Team, id, func(m models.TeamMember) int { return m.ID })
	s.mu.Unlock()
	s.writeThrough()
	return nil
}

func removeByID[T any](list []T, id int, idOf func(T) int) []T {
	out := list[:0]
	for _, item := range list {
		if idOf(item) != id {
			out = append(out, item)
		}
	}
	return out
}
