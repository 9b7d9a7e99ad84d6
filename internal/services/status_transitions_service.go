package services

import "estatecrm/internal/models"

// Допустимые переходы по воронке.
// NB: PUT /leads/:id пишет поля напрямую; таблица действует только
// для POST /leads/:id/status.
var LeadTransitions = map[string]map[string]bool{
	models.LeadStatusNew:         {models.LeadStatusContacted: true, models.LeadStatusQualified: true, models.LeadStatusClosedLost: true},
	models.LeadStatusContacted:   {models.LeadStatusQualified: true, models.LeadStatusClosedLost: true},
	models.LeadStatusQualified:   {models.LeadStatusProposal: true, models.LeadStatusClosedLost: true},
	models.LeadStatusProposal:    {models.LeadStatusNegotiation: true, models.LeadStatusClosedLost: true},
	models.LeadStatusNegotiation: {models.LeadStatusClosedWon: true, models.LeadStatusClosedLost: true},
	models.LeadStatusClosedWon:   {},
	models.LeadStatusClosedLost:  {},
}

func canTransition(current, to string, table map[string]map[string]bool) bool {
	if current == "" {
		// пустой статус в БД — разрешаем любой старт
		return true
	}
	nexts, ok := table[current]
	if !ok {
		return false
	}
	return nexts[to]
}
