package client

import (
	"bytes"
	"encoding/json"
	"log"
)

// Normalize вытаскивает список записей коллекции из ответа сервера,
// какой бы конверт тот ни использовал. Форма ответа исторически гуляет
// между эндпоинтами, поэтому порядок проверок зафиксирован контрактом:
//
//  1. тело само по себе массив;
//  2. {"success":true,"data":[...]};
//  3. {"data":[...]};
//  4. {"<collection>":[...]};
//  5. иначе пустой список + лог (значит, сервер сменил контракт).
//
// Чистая функция, идемпотентна.
func Normalize(body []byte, collection string) json.RawMessage {
	if isJSONArray(body) {
		return json.RawMessage(bytes.TrimSpace(body))
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		log.Printf("[normalize] %s: body is neither array nor object: %v", collection, err)
		return json.RawMessage("[]")
	}

	var success bool
	if raw, ok := env["success"]; ok {
		_ = json.Unmarshal(raw, &success)
	}
	if success && isJSONArray(env["data"]) {
		return env["data"]
	}
	if isJSONArray(env["data"]) {
		return env["data"]
	}
	if isJSONArray(env[collection]) {
		return env[collection]
	}

	log.Printf("[normalize] %s: unexpected response shape, defaulting to empty list", collection)
	return json.RawMessage("[]")
}

func isJSONArray(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '[' && json.Valid(trimmed)
}
