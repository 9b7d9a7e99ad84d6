package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatecrm/internal/models"
)

func newTestStore(t *testing.T, handler http.Handler) (*Store, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := New(Config{BaseURL: srv.URL, StateDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func dashboardPayload() map[string]any {
	return map[string]any{
		"success": true,
		"data": map[string]any{
			"leads": []models.Lead{
				{ID: 1, Name: "Aidos", Phone: "+77001112233", Status: models.LeadStatusNew, AssignedToID: 5},
				{ID: 2, Name: "Marat", Phone: "+77004445566", Status: models.LeadStatusContacted, AssignedToID: 99},
			},
			"properties": []models.Property{
				{ID: 10, Title: "2BR apartment", Type: models.PropertyTypeApartment, City: "Almaty"},
			},
			"team": []models.TeamMember{
				{ID: 5, Name: "Dana", Role: "agent", Status: models.MemberStatusActive},
			},
		},
	}
}

func TestLoadFromAggregate(t *testing.T) {
	var calls int64
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		writeJSON(w, dashboardPayload())
	})

	store, _ := newTestStore(t, mux)

	cols := store.Load(false)
	assert.Len(t, cols.Leads, 2)
	assert.Len(t, cols.Properties, 1)
	assert.Len(t, cols.Team, 1)
	assert.EqualValues(t, 1, atomic.LoadInt64(&calls))

	// второй Load — из кэша, без единого запроса
	cols = store.Load(false)
	assert.Len(t, cols.Leads, 2)
	assert.EqualValues(t, 1, atomic.LoadInt64(&calls))
}

func TestLoadForceBypassesCache(t *testing.T) {
	var calls int64
	var sawForce atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		if r.URL.Query().Get("force") == "true" {
			sawForce.Store(true)
		}
		writeJSON(w, dashboardPayload())
	})

	store, _ := newTestStore(t, mux)
	store.Load(false)
	store.Load(true)

	assert.EqualValues(t, 2, atomic.LoadInt64(&calls))
	assert.True(t, sawForce.Load(), "forced load must carry the cache-buster")
}

func TestLoadFallbackPartialData(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	// каждая коллекция в своём историческом конверте
	mux.HandleFunc("/leads", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []models.Lead{{ID: 1, Name: "Aidos"}})
	})
	mux.HandleFunc("/properties", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true, "data": []models.Property{{ID: 10}}})
	})
	mux.HandleFunc("/team", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusBadGateway)
	})

	store, _ := newTestStore(t, mux)
	cols := store.Load(false)

	// частичные данные лучше полного отказа: team пустой, но не nil
	assert.Len(t, cols.Leads, 1)
	assert.Len(t, cols.Properties, 1)
	require.NotNil(t, cols.Team)
	assert.Empty(t, cols.Team)
}

func TestLoadTotalFailureZeroesState(t *testing.T) {
	healthy := true
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		if r.URL.Path == "/dashboard" {
			writeJSON(w, dashboardPayload())
			return
		}
		http.NotFound(w, r)
	})

	store, _ := newTestStore(t, mux)
	cols := store.Load(false)
	require.Len(t, cols.Leads, 2)

	healthy = false
	cols = store.Load(true) // force сносит кэш, все источники лежат

	assert.Empty(t, cols.Leads)
	assert.Empty(t, cols.Properties)
	assert.Empty(t, cols.Team)
	assert.NotNil(t, cols.Leads, "zeroed state still holds empty lists, not nil")
}

func TestRefreshTotalFailureKeepsState(t *testing.T) {
	healthy := true
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		if r.URL.Path == "/dashboard" {
			writeJSON(w, dashboardPayload())
			return
		}
		http.NotFound(w, r)
	})

	store, _ := newTestStore(t, mux)
	store.Load(false)

	healthy = false
	store.cache.Invalidate() // иначе Refresh ответит из кэша
	store.Refresh()

	// фоновый провал не трогает рабочие данные
	assert.Len(t, store.Snapshot().Leads, 2)
}

func TestPublishDiscardsStaleSequence(t *testing.T) {
	s := &Store{state: emptyCollections()}

	fresh := emptyCollections()
	fresh.Leads = append(fresh.Leads, models.Lead{ID: 1})
	stale := emptyCollections()
	stale.Leads = append(stale.Leads, models.Lead{ID: 2}, models.Lead{ID: 3})

	seqStale := s.takeSeq()
	seqFresh := s.takeSeq()

	require.True(t, s.publish(seqFresh, fresh))
	assert.False(t, s.publish(seqStale, stale), "older sequence must be discarded")

	snap := s.Snapshot()
	require.Len(t, snap.Leads, 1)
	assert.Equal(t, 1, snap.Leads[0].ID)
}

func TestAddLeadPropagatesError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/leads", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "validation failed", http.StatusBadRequest)
	})

	store, _ := newTestStore(t, mux)
	_, err := store.AddLead(models.Lead{Name: "X"})

	// create не бывает оптимистичным: без серверного id записи нет
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusBadRequest, serverErr.Status)
	assert.Empty(t, store.Snapshot().Leads)
}

func TestAddLeadUsesServerRecord(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/leads", func(w http.ResponseWriter, r *http.Request) {
		var in models.Lead
		json.NewDecoder(r.Body).Decode(&in)
		in.ID = 42
		in.Status = models.LeadStatusNew
		writeJSON(w, map[string]any{"success": true, "data": in})
	})

	store, _ := newTestStore(t, mux)
	lead, err := store.AddLead(models.Lead{Name: "Aigerim", Phone: "+7777"})

	require.NoError(t, err)
	assert.Equal(t, 42, lead.ID)
	snap := store.Snapshot()
	require.Len(t, snap.Leads, 1)
	assert.Equal(t, 42, snap.Leads[0].ID)
}

func TestUpdateLeadFallsBackToLocalMerge(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, dashboardPayload())
	})
	mux.HandleFunc("/leads/1", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	store, _ := newTestStore(t, mux)
	store.Load(false)

	err := store.UpdateLead(1, map[string]any{"city": "Astana"})
	require.NoError(t, err, "update degrades to a local merge, caller sees success")

	snap := store.Snapshot()
	var lead *models.Lead
	for i := range snap.Leads {
		if snap.Leads[i].ID == 1 {
			lead = &snap.Leads[i]
		}
	}
	require.NotNil(t, lead)
	assert.Equal(t, "Astana", lead.City)
	assert.Equal(t, "Aidos", lead.Name, "untouched fields survive the merge")
}

// PUT пишет на сервере все колонки, поэтому наружу обязана уходить
// полная слитая запись, а не голый патч
func TestUpdateLeadSendsFullMergedRecord(t *testing.T) {
	var sent models.Lead
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, dashboardPayload())
	})
	mux.HandleFunc("/leads/1", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		writeJSON(w, map[string]any{"success": true, "data": sent})
	})

	store, _ := newTestStore(t, mux)
	store.Load(false)

	require.NoError(t, store.UpdateLead(1, map[string]any{"city": "Astana"}))

	assert.Equal(t, "Astana", sent.City)
	assert.Equal(t, "Aidos", sent.Name, "unpatched fields go out with their current values")
	assert.Equal(t, "+77001112233", sent.Phone)
	assert.Equal(t, models.LeadStatusNew, sent.Status)
	assert.Equal(t, 5, sent.AssignedToID)
}

func TestUpdateLeadUnknownLocally(t *testing.T) {
	var called atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
		writeJSON(w, map[string]any{"success": true})
	})

	store, _ := newTestStore(t, mux)

	// без локальной записи сливать нечего, PUT не уходит
	err := store.UpdateLead(77, map[string]any{"city": "Astana"})
	require.Error(t, err)
	assert.False(t, called.Load())
}

func TestUpdateLeadUsesServerResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, dashboardPayload())
	})
	mux.HandleFunc("/leads/1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true, "data": models.Lead{
			ID: 1, Name: "Aidos", Phone: "+77001112233", City: "Shymkent", Notes: "server-side note",
		}})
	})

	store, _ := newTestStore(t, mux)
	store.Load(false)

	require.NoError(t, store.UpdateLead(1, map[string]any{"city": "Astana"}))

	// сервер — источник истины: берём его запись, а не локальный патч
	snap := store.Snapshot()
	assert.Equal(t, "Shymkent", snap.Leads[0].City)
	assert.Equal(t, "server-side note", snap.Leads[0].Notes)
}

func TestDeleteLeadConfirmedOnly(t *testing.T) {
	allow := false
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, dashboardPayload())
	})
	mux.HandleFunc("/leads/1", func(w http.ResponseWriter, r *http.Request) {
		if !allow {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"success": true})
	})

	store, _ := newTestStore(t, mux)
	store.Load(false)

	err := store.DeleteLead(1)
	require.Error(t, err, "delete is confirmed, server failure must surface")
	assert.Len(t, store.Snapshot().Leads, 2, "record stays until the server confirms")

	allow = true
	require.NoError(t, store.DeleteLead(1))
	snap := store.Snapshot()
	require.Len(t, snap.Leads, 1)
	assert.Equal(t, 2, snap.Leads[0].ID)
}

func TestLinkPropertyServerList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, dashboardPayload())
	})
	mux.HandleFunc("/leads/1/link-property/10", func(w http.ResponseWriter, r *http.Request) {
		// итоговый список приходит json-строкой в строковом поле
		writeJSON(w, map[string]any{"success": true, "data": map[string]any{
			"interested_properties": "[7,10]",
		}})
	})

	store, _ := newTestStore(t, mux)
	store.Load(false)

	require.NoError(t, store.LinkProperty(1, 10))
	assert.Equal(t, []int{7, 10}, store.Snapshot().Leads[0].InterestedProperties)
}

func TestLinkPropertyLocalFallbackIdempotent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, dashboardPayload())
	})
	// link-эндпоинт лежит
	mux.HandleFunc("/leads/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})

	store, _ := newTestStore(t, mux)
	store.Load(false)

	require.NoError(t, store.LinkProperty(1, 10))
	require.NoError(t, store.LinkProperty(1, 10)) // повтор не дублирует
	assert.Equal(t, []int{10}, store.Snapshot().Leads[0].InterestedProperties)

	require.NoError(t, store.UnlinkProperty(1, 10))
	assert.Empty(t, store.Snapshot().Leads[0].InterestedProperties)
}

func TestAuthTeardownOn401(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/leads/1", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	var expired atomic.Bool
	store, err := New(Config{
		BaseURL:       srv.URL,
		StateDir:      t.TempDir(),
		OnAuthExpired: func() { expired.Store(true) },
	})
	require.NoError(t, err)

	store.session.Set("stale-token", &models.User{ID: 1, Email: "a@b.kz"})

	seeded := emptyCollections()
	seeded.Leads = append(seeded.Leads, models.Lead{ID: 1, Name: "Aidos", City: "Almaty"})
	store.publish(store.takeSeq(), seeded)

	err = store.UpdateLead(1, map[string]any{"city": "Astana"})
	require.ErrorIs(t, err, ErrAuth, "401 must not degrade to a local merge")
	assert.True(t, expired.Load())
	assert.Empty(t, store.session.Token(), "session torn down globally")
	assert.Nil(t, store.CurrentUser())
	assert.Equal(t, "Almaty", store.Snapshot().Leads[0].City, "state untouched after 401")
}

func TestLoginToleratesBothShapes(t *testing.T) {
	shapes := map[string]any{
		"nested": map[string]any{
			"success": true,
			"data": map[string]any{
				"user":  models.User{ID: 1, Name: "Dana", Email: "dana@agency.kz"},
				"token": "jwt-nested",
			},
		},
		"flat": map[string]any{
			"success": true,
			"user":    models.User{ID: 1, Name: "Dana", Email: "dana@agency.kz"},
			"token":   "jwt-flat",
		},
	}

	for name, payload := range shapes {
		t.Run(name, func(t *testing.T) {
			payload := payload
			mux := http.NewServeMux()
			mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, payload)
			})

			store, _ := newTestStore(t, mux)
			user, err := store.Login("dana@agency.kz", "secret")
			require.NoError(t, err)
			assert.Equal(t, "Dana", user.Name)
			assert.NotEmpty(t, store.session.Token())
		})
	}
}

func TestResolveAssigneeAndOrphans(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, dashboardPayload())
	})

	store, _ := newTestStore(t, mux)
	store.Load(false)

	m := store.ResolveAssignee(5)
	require.NotNil(t, m)
	assert.Equal(t, "Dana", m.Name)

	assert.Nil(t, store.ResolveAssignee(99), "deleted member resolves to nil")
	assert.Nil(t, store.ResolveAssignee(0), "unassigned is not an orphan")

	orphans := store.OrphanedLeads()
	require.Len(t, orphans, 1)
	assert.Equal(t, 2, orphans[0].ID)
}

func TestSnapshotIsACopy(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, dashboardPayload())
	})

	store, _ := newTestStore(t, mux)
	store.Load(false)

	snap := store.Snapshot()
	snap.Leads[0].Name = "mutated"

	assert.Equal(t, "Aidos", store.Snapshot().Leads[0].Name)
}
