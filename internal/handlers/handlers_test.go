package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/freshmart/api/internal/identity"
	"github.com/freshmart/api/internal/models"
	"github.com/freshmart/api/internal/repo"
	"github.com/freshmart/api/internal/syncer"
)

type fakeMirror struct {
	mu    sync.Mutex
	docs  map[string]map[string]any
	notes []map[string]any
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{docs: map[string]map[string]any{}}
}

func (f *fakeMirror) Merge(collection, id string, doc map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := collection + ":" + id
	merged, ok := f.docs[key]
	if !ok {
		merged = map[string]any{}
		f.docs[key] = merged
	}
	for k, v := range doc {
		merged[k] = v
	}
	return nil
}

func (f *fakeMirror) Append(collection string, doc map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, doc)
	return nil
}

func (f *fakeMirror) Remove(collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, collection+":"+id)
	return nil
}

func (f *fakeMirror) PruneBefore(collection string, cutoff time.Time) error {
	return nil
}

func (f *fakeMirror) productDoc(id string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs["product:"+id]
}

type recordedEvent struct {
	Topic string
	Key   string
	Event map[string]any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Topic: topic, Key: key, Event: event.(map[string]any)})
	return nil
}

func (p *recordingPublisher) last(t *testing.T) recordedEvent {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.events)
	return p.events[len(p.events)-1]
}

type testEnv struct {
	T             *testing.T
	E             *echo.Echo
	Repo          *repo.GormRepo
	Mirror        *fakeMirror
	Events        *recordingPublisher
	Products      *ProductHandler
	Orders        *OrderHandler
	Feedback      *FeedbackHandler
	Notifications *NotificationHandler
	Admin         *AdminHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Order{}, &models.Feedback{}, &models.PriceHistory{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repository := repo.NewGormRepo(db)
	mirrorStore := newFakeMirror()
	pub := &recordingPublisher{}
	prop := &syncer.Propagator{Mirror: mirrorStore}

	return &testEnv{
		T:             t,
		E:             echo.New(),
		Repo:          repository,
		Mirror:        mirrorStore,
		Events:        pub,
		Products:      &ProductHandler{Repo: repository, Prop: prop, Producer: pub},
		Orders:        &OrderHandler{Repo: repository, Prop: prop, Producer: pub},
		Feedback:      &FeedbackHandler{Repo: repository, Prop: prop, Producer: pub},
		Notifications: &NotificationHandler{Prop: prop},
		Admin:         &AdminHandler{Repo: repository},
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func asUser(c echo.Context) {
	identity.Set(c, identity.Identity{UID: "user-1", Email: "user@example.com"})
}

func asAdmin(c echo.Context) {
	identity.Set(c, identity.Identity{UID: "admin-1", Email: "admin@freshmart.dev", IsAdmin: true})
}

func (env *testEnv) createProduct(p models.Product) *models.Product {
	env.T.Helper()
	if p.Name == "" {
		p.Name = "test product"
	}
	if p.Description == "" {
		p.Description = "test description"
	}
	require.NoError(env.T, env.Repo.CreateProduct(context.Background(), &p))
	return &p
}
