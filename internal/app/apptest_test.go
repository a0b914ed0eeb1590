package app

import (
	"bytes"
	"context"
	"io"
	"testing"

	"shelfmark/pkg/domain"
	"shelfmark/pkg/store"
)

// cleanupRecorder captures scheduled object removals.
type cleanupRecorder struct {
	keys []string
}

func (c *cleanupRecorder) Enqueue(_ context.Context, objectKey string) error {
	c.keys = append(c.keys, objectKey)
	return nil
}

// fakeObjects is an in-memory object store.
type fakeObjects struct {
	objects map[string][]byte
	deleted []string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte)}
}

func (f *fakeObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjects) URL(key string) string {
	return "http://images.test/" + key
}

// brokenWriteStore fails book and user writes while everything else
// passes through, for exercising save-error paths.
type brokenWriteStore struct {
	store.Store
	err error
}

func (b *brokenWriteStore) SaveBook(domain.Book) error { return b.err }
func (b *brokenWriteStore) SaveUser(domain.User) error { return b.err }

type testEnv struct {
	app     *App
	store   *store.MemoryStore
	objects *fakeObjects
	cleanup *cleanupRecorder
}

func newTestApp(t *testing.T) *testEnv {
	t.Helper()
	st := store.NewMemoryStore()
	objects := newFakeObjects()
	cleanup := &cleanupRecorder{}
	a, err := New(Config{Store: st, Objects: objects, Cleanup: cleanup})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &testEnv{app: a, store: st, objects: objects, cleanup: cleanup}
}

func registerUser(t *testing.T, a *App, first, last, email string) string {
	t.Helper()
	user, err := a.Register(context.Background(), RegisterInput{
		FirstName: first, LastName: last, Email: email, Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return user.ID
}

func pngUpload(name string) *Upload {
	data := []byte("not a real png")
	return &Upload{Filename: name, Reader: bytes.NewReader(data), Size: int64(len(data))}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
