package reminder

import (
	"context"
	"errors"
	"sync"

	"github.com/dukerupert/studyhabit/internal/model"
)

type shown struct {
	title string
	opts  model.NotificationOptions
}

type fakeSurface struct {
	mu         sync.Mutex
	supported  bool
	permission model.PermissionState
	answer     model.PermissionState
	site       model.PermissionState
	siteErr    error
	showErr    error
	prompts    int
	shown      []shown

	// revokeAfter > 0 flips permission to denied after that many reads.
	revokeAfter int
	reads       int
}

func newSurface(perm model.PermissionState) *fakeSurface {
	return &fakeSurface{supported: true, permission: perm, answer: perm, siteErr: model.ErrQueryUnsupported}
}

func (f *fakeSurface) Supported() bool { return f.supported }

func (f *fakeSurface) Permission(ctx context.Context) (model.PermissionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.revokeAfter > 0 && f.reads > f.revokeAfter {
		f.permission = model.PermissionDenied
	}
	return f.permission, nil
}

func (f *fakeSurface) RequestPermission(ctx context.Context) (model.PermissionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts++
	f.permission = f.answer
	return f.answer, nil
}

func (f *fakeSurface) QueryPermission(ctx context.Context) (model.PermissionState, error) {
	return f.site, f.siteErr
}

func (f *fakeSurface) Show(ctx context.Context, title string, opts model.NotificationOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.showErr != nil {
		return f.showErr
	}
	f.shown = append(f.shown, shown{title, opts})
	return nil
}

func (f *fakeSurface) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.shown)
}

// plainSurface has no QueryPermission.
type plainSurface struct{ f *fakeSurface }

func (p plainSurface) Supported() bool { return p.f.Supported() }

func (p plainSurface) Permission(ctx context.Context) (model.PermissionState, error) {
	return p.f.Permission(ctx)
}

func (p plainSurface) RequestPermission(ctx context.Context) (model.PermissionState, error) {
	return p.f.RequestPermission(ctx)
}

func (p plainSurface) Show(ctx context.Context, title string, opts model.NotificationOptions) error {
	return p.f.Show(ctx, title, opts)
}

type fakeAgent struct {
	mu         sync.Mutex
	readyErr   error
	showErr    error
	readyCalls int
	shown      []shown
}

var errNotRegistered = errors.New("not registered")

func (f *fakeAgent) Ready(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readyCalls++
	return f.readyErr
}

func (f *fakeAgent) Show(ctx context.Context, title string, opts model.NotificationOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.showErr != nil {
		return f.showErr
	}
	f.shown = append(f.shown, shown{title, opts})
	return nil
}

type memKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string]string)}
}

func (m *memKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type entry struct {
	hour, minute int
	fire         func()
}

// fakeTimer records armed entries; tests trigger them by hand.
type fakeTimer struct {
	mu      sync.Mutex
	next    Handle
	entries map[Handle]entry
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{entries: make(map[Handle]entry)}
}

func (f *fakeTimer) ScheduleDaily(hour, minute int, fire func()) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.entries[f.next] = entry{hour, minute, fire}
	return f.next, nil
}

func (f *fakeTimer) Cancel(h Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, h)
}

func (f *fakeTimer) live() []entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out
}

type fakeSent struct {
	mu   sync.Mutex
	sent map[string]bool
}

func (f *fakeSent) WasSent(ctx context.Context, notifType, ref string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[notifType+"/"+ref], nil
}

func (f *fakeSent) RecordSent(ctx context.Context, notifType, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = make(map[string]bool)
	}
	f.sent[notifType+"/"+ref] = true
	return nil
}
