package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/noblesavage/site/internal/cache"
	"github.com/noblesavage/site/internal/events"
	"github.com/noblesavage/site/internal/metrics"
	"github.com/noblesavage/site/internal/model"
	"github.com/noblesavage/site/internal/repository"
	"github.com/noblesavage/site/internal/signup"
)

type fakeStore struct {
	mu        sync.Mutex
	intakes   map[string]*model.Intake
	createErr error
	getErr    error
	gets      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{intakes: make(map[string]*model.Intake)}
}

func (f *fakeStore) CreateIntake(ctx context.Context, intake *model.Intake) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.intakes[intake.ID] = intake
	return nil
}

func (f *fakeStore) GetIntakeByID(ctx context.Context, id string) (*model.Intake, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	intake, ok := f.intakes[id]
	if !ok {
		return nil, repository.ErrIntakeNotFound
	}
	return intake, nil
}

func (f *fakeStore) ListIntakes(ctx context.Context, limit int) ([]*model.Intake, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Intake
	for _, in := range f.intakes {
		out = append(out, in)
	}
	return out, nil
}

type fakeCache struct {
	mu      sync.Mutex
	intakes map[string]*model.Intake
	setErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{intakes: make(map[string]*model.Intake)}
}

func (f *fakeCache) GetIntake(ctx context.Context, id string) (*model.Intake, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	intake, ok := f.intakes[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return intake, nil
}

func (f *fakeCache) SetIntake(ctx context.Context, intake *model.Intake) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.intakes[intake.ID] = intake
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.IntakeSubmitted
}

func (f *fakePublisher) PublishAsync(event events.IntakeSubmitted) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func fixedService(cfg IntakeConfig) *IntakeService {
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	svc := NewIntakeService(cfg)
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC) }
	svc.newID = func() string { return "01J0000000000000000000TEST" }
	return svc
}

func TestIntakeService_PlaceholderSubmit(t *testing.T) {
	t.Parallel()

	forms := map[string]*signup.Form{
		"empty": signup.New(),
		"filled": func() *signup.Form {
			f := signup.New()
			f.Toggle(signup.FieldRole, "Other")
			f.UpdateField(signup.FieldRoleOther, "Farmer")
			f.Toggle(signup.FieldTone, "Friendly & Supportive (warm, conversational)")
			return f
		}(),
	}

	for name, form := range forms {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rec := metrics.NewInMemory()
			svc := fixedService(IntakeConfig{Metrics: rec})

			if !svc.Placeholder() {
				t.Fatal("service without store should be in placeholder mode")
			}

			sub := svc.Submit(context.Background(), form, SubmitMeta{})
			if sub.State != signup.StateSucceeded {
				t.Fatalf("State = %v, want succeeded", sub.State)
			}
			if sub.CustomerID != "123" {
				t.Errorf("CustomerID = %q, want 123", sub.CustomerID)
			}
			if rec.Snapshot().SignupsSucceeded != 1 {
				t.Errorf("SignupsSucceeded = %d, want 1", rec.Snapshot().SignupsSucceeded)
			}
		})
	}
}

func TestIntakeService_CustomPlaceholder(t *testing.T) {
	t.Parallel()

	svc := fixedService(IntakeConfig{PlaceholderID: "demo"})
	sub := svc.Submit(context.Background(), signup.New(), SubmitMeta{})
	if sub.CustomerID != "demo" {
		t.Errorf("CustomerID = %q, want demo", sub.CustomerID)
	}
}

func TestIntakeService_IsPlaceholderCustomer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		svc  *IntakeService
		id   string
		want bool
	}{
		{"default id", fixedService(IntakeConfig{}), "123", true},
		{"other id", fixedService(IntakeConfig{}), "124", false},
		{"custom id", fixedService(IntakeConfig{PlaceholderID: "demo"}), "demo", true},
		{"store configured", fixedService(IntakeConfig{Store: &fakeStore{}}), "123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.svc.IsPlaceholderCustomer(tt.id); got != tt.want {
				t.Errorf("IsPlaceholderCustomer(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestIntakeService_SubmitStores(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	c := newFakeCache()
	pub := &fakePublisher{}
	svc := fixedService(IntakeConfig{Store: store, Cache: c, Events: pub})

	form := signup.New()
	form.Toggle(signup.FieldRole, "Leader or founder (business, nonprofit, or community)")
	form.Toggle(signup.FieldRole, "Other")
	form.UpdateField(signup.FieldRoleOther, "  <script>alert(1)</script>Council & elders  ")
	form.Toggle(signup.FieldTone, "Empowered & Respectful (Uplifting)")
	form.Toggle(signup.FieldFormat, "<b></b>")

	sub := svc.Submit(context.Background(), form, SubmitMeta{Referrer: "https://example.com/ad?x=1"})
	if sub.State != signup.StateSucceeded {
		t.Fatalf("State = %v, want succeeded (reason %q)", sub.State, sub.Reason)
	}
	if sub.CustomerID != "01J0000000000000000000TEST" {
		t.Errorf("CustomerID = %q", sub.CustomerID)
	}

	want := &model.Intake{
		ID:            "01J0000000000000000000TEST",
		Roles:         []string{"Leader or founder (business, nonprofit, or community)", "Other"},
		RoleOther:     "Council & elders",
		MainGoals:     []string{},
		MainGoalOther: "",
		Tones:         []string{"Empowered & Respectful (Uplifting)"},
		Formats:       []string{},
		FormatOther:   "",
		CreatedAt:     time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(want, store.intakes[sub.CustomerID]); diff != "" {
		t.Errorf("stored intake mismatch (-want +got):\n%s", diff)
	}
	if _, ok := c.intakes[sub.CustomerID]; !ok {
		t.Error("intake should be cached after submit")
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	if pub.events[0].CustomerID != sub.CustomerID || pub.events[0].Referrer != "https://example.com/ad" {
		t.Errorf("unexpected event: %+v", pub.events[0])
	}

	// The form keeps exactly what was typed.
	if got := form.Value(signup.FieldRoleOther); !strings.Contains(got, "<script>") {
		t.Errorf("form state was altered: %q", got)
	}
}

func TestIntakeService_SubmitStoreFailure(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.createErr = errors.New("connection refused")
	pub := &fakePublisher{}
	rec := metrics.NewInMemory()
	svc := fixedService(IntakeConfig{Store: store, Events: pub, Metrics: rec})

	sub := svc.Submit(context.Background(), signup.New(), SubmitMeta{})
	if sub.State != signup.StateFailed {
		t.Fatalf("State = %v, want failed", sub.State)
	}
	if sub.Reason != FailureReason {
		t.Errorf("Reason = %q", sub.Reason)
	}
	if sub.CustomerID != "" {
		t.Errorf("CustomerID = %q, want empty", sub.CustomerID)
	}
	if len(pub.events) != 0 {
		t.Error("no event should be published on failure")
	}
	if rec.Snapshot().SignupsFailed != 1 {
		t.Errorf("SignupsFailed = %d, want 1", rec.Snapshot().SignupsFailed)
	}
}

func TestIntakeService_SubmitCacheFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	c := newFakeCache()
	c.setErr = errors.New("redis down")
	svc := fixedService(IntakeConfig{Store: newFakeStore(), Cache: c})

	sub := svc.Submit(context.Background(), signup.New(), SubmitMeta{})
	if sub.State != signup.StateSucceeded {
		t.Errorf("State = %v, want succeeded", sub.State)
	}
}

func TestIntakeService_GetCustomer(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	c := newFakeCache()
	rec := metrics.NewInMemory()
	svc := fixedService(IntakeConfig{Store: store, Cache: c, Metrics: rec})

	stored := &model.Intake{ID: "abc", Tones: []string{"Friendly"}}
	store.intakes["abc"] = stored

	got, err := svc.GetCustomer(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetCustomer failed: %v", err)
	}
	if got.ID != "abc" {
		t.Errorf("ID = %q", got.ID)
	}
	if _, ok := c.intakes["abc"]; !ok {
		t.Error("read-through should populate cache")
	}

	if _, err := svc.GetCustomer(context.Background(), "abc"); err != nil {
		t.Fatalf("GetCustomer (cached) failed: %v", err)
	}
	if store.gets != 1 {
		t.Errorf("store reads = %d, want 1", store.gets)
	}

	snap := rec.Snapshot()
	if snap.CustomerCacheMisses != 1 || snap.CustomerCacheHits != 1 {
		t.Errorf("cache hits/misses = %d/%d, want 1/1", snap.CustomerCacheHits, snap.CustomerCacheMisses)
	}
}

func TestIntakeService_GetCustomerNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		svc  *IntakeService
		id   string
	}{
		{"placeholder mode", fixedService(IntakeConfig{}), "123"},
		{"empty id", fixedService(IntakeConfig{Store: newFakeStore()}), ""},
		{"missing", fixedService(IntakeConfig{Store: newFakeStore()}), "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.svc.GetCustomer(context.Background(), tt.id)
			if !errors.Is(err, ErrCustomerNotFound) {
				t.Errorf("expected ErrCustomerNotFound, got %v", err)
			}
		})
	}
}

func TestIntakeService_GetCustomerStoreError(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.getErr = errors.New("timeout")
	svc := fixedService(IntakeConfig{Store: store})

	_, err := svc.GetCustomer(context.Background(), "abc")
	if err == nil || errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("expected store error, got %v", err)
	}
}

func TestIntakeService_ListIntakes(t *testing.T) {
	t.Parallel()

	if _, err := fixedService(IntakeConfig{}).ListIntakes(context.Background(), 10); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}

	store := newFakeStore()
	store.intakes["a"] = &model.Intake{ID: "a"}
	got, err := fixedService(IntakeConfig{Store: store}).ListIntakes(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListIntakes failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestIntakeService_Clean(t *testing.T) {
	t.Parallel()

	svc := fixedService(IntakeConfig{})

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"  padded  ", "padded"},
		{"<i>tagged</i>", "tagged"},
		{"Fish & Chips", "Fish & Chips"},
		{"<script>x()</script>", ""},
		{strings.Repeat("é", 600), strings.Repeat("é", 500)},
	}

	for _, tt := range tests {
		if got := svc.clean(tt.in); got != tt.want {
			t.Errorf("clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
