package lists

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"wanderlist/db"
	"wanderlist/events"
	"wanderlist/models"
	"wanderlist/schema"
	"wanderlist/store"
	"wanderlist/store/storetest"
)

var errDown = errors.New("store down")

type fixedPhotos string

func (p fixedPhotos) Search(context.Context, string) (string, error) { return string(p), nil }

type testEnv struct {
	mem    *store.Memory
	rec    *storetest.Recorder
	bus    *events.Bus
	toasts []events.ToastPayload
	mu     sync.Mutex
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{mem: store.NewMemory(), bus: events.NewBus()}
	env.rec = storetest.NewRecorder(env.mem)
	env.bus.Subscribe(func(e events.Event) {
		if p, ok := e.Payload.(events.ToastPayload); ok {
			env.mu.Lock()
			env.toasts = append(env.toasts, p)
			env.mu.Unlock()
		}
	})
	return env
}

func (env *testEnv) manager(userID string) *Manager {
	return NewManager(userID, Options{
		Store:  env.rec,
		Photos: fixedPhotos("https://img/photo.jpg"),
		Bus:    env.bus,
		Now:    func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
}

func (env *testEnv) record(t *testing.T, userID, activityID string) (models.UserActivityRecord, bool) {
	t.Helper()
	doc, err := env.mem.Get(context.Background(), db.UserActivities, models.RecordKey(userID, activityID))
	if errors.Is(err, store.ErrNotFound) {
		return models.UserActivityRecord{}, false
	}
	if err != nil {
		t.Fatal(err)
	}
	rec, err := schema.DecodeUserActivity(doc)
	if err != nil {
		t.Fatal(err)
	}
	return rec, true
}

func (env *testEnv) lastToast() events.ToastPayload {
	env.mu.Lock()
	defer env.mu.Unlock()
	if len(env.toasts) == 0 {
		return events.ToastPayload{}
	}
	return env.toasts[len(env.toasts)-1]
}

func activity(id string) models.Activity {
	return models.Activity{ActivityID: id, ActivityFullName: "Activity " + id, LocationCity: "Lisbon", LocationCountry: "Portugal"}
}

func ids(items []models.Activity) []string {
	out := make([]string, len(items))
	for i, a := range items {
		out[i] = a.ActivityID
	}
	return out
}

func TestAddToBucketListPersistsWithCompositeKey(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	m := env.manager("u1")

	if err := m.AddToBucketList(ctx, activity("a1")); err != nil {
		t.Fatal(err)
	}
	rec, ok := env.record(t, "u1", "a1")
	if !ok {
		t.Fatal("record u1_a1 not written")
	}
	if rec.Status != models.StatusBucketList || rec.UserID != "u1" || rec.ImageURL != "https://img/photo.jpg" {
		t.Fatalf("record = %+v", rec)
	}
	if got := ids(m.BucketList()); len(got) != 1 || got[0] != "a1" {
		t.Fatalf("bucket = %v", got)
	}
	if env.lastToast().Level != events.Success {
		t.Fatalf("toast = %+v", env.lastToast())
	}
}

func TestAddToBucketListTwiceIsNoOp(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	m := env.manager("u1")

	_ = m.AddToBucketList(ctx, activity("a1"))
	env.rec.Reset()
	if err := m.AddToBucketList(ctx, activity("a1")); err != nil {
		t.Fatal(err)
	}
	if env.rec.Calls("Set") != 0 {
		t.Fatalf("duplicate add wrote %d times", env.rec.Calls("Set"))
	}
	if len(m.BucketList()) != 1 {
		t.Fatalf("bucket = %v", ids(m.BucketList()))
	}
}

func TestMutualExclusion(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	m := env.manager("u1")

	if err := m.AddToVisitedList(ctx, activity("a1")); err != nil {
		t.Fatal(err)
	}
	err := m.AddToBucketList(ctx, activity("a1"))
	if !errors.Is(err, ErrInOtherList) {
		t.Fatalf("add visited activity to bucket err = %v", err)
	}
	if len(m.BucketList()) != 0 || len(m.VisitedList()) != 1 {
		t.Fatalf("bucket %v visited %v", ids(m.BucketList()), ids(m.VisitedList()))
	}
	if env.lastToast().Level != events.Error {
		t.Fatalf("expected error toast, got %+v", env.lastToast())
	}
	rec, _ := env.record(t, "u1", "a1")
	if rec.Status != models.StatusVisited {
		t.Fatalf("stored status = %s", rec.Status)
	}
}

func TestAddToVisitedMovesFromBucket(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	m := env.manager("u1")

	_ = m.AddToBucketList(ctx, activity("a1"))
	if err := m.AddToVisitedList(ctx, activity("a1")); err != nil {
		t.Fatal(err)
	}
	if len(m.BucketList()) != 0 {
		t.Fatalf("activity still in bucket: %v", ids(m.BucketList()))
	}
	if got := ids(m.VisitedList()); len(got) != 1 || got[0] != "a1" {
		t.Fatalf("visited = %v", got)
	}
}

func TestMoveToVisitedKeepsSingleRecord(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	m := env.manager("u1")

	_ = m.AddToBucketList(ctx, activity("a1"))
	if err := m.MoveToVisited(ctx, "a1"); err != nil {
		t.Fatal(err)
	}

	rec, ok := env.record(t, "u1", "a1")
	if !ok || rec.Status != models.StatusVisited {
		t.Fatalf("record after move = %+v, %v", rec, ok)
	}
	all, _ := store.QueryAll(ctx, env.mem, store.Query{
		Collection: db.UserActivities,
		Filters:    []store.Filter{store.Where("userId", store.Eq, "u1"), store.Where("activity_id", store.Eq, "a1")},
	})
	if len(all) != 1 {
		t.Fatalf("found %d records for u1/a1, want 1", len(all))
	}
	if rec.ActivityFullName != "Activity a1" {
		t.Fatalf("activity data lost in move: %+v", rec)
	}

	if err := m.MoveToVisited(ctx, "zz"); !errors.Is(err, ErrNotListed) {
		t.Fatalf("move unknown err = %v", err)
	}
}

func TestRemoveFromBucketListIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	m := env.manager("u1")

	_ = m.AddToBucketList(ctx, activity("a1"))
	if err := m.RemoveFromBucketList(ctx, "a1"); err != nil {
		t.Fatal(err)
	}
	if err := m.RemoveFromBucketList(ctx, "a1"); err != nil {
		t.Fatalf("second remove err = %v", err)
	}
	if len(m.BucketList()) != 0 {
		t.Fatalf("bucket = %v", ids(m.BucketList()))
	}
	if _, ok := env.record(t, "u1", "a1"); ok {
		t.Fatal("record still stored")
	}
	if env.rec.Calls("Delete") != 2 {
		t.Fatalf("deletes = %d, want 2", env.rec.Calls("Delete"))
	}
}

func TestRemoveFromBucketListDeletesDriftedRecord(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)

	other := env.manager("u1")
	_ = other.AddToBucketList(ctx, activity("a1"))

	// A fresh manager has not fetched, so its local lists are empty.
	m := env.manager("u1")
	if err := m.RemoveFromBucketList(ctx, "a1"); err != nil {
		t.Fatal(err)
	}
	if _, ok := env.record(t, "u1", "a1"); ok {
		t.Fatal("drifted record not deleted")
	}
}

func TestRemoveFromBucketListLeavesVisitedRecord(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	m := env.manager("u1")

	_ = m.AddToVisitedList(ctx, activity("a1"))
	if err := m.RemoveFromBucketList(ctx, "a1"); err != nil {
		t.Fatal(err)
	}
	if _, ok := env.record(t, "u1", "a1"); !ok {
		t.Fatal("visited record removed by bucket removal")
	}
	if len(m.VisitedList()) != 1 {
		t.Fatalf("visited = %v", ids(m.VisitedList()))
	}
}

func TestStoreFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	m := env.manager("u1")
	_ = m.AddToBucketList(ctx, activity("keep"))

	env.rec.FailOn("Set", errDown)
	if err := m.AddToBucketList(ctx, activity("a1")); !errors.Is(err, errDown) {
		t.Fatalf("err = %v", err)
	}
	if err := m.MoveToVisited(ctx, "keep"); !errors.Is(err, errDown) {
		t.Fatalf("move err = %v", err)
	}
	if got := ids(m.BucketList()); len(got) != 1 || got[0] != "keep" {
		t.Fatalf("bucket changed on failure: %v", got)
	}
	if len(m.VisitedList()) != 0 {
		t.Fatalf("visited changed on failure: %v", ids(m.VisitedList()))
	}
	if env.lastToast().Level != events.Error {
		t.Fatalf("expected error toast, got %+v", env.lastToast())
	}

	env.rec.FailOn("Set", nil)
	env.rec.FailOn("Delete", errDown)
	if err := m.RemoveFromBucketList(ctx, "keep"); !errors.Is(err, errDown) {
		t.Fatalf("remove err = %v", err)
	}
	if len(m.BucketList()) != 1 {
		t.Fatal("bucket changed on failed delete")
	}
}

func TestFetchLoadsOwnRecordsWithPlaceholders(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)

	put := func(user, id string, status models.ListStatus, extra store.Document) {
		doc := store.Document{"userId": user, "activity_id": id, "status": string(status)}
		for k, v := range extra {
			doc[k] = v
		}
		_ = env.mem.Set(ctx, db.UserActivities, models.RecordKey(user, id), doc, store.SetOptions{})
	}
	put("u1", "a1", models.StatusBucketList, nil)
	put("u1", "a2", models.StatusVisited, store.Document{"activity_full_name": "Fado Night", "rating": int32(4)})
	put("u2", "a3", models.StatusBucketList, nil)
	_ = env.mem.Set(ctx, db.UserActivities, "u1_bad", store.Document{"userId": "u1", "status": "bucketList"}, store.SetOptions{})

	m := env.manager("u1")
	m.Load(ctx)

	bucket := m.BucketList()
	if len(bucket) != 1 || bucket[0].ActivityID != "a1" {
		t.Fatalf("bucket = %v", ids(bucket))
	}
	b := bucket[0]
	if b.ActivityFullName != models.PlaceholderName || b.LocationCity != models.PlaceholderCity ||
		b.LocationCountry != models.PlaceholderCountry || b.ImageURL != models.PlaceholderImage {
		t.Fatalf("placeholders missing: %+v", b)
	}
	visited := m.VisitedList()
	if len(visited) != 1 || visited[0].ActivityFullName != "Fado Night" || visited[0].Rating != 4 {
		t.Fatalf("visited = %+v", visited)
	}
}

func TestFetchFailureYieldsEmptyList(t *testing.T) {
	env := newEnv(t)
	env.rec.FailOn("Query", errDown)
	m := env.manager("u1")
	m.FetchBucketList(context.Background())
	if got := m.BucketList(); len(got) != 0 {
		t.Fatalf("bucket = %v", got)
	}
}

func TestLoadRetriesAfterFailedFetch(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	_ = env.mem.Set(ctx, db.UserActivities, models.RecordKey("u1", "a1"),
		store.Document{"userId": "u1", "activity_id": "a1", "status": "visited"}, store.SetOptions{})

	m := env.manager("u1")
	env.rec.FailOn("Query", errDown)
	m.Load(ctx)
	if len(m.VisitedList()) != 0 {
		t.Fatalf("visited after failed load = %v", ids(m.VisitedList()))
	}

	env.rec.FailOn("Query", nil)
	m.Load(ctx)
	if got := ids(m.VisitedList()); len(got) != 1 || got[0] != "a1" {
		t.Fatalf("visited after retry = %v", got)
	}
	if err := m.AddToBucketList(ctx, activity("a1")); !errors.Is(err, ErrInOtherList) {
		t.Fatalf("add visited activity to bucket: %v", err)
	}

	env.rec.Reset()
	m.Load(ctx)
	if env.rec.Calls("Query") != 0 {
		t.Fatalf("loaded manager queried %d times", env.rec.Calls("Query"))
	}
}

func TestUnauthenticatedAndInvalidInput(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)

	anon := env.manager("")
	if err := anon.AddToBucketList(ctx, activity("a1")); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("anon err = %v", err)
	}

	m := env.manager("u1")
	var verr *schema.ValidationError
	if err := m.AddToBucketList(ctx, models.Activity{}); !errors.As(err, &verr) {
		t.Fatalf("missing id err = %v", err)
	}
	if env.rec.Calls("Set") != 0 {
		t.Fatal("invalid input reached the store")
	}
}

func TestRatingAndNote(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	m := env.manager("u1")

	if err := m.SetRating(ctx, "a1", 3); !errors.Is(err, ErrNotListed) {
		t.Fatalf("rating unlisted err = %v", err)
	}
	_ = m.AddToVisitedList(ctx, activity("a1"))
	if err := m.SetRating(ctx, "a1", 6); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("rating 6 err = %v", err)
	}
	if err := m.SetRating(ctx, "a1", 5); err != nil {
		t.Fatal(err)
	}
	if err := m.SetNote(ctx, "a1", "  go at sunset "); err != nil {
		t.Fatal(err)
	}

	rec, _ := env.record(t, "u1", "a1")
	if rec.Rating != 5 || rec.Note != "go at sunset" || rec.Status != models.StatusVisited {
		t.Fatalf("record = %+v", rec)
	}
	if v := m.VisitedList()[0]; v.Rating != 5 || v.Note != "go at sunset" {
		t.Fatalf("local = %+v", v)
	}
}

func TestConcurrentOpsOnSameActivityStayExclusive(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	m := env.manager("u1")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); _ = m.AddToBucketList(ctx, activity("a1")) }()
		go func() { defer wg.Done(); _ = m.AddToVisitedList(ctx, activity("a1")) }()
	}
	wg.Wait()

	inBucket := len(m.BucketList())
	inVisited := len(m.VisitedList())
	if inBucket+inVisited != 1 {
		t.Fatalf("bucket %d visited %d, want exactly one entry", inBucket, inVisited)
	}
	rec, _ := env.record(t, "u1", "a1")
	want := models.StatusBucketList
	if inVisited == 1 {
		want = models.StatusVisited
	}
	if rec.Status != want {
		t.Fatalf("stored status %s disagrees with local state %s", rec.Status, want)
	}
}

func TestListsChangedEventCarriesSnapshot(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	var last models.ListsSnapshot
	env.bus.Subscribe(func(e events.Event) {
		if e.Kind == events.ListsChanged && e.UserID == "u1" {
			last = e.Payload.(models.ListsSnapshot)
		}
	})

	m := env.manager("u1")
	for i := 0; i < 3; i++ {
		_ = m.AddToBucketList(ctx, activity(fmt.Sprintf("a%d", i)))
	}
	if len(last.Bucket) != 3 {
		t.Fatalf("last snapshot bucket = %d", len(last.Bucket))
	}
}
