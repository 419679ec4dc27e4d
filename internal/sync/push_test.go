// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package sync

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/studiopipe/kitsubridge/internal/config"
	"github.com/studiopipe/kitsubridge/internal/events"
	"github.com/studiopipe/kitsubridge/internal/models"
	"github.com/studiopipe/kitsubridge/internal/storage"
)

const testProjectName = "test_project"

// recordingBus captures published events for assertions.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	return nil
}

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.Topic
	}
	return out
}

func newTestService(t *testing.T) (*Service, *storage.DB, *recordingBus) {
	t.Helper()

	db, err := storage.NewInMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	bus := &recordingBus{}
	svc := NewService(db, bus, nil, config.SyncConfig{DefaultUserPassword: "changeme"})

	project := &models.Project{
		Name:        testProjectName,
		Code:        "tst",
		FolderTypes: defaultFolderTypes(),
		TaskTypes:   []models.TaskType{{Name: "Animation", ShortName: "anim"}},
		Statuses: []models.Status{
			{Name: "Todo", ShortName: "todo", State: "not_started"},
			{Name: "Done", ShortName: "done", State: "done"},
		},
		Data: map[string]string{models.DataKitsuProjectID: "kitsu-project-1"},
	}
	if err := db.CreateProject(context.Background(), project); err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}
	return svc, db, bus
}

func folderEntity(kind models.EntityKind, id, name, parentID string, data map[string]interface{}) models.ExternalEntity {
	return models.ExternalEntity{
		ID:       id,
		Kind:     kind,
		RawType:  string(kind),
		Name:     name,
		ParentID: parentID,
		Data:     data,
	}
}

func taskEntity(id, name, folderKitsuID, taskType, status string) models.ExternalEntity {
	return models.ExternalEntity{
		ID:             id,
		Kind:           models.KindTask,
		RawType:        string(models.KindTask),
		Name:           name,
		EntityID:       folderKitsuID,
		TaskTypeName:   taskType,
		TaskStatusName: status,
	}
}

func pushOne(t *testing.T, svc *Service, entities ...models.ExternalEntity) models.SyncResult {
	t.Helper()
	result, err := svc.Push(context.Background(), models.PushRequest{
		ProjectName: testProjectName,
		Entities:    entities,
	})
	if err != nil {
		t.Fatalf("push failed: %v", err)
	}
	return result
}

func TestPushUnknownProject(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	_, err := svc.Push(context.Background(), models.PushRequest{
		ProjectName: "nope",
		Entities:    []models.ExternalEntity{folderEntity(models.KindShot, "sh1", "SH001", "", nil)},
	})
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("err = %v, want ErrProjectNotFound", err)
	}
}

func TestPushCreatesShotUnderSequence(t *testing.T) {
	t.Parallel()
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	pushOne(t, svc, folderEntity(models.KindSequence, "seq-1", "SQ01", "", nil))

	result := pushOne(t, svc, folderEntity(models.KindShot, "shot-1", "SH001", "seq-1",
		map[string]interface{}{"frame_in": "0", "frame_out": "100"}))

	shotID, ok := result.Folders["shot-1"]
	if !ok {
		t.Fatalf("result.Folders = %v, want shot-1 entry", result.Folders)
	}
	if len(result.Tasks) != 0 {
		t.Errorf("result.Tasks = %v, want empty", result.Tasks)
	}

	shot, err := db.GetFolder(ctx, shotID)
	if err != nil {
		t.Fatalf("failed to load shot: %v", err)
	}
	if shot.FolderType != "Shot" || shot.Name != "sh001" || shot.Label != "SH001" {
		t.Errorf("shot = %+v, want Shot/sh001/SH001", shot)
	}
	if shot.Attrib.FrameStart == nil || *shot.Attrib.FrameStart != 0 {
		t.Errorf("frameStart = %v, want 0", shot.Attrib.FrameStart)
	}
	if shot.Attrib.FrameEnd == nil || *shot.Attrib.FrameEnd != 100 {
		t.Errorf("frameEnd = %v, want 100", shot.Attrib.FrameEnd)
	}
	if shot.KitsuID() != "shot-1" {
		t.Errorf("kitsuId = %q, want shot-1", shot.KitsuID())
	}

	seq, err := db.FindFolderByKitsuID(ctx, testProjectName, "seq-1")
	if err != nil {
		t.Fatalf("failed to find sequence: %v", err)
	}
	if shot.ParentID != seq.ID {
		t.Errorf("shot parent = %q, want sequence %q", shot.ParentID, seq.ID)
	}

	// The sequence landed under the synthetic root bucket.
	bucket, err := db.FindFolderByKitsuID(ctx, testProjectName, "sequence")
	if err != nil {
		t.Fatalf("failed to find bucket: %v", err)
	}
	if seq.ParentID != bucket.ID {
		t.Errorf("sequence parent = %q, want bucket %q", seq.ParentID, bucket.ID)
	}
}

func TestPushIdempotence(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	shot := folderEntity(models.KindShot, "shot-1", "SH001", "",
		map[string]interface{}{"frame_in": "0", "frame_out": "100"})

	first := pushOne(t, svc, shot)
	if _, ok := first.Folders["shot-1"]; !ok {
		t.Fatalf("first push should create, got %v", first.Folders)
	}

	second := pushOne(t, svc, shot)
	if len(second.Folders) != 0 {
		t.Errorf("second push should be a no-op, got %v", second.Folders)
	}
}

func TestPushUpdateChangesFrameEnd(t *testing.T) {
	t.Parallel()
	svc, db, _ := newTestService(t)

	first := pushOne(t, svc, folderEntity(models.KindShot, "shot-1", "SH001", "",
		map[string]interface{}{"frame_in": "0", "frame_out": "100"}))
	createdID := first.Folders["shot-1"]

	second := pushOne(t, svc, folderEntity(models.KindShot, "shot-1", "SH001", "",
		map[string]interface{}{"frame_in": "0", "frame_out": "150"}))

	updatedID, ok := second.Folders["shot-1"]
	if !ok {
		t.Fatalf("update should appear in result, got %v", second.Folders)
	}
	if updatedID != createdID {
		t.Errorf("update minted a new id %q, want %q", updatedID, createdID)
	}

	folder, err := db.GetFolder(context.Background(), createdID)
	if err != nil {
		t.Fatalf("failed to load folder: %v", err)
	}
	if folder.Attrib.FrameEnd == nil || *folder.Attrib.FrameEnd != 150 {
		t.Errorf("frameEnd = %v, want 150", folder.Attrib.FrameEnd)
	}
}

func TestPushEndFrameDerivedFromFrames(t *testing.T) {
	t.Parallel()
	svc, db, _ := newTestService(t)

	entity := folderEntity(models.KindShot, "shot-1", "SH001", "",
		map[string]interface{}{"frame_in": "1001"})
	entity.NbFrames = intPtr(24)

	result := pushOne(t, svc, entity)

	folder, err := db.GetFolder(context.Background(), result.Folders["shot-1"])
	if err != nil {
		t.Fatalf("failed to load folder: %v", err)
	}
	if folder.Attrib.FrameEnd == nil || *folder.Attrib.FrameEnd != 1025 {
		t.Errorf("frameEnd = %v, want 1025", folder.Attrib.FrameEnd)
	}
}

func TestPushTasksProcessedAfterFolders(t *testing.T) {
	t.Parallel()
	svc, db, _ := newTestService(t)

	// Task first in input order; it must still resolve the shot.
	result := pushOne(t, svc,
		taskEntity("task-1", "animation", "shot-1", "Animation", "Todo"),
		folderEntity(models.KindShot, "shot-1", "SH001", "", nil),
	)

	taskID, ok := result.Tasks["task-1"]
	if !ok {
		t.Fatalf("result.Tasks = %v, want task-1 entry", result.Tasks)
	}
	task, err := db.GetTask(context.Background(), taskID)
	if err != nil {
		t.Fatalf("failed to load task: %v", err)
	}
	if task.FolderID != result.Folders["shot-1"] {
		t.Errorf("task folder = %q, want %q", task.FolderID, result.Folders["shot-1"])
	}
}

func TestPushSkipsTaskWithUnknownParent(t *testing.T) {
	t.Parallel()
	svc, db, _ := newTestService(t)

	result := pushOne(t, svc, taskEntity("task-1", "animation", "missing-shot", "Animation", "Todo"))

	if len(result.Tasks) != 0 {
		t.Errorf("result.Tasks = %v, want empty", result.Tasks)
	}
	if _, err := db.FindTaskByKitsuID(context.Background(), testProjectName, "task-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("task should not exist, err = %v", err)
	}
}

func TestPushSkipsFolderWithUnknownParent(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	result := pushOne(t, svc, folderEntity(models.KindShot, "shot-1", "SH001", "missing-seq", nil))
	if len(result.Folders) != 0 {
		t.Errorf("result.Folders = %v, want empty", result.Folders)
	}
}

func TestPushProvisionsStatusAndTaskType(t *testing.T) {
	t.Parallel()
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	pushOne(t, svc,
		folderEntity(models.KindShot, "shot-1", "SH001", "", nil),
		taskEntity("task-1", "grading", "shot-1", "Grading", "Brand New Status"),
	)

	project, err := db.GetProject(ctx, testProjectName)
	if err != nil {
		t.Fatalf("failed to load project: %v", err)
	}
	if !project.HasTaskType("Grading") {
		t.Error("task type Grading should have been provisioned")
	}
	if !project.HasStatus("Brand New Status") {
		t.Error("status Brand New Status should have been provisioned")
	}

	task, err := db.FindTaskByKitsuID(ctx, testProjectName, "task-1")
	if err != nil {
		t.Fatalf("failed to find task: %v", err)
	}
	if task.Status != "Brand New Status" || task.TaskType != "Grading" {
		t.Errorf("task = %s/%s, want Grading/Brand New Status", task.TaskType, task.Status)
	}
}

func TestPushProvisionsFolderType(t *testing.T) {
	t.Parallel()
	svc, db, _ := newTestService(t)

	pushOne(t, svc, folderEntity(models.KindEdit, "edit-1", "Main Edit", "", nil))

	project, err := db.GetProject(context.Background(), testProjectName)
	if err != nil {
		t.Fatalf("failed to load project: %v", err)
	}
	var found bool
	for _, ft := range project.FolderTypes {
		if ft.Name == "Edit" {
			found = true
			if ft.ShortName != "ed" || ft.Icon != "cut" {
				t.Errorf("Edit folder type = %+v, want shortName ed, icon cut", ft)
			}
		}
	}
	if !found {
		t.Error("folder type Edit should have been provisioned")
	}
}

func TestPushAssetsShareCategorySubfolder(t *testing.T) {
	t.Parallel()
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	props := folderEntity(models.KindAsset, "asset-1", "Chair", "", nil)
	props.EntityTypeID = "type-props"
	props.AssetTypeName = "Props"
	props2 := folderEntity(models.KindAsset, "asset-2", "Table", "", nil)
	props2.EntityTypeID = "type-props"
	props2.AssetTypeName = "Props"

	result := pushOne(t, svc, props, props2)
	if len(result.Folders) != 2 {
		t.Fatalf("result.Folders = %v, want 2 entries", result.Folders)
	}

	category, err := db.FindFolderByKitsuID(ctx, testProjectName, "type-props")
	if err != nil {
		t.Fatalf("failed to find category folder: %v", err)
	}
	bucket, err := db.FindFolderByKitsuID(ctx, testProjectName, "asset")
	if err != nil {
		t.Fatalf("failed to find Assets bucket: %v", err)
	}
	if category.ParentID != bucket.ID {
		t.Errorf("category parent = %q, want bucket %q", category.ParentID, bucket.ID)
	}

	for _, kitsuID := range []string{"asset-1", "asset-2"} {
		f, err := db.FindFolderByKitsuID(ctx, testProjectName, kitsuID)
		if err != nil {
			t.Fatalf("failed to find %s: %v", kitsuID, err)
		}
		if f.ParentID != category.ID {
			t.Errorf("%s parent = %q, want category %q", kitsuID, f.ParentID, category.ID)
		}
	}
}

func TestPushUnsupportedKindIgnored(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	result := pushOne(t, svc, models.ExternalEntity{
		ID:      "x-1",
		RawType: "Playlist",
		Name:    "whatever",
	})
	if len(result.Folders) != 0 || len(result.Tasks) != 0 {
		t.Errorf("result = %+v, want empty", result)
	}
}

func TestPushPersonCreatesUser(t *testing.T) {
	t.Parallel()
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	person := models.ExternalEntity{
		ID:        "person-1",
		Kind:      models.KindPerson,
		RawType:   string(models.KindPerson),
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@studio.test",
		Role:      "manager",
	}
	pushOne(t, svc, person)

	user, err := db.FindUserByKitsuID(ctx, "person-1")
	if err != nil {
		t.Fatalf("failed to find user: %v", err)
	}
	if user.Name != "jane.doe" {
		t.Errorf("user name = %q, want jane.doe", user.Name)
	}
	if !user.IsManager || user.IsAdmin {
		t.Errorf("user flags = admin:%v manager:%v, want manager only", user.IsAdmin, user.IsManager)
	}
	if user.PasswordHash == "" {
		t.Error("default password should have been hashed")
	}

	// A repeated push with a role change updates flags, keeps the hash.
	person.Role = "admin"
	pushOne(t, svc, person)
	user, err = db.FindUserByKitsuID(ctx, "person-1")
	if err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if !user.IsAdmin || user.IsManager {
		t.Errorf("user flags = admin:%v manager:%v, want admin only", user.IsAdmin, user.IsManager)
	}
	if user.PasswordHash == "" {
		t.Error("password hash should survive updates")
	}
}

func TestPushEmitsLifecycleEvents(t *testing.T) {
	t.Parallel()
	svc, _, bus := newTestService(t)

	pushOne(t, svc, folderEntity(models.KindShot, "shot-1", "SH001", "", nil))

	topics := bus.topics()
	// Bucket creation plus the shot itself.
	var created int
	for _, topic := range topics {
		if topic == "entity.folder.created" {
			created++
		}
	}
	if created != 2 {
		t.Errorf("entity.folder.created events = %d (topics %v), want 2", created, topics)
	}
}

func TestRemoveUnknownIsSilent(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	result, err := svc.Remove(context.Background(), models.RemoveRequest{
		ProjectName: testProjectName,
		Entities:    []models.EntityRef{{ID: "shot-1", Type: "Shot"}},
	})
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(result.Folders) != 0 || len(result.Tasks) != 0 {
		t.Errorf("result = %+v, want empty", result)
	}
}

func TestRemoveCascadesToDescendants(t *testing.T) {
	t.Parallel()
	svc, db, bus := newTestService(t)
	ctx := context.Background()

	pushOne(t, svc,
		folderEntity(models.KindSequence, "seq-1", "SQ01", "", nil),
		folderEntity(models.KindShot, "shot-1", "SH001", "seq-1", nil),
		taskEntity("task-1", "animation", "shot-1", "Animation", "Todo"),
	)

	result, err := svc.Remove(ctx, models.RemoveRequest{
		ProjectName: testProjectName,
		Entities:    []models.EntityRef{{ID: "seq-1", Type: "Sequence"}},
	})
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, ok := result.Folders["seq-1"]; !ok {
		t.Fatalf("result.Folders = %v, want seq-1 entry", result.Folders)
	}

	for _, kitsuID := range []string{"seq-1", "shot-1"} {
		if _, err := db.FindFolderByKitsuID(ctx, testProjectName, kitsuID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("folder %s should be gone, err = %v", kitsuID, err)
		}
	}
	if _, err := db.FindTaskByKitsuID(ctx, testProjectName, "task-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("task should be gone, err = %v", err)
	}

	var deleted bool
	for _, topic := range bus.topics() {
		if topic == "entity.folder.deleted" {
			deleted = true
		}
	}
	if !deleted {
		t.Error("expected an entity.folder.deleted event")
	}
}

func TestRemoveTask(t *testing.T) {
	t.Parallel()
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	pushOne(t, svc,
		folderEntity(models.KindShot, "shot-1", "SH001", "", nil),
		taskEntity("task-1", "animation", "shot-1", "Animation", "Todo"),
	)

	result, err := svc.Remove(ctx, models.RemoveRequest{
		ProjectName: testProjectName,
		Entities:    []models.EntityRef{{ID: "task-1", Type: "Task"}},
	})
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, ok := result.Tasks["task-1"]; !ok {
		t.Fatalf("result.Tasks = %v, want task-1 entry", result.Tasks)
	}
	if _, err := db.FindTaskByKitsuID(ctx, testProjectName, "task-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("task should be gone, err = %v", err)
	}
	// The shot folder survives.
	if _, err := db.FindFolderByKitsuID(ctx, testProjectName, "shot-1"); err != nil {
		t.Errorf("shot should survive task removal, err = %v", err)
	}
}

func TestCorrelationStableAcrossColdCache(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	result := pushOne(t, svc, folderEntity(models.KindShot, "shot-1", "SH001", "", nil))
	createdID := result.Folders["shot-1"]

	// Fresh context per resolve call: storage is the source of truth.
	for i := 0; i < 3; i++ {
		id, err := svc.resolveFolder(ctx, testProjectName, "shot-1", NewBatchContext())
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if id != createdID {
			t.Errorf("resolve = %q, want %q", id, createdID)
		}
	}
}
