package service

import (
	"errors"
	"testing"

	"ecotour/internal/models"
)

type recordedPush struct {
	userID  uint
	event   string
	payload any
}

type fakeDispatcher struct {
	pushes []recordedPush
}

func (d *fakeDispatcher) PushToUser(userID uint, event string, payload any) {
	d.pushes = append(d.pushes, recordedPush{userID: userID, event: event, payload: payload})
}

type fakeNotifStore struct {
	notifs        map[uint]*models.Notification
	nextID        uint
	failSave      bool
	markReadCalls int
}

func newFakeNotifStore() *fakeNotifStore {
	return &fakeNotifStore{notifs: make(map[uint]*models.Notification), nextID: 1}
}

func (s *fakeNotifStore) Save(n *models.Notification) error {
	if s.failSave {
		return errors.New("store unavailable")
	}
	n.ID = s.nextID
	s.nextID++
	cp := *n
	s.notifs[n.ID] = &cp
	return nil
}

func (s *fakeNotifStore) Get(id uint) (*models.Notification, error) {
	n, ok := s.notifs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (s *fakeNotifStore) ListUnread(userID uint) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range s.notifs {
		if n.RecipientID == userID && !n.IsRead {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (s *fakeNotifStore) MarkRead(id uint) error {
	s.markReadCalls++
	n, ok := s.notifs[id]
	if !ok {
		return ErrNotFound
	}
	n.IsRead = true
	return nil
}

func (s *fakeNotifStore) Delete(id uint) error {
	if _, ok := s.notifs[id]; !ok {
		return ErrNotFound
	}
	delete(s.notifs, id)
	return nil
}

func TestNotificationService_CreatePersistsThenPushes(t *testing.T) {
	store := newFakeNotifStore()
	disp := &fakeDispatcher{}
	svc := NewNotificationService(store, disp)

	n, err := svc.Create(7, "New review", "someone reviewed your tour")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if n.ID == 0 {
		t.Error("Create() returned zero id")
	}
	if n.IsRead {
		t.Error("Create() notification should start unread")
	}
	if len(disp.pushes) != 1 {
		t.Fatalf("pushes = %d, want 1", len(disp.pushes))
	}
	p := disp.pushes[0]
	if p.userID != 7 || p.event != EventReceiveNotification {
		t.Errorf("push = (%d, %q), want (7, %q)", p.userID, p.event, EventReceiveNotification)
	}
	dto, ok := p.payload.(NotificationDTO)
	if !ok || dto.ID != n.ID {
		t.Errorf("push payload = %#v, want notification with id %d", p.payload, n.ID)
	}
}

func TestNotificationService_NoPushWhenPersistFails(t *testing.T) {
	store := newFakeNotifStore()
	store.failSave = true
	disp := &fakeDispatcher{}
	svc := NewNotificationService(store, disp)

	if _, err := svc.Create(7, "t", "m"); err == nil {
		t.Fatal("Create() should propagate store failure")
	}
	// 先持久化后推送：落库失败时任何连接都不能观察到事件
	if len(disp.pushes) != 0 {
		t.Errorf("pushes after failed persist = %d, want 0", len(disp.pushes))
	}
}

func TestNotificationService_CreateInvalidArgs(t *testing.T) {
	store := newFakeNotifStore()
	disp := &fakeDispatcher{}
	svc := NewNotificationService(store, disp)

	tests := []struct {
		name        string
		recipientID uint
		message     string
	}{
		{"zero recipient", 0, "hello"},
		{"empty message", 7, ""},
		{"blank message", 7, "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(tt.recipientID, "t", tt.message); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Create() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
	if len(store.notifs) != 0 || len(disp.pushes) != 0 {
		t.Error("invalid create must not persist or push anything")
	}
}

func TestNotificationService_CreateOrphanRecipientAccepted(t *testing.T) {
	// 收件人是否真实存在不做校验，孤儿通知按原样接受
	store := newFakeNotifStore()
	svc := NewNotificationService(store, &fakeDispatcher{})

	if _, err := svc.Create(999999, "t", "m"); err != nil {
		t.Errorf("Create() for unknown recipient error = %v, want nil", err)
	}
}

func TestNotificationService_MarkRead(t *testing.T) {
	store := newFakeNotifStore()
	svc := NewNotificationService(store, &fakeDispatcher{})
	n, _ := svc.Create(7, "t", "m")

	if err := svc.MarkRead(7, n.ID); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	got, _ := store.Get(n.ID)
	if !got.IsRead {
		t.Error("MarkRead() did not flip the read flag")
	}

	// 重复标记是幂等的成功，而且不会再写存储
	calls := store.markReadCalls
	if err := svc.MarkRead(7, n.ID); err != nil {
		t.Errorf("second MarkRead() error = %v, want nil", err)
	}
	if store.markReadCalls != calls {
		t.Error("second MarkRead() should be a no-op on the store")
	}
}

func TestNotificationService_MarkReadUnknownID(t *testing.T) {
	svc := NewNotificationService(newFakeNotifStore(), &fakeDispatcher{})
	if err := svc.MarkRead(7, 999999); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkRead(999999) error = %v, want ErrNotFound", err)
	}
}

func TestNotificationService_MarkReadOwnershipCheck(t *testing.T) {
	// 非收件人不能标记别人的通知
	store := newFakeNotifStore()
	svc := NewNotificationService(store, &fakeDispatcher{})
	n, _ := svc.Create(7, "t", "m")

	if err := svc.MarkRead(8, n.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("MarkRead() by non-recipient error = %v, want ErrForbidden", err)
	}
	got, _ := store.Get(n.ID)
	if got.IsRead {
		t.Error("foreign MarkRead() must not flip the flag")
	}
}

func TestNotificationService_Delete(t *testing.T) {
	store := newFakeNotifStore()
	svc := NewNotificationService(store, &fakeDispatcher{})
	n, _ := svc.Create(7, "t", "m")

	if err := svc.Delete(8, n.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Delete() by non-recipient error = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(7, n.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(7, n.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}

func TestNotificationService_ListUnreadSkipsRead(t *testing.T) {
	store := newFakeNotifStore()
	svc := NewNotificationService(store, &fakeDispatcher{})

	a, _ := svc.Create(7, "a", "first")
	svc.Create(7, "b", "second")
	svc.Create(8, "c", "other user")
	if err := svc.MarkRead(7, a.ID); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}

	list, err := svc.ListUnread(7)
	if err != nil {
		t.Fatalf("ListUnread() error = %v", err)
	}
	if len(list) != 1 || list[0].Title != "b" {
		t.Errorf("ListUnread(7) = %#v, want only the unread notification for user 7", list)
	}
}
