package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
)

type fixture struct {
	users      *memory.UserRepository
	tickets    *memory.TicketRepository
	history    *memory.TicketHistoryRepository
	dispatcher events.Dispatcher
	published  []events.Event
	seq        int
	svc        *TicketService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:      memory.NewUserRepository(),
		tickets:    memory.NewTicketRepository(),
		history:    memory.NewTicketHistoryRepository(),
		dispatcher: events.NewInMemoryDispatcher(),
	}
	f.dispatcher.SubscribeAll(func(_ context.Context, e events.Event) error {
		f.published = append(f.published, e)
		return nil
	})
	assignments := NewAssignmentService(AssignmentDependencies{
		UserRepo:    f.users,
		HistoryRepo: f.history,
		Dispatcher:  f.dispatcher,
		Logger:      zap.NewNop(),
	})
	f.svc = NewTicketService(TicketDependencies{
		TicketRepo:     f.tickets,
		NoteRepo:       memory.NewNoteRepository(),
		AttachmentRepo: memory.NewAttachmentRepository(),
		UserRepo:       f.users,
		HistoryRepo:    f.history,
		Assignments:    assignments,
		Dispatcher:     f.dispatcher,
		Logger:         zap.NewNop(),
	})
	return f
}

func (f *fixture) addUser(t *testing.T, role domain.Role, status domain.UserStatus) domain.Identity {
	t.Helper()
	f.seq++
	u := &domain.User{
		Email:     fmt.Sprintf("%s-%d@example.com", role, f.seq),
		FirstName: "Test",
		LastName:  string(role),
		Role:      role,
		Status:    status,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return domain.Identity{UserID: u.ID, Role: role}
}

func ptr[T any](v T) *T {
	return &v
}
