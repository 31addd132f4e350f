// Package storetest provides a testify mock of store.Store.
package storetest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/david-shiko/rubik-sub000/internal/store"
)

// MockStore records every primitive call. Variadic statement arguments are
// passed to the mock as a single []any.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Read(ctx context.Context, conn store.Conn, stmt store.Statement, dest any, args ...any) (bool, error) {
	ret := m.Called(ctx, conn, stmt, dest, args)
	return ret.Bool(0), ret.Error(1)
}

func (m *MockStore) Create(ctx context.Context, conn store.Conn, stmt store.Statement, args ...any) (*uint64, error) {
	ret := m.Called(ctx, conn, stmt, args)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).(*uint64), ret.Error(1)
}

func (m *MockStore) Update(ctx context.Context, conn store.Conn, stmt store.Statement, args ...any) error {
	return m.Called(ctx, conn, stmt, args).Error(0)
}

func (m *MockStore) Execute(ctx context.Context, conn store.Conn, stmt store.Statement, args ...any) error {
	return m.Called(ctx, conn, stmt, args).Error(0)
}

// OnExecute expects an Execute of stmt with any arguments.
func (m *MockStore) OnExecute(stmt store.Statement) *mock.Call {
	return m.On("Execute", mock.Anything, mock.Anything, stmt, mock.Anything)
}

// OnUpdate expects an Update of stmt with any arguments.
func (m *MockStore) OnUpdate(stmt store.Statement) *mock.Call {
	return m.On("Update", mock.Anything, mock.Anything, stmt, mock.Anything)
}

// OnRead expects a Read of stmt, runs fill on the destination pointer and
// returns found.
func (m *MockStore) OnRead(stmt store.Statement, fill func(dest any), found bool) *mock.Call {
	return m.On("Read", mock.Anything, mock.Anything, stmt, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			if fill != nil {
				fill(args.Get(3))
			}
		}).
		Return(found, nil)
}

// Statements lists, in order, the statements passed to method.
func (m *MockStore) Statements(method string) []store.Statement {
	var out []store.Statement
	for _, c := range m.Calls {
		if c.Method == method {
			out = append(out, c.Arguments.Get(2).(store.Statement))
		}
	}
	return out
}

// Ensure interface compliance.
var _ store.Store = (*MockStore)(nil)
