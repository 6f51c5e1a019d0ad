package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	domcart "example.com/framed-prints/internal/domain/cart"
	"example.com/framed-prints/pkg/broadcast"
)

var errDiskFull = errors.New("disk full")

// mockCartRepository behaves like the SQL repositories: rows keyed by id,
// a feed published after each write, quantity < 1 rejected.
type mockCartRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   []domcart.Line
	feed   *broadcast.Hub[[]domcart.Line]

	failOn map[string]error
	delay  time.Duration
	calls  map[string]int
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{
		nextID: 1,
		feed:   broadcast.NewHubWith([]domcart.Line{}),
		failOn: make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (m *mockCartRepository) fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn[op] = err
}

func (m *mockCartRepository) heal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn = make(map[string]error)
}

func (m *mockCartRepository) callCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *mockCartRepository) begin(op string) error {
	m.calls[op]++
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if err := m.failOn[op]; err != nil {
		return domcart.NewStorageError(op, err)
	}
	return nil
}

func (m *mockCartRepository) snapshot() []domcart.Line {
	out := make([]domcart.Line, len(m.rows))
	copy(out, m.rows)
	return out
}

func (m *mockCartRepository) Observe(ctx context.Context) (<-chan []domcart.Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("observe"); err != nil {
		return nil, err
	}
	return m.feed.Subscribe(ctx), nil
}

func (m *mockCartRepository) List(ctx context.Context) ([]domcart.Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("list"); err != nil {
		return nil, err
	}
	return m.snapshot(), nil
}

func (m *mockCartRepository) Insert(ctx context.Context, line domcart.Line) (domcart.Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("insert"); err != nil {
		return domcart.Line{}, err
	}
	if err := line.Validate(); err != nil {
		return domcart.Line{}, err
	}
	line.ID = m.nextID
	m.nextID++
	m.rows = append(m.rows, line)
	m.feed.Publish(m.snapshot())
	return line, nil
}

func (m *mockCartRepository) Update(ctx context.Context, line domcart.Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("update"); err != nil {
		return err
	}
	if err := line.Validate(); err != nil {
		return err
	}
	for i := range m.rows {
		if m.rows[i].ID == line.ID {
			m.rows[i] = line
		}
	}
	m.feed.Publish(m.snapshot())
	return nil
}

func (m *mockCartRepository) Remove(ctx context.Context, line domcart.Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("remove"); err != nil {
		return err
	}
	for i := range m.rows {
		if m.rows[i].ID == line.ID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			break
		}
	}
	m.feed.Publish(m.snapshot())
	return nil
}

func (m *mockCartRepository) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("clear"); err != nil {
		return err
	}
	m.rows = nil
	m.feed.Publish(m.snapshot())
	return nil
}

func (m *mockCartRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("count"); err != nil {
		return 0, err
	}
	return len(m.rows), nil
}

// externalWrite simulates another process changing the store.
func (m *mockCartRepository) externalWrite(lines []domcart.Line) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = lines
	for _, l := range lines {
		if l.ID >= m.nextID {
			m.nextID = l.ID + 1
		}
	}
	m.feed.Publish(m.snapshot())
}
